package bytecode

import (
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// Decode translates a method's raw code bytes into a vector of decoded
// instructions the same length as code: instructions[k] is the decoded
// instruction whose first byte was at offset k, and every slot in
// [k+1, k+len) is Nop. This is what lets a branch's byte-relative offset be
// applied directly to the decoded index (pc += offset) with no side table.
func Decode(code []byte) ([]Instruction, error) {
	out := make([]Instruction, len(code))
	pc := 0
	for pc < len(code) {
		inst, length, err := decodeOne(code, pc)
		if err != nil {
			return nil, err
		}
		inst.Len = length
		out[pc] = inst
		for i := 1; i < length; i++ {
			out[pc+i] = Instruction{Op: OpNop, Len: 1}
		}
		pc += length
	}
	return out, nil
}

func u8(code []byte, at int) (uint8, error) {
	if at >= len(code) {
		return 0, diagnostics.New(diagnostics.ParseError, "truncated bytecode at offset %d", at)
	}
	return code[at], nil
}

func u16(code []byte, at int) (uint16, error) {
	if at+1 >= len(code) {
		return 0, diagnostics.New(diagnostics.ParseError, "truncated bytecode at offset %d", at)
	}
	return uint16(code[at])<<8 | uint16(code[at+1]), nil
}

func i16(code []byte, at int) (int16, error) {
	v, err := u16(code, at)
	return int16(v), err
}

func u32(code []byte, at int) (uint32, error) {
	if at+3 >= len(code) {
		return 0, diagnostics.New(diagnostics.ParseError, "truncated bytecode at offset %d", at)
	}
	return uint32(code[at])<<24 | uint32(code[at+1])<<16 | uint32(code[at+2])<<8 | uint32(code[at+3]), nil
}

func i32(code []byte, at int) (int32, error) {
	v, err := u32(code, at)
	return int32(v), err
}

// decodeOne decodes the instruction starting at pc and returns it along
// with its byte length.
func decodeOne(code []byte, pc int) (Instruction, int, error) {
	op, err := u8(code, pc)
	if err != nil {
		return Instruction{}, 0, err
	}

	switch op {
	case opNop:
		return Instruction{Op: OpNop}, 1, nil
	case opAConstNull:
		return Instruction{Op: OpAConstNull, Value: javatype.Null()}, 1, nil

	case opIConstM1, 0x03, 0x04, 0x05, 0x06, 0x07, opIConst5:
		return Instruction{Op: OpConst, Value: javatype.Int(int32(op) - 0x03)}, 1, nil
	case opLConst0, opLConst1:
		return Instruction{Op: OpConst, Value: javatype.Long(int64(op) - opLConst0)}, 1, nil
	case opFConst0, 0x0C, opFConst2:
		return Instruction{Op: OpConst, Value: javatype.Float(float32(op) - opFConst0)}, 1, nil
	case opDConst0, opDConst1:
		return Instruction{Op: OpConst, Value: javatype.Double(float64(op) - opDConst0)}, 1, nil

	case opBipush:
		b, err := u8(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpConst, Value: javatype.Int(int32(int8(b)))}, 2, nil
	case opSipush:
		s, err := i16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpConst, Value: javatype.Int(int32(s))}, 3, nil

	case opLdc:
		idx, err := u8(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpLoadConst, CPIndex: int(idx)}, 2, nil
	case opLdcW, opLdc2W:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpLoadConst, CPIndex: int(idx)}, 3, nil

	case opILoad, opLLoad, opFLoad, opDLoad, opALoad:
		idx, err := u8(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpLoad, LocalIndex: int(idx), Type: loadStoreType(op)}, 2, nil
	case opIStore, opLStore, opFStore, opDStore, opAStore:
		idx, err := u8(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpStore, LocalIndex: int(idx), Type: loadStoreType(op)}, 2, nil

	case opILoad0, 0x1B, 0x1C, opILoad3:
		return Instruction{Op: OpLoad, LocalIndex: int(op - opILoad0), Type: javatype.TypeInt}, 1, nil
	case opLLoad0, 0x1F, 0x20, opLLoad3:
		return Instruction{Op: OpLoad, LocalIndex: int(op - opLLoad0), Type: javatype.TypeLong}, 1, nil
	case opFLoad0, 0x23, 0x24, opFLoad3:
		return Instruction{Op: OpLoad, LocalIndex: int(op - opFLoad0), Type: javatype.TypeFloat}, 1, nil
	case opDLoad0, 0x27, 0x28, opDLoad3:
		return Instruction{Op: OpLoad, LocalIndex: int(op - opDLoad0), Type: javatype.TypeDouble}, 1, nil
	case opALoad0, 0x2B, 0x2C, opALoad3:
		return Instruction{Op: OpLoad, LocalIndex: int(op - opALoad0), Type: javatype.TypeReference}, 1, nil

	case opIStore0, 0x3C, 0x3D, opIStore3:
		return Instruction{Op: OpStore, LocalIndex: int(op - opIStore0), Type: javatype.TypeInt}, 1, nil
	case opLStore0, 0x40, 0x41, opLStore3:
		return Instruction{Op: OpStore, LocalIndex: int(op - opLStore0), Type: javatype.TypeLong}, 1, nil
	case opFStore0, 0x44, 0x45, opFStore3:
		return Instruction{Op: OpStore, LocalIndex: int(op - opFStore0), Type: javatype.TypeFloat}, 1, nil
	case opDStore0, 0x48, 0x49, opDStore3:
		return Instruction{Op: OpStore, LocalIndex: int(op - opDStore0), Type: javatype.TypeDouble}, 1, nil
	case opAStore0, 0x4C, 0x4D, opAStore3:
		return Instruction{Op: OpStore, LocalIndex: int(op - opAStore0), Type: javatype.TypeReference}, 1, nil

	case opIALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeInt}, 1, nil
	case opLALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeLong}, 1, nil
	case opFALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeFloat}, 1, nil
	case opDALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeDouble}, 1, nil
	case opAALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeReference}, 1, nil
	case opBALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeByte}, 1, nil
	case opCALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeChar}, 1, nil
	case opSALoad:
		return Instruction{Op: OpALoad, Type: javatype.TypeShort}, 1, nil

	case opIAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeInt}, 1, nil
	case opLAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeLong}, 1, nil
	case opFAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeFloat}, 1, nil
	case opDAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeDouble}, 1, nil
	case opAAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeReference}, 1, nil
	case opBAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeByte}, 1, nil
	case opCAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeChar}, 1, nil
	case opSAStore:
		return Instruction{Op: OpAStore, Type: javatype.TypeShort}, 1, nil

	case opPop:
		return Instruction{Op: OpPop}, 1, nil
	case opPop2:
		return Instruction{Op: OpPop2}, 1, nil
	case opDup:
		return Instruction{Op: OpDup}, 1, nil
	case opDupX1:
		return Instruction{Op: OpDupX1}, 1, nil
	case opDupX2:
		return Instruction{Op: OpDupX2}, 1, nil
	case opDup2:
		return Instruction{Op: OpDup2}, 1, nil
	case opDup2X1:
		return Instruction{Op: OpDup2X1}, 1, nil
	case opDup2X2:
		return Instruction{Op: OpDup2X2}, 1, nil
	case opSwap:
		return Instruction{Op: OpSwap}, 1, nil

	case opIAdd, opLAdd, opFAdd, opDAdd:
		return Instruction{Op: OpAdd, Type: arithType(op, opIAdd)}, 1, nil
	case opISub, opLSub, opFSub, opDSub:
		return Instruction{Op: OpSub, Type: arithType(op, opISub)}, 1, nil
	case opIMul, opLMul, opFMul, opDMul:
		return Instruction{Op: OpMul, Type: arithType(op, opIMul)}, 1, nil
	case opIDiv, opLDiv, opFDiv, opDDiv:
		return Instruction{Op: OpDiv, Type: arithType(op, opIDiv)}, 1, nil
	case opIRem, opLRem, opFRem, opDRem:
		return Instruction{Op: OpRem, Type: arithType(op, opIRem)}, 1, nil
	case opINeg, opLNeg, opFNeg, opDNeg:
		return Instruction{Op: OpNeg, Type: arithType(op, opINeg)}, 1, nil
	case opIShl, opLShl:
		return Instruction{Op: OpShl, Type: shiftType(op, opIShl)}, 1, nil
	case opIShr, opLShr:
		return Instruction{Op: OpShr, Type: shiftType(op, opIShr)}, 1, nil
	case opIUShr, opLUShr:
		return Instruction{Op: OpUShr, Type: shiftType(op, opIUShr)}, 1, nil
	case opIAnd, opLAnd:
		return Instruction{Op: OpAnd, Type: shiftType(op, opIAnd)}, 1, nil
	case opIOr, opLOr:
		return Instruction{Op: OpOr, Type: shiftType(op, opIOr)}, 1, nil
	case opIXor, opLXor:
		return Instruction{Op: OpXor, Type: shiftType(op, opIXor)}, 1, nil

	case opIInc:
		idx, err := u8(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		b, err := u8(code, pc+2)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpIInc, LocalIndex: int(idx), IncBy: int32(int8(b))}, 3, nil

	case opI2L:
		return Instruction{Op: OpConvert, Type: javatype.TypeInt, Type2: javatype.TypeLong}, 1, nil
	case opI2F:
		return Instruction{Op: OpConvert, Type: javatype.TypeInt, Type2: javatype.TypeFloat}, 1, nil
	case opI2D:
		return Instruction{Op: OpConvert, Type: javatype.TypeInt, Type2: javatype.TypeDouble}, 1, nil
	case opL2I:
		return Instruction{Op: OpConvert, Type: javatype.TypeLong, Type2: javatype.TypeInt}, 1, nil
	case opL2F:
		return Instruction{Op: OpConvert, Type: javatype.TypeLong, Type2: javatype.TypeFloat}, 1, nil
	case opL2D:
		return Instruction{Op: OpConvert, Type: javatype.TypeLong, Type2: javatype.TypeDouble}, 1, nil
	case opF2I:
		return Instruction{Op: OpConvert, Type: javatype.TypeFloat, Type2: javatype.TypeInt}, 1, nil
	case opF2L:
		return Instruction{Op: OpConvert, Type: javatype.TypeFloat, Type2: javatype.TypeLong}, 1, nil
	case opF2D:
		return Instruction{Op: OpConvert, Type: javatype.TypeFloat, Type2: javatype.TypeDouble}, 1, nil
	case opD2I:
		return Instruction{Op: OpConvert, Type: javatype.TypeDouble, Type2: javatype.TypeInt}, 1, nil
	case opD2L:
		return Instruction{Op: OpConvert, Type: javatype.TypeDouble, Type2: javatype.TypeLong}, 1, nil
	case opD2F:
		return Instruction{Op: OpConvert, Type: javatype.TypeDouble, Type2: javatype.TypeFloat}, 1, nil
	case opI2B:
		return Instruction{Op: OpConvert, Type: javatype.TypeInt, Type2: javatype.TypeByte}, 1, nil
	case opI2C:
		return Instruction{Op: OpConvert, Type: javatype.TypeInt, Type2: javatype.TypeChar}, 1, nil
	case opI2S:
		return Instruction{Op: OpConvert, Type: javatype.TypeInt, Type2: javatype.TypeShort}, 1, nil

	case opLCmp:
		return Instruction{Op: OpLCmp}, 1, nil
	case opFCmpL:
		return Instruction{Op: OpFCmpL}, 1, nil
	case opFCmpG:
		return Instruction{Op: OpFCmpG}, 1, nil
	case opDCmpL:
		return Instruction{Op: OpDCmpL}, 1, nil
	case opDCmpG:
		return Instruction{Op: OpDCmpG}, 1, nil

	case opIfEq, opIfNe, opIfLt, opIfGe, opIfGt, opIfLe:
		off, err := i16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpIf, Offset: int(off), Cmp: ifCmp(op)}, 3, nil
	case opIfICmpEq, opIfICmpNe, opIfICmpLt, opIfICmpGe, opIfICmpGt, opIfICmpLe:
		off, err := i16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpIfICmp, Offset: int(off), Cmp: ifICmpCmp(op)}, 3, nil
	case opIfNull:
		off, err := i16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpIfNull, Offset: int(off)}, 3, nil
	case opIfNonNull:
		off, err := i16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpIfNonNull, Offset: int(off)}, 3, nil
	case opGoto:
		off, err := i16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpGoto, Offset: int(off)}, 3, nil
	case opGotoW:
		off, err := i32(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpGoto, Offset: int(off)}, 5, nil
	case opJsr:
		off, err := i16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpJsr, Offset: int(off)}, 3, nil
	case opJsrW:
		off, err := i32(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpJsr, Offset: int(off)}, 5, nil
	case opRet:
		idx, err := u8(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpRet, LocalIndex: int(idx)}, 2, nil

	case opIReturn:
		return Instruction{Op: OpReturn, Type: javatype.TypeInt}, 1, nil
	case opLReturn:
		return Instruction{Op: OpReturn, Type: javatype.TypeLong}, 1, nil
	case opFReturn:
		return Instruction{Op: OpReturn, Type: javatype.TypeFloat}, 1, nil
	case opDReturn:
		return Instruction{Op: OpReturn, Type: javatype.TypeDouble}, 1, nil
	case opAReturn:
		return Instruction{Op: OpReturn, Type: javatype.TypeReference}, 1, nil
	case opReturn:
		return Instruction{Op: OpReturn, Type: javatype.TypeNull}, 1, nil

	case opGetStatic:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpGetStatic, CPIndex: int(idx)}, 3, nil
	case opPutStatic:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpPutStatic, CPIndex: int(idx)}, 3, nil
	case opGetField:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpGetField, CPIndex: int(idx)}, 3, nil
	case opPutField:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpPutField, CPIndex: int(idx)}, 3, nil

	case opInvokeVirtual:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpInvokeVirtual, CPIndex: int(idx)}, 3, nil
	case opInvokeSpecial:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpInvokeSpecial, CPIndex: int(idx)}, 3, nil
	case opInvokeStatic:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpInvokeStatic, CPIndex: int(idx)}, 3, nil
	case opInvokeInterface:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		// count and a trailing zero byte, both unused by this core.
		return Instruction{Op: OpInvokeInterface, CPIndex: int(idx)}, 5, nil
	case opInvokeDynamic:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpInvokeDynamic, CPIndex: int(idx)}, 5, nil

	case opNew:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpNew, CPIndex: int(idx)}, 3, nil
	case opNewArray:
		at, err := u8(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		t, err := atypeToType(at)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpNewArray, Type: t}, 2, nil
	case opANewArray:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpANewArray, CPIndex: int(idx)}, 3, nil
	case opArrayLength:
		return Instruction{Op: OpArrayLength}, 1, nil
	case opMultiANewArray:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		dims, err := u8(code, pc+3)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpMultiANewArray, CPIndex: int(idx), Dims: dims}, 4, nil

	case opAThrow:
		return Instruction{Op: OpAThrow}, 1, nil
	case opCheckCast:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpCheckCast, CPIndex: int(idx)}, 3, nil
	case opInstanceOf:
		idx, err := u16(code, pc+1)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: OpInstanceOf, CPIndex: int(idx)}, 3, nil
	case opMonitorEnter:
		return Instruction{Op: OpMonitorEnter}, 1, nil
	case opMonitorExit:
		return Instruction{Op: OpMonitorExit}, 1, nil

	case opTableSwitch:
		return decodeTableSwitch(code, pc)
	case opLookupSwitch:
		return decodeLookupSwitch(code, pc)
	case opWide:
		return decodeWide(code, pc)
	case opBreakpoint:
		return Instruction{Op: OpBreakpoint}, 1, nil

	default:
		return Instruction{}, 0, diagnostics.New(diagnostics.ParseError, "unsupported opcode 0x%02X at offset %d", op, pc)
	}
}

func loadStoreType(op uint8) javatype.Type {
	switch op {
	case opILoad, opIStore:
		return javatype.TypeInt
	case opLLoad, opLStore:
		return javatype.TypeLong
	case opFLoad, opFStore:
		return javatype.TypeFloat
	case opDLoad, opDStore:
		return javatype.TypeDouble
	default:
		return javatype.TypeReference
	}
}

// arithType maps one of a same-shaped iXXX/lXXX/fXXX/dXXX opcode quartet
// (base offsets 0,1,2,3) to its operand type, given the quartet's base
// (integer) opcode value.
func arithType(op, base uint8) javatype.Type {
	switch op - base {
	case 0:
		return javatype.TypeInt
	case 1:
		return javatype.TypeLong
	case 2:
		return javatype.TypeFloat
	default:
		return javatype.TypeDouble
	}
}

// shiftType maps an iXXX/lXXX pair (shift/bitwise ops have no float/double
// forms) to its operand type.
func shiftType(op, base uint8) javatype.Type {
	if op == base {
		return javatype.TypeInt
	}
	return javatype.TypeLong
}

func ifCmp(op uint8) javatype.Comparison {
	switch op {
	case opIfEq:
		return javatype.CmpEq
	case opIfNe:
		return javatype.CmpNe
	case opIfLt:
		return javatype.CmpLt
	case opIfGe:
		return javatype.CmpGe
	case opIfGt:
		return javatype.CmpGt
	default:
		return javatype.CmpLe
	}
}

func ifICmpCmp(op uint8) javatype.Comparison {
	switch op {
	case opIfICmpEq:
		return javatype.CmpEq
	case opIfICmpNe:
		return javatype.CmpNe
	case opIfICmpLt:
		return javatype.CmpLt
	case opIfICmpGe:
		return javatype.CmpGe
	case opIfICmpGt:
		return javatype.CmpGt
	default:
		return javatype.CmpLe
	}
}

func atypeToType(at uint8) (javatype.Type, error) {
	switch at {
	case atBoolean:
		return javatype.TypeBoolean, nil
	case atChar:
		return javatype.TypeChar, nil
	case atFloat:
		return javatype.TypeFloat, nil
	case atDouble:
		return javatype.TypeDouble, nil
	case atByte:
		return javatype.TypeByte, nil
	case atShort:
		return javatype.TypeShort, nil
	case atInt:
		return javatype.TypeInt, nil
	case atLong:
		return javatype.TypeLong, nil
	default:
		return javatype.TypeNull, diagnostics.New(diagnostics.ParseError, "unknown newarray atype %d", at)
	}
}

// decodeTableSwitch and decodeLookupSwitch are accepted syntactically
// but the interpreter reports Unimplemented on
// execution; the decoder still needs to consume the right number of bytes
// (including the 0-3 padding bytes to the next 4-byte boundary) so
// subsequent instructions decode correctly.
func decodeTableSwitch(code []byte, pc int) (Instruction, int, error) {
	pad := (4 - (pc+1)%4) % 4
	p := pc + 1 + pad
	if p+12 > len(code) {
		return Instruction{}, 0, diagnostics.New(diagnostics.ParseError, "truncated tableswitch at %d", pc)
	}
	low, _ := i32(code, p+4)
	high, _ := i32(code, p+8)
	n := int(high) - int(low) + 1
	if n < 0 {
		n = 0
	}
	length := (p + 12 + n*4) - pc
	return Instruction{Op: OpTableSwitch}, length, nil
}

func decodeLookupSwitch(code []byte, pc int) (Instruction, int, error) {
	pad := (4 - (pc+1)%4) % 4
	p := pc + 1 + pad
	if p+8 > len(code) {
		return Instruction{}, 0, diagnostics.New(diagnostics.ParseError, "truncated lookupswitch at %d", pc)
	}
	npairs, _ := i32(code, p+4)
	length := (p + 8 + int(npairs)*8) - pc
	return Instruction{Op: OpLookupSwitch}, length, nil
}

// decodeWide handles the `wide` prefix. Execution reports Unimplemented;
// decoding just needs to consume the correct length to keep later offsets
// aligned.
func decodeWide(code []byte, pc int) (Instruction, int, error) {
	modified, err := u8(code, pc+1)
	if err != nil {
		return Instruction{}, 0, err
	}
	if modified == opIInc {
		return Instruction{Op: OpWide}, 6, nil
	}
	return Instruction{Op: OpWide}, 4, nil
}
