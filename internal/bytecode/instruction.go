package bytecode

import "github.com/ghaldin/gojvm/internal/javatype"

// Op names the collapsed instruction family. Per-type opcode families
// (iadd/ladd/fadd/dadd, iload/lload/..., …) are represented once, with the
// operand type carried in the Instruction's Type field instead of in Op
// itself.
type Op int

const (
	OpNop Op = iota
	OpAConstNull
	OpConst // Instruction.Value holds the pushed constant
	OpLoadConst // Instruction.CPIndex: ldc/ldc_w/ldc2_w
	OpLoad      // Instruction.LocalIndex, Type
	OpStore     // Instruction.LocalIndex, Type
	OpALoad     // Instruction.Type: element type
	OpAStore    // Instruction.Type: element type
	OpIInc      // Instruction.LocalIndex, IncBy
	OpPop
	OpPop2
	OpDup
	OpDupX1
	OpDupX2
	OpDup2
	OpDup2X1
	OpDup2X2
	OpSwap
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpShl
	OpShr
	OpUShr
	OpAnd
	OpOr
	OpXor
	OpConvert // Instruction.Type (from), Type2 (to)
	OpLCmp
	OpFCmpL
	OpFCmpG
	OpDCmpL
	OpDCmpG
	OpIf        // Instruction.Offset, Cmp
	OpIfICmp    // Instruction.Offset, Cmp
	OpIfNull    // Instruction.Offset
	OpIfNonNull // Instruction.Offset
	OpGoto      // Instruction.Offset
	OpJsr       // Instruction.Offset
	OpRet       // Instruction.LocalIndex
	OpReturn    // Instruction.Type (Null = return;)
	OpGetStatic
	OpPutStatic
	OpGetField
	OpPutField
	OpInvokeVirtual
	OpInvokeSpecial
	OpInvokeStatic
	OpInvokeInterface
	OpInvokeDynamic
	OpNew
	OpNewArray  // Instruction.Type: element type
	OpANewArray // Instruction.CPIndex: element class
	OpArrayLength
	OpMultiANewArray // Instruction.CPIndex, Dims
	OpAThrow
	OpCheckCast
	OpInstanceOf
	OpMonitorEnter
	OpMonitorExit
	OpWide
	OpTableSwitch
	OpLookupSwitch
	OpBreakpoint
)

// Instruction is the decoder's typed output. Only the fields relevant to
// Op are meaningful; the rest are zero.
type Instruction struct {
	Op         Op
	Value      javatype.Value    // OpConst
	Type       javatype.Type     // operand type for typed families
	Type2      javatype.Type     // OpConvert's target type
	LocalIndex int               // OpLoad/OpStore/OpIInc/OpRet
	IncBy      int32             // OpIInc
	CPIndex    int               // constant-pool index, field/method/class ops
	Offset     int               // byte-relative branch displacement
	Cmp        javatype.Comparison
	Dims       uint8 // OpMultiANewArray
	Len        int   // instruction length in bytes; jsr and invoke add it to pc to reach the next instruction
}
