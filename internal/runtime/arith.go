package runtime

import (
	"math"

	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

func checkTag(v javatype.Value, want javatype.Type) error {
	if v.Type != want {
		return diagnostics.New(diagnostics.TypeError, "expected %s, got %s", want, v.Type)
	}
	return nil
}

// checkReturnTag is checkTag for a method's return value, where a
// Null-tagged value is always a legal stand-in for a declared reference
// return: Null is distinct from Reference(0), but areturn of a null
// reference is ordinary, well-typed Java, not a type error.
func checkReturnTag(v javatype.Value, want javatype.Type) error {
	if want == javatype.TypeReference && v.Type == javatype.TypeNull {
		return nil
	}
	return checkTag(v, want)
}

func (vm *Interpreter) execBinaryArith(frame *Frame, inst bytecode.Instruction) error {
	rhs, err := frame.Pop()
	if err != nil {
		return err
	}
	lhs, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(lhs, inst.Type); err != nil {
		return err
	}
	if err := checkTag(rhs, inst.Type); err != nil {
		return err
	}

	switch inst.Type {
	case javatype.TypeInt:
		a, b := lhs.I, rhs.I
		switch inst.Op {
		case bytecode.OpAdd:
			frame.Push(javatype.Int(a + b))
		case bytecode.OpSub:
			frame.Push(javatype.Int(a - b))
		case bytecode.OpMul:
			frame.Push(javatype.Int(a * b))
		case bytecode.OpDiv:
			if b == 0 {
				return diagnostics.New(diagnostics.ArithmeticError, "/ by zero")
			}
			frame.Push(javatype.Int(a / b))
		case bytecode.OpRem:
			if b == 0 {
				return diagnostics.New(diagnostics.ArithmeticError, "/ by zero")
			}
			frame.Push(javatype.Int(a % b))
		}
	case javatype.TypeLong:
		a, b := lhs.L, rhs.L
		switch inst.Op {
		case bytecode.OpAdd:
			frame.Push(javatype.Long(a + b))
		case bytecode.OpSub:
			frame.Push(javatype.Long(a - b))
		case bytecode.OpMul:
			frame.Push(javatype.Long(a * b))
		case bytecode.OpDiv:
			if b == 0 {
				return diagnostics.New(diagnostics.ArithmeticError, "/ by zero")
			}
			frame.Push(javatype.Long(a / b))
		case bytecode.OpRem:
			if b == 0 {
				return diagnostics.New(diagnostics.ArithmeticError, "/ by zero")
			}
			frame.Push(javatype.Long(a % b))
		}
	case javatype.TypeFloat:
		a, b := lhs.F, rhs.F
		switch inst.Op {
		case bytecode.OpAdd:
			frame.Push(javatype.Float(a + b))
		case bytecode.OpSub:
			frame.Push(javatype.Float(a - b))
		case bytecode.OpMul:
			frame.Push(javatype.Float(a * b))
		case bytecode.OpDiv:
			frame.Push(javatype.Float(a / b))
		case bytecode.OpRem:
			frame.Push(javatype.Float(float32(math.Mod(float64(a), float64(b)))))
		}
	case javatype.TypeDouble:
		a, b := lhs.D, rhs.D
		switch inst.Op {
		case bytecode.OpAdd:
			frame.Push(javatype.Double(a + b))
		case bytecode.OpSub:
			frame.Push(javatype.Double(a - b))
		case bytecode.OpMul:
			frame.Push(javatype.Double(a * b))
		case bytecode.OpDiv:
			frame.Push(javatype.Double(a / b))
		case bytecode.OpRem:
			frame.Push(javatype.Double(math.Mod(a, b)))
		}
	default:
		return diagnostics.New(diagnostics.TypeError, "arithmetic on non-numeric type %s", inst.Type)
	}
	return nil
}

func (vm *Interpreter) execNeg(frame *Frame, inst bytecode.Instruction) error {
	v, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(v, inst.Type); err != nil {
		return err
	}
	switch inst.Type {
	case javatype.TypeInt:
		frame.Push(javatype.Int(-v.I))
	case javatype.TypeLong:
		frame.Push(javatype.Long(-v.L))
	case javatype.TypeFloat:
		frame.Push(javatype.Float(-v.F))
	case javatype.TypeDouble:
		frame.Push(javatype.Double(-v.D))
	default:
		return diagnostics.New(diagnostics.TypeError, "neg on non-numeric type %s", inst.Type)
	}
	return nil
}

// execShift implements Shl/Shr/UShr. The shift count is always popped as
// Int. UShr performs a true logical (zero-extending) shift, distinct from
// Shr's arithmetic (sign-extending) shift -- the two must diverge for
// negative operands or conditional logic built on unsigned comparisons
// breaks.
func (vm *Interpreter) execShift(frame *Frame, inst bytecode.Instruction) error {
	count, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(count, javatype.TypeInt); err != nil {
		return err
	}
	v, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(v, inst.Type); err != nil {
		return err
	}

	switch inst.Type {
	case javatype.TypeInt:
		shift := uint(count.I) & 31
		switch inst.Op {
		case bytecode.OpShl:
			frame.Push(javatype.Int(v.I << shift))
		case bytecode.OpShr:
			frame.Push(javatype.Int(v.I >> shift))
		case bytecode.OpUShr:
			frame.Push(javatype.Int(int32(uint32(v.I) >> shift)))
		}
	case javatype.TypeLong:
		shift := uint(count.I) & 63
		switch inst.Op {
		case bytecode.OpShl:
			frame.Push(javatype.Long(v.L << shift))
		case bytecode.OpShr:
			frame.Push(javatype.Long(v.L >> shift))
		case bytecode.OpUShr:
			frame.Push(javatype.Long(int64(uint64(v.L) >> shift)))
		}
	default:
		return diagnostics.New(diagnostics.TypeError, "shift on non-integral type %s", inst.Type)
	}
	return nil
}

func (vm *Interpreter) execBitwise(frame *Frame, inst bytecode.Instruction) error {
	rhs, err := frame.Pop()
	if err != nil {
		return err
	}
	lhs, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(lhs, inst.Type); err != nil {
		return err
	}
	if err := checkTag(rhs, inst.Type); err != nil {
		return err
	}

	switch inst.Type {
	case javatype.TypeInt:
		switch inst.Op {
		case bytecode.OpAnd:
			frame.Push(javatype.Int(lhs.I & rhs.I))
		case bytecode.OpOr:
			frame.Push(javatype.Int(lhs.I | rhs.I))
		case bytecode.OpXor:
			frame.Push(javatype.Int(lhs.I ^ rhs.I))
		}
	case javatype.TypeLong:
		switch inst.Op {
		case bytecode.OpAnd:
			frame.Push(javatype.Long(lhs.L & rhs.L))
		case bytecode.OpOr:
			frame.Push(javatype.Long(lhs.L | rhs.L))
		case bytecode.OpXor:
			frame.Push(javatype.Long(lhs.L ^ rhs.L))
		}
	default:
		return diagnostics.New(diagnostics.TypeError, "bitwise op on non-integral type %s", inst.Type)
	}
	return nil
}

// execConvert implements the Convert family, including saturating
// narrowing conversions for d2i/f2i/f2l/d2l: a plain language-level numeric
// cast from NaN or an out-of-range float does not produce Java's saturating
// result (NaN -> 0, +Inf -> MAX, -Inf -> MIN), so those are handled
// explicitly below rather than via a bare float64->int32 conversion.
func (vm *Interpreter) execConvert(frame *Frame, inst bytecode.Instruction) error {
	v, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(v, inst.Type); err != nil {
		return err
	}

	switch inst.Type {
	case javatype.TypeInt:
		switch inst.Type2 {
		case javatype.TypeLong:
			frame.Push(javatype.Long(int64(v.I)))
		case javatype.TypeFloat:
			frame.Push(javatype.Float(float32(v.I)))
		case javatype.TypeDouble:
			frame.Push(javatype.Double(float64(v.I)))
		case javatype.TypeByte:
			frame.Push(javatype.Int(int32(int8(v.I))))
		case javatype.TypeChar:
			frame.Push(javatype.Int(int32(uint16(v.I))))
		case javatype.TypeShort:
			frame.Push(javatype.Int(int32(int16(v.I))))
		default:
			return diagnostics.New(diagnostics.TypeError, "unsupported conversion int->%s", inst.Type2)
		}
	case javatype.TypeLong:
		switch inst.Type2 {
		case javatype.TypeInt:
			frame.Push(javatype.Int(int32(v.L)))
		case javatype.TypeFloat:
			frame.Push(javatype.Float(float32(v.L)))
		case javatype.TypeDouble:
			frame.Push(javatype.Double(float64(v.L)))
		default:
			return diagnostics.New(diagnostics.TypeError, "unsupported conversion long->%s", inst.Type2)
		}
	case javatype.TypeFloat:
		switch inst.Type2 {
		case javatype.TypeInt:
			frame.Push(javatype.Int(saturateToInt32(float64(v.F))))
		case javatype.TypeLong:
			frame.Push(javatype.Long(saturateToInt64(float64(v.F))))
		case javatype.TypeDouble:
			frame.Push(javatype.Double(float64(v.F)))
		default:
			return diagnostics.New(diagnostics.TypeError, "unsupported conversion float->%s", inst.Type2)
		}
	case javatype.TypeDouble:
		switch inst.Type2 {
		case javatype.TypeInt:
			frame.Push(javatype.Int(saturateToInt32(v.D)))
		case javatype.TypeLong:
			frame.Push(javatype.Long(saturateToInt64(v.D)))
		case javatype.TypeFloat:
			frame.Push(javatype.Float(float32(v.D)))
		default:
			return diagnostics.New(diagnostics.TypeError, "unsupported conversion double->%s", inst.Type2)
		}
	default:
		return diagnostics.New(diagnostics.TypeError, "conversion from non-numeric type %s", inst.Type)
	}
	return nil
}

func saturateToInt32(f float64) int32 {
	if math.IsNaN(f) {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(f)
}

func saturateToInt64(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}

// execCompare implements LCmp, FCmpL, FCmpG, DCmpL, DCmpG. The L/G suffix
// on the float/double comparisons differs only in NaN ordering: L produces
// -1 when either operand is NaN, G produces +1. Leaving either half
// unimplemented breaks any conditional logic built on floating-point
// comparisons (x <= y is normally compiled as fcmpg + ifle, so the NaN
// branch of fcmpg specifically has to be right).
func (vm *Interpreter) execCompare(frame *Frame, inst bytecode.Instruction) error {
	rhs, err := frame.Pop()
	if err != nil {
		return err
	}
	lhs, err := frame.Pop()
	if err != nil {
		return err
	}

	switch inst.Op {
	case bytecode.OpLCmp:
		if err := checkTag(lhs, javatype.TypeLong); err != nil {
			return err
		}
		if err := checkTag(rhs, javatype.TypeLong); err != nil {
			return err
		}
		frame.Push(javatype.Int(int32(threeWay(lhs.L, rhs.L))))
		return nil
	case bytecode.OpFCmpL, bytecode.OpFCmpG:
		if err := checkTag(lhs, javatype.TypeFloat); err != nil {
			return err
		}
		if err := checkTag(rhs, javatype.TypeFloat); err != nil {
			return err
		}
		if math.IsNaN(float64(lhs.F)) || math.IsNaN(float64(rhs.F)) {
			if inst.Op == bytecode.OpFCmpL {
				frame.Push(javatype.Int(-1))
			} else {
				frame.Push(javatype.Int(1))
			}
			return nil
		}
		frame.Push(javatype.Int(int32(threeWayF(float64(lhs.F), float64(rhs.F)))))
		return nil
	case bytecode.OpDCmpL, bytecode.OpDCmpG:
		if err := checkTag(lhs, javatype.TypeDouble); err != nil {
			return err
		}
		if err := checkTag(rhs, javatype.TypeDouble); err != nil {
			return err
		}
		if math.IsNaN(lhs.D) || math.IsNaN(rhs.D) {
			if inst.Op == bytecode.OpDCmpL {
				frame.Push(javatype.Int(-1))
			} else {
				frame.Push(javatype.Int(1))
			}
			return nil
		}
		frame.Push(javatype.Int(int32(threeWayF(lhs.D, rhs.D))))
		return nil
	}
	return diagnostics.New(diagnostics.Unimplemented, "comparison op %d", inst.Op)
}

func threeWay(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func threeWayF(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
