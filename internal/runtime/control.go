package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

func isWide(v javatype.Value) bool { return v.Type.IsWide() }

// execPop2 pops one wide (Long/Double) value or two cat-1 values, since a
// wide value occupies a single operand-stack slot here (see frame.go) and
// an unconditional double-pop would also consume the value beneath it.
func (vm *Interpreter) execPop2(frame *Frame) error {
	v, err := frame.Pop()
	if err != nil {
		return err
	}
	if isWide(v) {
		return nil
	}
	_, err = frame.Pop()
	return err
}

// execStackShuffle implements Dup/DupX1/DupX2/Dup2/Dup2X1/Dup2X2/Swap,
// branching on the cat-1/cat-2 category of the top-of-stack value(s): a
// naive pop-N/push-2N implementation is wrong whenever a Long or Double
// sits at or near the top, since those occupy a single wide slot rather
// than two ordinary ones.
func (vm *Interpreter) execStackShuffle(frame *Frame, op bytecode.Op) error {
	switch op {
	case bytecode.OpDup:
		v, err := frame.Peek(0)
		if err != nil {
			return err
		}
		frame.Push(v)
		return nil

	case bytecode.OpDupX1:
		v1, err := frame.Pop()
		if err != nil {
			return err
		}
		v2, err := frame.Pop()
		if err != nil {
			return err
		}
		frame.Push(v1)
		frame.Push(v2)
		frame.Push(v1)
		return nil

	case bytecode.OpDupX2:
		v1, err := frame.Pop()
		if err != nil {
			return err
		}
		v2, err := frame.Peek(0)
		if err != nil {
			return err
		}
		if isWide(v2) {
			// form 2: value1 cat1, value2 cat2.
			frame.Pop()
			frame.Push(v1)
			frame.Push(v2)
			frame.Push(v1)
			return nil
		}
		frame.Pop()
		v3, err := frame.Pop()
		if err != nil {
			return err
		}
		frame.Push(v1)
		frame.Push(v3)
		frame.Push(v2)
		frame.Push(v1)
		return nil

	case bytecode.OpDup2:
		v1, err := frame.Peek(0)
		if err != nil {
			return err
		}
		if isWide(v1) {
			frame.Push(v1)
			return nil
		}
		frame.Pop()
		v2, err := frame.Pop()
		if err != nil {
			return err
		}
		frame.Push(v2)
		frame.Push(v1)
		frame.Push(v2)
		frame.Push(v1)
		return nil

	case bytecode.OpDup2X1:
		v1, err := frame.Pop()
		if err != nil {
			return err
		}
		if isWide(v1) {
			v2, err := frame.Pop()
			if err != nil {
				return err
			}
			frame.Push(v1)
			frame.Push(v2)
			frame.Push(v1)
			return nil
		}
		v2, err := frame.Pop()
		if err != nil {
			return err
		}
		v3, err := frame.Pop()
		if err != nil {
			return err
		}
		frame.Push(v2)
		frame.Push(v1)
		frame.Push(v3)
		frame.Push(v2)
		frame.Push(v1)
		return nil

	case bytecode.OpDup2X2:
		return vm.execDup2X2(frame)

	case bytecode.OpSwap:
		v1, err := frame.Pop()
		if err != nil {
			return err
		}
		v2, err := frame.Pop()
		if err != nil {
			return err
		}
		frame.Push(v1)
		frame.Push(v2)
		return nil
	}
	return diagnostics.New(diagnostics.Unimplemented, "stack shuffle op %d", op)
}

func (vm *Interpreter) execDup2X2(frame *Frame) error {
	v1, err := frame.Pop()
	if err != nil {
		return err
	}
	if isWide(v1) {
		v2, err := frame.Pop()
		if err != nil {
			return err
		}
		if isWide(v2) {
			// form 4.
			frame.Push(v1)
			frame.Push(v2)
			frame.Push(v1)
			return nil
		}
		v3, err := frame.Pop()
		if err != nil {
			return err
		}
		// form 2.
		frame.Push(v1)
		frame.Push(v3)
		frame.Push(v2)
		frame.Push(v1)
		return nil
	}

	v2, err := frame.Pop()
	if err != nil {
		return err
	}
	v3, err := frame.Peek(0)
	if err != nil {
		return err
	}
	if isWide(v3) {
		frame.Pop()
		// form 3.
		frame.Push(v2)
		frame.Push(v1)
		frame.Push(v3)
		frame.Push(v2)
		frame.Push(v1)
		return nil
	}
	frame.Pop()
	v4, err := frame.Pop()
	if err != nil {
		return err
	}
	// form 1.
	frame.Push(v2)
	frame.Push(v1)
	frame.Push(v4)
	frame.Push(v3)
	frame.Push(v2)
	frame.Push(v1)
	return nil
}

func (vm *Interpreter) execIf(frame *Frame, inst bytecode.Instruction) (bool, error) {
	v, err := frame.Pop()
	if err != nil {
		return false, err
	}
	if err := checkTag(v, javatype.TypeInt); err != nil {
		return false, err
	}
	if compareToZero(v.I, inst.Cmp) {
		frame.PC += inst.Offset
		return true, nil
	}
	return false, nil
}

func (vm *Interpreter) execIfICmp(frame *Frame, inst bytecode.Instruction) (bool, error) {
	rhs, err := frame.Pop()
	if err != nil {
		return false, err
	}
	lhs, err := frame.Pop()
	if err != nil {
		return false, err
	}
	if err := checkTag(lhs, javatype.TypeInt); err != nil {
		return false, err
	}
	if err := checkTag(rhs, javatype.TypeInt); err != nil {
		return false, err
	}
	if compareInts(lhs.I, rhs.I, inst.Cmp) {
		frame.PC += inst.Offset
		return true, nil
	}
	return false, nil
}

func (vm *Interpreter) execIfNull(frame *Frame, inst bytecode.Instruction, branchOnNull bool) (bool, error) {
	v, err := frame.Pop()
	if err != nil {
		return false, err
	}
	isNull := v.Type == javatype.TypeNull
	if isNull == branchOnNull {
		frame.PC += inst.Offset
		return true, nil
	}
	return false, nil
}

func compareToZero(v int32, cmp javatype.Comparison) bool {
	return compareInts(v, 0, cmp)
}

func compareInts(a, b int32, cmp javatype.Comparison) bool {
	switch cmp {
	case javatype.CmpEq:
		return a == b
	case javatype.CmpNe:
		return a != b
	case javatype.CmpLt:
		return a < b
	case javatype.CmpGt:
		return a > b
	case javatype.CmpLe:
		return a <= b
	case javatype.CmpGe:
		return a >= b
	}
	return false
}

// execJsr pushes pc+instructionLength as a return-address value -- a
// distinct Type from a heap Reference, so a ret can never be tricked into
// treating an object reference as a jump target or vice versa -- then
// branches.
func (vm *Interpreter) execJsr(frame *Frame, inst bytecode.Instruction) (bool, error) {
	returnPC := frame.PC + inst.Len
	frame.Push(javatype.ReturnAddress(returnPC))
	frame.PC += inst.Offset
	return true, nil
}

func (vm *Interpreter) execRet(frame *Frame, inst bytecode.Instruction) (bool, error) {
	v, err := frame.GetLocal(inst.LocalIndex)
	if err != nil {
		return false, err
	}
	if v.Type != javatype.TypeReturnAddress {
		return false, diagnostics.New(diagnostics.TypeError, "ret on non-return-address local")
	}
	frame.PC = v.Ref
	return true, nil
}

// execReturn pops the return value (if non-void), checks its tag against
// the method's declared return type, pops the frame, and pushes the value
// onto the caller's operand stack.
func (vm *Interpreter) execReturn(frame *Frame, inst bytecode.Instruction) error {
	var retVal javatype.Value
	hasValue := inst.Type != javatype.TypeNull
	if hasValue {
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		if err := checkReturnTag(v, inst.Type); err != nil {
			return err
		}
		retVal = v
	}

	vm.popFrame()

	if hasValue && len(vm.frames) > 0 {
		vm.currentFrame().Push(retVal)
	}
	return nil
}
