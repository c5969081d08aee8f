package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// Frame is the per-invocation execution record: program counter, operand
// stack, local-variable table, owning class name and method.
//
// Frame carries no array table: arrays are heap slots (see heap.go), so a
// Reference value works identically whether it points at an Object or an
// Array, and an array allocated in one frame stays valid after that frame
// returns.
//
// A wide (Long or Double) local occupies exactly one slot in Locals, just
// as a wide value never splits across two operand-stack slots, rather than
// reserving two consecutive slots the way the real JVM's local table does.
type Frame struct {
	PC           int
	OperandStack []javatype.Value
	Locals       []javatype.Value
	Method       *Method
	OwningClass  string
}

// NewFrame allocates a frame for a method invocation with maxLocals slots
// (grown lazily is not needed since the Code attribute declares the bound
// up front) and an empty operand stack pre-sized to maxStack; Push does not
// enforce that bound.
func NewFrame(method *Method, owningClass string) *Frame {
	locals := make([]javatype.Value, method.MaxLocals)
	for i := range locals {
		locals[i] = javatype.Null()
	}
	return &Frame{
		Locals:       locals,
		OperandStack: make([]javatype.Value, 0, method.MaxStack),
		Method:       method,
		OwningClass:  owningClass,
	}
}

func (f *Frame) Push(v javatype.Value) {
	f.OperandStack = append(f.OperandStack, v)
}

func (f *Frame) Pop() (javatype.Value, error) {
	n := len(f.OperandStack)
	if n == 0 {
		return javatype.Value{}, diagnostics.New(diagnostics.StackUnderflow, "pop from empty operand stack in %s.%s", f.OwningClass, f.Method.Name)
	}
	v := f.OperandStack[n-1]
	f.OperandStack = f.OperandStack[:n-1]
	return v, nil
}

// Peek returns the i-th value from the top without popping (0 = top).
func (f *Frame) Peek(i int) (javatype.Value, error) {
	n := len(f.OperandStack)
	if i < 0 || i >= n {
		return javatype.Value{}, diagnostics.New(diagnostics.StackUnderflow, "peek(%d) on stack of depth %d", i, n)
	}
	return f.OperandStack[n-1-i], nil
}

func (f *Frame) GetLocal(idx int) (javatype.Value, error) {
	if idx < 0 || idx >= len(f.Locals) {
		return javatype.Value{}, diagnostics.New(diagnostics.IndexOutOfBounds, "local index %d out of range [0,%d)", idx, len(f.Locals))
	}
	return f.Locals[idx], nil
}

func (f *Frame) SetLocal(idx int, v javatype.Value) error {
	if idx < 0 || idx >= len(f.Locals) {
		return diagnostics.New(diagnostics.IndexOutOfBounds, "local index %d out of range [0,%d)", idx, len(f.Locals))
	}
	f.Locals[idx] = v
	return nil
}

// CurrentInstruction returns the instruction at the frame's current PC, or
// an error if PC has run off the end, which should never happen as long as
// every dispatch path leaves PC pointing at a valid instruction index.
func (f *Frame) CurrentInstruction() (bytecode.Instruction, error) {
	if f.PC < 0 || f.PC >= len(f.Method.Instructions) {
		return bytecode.Instruction{}, diagnostics.New(diagnostics.IndexOutOfBounds, "pc %d out of range in %s.%s", f.PC, f.OwningClass, f.Method.Name)
	}
	return f.Method.Instructions[f.PC], nil
}
