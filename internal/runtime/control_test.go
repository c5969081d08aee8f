package runtime

import (
	"testing"

	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/javatype"
)

func newTestFrame(maxLocals, maxStack int) *Frame {
	return NewFrame(&Method{Name: "t", Descriptor: "()V", MaxLocals: maxLocals, MaxStack: maxStack}, "T")
}

func TestDup2OnLongIsSingleWideDuplicate(t *testing.T) {
	vm := &Interpreter{}
	f := newTestFrame(0, 4)
	f.Push(javatype.Long(42))
	if err := vm.execStackShuffle(f, bytecode.OpDup2); err != nil {
		t.Fatalf("execStackShuffle: %v", err)
	}
	if len(f.OperandStack) != 2 {
		t.Fatalf("stack depth = %d, want 2", len(f.OperandStack))
	}
	if f.OperandStack[0] != javatype.Long(42) || f.OperandStack[1] != javatype.Long(42) {
		t.Errorf("stack = %v, want two copies of Long(42)", f.OperandStack)
	}
}

func TestDup2OnTwoIntsDuplicatesThePair(t *testing.T) {
	vm := &Interpreter{}
	f := newTestFrame(0, 4)
	f.Push(javatype.Int(1))
	f.Push(javatype.Int(2))
	if err := vm.execStackShuffle(f, bytecode.OpDup2); err != nil {
		t.Fatalf("execStackShuffle: %v", err)
	}
	want := []javatype.Value{javatype.Int(1), javatype.Int(2), javatype.Int(1), javatype.Int(2)}
	if len(f.OperandStack) != len(want) {
		t.Fatalf("stack depth = %d, want %d", len(f.OperandStack), len(want))
	}
	for i, v := range want {
		if f.OperandStack[i] != v {
			t.Errorf("stack[%d] = %v, want %v", i, f.OperandStack[i], v)
		}
	}
}

func TestDupX2Form2WithWideValue2(t *testing.T) {
	// value1 (cat1) on top of value2 (cat2, a Long): dup_x2 form 2.
	vm := &Interpreter{}
	f := newTestFrame(0, 4)
	f.Push(javatype.Long(7))
	f.Push(javatype.Int(9))
	if err := vm.execStackShuffle(f, bytecode.OpDupX2); err != nil {
		t.Fatalf("execStackShuffle: %v", err)
	}
	want := []javatype.Value{javatype.Int(9), javatype.Long(7), javatype.Int(9)}
	if len(f.OperandStack) != len(want) {
		t.Fatalf("stack depth = %d, want %d", len(f.OperandStack), len(want))
	}
	for i, v := range want {
		if f.OperandStack[i] != v {
			t.Errorf("stack[%d] = %v, want %v", i, f.OperandStack[i], v)
		}
	}
}

func TestDup2X2Form4BothWide(t *testing.T) {
	vm := &Interpreter{}
	f := newTestFrame(0, 4)
	f.Push(javatype.Double(1))
	f.Push(javatype.Double(2))
	if err := vm.execStackShuffle(f, bytecode.OpDup2X2); err != nil {
		t.Fatalf("execStackShuffle: %v", err)
	}
	want := []javatype.Value{javatype.Double(2), javatype.Double(1), javatype.Double(2)}
	if len(f.OperandStack) != len(want) {
		t.Fatalf("stack depth = %d, want %d", len(f.OperandStack), len(want))
	}
	for i, v := range want {
		if f.OperandStack[i] != v {
			t.Errorf("stack[%d] = %v, want %v", i, f.OperandStack[i], v)
		}
	}
}

func TestSwapTwice(t *testing.T) {
	vm := &Interpreter{}
	f := newTestFrame(0, 2)
	f.Push(javatype.Int(1))
	f.Push(javatype.Int(2))
	if err := vm.execStackShuffle(f, bytecode.OpSwap); err != nil {
		t.Fatalf("swap 1: %v", err)
	}
	if err := vm.execStackShuffle(f, bytecode.OpSwap); err != nil {
		t.Fatalf("swap 2: %v", err)
	}
	if f.OperandStack[0] != javatype.Int(1) || f.OperandStack[1] != javatype.Int(2) {
		t.Errorf("stack after swap;swap = %v, want identity", f.OperandStack)
	}
}

// TestJsrRetRoundTrip builds a tiny method that jsr's into a subroutine and
// rets back, confirming the return address is a distinct tagged value and
// the pc lands back on the instruction after the jsr.
func TestJsrRetRoundTrip(t *testing.T) {
	instrs := []bytecode.Instruction{
		/*0*/ {Op: bytecode.OpJsr, Offset: 3, Len: 1}, // -> idx3 (subroutine)
		/*1*/ {Op: bytecode.OpConst, Value: javatype.Int(99)},
		/*2*/ {Op: bytecode.OpReturn, Type: javatype.TypeInt},
		/*3*/ {Op: bytecode.OpStore, LocalIndex: 0, Type: javatype.TypeReturnAddress}, // subroutine entry
		/*4*/ {Op: bytecode.OpRet, LocalIndex: 0},
	}
	m := method("sub", "()I", true, 1, 2, instrs)
	cls := newClass("Sub", "", nil, m)
	vm := NewInterpreter(nil)
	vm.RegisterClass(cls)
	f := NewFrame(m, "Sub")
	if err := vm.pushFrame(f); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}

	// Step through: Jsr pushes return address idx1 and branches to idx3.
	if err := vm.Step(); err != nil {
		t.Fatalf("step jsr: %v", err)
	}
	if f.PC != 3 {
		t.Fatalf("pc after jsr = %d, want 3", f.PC)
	}
	// Store the return address into local 0.
	if err := vm.Step(); err != nil {
		t.Fatalf("step store: %v", err)
	}
	v, err := f.GetLocal(0)
	if err != nil || v.Type != javatype.TypeReturnAddress || v.Ref != 1 {
		t.Fatalf("local0 = %+v, err=%v, want ReturnAddress(1)", v, err)
	}
	// Ret jumps back to idx1.
	if err := vm.Step(); err != nil {
		t.Fatalf("step ret: %v", err)
	}
	if f.PC != 1 {
		t.Fatalf("pc after ret = %d, want 1", f.PC)
	}
}

// TestAThrowWithMatchingHandler confirms the operand stack is reset to just
// the exception reference and pc jumps to the handler when the catch type
// matches by name.
func TestAThrowWithMatchingHandler(t *testing.T) {
	var cp cpBuilder
	excClass := cp.class("MyException")

	instrs := []bytecode.Instruction{
		/*0*/ {Op: bytecode.OpNew, CPIndex: int(excClass)},
		/*1*/ {Op: bytecode.OpAThrow},
		/*2*/ {Op: bytecode.OpConst, Value: javatype.Int(1)}, // handler: push 1
		/*3*/ {Op: bytecode.OpReturn, Type: javatype.TypeInt},
	}
	m := method("m", "()I", true, 1, 2, instrs)
	m.Handlers = []classfile.ExceptionHandler{
		{StartPC: 0, EndPC: 2, HandlerPC: 2, CatchType: excClass},
	}
	cls := newClass("Thrower", "", cp.pool, m)
	vm := NewInterpreter(nil)
	vm.RegisterClass(cls)
	f := NewFrame(m, "Thrower")
	if err := vm.pushFrame(f); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}

	if err := vm.Step(); err != nil { // new
		t.Fatalf("step new: %v", err)
	}
	if err := vm.Step(); err != nil { // athrow, should be caught
		t.Fatalf("step athrow: %v", err)
	}
	if f.PC != 2 {
		t.Fatalf("pc after handled athrow = %d, want 2", f.PC)
	}
	if len(f.OperandStack) != 1 {
		t.Fatalf("operand stack after handler entry = %v, want just the exception ref", f.OperandStack)
	}
}

// TestAThrowUncaughtUnwindsWithError confirms an exception with no matching
// handler anywhere on the frame stack surfaces as an error rather than being
// silently dropped.
func TestAThrowUncaughtUnwindsWithError(t *testing.T) {
	var cp cpBuilder
	excClass := cp.class("MyException")

	instrs := []bytecode.Instruction{
		{Op: bytecode.OpNew, CPIndex: int(excClass)},
		{Op: bytecode.OpAThrow},
	}
	m := method("m", "()V", true, 1, 2, instrs)
	cls := newClass("Thrower", "", cp.pool, mainMethodFrom(m))

	_, err := runMain(cls)
	if err == nil {
		t.Fatal("expected an error from an uncaught exception")
	}
}

// mainMethodFrom renames m to main([Ljava/lang/String;)V so runMain can find
// and invoke it directly, reusing an existing instruction vector.
func mainMethodFrom(m *Method) *Method {
	return method("main", "([Ljava/lang/String;)V", true, m.MaxLocals, m.MaxStack, m.Instructions)
}

func TestBackwardBranchMakesProgressEveryStep(t *testing.T) {
	// goto with offset 0 onto itself: pc stays at the same index, and what
	// this checks is that every Step returns after executing exactly one
	// instruction rather than hanging inside the loop.
	instrs := []bytecode.Instruction{
		{Op: bytecode.OpGoto, Offset: 0},
	}
	m := method("loop", "()V", true, 0, 0, instrs)
	cls := newClass("Loop", "", nil, m)
	vm := NewInterpreter(nil)
	vm.RegisterClass(cls)
	f := NewFrame(m, "Loop")
	if err := vm.pushFrame(f); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if err := vm.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if f.PC != 0 {
			t.Fatalf("pc drifted to %d on a self-branch", f.PC)
		}
	}
}
