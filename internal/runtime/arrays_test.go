package runtime

import (
	"testing"

	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/javatype"
)

func TestNewArrayZeroLengthHasZeroArrayLength(t *testing.T) {
	vm := NewInterpreter(nil)
	f := newTestFrame(0, 2)
	f.Push(javatype.Int(0))
	if err := vm.execNewArray(f, bytecode.Instruction{Type: javatype.TypeInt}); err != nil {
		t.Fatalf("execNewArray: %v", err)
	}
	if err := vm.execArrayLength(f); err != nil {
		t.Fatalf("execArrayLength: %v", err)
	}
	v, _ := f.Pop()
	if v.I != 0 {
		t.Errorf("length of a 0-length array = %d, want 0", v.I)
	}
}

func TestNewArrayDefaultElementsAreZeroValued(t *testing.T) {
	vm := NewInterpreter(nil)
	f := newTestFrame(0, 2)
	f.Push(javatype.Int(3))
	if err := vm.execNewArray(f, bytecode.Instruction{Type: javatype.TypeInt}); err != nil {
		t.Fatalf("execNewArray: %v", err)
	}
	ref, _ := f.Pop()
	arr, err := vm.Heap.GetArray(ref.Ref)
	if err != nil {
		t.Fatalf("GetArray: %v", err)
	}
	for i, e := range arr.Elements {
		if e != javatype.Int(0) {
			t.Errorf("elements[%d] = %v, want Int(0)", i, e)
		}
	}
}

func TestArrayStoreOutOfBoundsIsRejected(t *testing.T) {
	vm := NewInterpreter(nil)
	f := newTestFrame(0, 4)
	f.Push(javatype.Int(2))
	if err := vm.execNewArray(f, bytecode.Instruction{Type: javatype.TypeInt}); err != nil {
		t.Fatalf("execNewArray: %v", err)
	}
	ref, _ := f.Pop()
	// arrayref, index(5 -- out of bounds for length 2), value
	f.Push(ref)
	f.Push(javatype.Int(5))
	f.Push(javatype.Int(1))
	if err := vm.execAStore(f, bytecode.Instruction{}); err == nil {
		t.Fatal("expected an out-of-bounds store error")
	}
}

func TestArrayLoadOutOfBoundsIsRejected(t *testing.T) {
	vm := NewInterpreter(nil)
	f := newTestFrame(0, 4)
	f.Push(javatype.Int(2))
	if err := vm.execNewArray(f, bytecode.Instruction{Type: javatype.TypeInt}); err != nil {
		t.Fatalf("execNewArray: %v", err)
	}
	ref, _ := f.Pop()
	f.Push(ref)
	f.Push(javatype.Int(-1))
	if err := vm.execALoad(f, bytecode.Instruction{}); err == nil {
		t.Fatal("expected an out-of-bounds load error on a negative index")
	}
}

func TestANewArrayElementsStartNull(t *testing.T) {
	vm := NewInterpreter(nil)
	f := newTestFrame(0, 2)
	f.Push(javatype.Int(4))
	if err := vm.execANewArray(f, bytecode.Instruction{CPIndex: 0}); err != nil {
		t.Fatalf("execANewArray: %v", err)
	}
	ref, _ := f.Pop()
	arr, err := vm.Heap.GetArray(ref.Ref)
	if err != nil {
		t.Fatalf("GetArray: %v", err)
	}
	for i, e := range arr.Elements {
		if e.Type != javatype.TypeNull {
			t.Errorf("elements[%d] = %v, want Null", i, e)
		}
	}
}

func TestMultiANewArrayNestsDimensionsOutermostPoppedLast(t *testing.T) {
	vm := NewInterpreter(nil)
	f := newTestFrame(0, 4)
	// outer length 2, inner length 3: push outer first (popped last).
	f.Push(javatype.Int(2))
	f.Push(javatype.Int(3))
	if err := vm.execMultiANewArray(f, bytecode.Instruction{Dims: 2}); err != nil {
		t.Fatalf("execMultiANewArray: %v", err)
	}
	ref, _ := f.Pop()
	outer, err := vm.Heap.GetArray(ref.Ref)
	if err != nil {
		t.Fatalf("GetArray outer: %v", err)
	}
	if len(outer.Elements) != 2 {
		t.Fatalf("outer length = %d, want 2", len(outer.Elements))
	}
	inner, err := vm.Heap.GetArray(outer.Elements[0].Ref)
	if err != nil {
		t.Fatalf("GetArray inner: %v", err)
	}
	if len(inner.Elements) != 3 {
		t.Errorf("inner length = %d, want 3", len(inner.Elements))
	}
}

func TestArrayOutlivesCreatingFrame(t *testing.T) {
	// A method that allocates an array, stores into it, and returns the
	// reference must leave a heap slot the caller can still read.
	instrs := []bytecode.Instruction{
		/*0*/ {Op: bytecode.OpConst, Value: javatype.Int(1)},
		/*1*/ {Op: bytecode.OpNewArray, Type: javatype.TypeInt},
		/*2*/ {Op: bytecode.OpDup},
		/*3*/ {Op: bytecode.OpConst, Value: javatype.Int(0)},
		/*4*/ {Op: bytecode.OpConst, Value: javatype.Int(77)},
		/*5*/ {Op: bytecode.OpAStore, Type: javatype.TypeInt},
		/*6*/ {Op: bytecode.OpReturn, Type: javatype.TypeReference},
	}
	helper := method("makeArray", "()[I", true, 0, 4, instrs)
	var cp cpBuilder
	makeArrayRef := cp.methodref("Maker", "makeArray", "()[I")
	mainInstrs := []bytecode.Instruction{
		/*0*/ {Op: bytecode.OpInvokeStatic, CPIndex: int(makeArrayRef), Len: 1},
		/*1*/ {Op: bytecode.OpStore, LocalIndex: 0, Type: javatype.TypeReference},
		/*2*/ {Op: bytecode.OpReturn, Type: javatype.TypeNull},
	}
	main := mainMethod(1, 1, mainInstrs)
	cls := newClass("Maker", "", cp.pool, main, helper)

	vm, err := runMain(cls)
	if err != nil {
		t.Fatalf("runMain: %v", err)
	}
	arr, err := vm.Heap.GetArray(0)
	if err != nil {
		t.Fatalf("GetArray(0): %v", err)
	}
	if arr.Elements[0] != javatype.Int(77) {
		t.Errorf("surviving array elements[0] = %v, want Int(77)", arr.Elements[0])
	}
}
