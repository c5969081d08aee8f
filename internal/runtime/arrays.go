package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// execALoad pops an index and an array reference and pushes the element.
// The array lives on the heap (see heap.go), so this is just an indexed
// read through a resolved *Array rather than a frame-local lookup.
func (vm *Interpreter) execALoad(frame *Frame, inst bytecode.Instruction) error {
	idx, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(idx, javatype.TypeInt); err != nil {
		return err
	}
	ref, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return err
	}
	arr, err := vm.Heap.GetArray(ref.Ref)
	if err != nil {
		return err
	}
	if idx.I < 0 || int(idx.I) >= len(arr.Elements) {
		return diagnostics.New(diagnostics.IndexOutOfBounds, "array index %d out of range [0,%d)", idx.I, len(arr.Elements))
	}
	frame.Push(arr.Elements[idx.I])
	return nil
}

func (vm *Interpreter) execAStore(frame *Frame, inst bytecode.Instruction) error {
	v, err := frame.Pop()
	if err != nil {
		return err
	}
	idx, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(idx, javatype.TypeInt); err != nil {
		return err
	}
	ref, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return err
	}
	arr, err := vm.Heap.GetArray(ref.Ref)
	if err != nil {
		return err
	}
	if idx.I < 0 || int(idx.I) >= len(arr.Elements) {
		return diagnostics.New(diagnostics.IndexOutOfBounds, "array index %d out of range [0,%d)", idx.I, len(arr.Elements))
	}
	arr.Elements[idx.I] = v
	return nil
}

// execNewArray allocates a single-dimension primitive array on the heap and
// pushes its reference. Because the array is heap-resident rather than
// frame-local, it outlives the frame that created it -- a method that
// builds and returns an array works correctly here without special-casing.
func (vm *Interpreter) execNewArray(frame *Frame, inst bytecode.Instruction) error {
	n, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(n, javatype.TypeInt); err != nil {
		return err
	}
	if n.I < 0 {
		return diagnostics.New(diagnostics.IndexOutOfBounds, "negative array length %d", n.I)
	}
	elems := make([]javatype.Value, n.I)
	for i := range elems {
		elems[i] = javatype.DefaultFor(inst.Type)
	}
	idx := vm.Heap.Alloc(&Array{ElemType: inst.Type, Elements: elems})
	frame.Push(javatype.Reference(idx))
	return nil
}

// execANewArray allocates a single-dimension reference array. The element
// class named by inst.CPIndex is not itself resolved -- there is no type
// checking performed on array stores in this core, so only the count
// matters.
func (vm *Interpreter) execANewArray(frame *Frame, inst bytecode.Instruction) error {
	n, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(n, javatype.TypeInt); err != nil {
		return err
	}
	if n.I < 0 {
		return diagnostics.New(diagnostics.IndexOutOfBounds, "negative array length %d", n.I)
	}
	elems := make([]javatype.Value, n.I)
	for i := range elems {
		elems[i] = javatype.Null()
	}
	idx := vm.Heap.Alloc(&Array{ElemType: javatype.TypeReference, Elements: elems})
	frame.Push(javatype.Reference(idx))
	return nil
}

func (vm *Interpreter) execArrayLength(frame *Frame) error {
	ref, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return err
	}
	arr, err := vm.Heap.GetArray(ref.Ref)
	if err != nil {
		return err
	}
	frame.Push(javatype.Int(int32(len(arr.Elements))))
	return nil
}

// execMultiANewArray builds inst.Dims nested levels of reference arrays,
// innermost-first, popping one length per dimension (outermost length
// popped last, i.e. deepest in the stack, matching the bytecode's operand
// order).
func (vm *Interpreter) execMultiANewArray(frame *Frame, inst bytecode.Instruction) error {
	dims := int(inst.Dims)
	if dims <= 0 {
		return diagnostics.New(diagnostics.Unimplemented, "multianewarray with %d dimensions", dims)
	}
	lengths := make([]int32, dims)
	for i := dims - 1; i >= 0; i-- {
		n, err := frame.Pop()
		if err != nil {
			return err
		}
		if err := checkTag(n, javatype.TypeInt); err != nil {
			return err
		}
		if n.I < 0 {
			return diagnostics.New(diagnostics.IndexOutOfBounds, "negative array length %d", n.I)
		}
		lengths[i] = n.I
	}

	ref := vm.buildNestedArray(lengths, 0)
	frame.Push(ref)
	return nil
}

func (vm *Interpreter) buildNestedArray(lengths []int32, level int) javatype.Value {
	n := lengths[level]
	elems := make([]javatype.Value, n)
	if level == len(lengths)-1 {
		for i := range elems {
			elems[i] = javatype.Null()
		}
	} else {
		for i := range elems {
			elems[i] = vm.buildNestedArray(lengths, level+1)
		}
	}
	idx := vm.Heap.Alloc(&Array{ElemType: javatype.TypeReference, Elements: elems})
	return javatype.Reference(idx)
}
