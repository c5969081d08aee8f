package runtime

import (
	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// HeapSlot is either an *Object or an *Array. Arrays live on the heap
// exactly like objects do, so a reference returned from a method that
// allocated an array stays valid across the frame boundary.
type HeapSlot interface {
	isHeapSlot()
}

// Object is a class instance: class name plus an instance-field mapping.
type Object struct {
	ClassName string
	Fields    map[string]javatype.Value
}

func (*Object) isHeapSlot() {}

// Array is a fixed-length, heap-resident array of a single element type.
type Array struct {
	ElemType javatype.Type
	Elements []javatype.Value
}

func (*Array) isHeapSlot() {}

// Heap is an append-only sequence of HeapSlot records, addressed by index.
// Objects live forever; there is no garbage collector.
type Heap struct {
	slots []HeapSlot
}

func NewHeap() *Heap { return &Heap{} }

// Alloc appends s and returns its heap index.
func (h *Heap) Alloc(s HeapSlot) int {
	h.slots = append(h.slots, s)
	return len(h.slots) - 1
}

func (h *Heap) Get(idx int) (HeapSlot, error) {
	if idx < 0 || idx >= len(h.slots) {
		return nil, diagnostics.New(diagnostics.IndexOutOfBounds, "heap index %d out of range [0,%d)", idx, len(h.slots))
	}
	return h.slots[idx], nil
}

// GetObject resolves idx and type-asserts it is an *Object.
func (h *Heap) GetObject(idx int) (*Object, error) {
	s, err := h.Get(idx)
	if err != nil {
		return nil, err
	}
	obj, ok := s.(*Object)
	if !ok {
		return nil, diagnostics.New(diagnostics.TypeError, "heap slot %d is not an object", idx)
	}
	return obj, nil
}

// GetArray resolves idx and type-asserts it is an *Array.
func (h *Heap) GetArray(idx int) (*Array, error) {
	s, err := h.Get(idx)
	if err != nil {
		return nil, err
	}
	arr, ok := s.(*Array)
	if !ok {
		return nil, diagnostics.New(diagnostics.TypeError, "heap slot %d is not an array", idx)
	}
	return arr, nil
}
