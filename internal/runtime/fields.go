package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// constantPoolOf returns the constant pool belonging to the class that owns
// frame's currently-executing method.
func (vm *Interpreter) constantPoolOf(frame *Frame) ([]classfile.ConstantPoolEntry, error) {
	cls, err := vm.Classes.Get(frame.OwningClass)
	if err != nil {
		return nil, err
	}
	return cls.ConstantPool, nil
}

// execGetStatic reads a static field, resolving and initializing the owning
// class on first touch. A field owner with no loadable class backing it
// (java/lang/System, most commonly, since there is no JDK standard library
// here) is tolerated by pushing a null reference instead of failing the
// whole program -- the only consumer of a System.out-shaped reference is the
// println intrinsic, which never dereferences its receiver.
func (vm *Interpreter) execGetStatic(frame *Frame, inst bytecode.Instruction) error {
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return err
	}
	owner, name, _, err := classfile.ResolveFieldRef(pool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	cls, err := vm.Classes.Get(owner)
	if err != nil {
		frame.Push(javatype.Null())
		return nil
	}
	if err := vm.ensureInitialized(cls); err != nil {
		return err
	}
	v, ok := cls.StaticFields[name]
	if !ok {
		v = javatype.Null()
	}
	frame.Push(v)
	return nil
}

func (vm *Interpreter) execPutStatic(frame *Frame, inst bytecode.Instruction) error {
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return err
	}
	owner, name, _, err := classfile.ResolveFieldRef(pool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	v, err := frame.Pop()
	if err != nil {
		return err
	}
	cls, err := vm.Classes.Get(owner)
	if err != nil {
		return err
	}
	cls.StaticFields[name] = v
	return nil
}

func (vm *Interpreter) execGetField(frame *Frame, inst bytecode.Instruction) error {
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return err
	}
	_, name, desc, err := classfile.ResolveFieldRef(pool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	ref, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return err
	}
	obj, err := vm.Heap.GetObject(ref.Ref)
	if err != nil {
		return err
	}
	v, ok := obj.Fields[name]
	if !ok {
		v = javatype.Null()
		if t, _, err := parseOneType(desc); err == nil {
			v = javatype.DefaultFor(t)
		}
	}
	frame.Push(v)
	return nil
}

func (vm *Interpreter) execPutField(frame *Frame, inst bytecode.Instruction) error {
	pool, err := vm.constantPoolOf(frame)
	if err != nil {
		return err
	}
	_, name, _, err := classfile.ResolveFieldRef(pool, uint16(inst.CPIndex))
	if err != nil {
		return err
	}
	v, err := frame.Pop()
	if err != nil {
		return err
	}
	ref, err := frame.Pop()
	if err != nil {
		return err
	}
	if err := checkTag(ref, javatype.TypeReference); err != nil {
		return err
	}
	obj, err := vm.Heap.GetObject(ref.Ref)
	if err != nil {
		return err
	}
	obj.Fields[name] = v
	return nil
}
