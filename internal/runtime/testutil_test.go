package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// cpBuilder assembles an in-memory constant pool the way the external
// compiler front-end would, one entry append at a time. None of these
// helpers ever produce a Long/Double entry, so logical and storage indices
// stay in lockstep and the returned index can be used directly as a
// ConstantPoolEntry 1-based index.
type cpBuilder struct {
	pool []classfile.ConstantPoolEntry
}

func (b *cpBuilder) utf8(s string) uint16 {
	b.pool = append(b.pool, classfile.Utf8Entry{Value: s})
	return uint16(len(b.pool))
}

func (b *cpBuilder) class(name string) uint16 {
	nameIdx := b.utf8(name)
	b.pool = append(b.pool, classfile.ClassEntry{NameIndex: nameIdx})
	return uint16(len(b.pool))
}

func (b *cpBuilder) nameAndType(name, desc string) uint16 {
	n := b.utf8(name)
	d := b.utf8(desc)
	b.pool = append(b.pool, classfile.NameAndTypeEntry{NameIndex: n, DescriptorIndex: d})
	return uint16(len(b.pool))
}

func (b *cpBuilder) methodref(className, name, desc string) uint16 {
	c := b.class(className)
	nt := b.nameAndType(name, desc)
	b.pool = append(b.pool, classfile.MethodrefEntry{ClassIndex: c, NameAndTypeIndex: nt})
	return uint16(len(b.pool))
}

func (b *cpBuilder) fieldref(className, name, desc string) uint16 {
	c := b.class(className)
	nt := b.nameAndType(name, desc)
	b.pool = append(b.pool, classfile.FieldrefEntry{ClassIndex: c, NameAndTypeIndex: nt})
	return uint16(len(b.pool))
}

// printlnRefs appends the constant pool entries a method needs to call the
// single recognized intrinsic and returns the System.out Fieldref and the
// println Methodref indices.
func (b *cpBuilder) printlnRefs() (systemOut, println uint16) {
	return b.fieldref("java/lang/System", "out", "Ljava/io/PrintStream;"),
		b.methodref("java/io/PrintStream", "println", "(I)V")
}

// method is a small builder for a single Method's instruction vector,
// indexed one slot per instruction -- no Nop padding is needed here since
// this is the in-memory producer path (contract: §6), not the byte
// decoder, and every exec path that jumps (branch/invoke/jsr) computes its
// target relative to the slot index, not a byte offset.
func method(name, descriptor string, isStatic bool, maxLocals, maxStack int, instrs []bytecode.Instruction) *Method {
	return &Method{
		Name:         name,
		Descriptor:   descriptor,
		IsStatic:     isStatic,
		MaxLocals:    maxLocals,
		MaxStack:     maxStack,
		Instructions: instrs,
	}
}

func newClass(name, super string, pool []classfile.ConstantPoolEntry, methods ...*Method) *Class {
	c := &Class{
		Name:         name,
		SuperName:    super,
		ConstantPool: pool,
		StaticFields: make(map[string]javatype.Value),
		Methods:      make(map[string]*Method),
	}
	for _, m := range methods {
		m.OwnerClass = name
		c.Methods[methodKey(m.Name, m.Descriptor)] = m
	}
	return c
}

// runMain registers cls (and any additional classes) and runs cls.Name's
// main([Ljava/lang/String;)V to completion, returning the interpreter for
// stdout/heap inspection.
func runMain(cls *Class, others ...*Class) (*Interpreter, error) {
	vm := NewInterpreter(nil)
	vm.RegisterClass(cls)
	for _, o := range others {
		vm.RegisterClass(o)
	}
	if err := vm.Run(cls.Name); err != nil {
		return vm, err
	}
	return vm, nil
}

func mainMethod(maxLocals, maxStack int, instrs []bytecode.Instruction) *Method {
	return method("main", "([Ljava/lang/String;)V", true, maxLocals, maxStack, instrs)
}
