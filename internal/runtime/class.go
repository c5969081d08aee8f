package runtime

import (
	"github.com/ghaldin/gojvm/internal/bytecode"
	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// Method is the runtime representation of a single method: its decoded
// instruction vector (already Nop-padded per bytecode.Decode), declared
// stack/local bounds, and parsed descriptor shape.
type Method struct {
	OwnerClass   string
	Name         string
	Descriptor   string
	Instructions []bytecode.Instruction
	MaxStack     int
	MaxLocals    int
	IsStatic     bool
	Params       []javatype.Type
	Return       javatype.Type
	Handlers     []classfile.ExceptionHandler
}

// Class is the process-wide record for one loaded class: its constant
// pool (needed at execution time to resolve cp-indexed instructions),
// static-field mapping, and method table keyed by name+descriptor.
type Class struct {
	Name         string
	SuperName    string
	ConstantPool []classfile.ConstantPoolEntry
	StaticFields map[string]javatype.Value
	Methods      map[string]*Method
	Initialized  bool
}

func methodKey(name, descriptor string) string { return name + descriptor }

func (c *Class) FindMethod(name, descriptor string) (*Method, bool) {
	m, ok := c.Methods[methodKey(name, descriptor)]
	return m, ok
}

// BuildClass translates a parsed classfile.ClassFile into the runtime's
// Class representation, decoding every method's Code attribute via the
// bytecode package and parsing descriptors via parseDescriptor. A *Class
// can also be constructed directly by an external producer with no
// classfile involved at all; BuildClass is only needed for the
// compiled-artifact path.
func BuildClass(cf *classfile.ClassFile) (*Class, error) {
	name, err := cf.ClassName()
	if err != nil {
		return nil, err
	}
	superName, err := cf.SuperClassName()
	if err != nil {
		return nil, err
	}

	cls := &Class{
		Name:         name,
		SuperName:    superName,
		ConstantPool: cf.ConstantPool,
		StaticFields: make(map[string]javatype.Value),
		Methods:      make(map[string]*Method),
	}

	for i := range cf.Methods {
		mi := &cf.Methods[i]
		mName, err := classfile.GetUtf8(cf.ConstantPool, mi.NameIndex)
		if err != nil {
			return nil, err
		}
		mDesc, err := classfile.GetUtf8(cf.ConstantPool, mi.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		params, ret, err := parseDescriptor(mDesc)
		if err != nil {
			return nil, err
		}

		const staticFlag = 0x0008
		m := &Method{
			OwnerClass: name,
			Name:       mName,
			Descriptor: mDesc,
			IsStatic:   mi.AccessFlags&staticFlag != 0,
			Params:     params,
			Return:     ret,
		}

		if mi.Code != nil {
			instrs, err := bytecode.Decode(mi.Code.Code)
			if err != nil {
				return nil, err
			}
			m.Instructions = instrs
			m.MaxStack = int(mi.Code.MaxStack)
			m.MaxLocals = int(mi.Code.MaxLocals)
			m.Handlers = mi.Code.ExceptionTable
		}

		cls.Methods[methodKey(mName, mDesc)] = m
	}

	return cls, nil
}

// RegisterClass directly installs an externally-produced *Class, with no
// classfile parsing involved.
func (ca *ClassArea) RegisterClass(c *Class) {
	if _, exists := ca.classes[c.Name]; !exists {
		ca.registeredOrder = append(ca.registeredOrder, c.Name)
	}
	ca.classes[c.Name] = c
}
