package classfile

import (
	"io"
	"os"

	"github.com/ghaldin/gojvm/internal/diagnostics"
)

const magic = 0xCAFEBABE

// ParseFile opens and parses a .class file from disk.
func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, diagnostics.Wrap(err, diagnostics.ParseError, "opening %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses a class artifact from r: magic, version, constant pool,
// access flags, this/super class, interfaces, fields, methods, then
// class-level attributes, in that fixed order.
func Parse(in io.Reader) (*ClassFile, error) {
	r, err := readAll(in)
	if err != nil {
		return nil, err
	}

	m, err := r.u4()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, diagnostics.New(diagnostics.ParseError, "bad magic 0x%08X, want 0x%08X", m, magic)
	}

	minor, err := r.u2()
	if err != nil {
		return nil, err
	}
	major, err := r.u2()
	if err != nil {
		return nil, err
	}

	pool, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	accessFlags, err := r.u2()
	if err != nil {
		return nil, err
	}
	thisClass, err := r.u2()
	if err != nil {
		return nil, err
	}
	superClass, err := r.u2()
	if err != nil {
		return nil, err
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	interfaces := make([]uint16, ifaceCount)
	for i := range interfaces {
		interfaces[i], err = r.u2()
		if err != nil {
			return nil, err
		}
	}

	fields, err := parseFields(r, pool)
	if err != nil {
		return nil, err
	}

	methods, err := parseMethods(r, pool)
	if err != nil {
		return nil, err
	}

	classAttrs, err := parseAttributes(r, pool, true)
	if err != nil {
		return nil, err
	}

	return &ClassFile{
		Minor:        minor,
		Major:        major,
		ConstantPool: pool,
		AccessFlags:  accessFlags,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   classAttrs,
	}, nil
}

func parseFields(r *reader, pool []ConstantPoolEntry) ([]FieldInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]FieldInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		accessFlags, err := r.u2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r, pool, true)
		if err != nil {
			return nil, err
		}
		out = append(out, FieldInfo{
			AccessFlags:     accessFlags,
			NameIndex:       nameIdx,
			DescriptorIndex: descIdx,
			Attributes:      attrs,
		})
	}
	return out, nil
}

func parseMethods(r *reader, pool []ConstantPoolEntry) ([]MethodInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]MethodInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		accessFlags, err := r.u2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r, pool, true)
		if err != nil {
			return nil, err
		}

		m := MethodInfo{
			AccessFlags:     accessFlags,
			NameIndex:       nameIdx,
			DescriptorIndex: descIdx,
			Attributes:      attrs,
		}

		const abstractOrNative = 0x0400 | 0x0100
		if data, ok := findAttribute(attrs, "Code"); ok {
			code, err := parseCodeAttribute(data, pool)
			if err != nil {
				name, _ := GetUtf8(pool, nameIdx)
				return nil, diagnostics.Wrap(err, diagnostics.ParseError, "parsing Code attribute of method %s", name)
			}
			m.Code = code
		} else if accessFlags&abstractOrNative == 0 {
			name, _ := GetUtf8(pool, nameIdx)
			return nil, diagnostics.New(diagnostics.ParseError, "method %s has no Code attribute and is not abstract/native", name)
		}

		out = append(out, m)
	}
	return out, nil
}

// ClassName returns the this-class name.
func (cf *ClassFile) ClassName() (string, error) {
	return ResolveClassName(cf.ConstantPool, cf.ThisClass)
}

// SuperClassName returns the super-class name, or "" if there is none
// (only true for java/lang/Object, whose super_class index is 0).
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return ResolveClassName(cf.ConstantPool, cf.SuperClass)
}

// FindMethod looks up a method by name+descriptor.
func (cf *ClassFile) FindMethod(name, descriptor string) (*MethodInfo, error) {
	for i := range cf.Methods {
		m := &cf.Methods[i]
		n, err := GetUtf8(cf.ConstantPool, m.NameIndex)
		if err != nil {
			return nil, err
		}
		if n != name {
			continue
		}
		d, err := GetUtf8(cf.ConstantPool, m.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		if d == descriptor {
			return m, nil
		}
	}
	return nil, diagnostics.New(diagnostics.ResolutionError, "method %s%s not found", name, descriptor)
}
