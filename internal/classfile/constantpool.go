package classfile

import (
	"github.com/ghaldin/gojvm/internal/diagnostics"
)

// parseConstantPool reads constant_pool_count-1 entries. Long and Double
// entries consume two logical indices in the class file format but this
// implementation keeps storage dense (one slot per entry) and index-adjusts
// in the resolver helpers below, per the Open Question resolution recorded
// in DESIGN.md.
func parseConstantPool(r *reader) ([]ConstantPoolEntry, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, diagnostics.New(diagnostics.ParseError, "constant_pool_count must be at least 1")
	}

	// logical counts logical indices consumed so far (2 for Long/Double, 1
	// otherwise), and logicalToStorage maps each logical index to its dense
	// storage slot, so parsing stops at constant_pool_count per the JVM's
	// double-slot rule rather than at a storage-entry count.
	pool := make([]ConstantPoolEntry, 0, count-1)
	logicalToStorage := make(map[int]int)
	logical := 1
	for logical < int(count) {
		storageIdx := len(pool)
		logicalToStorage[logical] = storageIdx

		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		entry, wide, err := parseOneConstant(r, tag)
		if err != nil {
			return nil, err
		}
		pool = append(pool, entry)
		logical++
		if wide {
			logicalToStorage[logical] = storageIdx // unused placeholder index
			logical++
		}
	}

	return pool, nil
}

func parseOneConstant(r *reader, tag uint8) (entry ConstantPoolEntry, wide bool, err error) {
	switch tag {
	case TagUtf8:
		n, err := r.u2()
		if err != nil {
			return nil, false, err
		}
		b, err := r.span(int(n))
		if err != nil {
			return nil, false, err
		}
		return Utf8Entry{Value: string(b)}, false, nil
	case TagInteger:
		v, err := r.u4()
		if err != nil {
			return nil, false, err
		}
		return IntegerEntry{Value: int32(v)}, false, nil
	case TagFloat:
		v, err := r.u4()
		if err != nil {
			return nil, false, err
		}
		return FloatEntry{Value: float32FromBits(v)}, false, nil
	case TagLong:
		v, err := r.u8()
		if err != nil {
			return nil, false, err
		}
		return LongEntry{Value: int64(v)}, true, nil
	case TagDouble:
		v, err := r.u8()
		if err != nil {
			return nil, false, err
		}
		return DoubleEntry{Value: float64FromBits(v)}, true, nil
	case TagClass:
		idx, err := r.u2()
		if err != nil {
			return nil, false, err
		}
		return ClassEntry{NameIndex: idx}, false, nil
	case TagString:
		idx, err := r.u2()
		if err != nil {
			return nil, false, err
		}
		return StringEntry{Utf8Index: idx}, false, nil
	case TagFieldref:
		c, n, err := r.u2pair()
		if err != nil {
			return nil, false, err
		}
		return FieldrefEntry{ClassIndex: c, NameAndTypeIndex: n}, false, nil
	case TagMethodref:
		c, n, err := r.u2pair()
		if err != nil {
			return nil, false, err
		}
		return MethodrefEntry{ClassIndex: c, NameAndTypeIndex: n}, false, nil
	case TagInterfaceMethodref:
		c, n, err := r.u2pair()
		if err != nil {
			return nil, false, err
		}
		return InterfaceMethodrefEntry{ClassIndex: c, NameAndTypeIndex: n}, false, nil
	case TagNameAndType:
		n, d, err := r.u2pair()
		if err != nil {
			return nil, false, err
		}
		return NameAndTypeEntry{NameIndex: n, DescriptorIndex: d}, false, nil
	case TagMethodHandle:
		kind, err := r.u1()
		if err != nil {
			return nil, false, err
		}
		idx, err := r.u2()
		if err != nil {
			return nil, false, err
		}
		return MethodHandleEntry{ReferenceKind: kind, ReferenceIndex: idx}, false, nil
	case TagMethodType:
		idx, err := r.u2()
		if err != nil {
			return nil, false, err
		}
		return MethodTypeEntry{DescriptorIndex: idx}, false, nil
	case TagInvokeDynamic:
		bsm, nt, err := r.u2pair()
		if err != nil {
			return nil, false, err
		}
		return InvokeDynamicEntry{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nt}, false, nil
	default:
		return nil, false, diagnostics.New(diagnostics.ParseError, "unknown constant pool tag %d", tag)
	}
}

func (r *reader) u2pair() (uint16, uint16, error) {
	a, err := r.u2()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.u2()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// entryAt returns the constant pool entry at the given 1-based logical
// index, adjusting for any wide (Long/Double) entries preceding it whose
// logical footprint is two but whose storage footprint is one.
func entryAt(pool []ConstantPoolEntry, logicalIdx uint16) (ConstantPoolEntry, error) {
	storage := 0
	logical := 1
	for storage < len(pool) {
		if logical == int(logicalIdx) {
			return pool[storage], nil
		}
		switch pool[storage].(type) {
		case LongEntry, DoubleEntry:
			logical += 2
		default:
			logical++
		}
		storage++
	}
	return nil, diagnostics.New(diagnostics.ResolutionError, "constant pool index %d out of range", logicalIdx)
}

// GetUtf8 resolves a Utf8 entry by index.
func GetUtf8(pool []ConstantPoolEntry, idx uint16) (string, error) {
	e, err := entryAt(pool, idx)
	if err != nil {
		return "", err
	}
	u, ok := e.(Utf8Entry)
	if !ok {
		return "", diagnostics.New(diagnostics.ResolutionError, "constant pool entry %d is not Utf8", idx)
	}
	return u.Value, nil
}

// ResolveClassName resolves a Class entry to its name string.
func ResolveClassName(pool []ConstantPoolEntry, idx uint16) (string, error) {
	e, err := entryAt(pool, idx)
	if err != nil {
		return "", err
	}
	c, ok := e.(ClassEntry)
	if !ok {
		return "", diagnostics.New(diagnostics.ResolutionError, "constant pool entry %d is not Class", idx)
	}
	return GetUtf8(pool, c.NameIndex)
}

// ResolveNameAndType resolves a NameAndType entry to (name, descriptor).
func ResolveNameAndType(pool []ConstantPoolEntry, idx uint16) (name, descriptor string, err error) {
	e, err := entryAt(pool, idx)
	if err != nil {
		return "", "", err
	}
	nt, ok := e.(NameAndTypeEntry)
	if !ok {
		return "", "", diagnostics.New(diagnostics.ResolutionError, "constant pool entry %d is not NameAndType", idx)
	}
	name, err = GetUtf8(pool, nt.NameIndex)
	if err != nil {
		return "", "", err
	}
	descriptor, err = GetUtf8(pool, nt.DescriptorIndex)
	if err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// ResolveFieldRef resolves a FieldRef entry to (ownerClass, fieldName, descriptor).
func ResolveFieldRef(pool []ConstantPoolEntry, idx uint16) (class, name, descriptor string, err error) {
	e, err := entryAt(pool, idx)
	if err != nil {
		return "", "", "", err
	}
	f, ok := e.(FieldrefEntry)
	if !ok {
		return "", "", "", diagnostics.New(diagnostics.ResolutionError, "constant pool entry %d is not Fieldref", idx)
	}
	class, err = ResolveClassName(pool, f.ClassIndex)
	if err != nil {
		return "", "", "", err
	}
	name, descriptor, err = ResolveNameAndType(pool, f.NameAndTypeIndex)
	return class, name, descriptor, err
}

// ResolveMethodRef resolves a MethodRef entry to (ownerClass, methodName, descriptor).
func ResolveMethodRef(pool []ConstantPoolEntry, idx uint16) (class, name, descriptor string, err error) {
	e, err := entryAt(pool, idx)
	if err != nil {
		return "", "", "", err
	}
	switch m := e.(type) {
	case MethodrefEntry:
		class, err = ResolveClassName(pool, m.ClassIndex)
		if err != nil {
			return "", "", "", err
		}
		name, descriptor, err = ResolveNameAndType(pool, m.NameAndTypeIndex)
		return class, name, descriptor, err
	case InterfaceMethodrefEntry:
		class, err = ResolveClassName(pool, m.ClassIndex)
		if err != nil {
			return "", "", "", err
		}
		name, descriptor, err = ResolveNameAndType(pool, m.NameAndTypeIndex)
		return class, name, descriptor, err
	default:
		return "", "", "", diagnostics.New(diagnostics.ResolutionError, "constant pool entry %d is not Methodref", idx)
	}
}

// Loadable is the resolved value of a constant usable by ldc/ldc_w/ldc2_w:
// an Integer, Float, Long, Double, or a string/class literal which the
// caller turns into a heap Reference.
type Loadable struct {
	Kind      string // "int", "float", "long", "double", "string", "class"
	Int       int32
	Float     float32
	Long      int64
	Double    float64
	StrOrName string
}

// ResolveLoadable resolves the constant at idx for ldc-family instructions.
func ResolveLoadable(pool []ConstantPoolEntry, idx uint16) (Loadable, error) {
	e, err := entryAt(pool, idx)
	if err != nil {
		return Loadable{}, err
	}
	switch v := e.(type) {
	case IntegerEntry:
		return Loadable{Kind: "int", Int: v.Value}, nil
	case FloatEntry:
		return Loadable{Kind: "float", Float: v.Value}, nil
	case LongEntry:
		return Loadable{Kind: "long", Long: v.Value}, nil
	case DoubleEntry:
		return Loadable{Kind: "double", Double: v.Value}, nil
	case StringEntry:
		s, err := GetUtf8(pool, v.Utf8Index)
		if err != nil {
			return Loadable{}, err
		}
		return Loadable{Kind: "string", StrOrName: s}, nil
	case ClassEntry:
		name, err := GetUtf8(pool, v.NameIndex)
		if err != nil {
			return Loadable{}, err
		}
		return Loadable{Kind: "class", StrOrName: name}, nil
	case MethodHandleEntry, MethodTypeEntry:
		return Loadable{}, diagnostics.New(diagnostics.Unimplemented, "loading MethodHandle/MethodType constants")
	default:
		return Loadable{}, diagnostics.New(diagnostics.ResolutionError, "constant pool entry %d of kind %T is not loadable", idx, e)
	}
}
