// Package javatype holds the Primitive value/type tagged unions shared by
// the bytecode decoder and the interpreter, so neither has to import the
// other just to agree on what a value looks like.
package javatype

// Type is the tag-only enum parallel to Value, plus Boolean (stored as Byte
// or Int at runtime) and Reference (used for both object and array
// references). Each has a single-letter descriptor character.
type Type int

const (
	TypeNull Type = iota
	TypeByte
	TypeShort
	TypeChar
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeReference
	TypeBoolean
	TypeReturnAddress
	TypeVoid
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeChar:
		return "char"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeReference:
		return "reference"
	case TypeBoolean:
		return "boolean"
	case TypeReturnAddress:
		return "returnAddress"
	case TypeVoid:
		return "void"
	default:
		return "unknown"
	}
}

// Descriptor returns the JVM field-descriptor letter for t, or "R" for
// Reference as an internal placeholder (references in a real descriptor are
// spelled "L<name>;" or "[...", which is handled at the descriptor-parsing
// layer, not here).
func (t Type) Descriptor() byte {
	switch t {
	case TypeByte:
		return 'B'
	case TypeShort:
		return 'S'
	case TypeChar:
		return 'C'
	case TypeInt:
		return 'I'
	case TypeLong:
		return 'J'
	case TypeFloat:
		return 'F'
	case TypeDouble:
		return 'D'
	case TypeBoolean:
		return 'Z'
	case TypeVoid:
		return 'V'
	case TypeReference:
		return 'R'
	default:
		return '?'
	}
}

// IsWide reports whether t occupies two stack slots under the cat-1/cat-2
// rules (Long, Double).
func (t Type) IsWide() bool {
	return t == TypeLong || t == TypeDouble
}

// Value is a tagged sum. It carries its own type tag; operations check tags
// at runtime rather than relying on the host language's static type.
// Null is distinct from Reference(0): the Ref field of a Null-tagged value
// is never consulted.
type Value struct {
	Type Type
	I    int32   // Byte, Short, Char, Int, Boolean
	L    int64   // Long
	F    float32 // Float
	D    float64 // Double
	Ref  int     // Reference: heap index. ReturnAddress: decoded instruction index.
}

func Null() Value                    { return Value{Type: TypeNull} }
func Int(v int32) Value              { return Value{Type: TypeInt, I: v} }
func Byte(v int8) Value              { return Value{Type: TypeByte, I: int32(v)} }
func Short(v int16) Value            { return Value{Type: TypeShort, I: int32(v)} }
func Char(v uint16) Value            { return Value{Type: TypeChar, I: int32(v)} }
func Bool(v bool) Value {
	if v {
		return Value{Type: TypeBoolean, I: 1}
	}
	return Value{Type: TypeBoolean, I: 0}
}
func Long(v int64) Value             { return Value{Type: TypeLong, L: v} }
func Float(v float32) Value          { return Value{Type: TypeFloat, F: v} }
func Double(v float64) Value         { return Value{Type: TypeDouble, D: v} }
func Reference(idx int) Value        { return Value{Type: TypeReference, Ref: idx} }
func ReturnAddress(idx int) Value    { return Value{Type: TypeReturnAddress, Ref: idx} }

// DefaultFor returns the zero value of type t, used for default field/array
// initialization.
func DefaultFor(t Type) Value {
	switch t {
	case TypeLong:
		return Long(0)
	case TypeFloat:
		return Float(0)
	case TypeDouble:
		return Double(0)
	case TypeReference:
		return Null()
	default:
		return Int(0)
	}
}

// Comparison is the branch-condition tag used by If/IfICmp.
type Comparison int

const (
	CmpEq Comparison = iota
	CmpNe
	CmpLt
	CmpGt
	CmpLe
	CmpGe
)
