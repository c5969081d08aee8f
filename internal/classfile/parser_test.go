package classfile

import (
	"bytes"
	"testing"
)

// classBuilder assembles a class file byte-by-byte, mirroring exactly the
// big-endian, length-prefixed shape the reader expects.
type classBuilder struct {
	buf bytes.Buffer
}

func (b *classBuilder) u1(v uint8)  { b.buf.WriteByte(v) }
func (b *classBuilder) u2(v uint16) { b.buf.WriteByte(byte(v >> 8)); b.buf.WriteByte(byte(v)) }
func (b *classBuilder) u4(v uint32) {
	b.buf.WriteByte(byte(v >> 24))
	b.buf.WriteByte(byte(v >> 16))
	b.buf.WriteByte(byte(v >> 8))
	b.buf.WriteByte(byte(v))
}
func (b *classBuilder) utf8(s string) {
	b.u1(TagUtf8)
	b.u2(uint16(len(s)))
	b.buf.WriteString(s)
}
func (b *classBuilder) class(nameIdx uint16) {
	b.u1(TagClass)
	b.u2(nameIdx)
}

// minimalClass builds a one-method, superclass-less class file:
//
//	cp[1] Utf8 "Minimal"
//	cp[2] Class -> cp[1]     (this_class)
//	cp[3] Utf8 "<init>"
//	cp[4] Utf8 "()V"
//	cp[5] Utf8 "Code"
//
// with a single method <init>()V whose body is just `return`.
func minimalClass() []byte {
	var b classBuilder
	b.u4(magic)
	b.u2(0) // minor
	b.u2(61) // major

	b.u2(6) // constant_pool_count (entries 1..5)
	b.utf8("Minimal")
	b.class(1)
	b.utf8("<init>")
	b.utf8("()V")
	b.utf8("Code")

	b.u2(0x0021)    // access_flags
	b.u2(2)         // this_class
	b.u2(0)         // super_class
	b.u2(0)         // interfaces_count
	b.u2(0)         // fields_count

	b.u2(1) // methods_count
	b.u2(0x0001)    // access_flags: public
	b.u2(3)         // name_index: <init>
	b.u2(4)         // descriptor_index: ()V
	b.u2(1)         // attributes_count
	b.u2(5)         // attribute_name_index: Code

	var code bytes.Buffer
	codeBuilder := classBuilder{buf: code}
	codeBuilder.u2(1) // max_stack
	codeBuilder.u2(1) // max_locals
	codeBuilder.u4(1) // code_length
	codeBuilder.u1(0xb1) // return
	codeBuilder.u2(0)    // exception_table_length
	codeBuilder.u2(0)    // attributes_count

	b.u4(uint32(codeBuilder.buf.Len()))
	b.buf.Write(codeBuilder.buf.Bytes())

	b.u2(0) // class-level attributes_count

	return b.buf.Bytes()
}

func TestParseMinimalClass(t *testing.T) {
	cf, err := Parse(bytes.NewReader(minimalClass()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	name, err := cf.ClassName()
	if err != nil {
		t.Fatalf("ClassName: %v", err)
	}
	if name != "Minimal" {
		t.Errorf("ClassName = %q, want Minimal", name)
	}
	super, err := cf.SuperClassName()
	if err != nil {
		t.Fatalf("SuperClassName: %v", err)
	}
	if super != "" {
		t.Errorf("SuperClassName = %q, want empty", super)
	}

	m, err := cf.FindMethod("<init>", "()V")
	if err != nil {
		t.Fatalf("FindMethod: %v", err)
	}
	if m.Code == nil {
		t.Fatal("expected Code attribute")
	}
	if m.Code.MaxStack != 1 || m.Code.MaxLocals != 1 {
		t.Errorf("MaxStack/MaxLocals = %d/%d, want 1/1", m.Code.MaxStack, m.Code.MaxLocals)
	}
	if len(m.Code.Code) != 1 || m.Code.Code[0] != 0xb1 {
		t.Errorf("Code = %v, want [0xb1]", m.Code.Code)
	}
}

func TestParseBadMagic(t *testing.T) {
	data := append([]byte{0, 0, 0, 0}, minimalClass()[4:]...)
	if _, err := Parse(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error on bad magic")
	}
}

func TestParseTruncated(t *testing.T) {
	full := minimalClass()
	if _, err := Parse(bytes.NewReader(full[:10])); err == nil {
		t.Fatal("expected error on truncated stream")
	}
}

func TestParseUnknownAttribute(t *testing.T) {
	var b classBuilder
	b.u4(magic)
	b.u2(0)
	b.u2(61)
	b.u2(3) // cp entries 1..2
	b.utf8("Weird")
	b.class(1)
	b.u2(0x0021)
	b.u2(2) // this_class
	b.u2(0) // super_class
	b.u2(0) // interfaces
	b.u2(0) // fields
	b.u2(0) // methods
	b.u2(1) // class attributes_count
	b.u2(1) // attribute_name_index -> cp[1] "Weird", not in knownAttributeNames

	if _, err := Parse(bytes.NewReader(b.buf.Bytes())); err == nil {
		t.Fatal("expected error on an unknown top-level attribute name")
	}
}
