package classfile

import "github.com/ghaldin/gojvm/internal/diagnostics"

// knownAttributeNames is the fixed whitelist of attribute kinds this parser
// understands. An attribute name outside this set is a parse error only at
// the top level (class, field, and method attribute tables); an unknown
// name nested inside a composite attribute (Code's own attribute table) is
// skipped, not an error. The payload is always skipped via length-prefixed
// resync regardless of whether the name is known, since only Code receives
// a full structural parse.
var knownAttributeNames = map[string]bool{
	"ConstantValue":          true,
	"Code":                   true,
	"StackMapTable":          true,
	"Exceptions":             true,
	"InnerClasses":           true,
	"EnclosingMethod":        true,
	"Synthetic":              true,
	"Signature":              true,
	"SourceFile":             true,
	"LineNumberTable":        true,
	"LocalVariableTable":     true,
	"LocalVariableTypeTable": true,
	"Deprecated":             true,
}

// parseAttributes reads an attribute_count-prefixed list of attribute_info
// entries. At the top level (topLevel == true), each entry's name must be
// in knownAttributeNames or parsing fails with ParseError; nested inside a
// composite attribute (topLevel == false), an unknown name is tolerated and
// kept as an opaque entry. Either way the payload is always skipped to
// start+length so a truncated or unexpectedly-shaped known attribute cannot
// desynchronize the rest of the file.
func parseAttributes(r *reader, pool []ConstantPoolEntry, topLevel bool) ([]AttributeInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	attrs := make([]AttributeInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		attr, err := parseOneAttribute(r, pool, topLevel)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func parseOneAttribute(r *reader, pool []ConstantPoolEntry, topLevel bool) (AttributeInfo, error) {
	nameIdx, err := r.u2()
	if err != nil {
		return AttributeInfo{}, err
	}
	name, err := GetUtf8(pool, nameIdx)
	if err != nil {
		return AttributeInfo{}, err
	}
	if topLevel && !knownAttributeNames[name] {
		return AttributeInfo{}, diagnostics.New(diagnostics.ParseError, "unknown attribute %q", name)
	}
	length, err := r.u4()
	if err != nil {
		return AttributeInfo{}, err
	}
	start := r.pos
	data, err := r.span(int(length))
	if err != nil {
		return AttributeInfo{}, err
	}
	r.setPos(start + int(length)) // resync even if span already advanced exactly this far
	return AttributeInfo{Name: name, Data: data}, nil
}

// findAttribute returns the raw payload of the first attribute with the
// given name, if present.
func findAttribute(attrs []AttributeInfo, name string) ([]byte, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Data, true
		}
	}
	return nil, false
}

// parseCodeAttribute structurally parses a Code attribute's payload
// (already sliced out by parseOneAttribute): max_stack, max_locals, the raw
// code array, the exception table, and nested attributes.
func parseCodeAttribute(data []byte, pool []ConstantPoolEntry) (*CodeAttribute, error) {
	r := newReader(data)
	maxStack, err := r.u2()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u2()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.u4()
	if err != nil {
		return nil, err
	}
	code, err := r.span(int(codeLen))
	if err != nil {
		return nil, err
	}
	excCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	handlers := make([]ExceptionHandler, 0, excCount)
	for i := uint16(0); i < excCount; i++ {
		startPC, err := r.u2()
		if err != nil {
			return nil, err
		}
		endPC, err := r.u2()
		if err != nil {
			return nil, err
		}
		handlerPC, err := r.u2()
		if err != nil {
			return nil, err
		}
		catchType, err := r.u2()
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, ExceptionHandler{StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC, CatchType: catchType})
	}
	nested, err := parseAttributes(r, pool, false)
	if err != nil {
		return nil, err
	}
	return &CodeAttribute{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           append([]byte(nil), code...),
		ExceptionTable: handlers,
		Attributes:     nested,
	}, nil
}
