package runtime

import (
	"strings"

	"github.com/ghaldin/gojvm/internal/diagnostics"
	"github.com/ghaldin/gojvm/internal/javatype"
)

// parseDescriptor parses a method descriptor like "(II)V" or
// "(Ljava/lang/String;[I)I" into its parameter types and return type.
// It walks the parameter section byte by byte, consuming an `L...;` run
// or a `[`-prefixed run of array dimensions as a single reference-typed
// parameter, so it stays correct for any mix of primitive, reference, and
// array parameters rather than just counting characters.
func parseDescriptor(desc string) (params []javatype.Type, ret javatype.Type, err error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, 0, diagnostics.New(diagnostics.ParseError, "malformed descriptor %q", desc)
	}
	closeIdx := strings.IndexByte(desc, ')')
	if closeIdx < 0 {
		return nil, 0, diagnostics.New(diagnostics.ParseError, "malformed descriptor %q: no closing paren", desc)
	}
	paramSection := desc[1:closeIdx]
	returnSection := desc[closeIdx+1:]

	params, err = parseTypeSequence(paramSection)
	if err != nil {
		return nil, 0, err
	}
	rets, err := parseTypeSequence(returnSection)
	if err != nil {
		return nil, 0, err
	}
	if returnSection == "V" {
		return params, javatype.TypeVoid, nil
	}
	if len(rets) != 1 {
		return nil, 0, diagnostics.New(diagnostics.ParseError, "malformed descriptor %q: bad return type", desc)
	}
	return params, rets[0], nil
}

// parseTypeSequence walks a run of field descriptors (no enclosing parens)
// and returns one Type per descriptor.
func parseTypeSequence(s string) ([]javatype.Type, error) {
	var out []javatype.Type
	i := 0
	for i < len(s) {
		t, n, err := parseOneType(s[i:])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		i += n
	}
	return out, nil
}

// parseOneType consumes exactly one field descriptor from the start of s
// and returns its Type plus how many bytes it consumed.
func parseOneType(s string) (javatype.Type, int, error) {
	if len(s) == 0 {
		return 0, 0, diagnostics.New(diagnostics.ParseError, "empty type descriptor")
	}
	switch s[0] {
	case 'B':
		return javatype.TypeByte, 1, nil
	case 'S':
		return javatype.TypeShort, 1, nil
	case 'C':
		return javatype.TypeChar, 1, nil
	case 'I':
		return javatype.TypeInt, 1, nil
	case 'J':
		return javatype.TypeLong, 1, nil
	case 'F':
		return javatype.TypeFloat, 1, nil
	case 'D':
		return javatype.TypeDouble, 1, nil
	case 'Z':
		return javatype.TypeBoolean, 1, nil
	case 'V':
		return javatype.TypeVoid, 1, nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return 0, 0, diagnostics.New(diagnostics.ParseError, "malformed reference type descriptor %q", s)
		}
		return javatype.TypeReference, end + 1, nil
	case '[':
		dims := 0
		for dims < len(s) && s[dims] == '[' {
			dims++
		}
		_, n, err := parseOneType(s[dims:])
		if err != nil {
			return 0, 0, err
		}
		return javatype.TypeReference, dims + n, nil
	default:
		return 0, 0, diagnostics.New(diagnostics.ParseError, "unknown type descriptor byte %q", s[0])
	}
}
