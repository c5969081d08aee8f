package bytecode

import (
	"testing"

	"github.com/ghaldin/gojvm/internal/javatype"
)

func TestDecodeSingleByteOps(t *testing.T) {
	cases := []struct {
		name string
		code []byte
		want Instruction
	}{
		{"iconst_m1", []byte{0x02}, Instruction{Op: OpConst, Value: javatype.Int(-1)}},
		{"iconst_0", []byte{0x03}, Instruction{Op: OpConst, Value: javatype.Int(0)}},
		{"iconst_5", []byte{opIConst5}, Instruction{Op: OpConst, Value: javatype.Int(5)}},
		{"return", []byte{opReturn}, Instruction{Op: OpReturn, Type: javatype.TypeNull}},
		{"iadd", []byte{opIAdd}, Instruction{Op: OpAdd, Type: javatype.TypeInt}},
		{"ladd", []byte{opLAdd}, Instruction{Op: OpAdd, Type: javatype.TypeLong}},
		{"dup", []byte{opDup}, Instruction{Op: OpDup}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := Decode(c.code)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			got := out[0]
			got.Len = 0 // ignore length bookkeeping, checked separately
			if got != c.want {
				t.Errorf("got %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestDecodeNopPadding(t *testing.T) {
	// bipush 42; return -- bipush is a 2-byte instruction, so out[1] must be
	// a Nop placeholder, not a second decoded instruction.
	code := []byte{opBipush, 42, opReturn}
	out, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != len(code) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(code))
	}
	if out[0].Op != OpConst || out[0].Value != javatype.Int(42) {
		t.Errorf("out[0] = %+v, want bipush 42", out[0])
	}
	if out[0].Len != 2 {
		t.Errorf("out[0].Len = %d, want 2", out[0].Len)
	}
	if out[1].Op != OpNop {
		t.Errorf("out[1] = %+v, want Nop padding", out[1])
	}
	if out[2].Op != OpReturn {
		t.Errorf("out[2] = %+v, want Return", out[2])
	}
}

func TestDecodeBranchOffset(t *testing.T) {
	// goto -3 at offset 3, branching back to offset 0.
	code := []byte{opNop, opNop, opNop, opGoto, 0xFF, 0xFD}
	out, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	inst := out[3]
	if inst.Op != OpGoto {
		t.Fatalf("Op = %v, want OpGoto", inst.Op)
	}
	if inst.Offset != -3 {
		t.Errorf("Offset = %d, want -3", inst.Offset)
	}
	target := 3 + inst.Offset
	if target != 0 {
		t.Errorf("computed target = %d, want 0", target)
	}
}

func TestDecodeWidePrefixLength(t *testing.T) {
	// wide iload 300; return -- confirms decodeWide consumes 4 bytes for a
	// non-iinc modified opcode, keeping the trailing return aligned.
	code := []byte{opWide, opILoad, 0x01, 0x2C, opReturn}
	out, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out[0].Op != OpWide || out[0].Len != 4 {
		t.Fatalf("out[0] = %+v, want OpWide len 4", out[0])
	}
	if out[4].Op != OpReturn {
		t.Errorf("out[4] = %+v, want Return", out[4])
	}
}

func TestDecodeWideIIncLength(t *testing.T) {
	// wide iinc is 6 bytes: opcode, modified opcode, 2-byte index, 2-byte const.
	code := []byte{opWide, opIInc, 0x00, 0x01, 0x00, 0x02, opReturn}
	out, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out[0].Len != 6 {
		t.Errorf("Len = %d, want 6", out[0].Len)
	}
	if out[6].Op != OpReturn {
		t.Errorf("out[6] = %+v, want Return", out[6])
	}
}

func TestDecodeUnsupportedOpcode(t *testing.T) {
	if _, err := Decode([]byte{0xFE}); err == nil {
		t.Fatal("expected error on reserved/unsupported opcode")
	}
}

func TestDecodeTruncatedOperand(t *testing.T) {
	if _, err := Decode([]byte{opSipush, 0x00}); err == nil {
		t.Fatal("expected error on truncated sipush operand")
	}
}

func TestDecodeLoadStoreLocalIndices(t *testing.T) {
	code := []byte{opILoad, 7, opAStore, 2}
	out, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out[0].Op != OpLoad || out[0].LocalIndex != 7 || out[0].Type != javatype.TypeInt {
		t.Errorf("out[0] = %+v", out[0])
	}
	if out[2].Op != OpStore || out[2].LocalIndex != 2 || out[2].Type != javatype.TypeReference {
		t.Errorf("out[2] = %+v", out[2])
	}
}

func TestDecodeIInc(t *testing.T) {
	code := []byte{opIInc, 1, 0xFF} // increment local 1 by -1
	out, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out[0].Op != OpIInc || out[0].LocalIndex != 1 || out[0].IncBy != -1 {
		t.Errorf("out[0] = %+v", out[0])
	}
}
