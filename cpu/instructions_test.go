package cpu

import "testing"

func TestInstructionSetTotal(t *testing.T) {
	set := GetInstructionSet()
	for p := Page1; p <= Page3; p++ {
		for i := 0; i < 256; i++ {
			inst := set.Lookup(p, byte(i))
			if inst == nil {
				t.Fatalf("page %d opcode $%02X: no instruction", p, i)
			}
			if inst.Opcode != byte(i) || inst.Page != p {
				t.Errorf("page %d opcode $%02X: wrong entry (page %d opcode $%02X)",
					p, i, inst.Page, inst.Opcode)
			}
			if !inst.Illegal() && !inst.IsPrefix() && inst.fn == nil {
				t.Errorf("page %d opcode $%02X: %s has no implementation", p, i, inst.Name)
			}
		}
	}
}

func TestInstructionNames(t *testing.T) {
	set := GetInstructionSet()
	cases := []struct {
		page   Page
		opcode byte
		name   string
	}{
		{Page1, 0x00, "NEG"},
		{Page1, 0x0f, "CLR"},
		{Page1, 0x16, "LBRA"},
		{Page1, 0x17, "LBSR"},
		{Page1, 0x1a, "ORCC"},
		{Page1, 0x1c, "ANDCC"},
		{Page1, 0x26, "BNE"},
		{Page1, 0x30, "LEAX"},
		{Page1, 0x34, "PSHS"},
		{Page1, 0x37, "PULU"},
		{Page1, 0x4f, "CLRA"},
		{Page1, 0x5d, "TSTB"},
		{Page1, 0x86, "LDA"},
		{Page1, 0x8d, "BSR"},
		{Page1, 0xc3, "ADDD"},
		{Page1, 0xdd, "STD"},
		{Page1, 0xff, "STU"},
		{Page2, 0x26, "LBNE"},
		{Page2, 0x3f, "SWI2"},
		{Page2, 0x83, "CMPD"},
		{Page2, 0x8e, "LDY"},
		{Page2, 0xef, "STS"},
		{Page3, 0x3f, "SWI3"},
		{Page3, 0x8c, "CMPS"},
	}
	for _, c := range cases {
		inst := set.Lookup(c.page, c.opcode)
		if inst.Name != c.name {
			t.Errorf("page %d opcode $%02X: name incorrect. exp: %s, got: %s",
				c.page, c.opcode, c.name, inst.Name)
		}
	}

	for _, op := range []byte{0x01, 0x02, 0x05, 0x14, 0x38, 0x87, 0xcd, 0xcf} {
		if !set.Lookup(Page1, op).Illegal() {
			t.Errorf("opcode $%02X should be illegal", op)
		}
	}
	if !set.Lookup(Page2, 0x10).Illegal() {
		t.Error("page 2 opcode $10 should be illegal")
	}
}

func TestInstructionVariants(t *testing.T) {
	set := GetInstructionSet()
	if n := len(set.GetInstructions("lda")); n != 4 {
		t.Errorf("LDA variants incorrect. exp: 4, got: %d", n)
	}
	if n := len(set.GetInstructions("STY")); n != 3 {
		t.Errorf("STY variants incorrect. exp: 3, got: %d", n)
	}
	if n := len(set.GetInstructions("LBEQ")); n != 1 {
		t.Errorf("LBEQ variants incorrect. exp: 1, got: %d", n)
	}
}

func TestStoreRolesHaveNoImmediate(t *testing.T) {
	set := GetInstructionSet()
	for p := Page1; p <= Page3; p++ {
		for i := 0; i < 256; i++ {
			inst := set.Lookup(p, byte(i))
			store := inst.Right == RightStore8 || inst.Right == RightStore16
			if store && (inst.Mode == IMM8 || inst.Mode == IMM16) {
				t.Errorf("%s stores to an immediate operand", inst.Name)
			}
		}
	}
}
