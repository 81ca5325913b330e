package cpu_test

import (
	"errors"
	"testing"

	"github.com/beevik/go6809/cpu"
)

const origin = 0x1000

func loadCPU(t *testing.T, code ...byte) *cpu.CPU {
	t.Helper()
	mem := cpu.NewFlatMemory()
	c := cpu.NewCPU(mem)
	mem.StoreBytes(origin, code)
	c.SetPC(origin)
	c.Reg.S = 0x8000
	c.Reg.U = 0x7000
	return c
}

func stepCPU(t *testing.T, c *cpu.CPU, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func runCPU(t *testing.T, steps int, code ...byte) *cpu.CPU {
	t.Helper()
	c := loadCPU(t, code...)
	stepCPU(t, c, steps)
	return c
}

func ccString(cc byte) string {
	const names = "EFHINZVC"
	b := []byte("--------")
	for i := 0; i < 8; i++ {
		if cc&(0x80>>i) != 0 {
			b[i] = names[i]
		}
	}
	return string(b)
}

func expectPC(t *testing.T, c *cpu.CPU, pc uint16) {
	t.Helper()
	if c.Reg.PC != pc {
		t.Errorf("PC incorrect. exp: $%04X, got: $%04X", pc, c.Reg.PC)
	}
}

func expectCycles(t *testing.T, c *cpu.CPU, cycles uint64) {
	t.Helper()
	if c.Cycles != cycles {
		t.Errorf("Cycles incorrect. exp: %d, got: %d", cycles, c.Cycles)
	}
}

func expectA(t *testing.T, c *cpu.CPU, v byte) {
	t.Helper()
	if c.Reg.A() != v {
		t.Errorf("A incorrect. exp: $%02X, got: $%02X", v, c.Reg.A())
	}
}

func expectB(t *testing.T, c *cpu.CPU, v byte) {
	t.Helper()
	if c.Reg.B() != v {
		t.Errorf("B incorrect. exp: $%02X, got: $%02X", v, c.Reg.B())
	}
}

func expectD(t *testing.T, c *cpu.CPU, v uint16) {
	t.Helper()
	if c.Reg.D != v {
		t.Errorf("D incorrect. exp: $%04X, got: $%04X", v, c.Reg.D)
	}
}

func expectX(t *testing.T, c *cpu.CPU, v uint16) {
	t.Helper()
	if c.Reg.X != v {
		t.Errorf("X incorrect. exp: $%04X, got: $%04X", v, c.Reg.X)
	}
}

func expectS(t *testing.T, c *cpu.CPU, v uint16) {
	t.Helper()
	if c.Reg.S != v {
		t.Errorf("stack pointer incorrect. exp: $%04X, got: $%04X", v, c.Reg.S)
	}
}

func expectMem(t *testing.T, c *cpu.CPU, addr uint16, v byte) {
	t.Helper()
	got := c.Mem.LoadByte(addr)
	if got != v {
		t.Errorf("Memory at $%04X incorrect. exp: $%02X, got: $%02X", addr, v, got)
	}
}

// Check the CC bits selected by 'mask'.
func expectFlags(t *testing.T, c *cpu.CPU, mask, want byte) {
	t.Helper()
	if got := c.Reg.CC & mask; got != want&mask {
		t.Errorf("CC incorrect. exp: %s, got: %s (mask %s)",
			ccString(want&mask), ccString(got), ccString(mask))
	}
}

const nzvc = cpu.SignBit | cpu.ZeroBit | cpu.OverflowBit | cpu.CarryBit

func TestLoad8(t *testing.T) {
	// ORCC #$03; LDA #$00
	c := runCPU(t, 2, 0x1a, 0x03, 0x86, 0x00)
	expectA(t, c, 0x00)
	expectFlags(t, c, nzvc, cpu.ZeroBit|cpu.CarryBit)

	// LDB #$80
	c = runCPU(t, 1, 0xc6, 0x80)
	expectB(t, c, 0x80)
	expectFlags(t, c, nzvc, cpu.SignBit)
	expectPC(t, c, origin+2)
	expectCycles(t, c, 2)
}

func TestLoad16(t *testing.T) {
	// ORCC #$01; LDX #$8000; LDD $2000
	c := loadCPU(t, 0x1a, 0x01, 0x8e, 0x80, 0x00, 0xfc, 0x20, 0x00)
	c.Mem.StoreAddress(0x2000, 0x0000)
	stepCPU(t, c, 2)
	expectX(t, c, 0x8000)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.CarryBit)

	stepCPU(t, c, 1)
	expectD(t, c, 0x0000)
	expectFlags(t, c, nzvc, cpu.ZeroBit|cpu.CarryBit)
	expectCycles(t, c, 3+3+6)
}

func TestAdd8(t *testing.T) {
	// LDA #$7F; ADDA #$01
	c := runCPU(t, 2, 0x86, 0x7f, 0x8b, 0x01)
	expectA(t, c, 0x80)
	expectFlags(t, c, nzvc|cpu.HalfBit, cpu.SignBit|cpu.OverflowBit|cpu.HalfBit)
}

func TestAddCarry(t *testing.T) {
	// ORCC #$01; LDB #$FF; ADCB #$00
	c := runCPU(t, 3, 0x1a, 0x01, 0xc6, 0xff, 0xc9, 0x00)
	expectB(t, c, 0x00)
	expectFlags(t, c, nzvc, cpu.ZeroBit|cpu.CarryBit)
}

func TestSub16(t *testing.T) {
	// LDD #$0000; SUBD #$0001
	c := runCPU(t, 2, 0xcc, 0x00, 0x00, 0x83, 0x00, 0x01)
	expectD(t, c, 0xffff)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.CarryBit)
}

func TestCompare(t *testing.T) {
	// LDA #$10; CMPA #$20
	c := runCPU(t, 2, 0x86, 0x10, 0x81, 0x20)
	expectA(t, c, 0x10)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.CarryBit)

	// LDX #$8000; CMPX #$0001
	c = runCPU(t, 2, 0x8e, 0x80, 0x00, 0x8c, 0x00, 0x01)
	expectX(t, c, 0x8000)
	expectFlags(t, c, nzvc, cpu.OverflowBit)
}

func TestLogical(t *testing.T) {
	// ORCC #$03; LDA #$F0; ANDA #$0F
	c := runCPU(t, 3, 0x1a, 0x03, 0x86, 0xf0, 0x84, 0x0f)
	expectA(t, c, 0x00)
	expectFlags(t, c, nzvc, cpu.ZeroBit|cpu.CarryBit)

	// LDA #$F0; BITA #$80 leaves A alone
	c = runCPU(t, 2, 0x86, 0xf0, 0x85, 0x80)
	expectA(t, c, 0xf0)
	expectFlags(t, c, nzvc, cpu.SignBit)

	// LDB #$0F; ORB #$80; EORB #$FF
	c = runCPU(t, 3, 0xc6, 0x0f, 0xca, 0x80, 0xc8, 0xff)
	expectB(t, c, 0x70)
	expectFlags(t, c, nzvc, 0)
}

func TestNeg(t *testing.T) {
	// LDA #$80; NEGA
	c := runCPU(t, 2, 0x86, 0x80, 0x40)
	expectA(t, c, 0x80)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.OverflowBit|cpu.CarryBit)

	// LDA #$00; NEGA
	c = runCPU(t, 2, 0x86, 0x00, 0x40)
	expectA(t, c, 0x00)
	expectFlags(t, c, nzvc, cpu.ZeroBit)
}

func TestCom(t *testing.T) {
	// LDA #$0F; COMA
	c := runCPU(t, 2, 0x86, 0x0f, 0x43)
	expectA(t, c, 0xf0)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.CarryBit)
}

func TestShifts(t *testing.T) {
	// LDA #$81; LSRA
	c := runCPU(t, 2, 0x86, 0x81, 0x44)
	expectA(t, c, 0x40)
	expectFlags(t, c, nzvc, cpu.CarryBit)

	// LDA #$81; ASRA
	c = runCPU(t, 2, 0x86, 0x81, 0x47)
	expectA(t, c, 0xc0)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.CarryBit)

	// LDA #$40; ASLA
	c = runCPU(t, 2, 0x86, 0x40, 0x48)
	expectA(t, c, 0x80)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.OverflowBit)
}

func TestRotates(t *testing.T) {
	// ORCC #$01; LDA #$80; ROLA
	c := runCPU(t, 3, 0x1a, 0x01, 0x86, 0x80, 0x49)
	expectA(t, c, 0x01)
	expectFlags(t, c, nzvc, cpu.OverflowBit|cpu.CarryBit)

	// ORCC #$01; LDA #$02; RORA
	c = runCPU(t, 3, 0x1a, 0x01, 0x86, 0x02, 0x46)
	expectA(t, c, 0x81)
	expectFlags(t, c, nzvc, cpu.SignBit)
}

func TestIncDec(t *testing.T) {
	// ORCC #$01; LDA #$7F; INCA
	c := runCPU(t, 3, 0x1a, 0x01, 0x86, 0x7f, 0x4c)
	expectA(t, c, 0x80)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.OverflowBit|cpu.CarryBit)

	// LDB #$80; DECB
	c = runCPU(t, 2, 0xc6, 0x80, 0x5a)
	expectB(t, c, 0x7f)
	expectFlags(t, c, nzvc, cpu.OverflowBit)
}

func TestClearMemory(t *testing.T) {
	// ORCC #$0B; CLR $2000
	c := loadCPU(t, 0x1a, 0x0b, 0x7f, 0x20, 0x00)
	c.Mem.StoreByte(0x2000, 0x55)
	stepCPU(t, c, 2)
	expectMem(t, c, 0x2000, 0x00)
	expectFlags(t, c, nzvc, cpu.ZeroBit)
	expectCycles(t, c, 3+7)
}

func TestTestLeavesCarry(t *testing.T) {
	// ORCC #$03; TST $2000
	c := loadCPU(t, 0x1a, 0x03, 0x7d, 0x20, 0x00)
	c.Mem.StoreByte(0x2000, 0x90)
	stepCPU(t, c, 2)
	expectMem(t, c, 0x2000, 0x90)
	expectFlags(t, c, nzvc, cpu.SignBit|cpu.CarryBit)
}

func TestDAA(t *testing.T) {
	// LDA #$19; ADDA #$28; DAA
	c := runCPU(t, 3, 0x86, 0x19, 0x8b, 0x28, 0x19)
	expectA(t, c, 0x47)
	expectFlags(t, c, cpu.CarryBit, 0)

	// LDA #$99; ADDA #$01; DAA
	c = runCPU(t, 3, 0x86, 0x99, 0x8b, 0x01, 0x19)
	expectA(t, c, 0x00)
	expectFlags(t, c, nzvc, cpu.ZeroBit|cpu.CarryBit)
}

func TestMul(t *testing.T) {
	// LDA #$10; LDB #$10; MUL
	c := runCPU(t, 3, 0x86, 0x10, 0xc6, 0x10, 0x3d)
	expectD(t, c, 0x0100)
	expectFlags(t, c, cpu.ZeroBit|cpu.CarryBit, 0)

	// LDA #$0C; LDB #$0B; MUL
	c = runCPU(t, 3, 0x86, 0x0c, 0xc6, 0x0b, 0x3d)
	expectD(t, c, 0x0084)
	expectFlags(t, c, cpu.ZeroBit|cpu.CarryBit, cpu.CarryBit)
	expectCycles(t, c, 2+2+11)
}

func TestSex(t *testing.T) {
	// LDB #$80; SEX
	c := runCPU(t, 2, 0xc6, 0x80, 0x1d)
	expectD(t, c, 0xff80)
	expectFlags(t, c, cpu.SignBit|cpu.ZeroBit, cpu.SignBit)

	// LDD #$FF00; SEX
	c = runCPU(t, 2, 0xcc, 0xff, 0x00, 0x1d)
	expectD(t, c, 0x0000)
	expectFlags(t, c, cpu.SignBit|cpu.ZeroBit, cpu.ZeroBit)
}

func TestDirect(t *testing.T) {
	// LDA #$10; TFR A,DP; LDA <$34; STA <$35
	c := loadCPU(t, 0x86, 0x10, 0x1f, 0x8b, 0x96, 0x34, 0x97, 0x35)
	c.Mem.StoreByte(0x1034, 0x77)
	stepCPU(t, c, 4)
	if c.Reg.DP != 0x10 {
		t.Errorf("DP incorrect. exp: $10, got: $%02X", c.Reg.DP)
	}
	expectA(t, c, 0x77)
	expectMem(t, c, 0x1035, 0x77)
}

func TestIndexedAutoIncrement(t *testing.T) {
	// LDX #$2000; LDA ,X++
	c := loadCPU(t, 0x8e, 0x20, 0x00, 0xa6, 0x81)
	c.Mem.StoreByte(0x2000, 0x42)
	stepCPU(t, c, 2)
	expectA(t, c, 0x42)
	expectX(t, c, 0x2002)
	expectCycles(t, c, 3+4+3)

	// LDX #$2000; LDA ,--X
	c = loadCPU(t, 0x8e, 0x20, 0x00, 0xa6, 0x83)
	c.Mem.StoreByte(0x1ffe, 0x24)
	stepCPU(t, c, 2)
	expectA(t, c, 0x24)
	expectX(t, c, 0x1ffe)

	// LDX #$2000; LDA ,X+; LDB ,-X
	c = loadCPU(t, 0x8e, 0x20, 0x00, 0xa6, 0x80, 0xe6, 0x82)
	c.Mem.StoreByte(0x2000, 0x99)
	stepCPU(t, c, 3)
	expectA(t, c, 0x99)
	expectB(t, c, 0x99)
	expectX(t, c, 0x2000)
}

func TestIndexedOffsets(t *testing.T) {
	// LDX #$2000; LDA -1,X; LDB 5,X
	c := loadCPU(t, 0x8e, 0x20, 0x00, 0xa6, 0x1f, 0xe6, 0x05)
	c.Mem.StoreByte(0x1fff, 0x11)
	c.Mem.StoreByte(0x2005, 0x22)
	stepCPU(t, c, 3)
	expectA(t, c, 0x11)
	expectB(t, c, 0x22)

	// LDY #$2000; LDB #$FE; LDA B,Y
	c = loadCPU(t, 0x10, 0x8e, 0x20, 0x00, 0xc6, 0xfe, 0xa6, 0xa5)
	c.Mem.StoreByte(0x1ffe, 0x33)
	stepCPU(t, c, 3)
	expectA(t, c, 0x33)

	// LDU #$2000; LDD #$0100; LDA D,U
	c = loadCPU(t, 0xce, 0x20, 0x00, 0xcc, 0x01, 0x00, 0xa6, 0xcb)
	c.Mem.StoreByte(0x2100, 0x44)
	stepCPU(t, c, 3)
	expectA(t, c, 0x44)

	// LDX #$2000; LDA $1234,X
	c = loadCPU(t, 0x8e, 0x20, 0x00, 0xa6, 0x89, 0x12, 0x34)
	c.Mem.StoreByte(0x3234, 0x55)
	stepCPU(t, c, 2)
	expectA(t, c, 0x55)
	expectPC(t, c, origin+7)
	expectCycles(t, c, 3+4+4)
}

func TestIndexedIndirect(t *testing.T) {
	// LDX #$2000; LDA [$10,X]
	c := loadCPU(t, 0x8e, 0x20, 0x00, 0xa6, 0x98, 0x10)
	c.Mem.StoreAddress(0x2010, 0x3000)
	c.Mem.StoreByte(0x3000, 0x99)
	stepCPU(t, c, 2)
	expectA(t, c, 0x99)
	expectCycles(t, c, 3+4+1+3)

	// LDB [$4000]
	c = loadCPU(t, 0xe6, 0x9f, 0x40, 0x00)
	c.Mem.StoreAddress(0x4000, 0x5000)
	c.Mem.StoreByte(0x5000, 0x66)
	stepCPU(t, c, 1)
	expectB(t, c, 0x66)
	expectPC(t, c, origin+4)
	expectCycles(t, c, 4+5)
}

func TestProgramCounterRelative(t *testing.T) {
	// LEAX 5,PCR
	c := runCPU(t, 1, 0x30, 0x8c, 0x05)
	expectX(t, c, origin+3+5)
	expectFlags(t, c, cpu.ZeroBit, 0)

	// LEAX -$1004,PCR
	c = runCPU(t, 1, 0x30, 0x8d, 0xef, 0xfc)
	expectX(t, c, 0x0000)
	expectFlags(t, c, cpu.ZeroBit, cpu.ZeroBit)
}

func TestLoadEffectiveAddressFlags(t *testing.T) {
	// ORCC #$04; LEAS -2,S
	c := runCPU(t, 2, 0x1a, 0x04, 0x32, 0x7e)
	expectS(t, c, 0x7ffe)
	expectFlags(t, c, cpu.ZeroBit, cpu.ZeroBit)
}

func TestStoreIndexed16(t *testing.T) {
	// LDD #$BEEF; LDX #$2000; STD ,X
	c := runCPU(t, 3, 0xcc, 0xbe, 0xef, 0x8e, 0x20, 0x00, 0xed, 0x84)
	expectMem(t, c, 0x2000, 0xbe)
	expectMem(t, c, 0x2001, 0xef)
	expectFlags(t, c, nzvc, cpu.SignBit)
}

func TestBranchLoop(t *testing.T) {
	// BRA *
	c := runCPU(t, 1, 0x20, 0xfe)
	expectPC(t, c, origin)
	expectCycles(t, c, 3)
}

func TestBranches(t *testing.T) {
	// BNE +$10 (Z clear)
	c := runCPU(t, 1, 0x26, 0x10)
	expectPC(t, c, origin+2+0x10)
	expectCycles(t, c, 3)

	// BEQ +$10 (Z clear)
	c = runCPU(t, 1, 0x27, 0x10)
	expectPC(t, c, origin+2)
	expectCycles(t, c, 3)

	// LDA #$80; CMPA #$01; BGT +4 (signed -128 > 1 is false)
	c = runCPU(t, 3, 0x86, 0x80, 0x81, 0x01, 0x2e, 0x04)
	expectPC(t, c, origin+6)

	// LDA #$80; CMPA #$01; BHI +4 (unsigned 128 > 1 is true)
	c = runCPU(t, 3, 0x86, 0x80, 0x81, 0x01, 0x22, 0x04)
	expectPC(t, c, origin+10)
}

func TestLongBranches(t *testing.T) {
	// LBRA +$10
	c := runCPU(t, 1, 0x16, 0x00, 0x10)
	expectPC(t, c, origin+3+0x10)
	expectCycles(t, c, 5)

	// LBNE +$20 (taken)
	c = runCPU(t, 1, 0x10, 0x26, 0x00, 0x20)
	expectPC(t, c, origin+4+0x20)
	expectCycles(t, c, 6)

	// LBEQ +$20 (not taken)
	c = runCPU(t, 1, 0x10, 0x27, 0x00, 0x20)
	expectPC(t, c, origin+4)
	expectCycles(t, c, 5)

	// LBSR -$1003
	c = runCPU(t, 1, 0x17, 0xef, 0xfd)
	expectPC(t, c, 0x0000)
	expectS(t, c, 0x7ffe)
	expectMem(t, c, 0x7ffe, 0x10)
	expectMem(t, c, 0x7fff, 0x03)
}

func TestSubroutine(t *testing.T) {
	// JSR $2000; ...; $2000: RTS
	c := loadCPU(t, 0xbd, 0x20, 0x00)
	c.Mem.StoreByte(0x2000, 0x39)
	stepCPU(t, c, 1)
	expectPC(t, c, 0x2000)
	expectS(t, c, 0x7ffe)
	expectMem(t, c, 0x7ffe, 0x10)
	expectMem(t, c, 0x7fff, 0x03)

	stepCPU(t, c, 1)
	expectPC(t, c, origin+3)
	expectS(t, c, 0x8000)
	expectCycles(t, c, 8+5)

	// BSR +2
	c = runCPU(t, 1, 0x8d, 0x02)
	expectPC(t, c, origin+4)
	expectS(t, c, 0x7ffe)
}

type syscallRecorder struct {
	calls  []uint16
	handle bool
	stop   bool
}

func (r *syscallRecorder) OnSyscall(c *cpu.CPU, addr uint16) bool {
	r.calls = append(r.calls, addr)
	if r.stop {
		c.Stop()
	}
	return r.handle
}

func TestSyscall(t *testing.T) {
	// JSR $FC00
	c := loadCPU(t, 0xbd, 0xfc, 0x00)
	rec := &syscallRecorder{handle: true}
	c.AttachSyscallHandler(rec)
	stepCPU(t, c, 1)
	expectS(t, c, 0x8000)
	expectPC(t, c, origin+3)
	if len(rec.calls) != 1 || rec.calls[0] != 0xfc00 {
		t.Errorf("syscall incorrect. got: %v", rec.calls)
	}

	// JSR [$2000] with the pointer inside the system range
	c = loadCPU(t, 0xad, 0x9f, 0x20, 0x00)
	c.Mem.StoreAddress(0x2000, 0xfc02)
	rec = &syscallRecorder{handle: true}
	c.AttachSyscallHandler(rec)
	stepCPU(t, c, 1)
	expectS(t, c, 0x8000)
	if len(rec.calls) != 1 || rec.calls[0] != 0xfc02 {
		t.Errorf("syscall incorrect. got: %v", rec.calls)
	}
}

func TestUnhandledSyscall(t *testing.T) {
	// JSR $FC40
	c := loadCPU(t, 0xbd, 0xfc, 0x40)
	c.AttachSyscallHandler(&syscallRecorder{handle: false})
	err := c.Step()
	if !errors.Is(err, cpu.ErrUnhandledSyscall) {
		t.Fatalf("expected unhandled syscall, got %v", err)
	}
	var se *cpu.SyscallError
	if !errors.As(err, &se) || se.Addr != 0xfc40 || se.PC != origin {
		t.Errorf("syscall error incorrect: %v", err)
	}
	expectS(t, c, 0x8000)

	// No handler attached
	c = loadCPU(t, 0xbd, 0xfc, 0x00)
	if err := c.Step(); !errors.Is(err, cpu.ErrUnhandledSyscall) {
		t.Errorf("expected unhandled syscall, got %v", err)
	}
}

func TestPushPullRoundTrip(t *testing.T) {
	// PSHS PC,U,Y,X,DP,B,A,CC; PULS PC,U,Y,X,DP,B,A,CC
	c := loadCPU(t, 0x34, 0xff, 0x35, 0xff)
	c.Reg.D = 0x1234
	c.Reg.X = 0x5678
	c.Reg.Y = 0x9abc
	c.Reg.U = 0xdef0
	c.Reg.DP = 0x42
	c.Reg.CC = 0x0f
	want := c.Reg
	want.PC = origin + 2

	stepCPU(t, c, 1)
	expectS(t, c, 0x8000-12)
	expectCycles(t, c, 5+12)
	expectMem(t, c, 0x8000-12, 0x0f) // CC on top
	expectMem(t, c, 0x8000-2, 0x10)  // PC high byte at the bottom
	expectMem(t, c, 0x8000-1, 0x02)

	c.Reg.D, c.Reg.X, c.Reg.Y, c.Reg.U, c.Reg.DP, c.Reg.CC = 0, 0, 0, 0, 0, 0
	c.Reg.PC = origin + 2
	stepCPU(t, c, 1)
	if c.Reg != want {
		t.Errorf("registers incorrect.\nexp: %+v\ngot: %+v", want, c.Reg)
	}
}

func TestPushPullUserStack(t *testing.T) {
	// PSHU A,B,S; PULU X
	c := loadCPU(t, 0x36, 0x46, 0x37, 0x10)
	c.Reg.D = 0xaabb
	stepCPU(t, c, 1)
	if c.Reg.U != 0x7000-4 {
		t.Errorf("U incorrect. exp: $%04X, got: $%04X", 0x7000-4, c.Reg.U)
	}
	stepCPU(t, c, 1)
	expectX(t, c, 0xaabb)
	expectS(t, c, 0x8000)
}

func TestExchangeTransfer(t *testing.T) {
	// LDD #$1234; EXG A,B; TFR A,X; TFR X,B
	c := runCPU(t, 2, 0xcc, 0x12, 0x34, 0x1e, 0x89, 0x1f, 0x81, 0x1f, 0x19)
	expectD(t, c, 0x3412)
	stepCPU(t, c, 1)
	expectX(t, c, 0xff34)
	stepCPU(t, c, 1)
	expectD(t, c, 0x3434)

	// LDX #$2000; EXG X,Y
	c = runCPU(t, 2, 0x8e, 0x20, 0x00, 0x1e, 0x12)
	expectX(t, c, 0x0000)
	if c.Reg.Y != 0x2000 {
		t.Errorf("Y incorrect. exp: $2000, got: $%04X", c.Reg.Y)
	}
}

func TestConditionCodeImmediates(t *testing.T) {
	// ANDCC #$00; ORCC #$05
	c := runCPU(t, 2, 0x1c, 0x00, 0x1a, 0x05)
	if c.Reg.CC != 0x05 {
		t.Errorf("CC incorrect. exp: %s, got: %s", ccString(0x05), ccString(c.Reg.CC))
	}
}

func TestSoftwareInterrupt(t *testing.T) {
	// SWI; vector -> $3000: RTI
	c := loadCPU(t, 0x3f)
	c.Mem.StoreAddress(0xfffa, 0x3000)
	c.Mem.StoreByte(0x3000, 0x3b)
	c.Reg.D = 0x1234
	c.Reg.X = 0x1111
	c.Reg.Y = 0x2222
	c.Reg.U = 0x3333
	c.Reg.DP = 0x44
	c.Reg.CC = 0x00
	want := c.Reg

	stepCPU(t, c, 1)
	expectPC(t, c, 0x3000)
	expectS(t, c, 0x8000-12)
	expectMem(t, c, 0x8000-12, cpu.EntireBit)
	expectMem(t, c, 0x8000-11, 0x12)
	expectMem(t, c, 0x8000-10, 0x34)
	expectMem(t, c, 0x8000-9, 0x44)
	expectFlags(t, c, cpu.IRQMaskBit|cpu.FIRQMaskBit|cpu.EntireBit,
		cpu.IRQMaskBit|cpu.FIRQMaskBit|cpu.EntireBit)

	c.Reg.D, c.Reg.X, c.Reg.Y, c.Reg.U, c.Reg.DP = 0, 0, 0, 0, 0
	stepCPU(t, c, 1)
	want.PC = origin + 1
	want.CC = cpu.EntireBit
	if c.Reg != want {
		t.Errorf("registers incorrect.\nexp: %+v\ngot: %+v", want, c.Reg)
	}
	expectCycles(t, c, 19+15)
}

func TestSoftwareInterrupt2(t *testing.T) {
	// SWI2 leaves the interrupt masks alone
	c := loadCPU(t, 0x10, 0x3f)
	c.Mem.StoreAddress(0xfff4, 0x3000)
	c.Reg.CC = 0x00
	stepCPU(t, c, 1)
	expectPC(t, c, 0x3000)
	expectFlags(t, c, cpu.IRQMaskBit|cpu.FIRQMaskBit, 0)
	expectMem(t, c, 0x8000-2, 0x10)
	expectMem(t, c, 0x8000-1, 0x02)

	// SWI3
	c = loadCPU(t, 0x11, 0x3f)
	c.Mem.StoreAddress(0xfff2, 0x4000)
	stepCPU(t, c, 1)
	expectPC(t, c, 0x4000)
}

func TestWaitForInterrupt(t *testing.T) {
	// CWAI #$EF
	c := loadCPU(t, 0x3c, 0xef)
	stepCPU(t, c, 1)
	expectS(t, c, 0x8000-12)
	expectFlags(t, c, 0xff, cpu.EntireBit|cpu.FIRQMaskBit)
	if !c.Waiting() {
		t.Error("CPU should be waiting")
	}
	if err := c.Step(); !errors.Is(err, cpu.ErrWaiting) {
		t.Errorf("expected waiting error, got %v", err)
	}

	c.SetPC(origin)
	if c.Waiting() {
		t.Error("SetPC should end the wait")
	}

	// SYNC
	c = runCPU(t, 1, 0x13)
	if !c.Waiting() {
		t.Error("CPU should be waiting")
	}
}

func TestIllegalOpcode(t *testing.T) {
	c := loadCPU(t, 0x01)
	c.Reg.D = 0x1234
	before := c.Reg
	err := c.Step()
	if !errors.Is(err, cpu.ErrIllegalOpcode) {
		t.Fatalf("expected illegal opcode, got %v", err)
	}
	var ie *cpu.IllegalOpcodeError
	if !errors.As(err, &ie) || ie.Addr != origin || ie.Opcode != 0x01 || ie.Page != cpu.Page1 {
		t.Errorf("illegal opcode error incorrect: %v", err)
	}
	before.PC = origin + 1
	if c.Reg != before {
		t.Errorf("registers changed.\nexp: %+v\ngot: %+v", before, c.Reg)
	}
	expectCycles(t, c, 0)

	// Page 2 opcode $01
	c = loadCPU(t, 0x10, 0x01)
	err = c.Step()
	if !errors.As(err, &ie) || ie.Page != cpu.Page2 {
		t.Errorf("illegal opcode error incorrect: %v", err)
	}
	expectPC(t, c, origin+2)
}

func TestIllegalPostbyte(t *testing.T) {
	for _, post := range []byte{0x87, 0x8a, 0x8e, 0x8f, 0x90, 0x92} {
		c := loadCPU(t, 0xa6, post)
		c.Reg.X = 0x2000
		err := c.Step()
		var ie *cpu.IllegalOpcodeError
		if !errors.As(err, &ie) || !ie.BadIndex || ie.Postbyte != post {
			t.Errorf("postbyte $%02X: expected illegal index error, got %v", post, err)
			continue
		}
		expectPC(t, c, origin+1)
		expectX(t, c, 0x2000)
	}
}

func TestPrefixLastWins(t *testing.T) {
	// $10 $11 $8C: CMPS #$8000
	c := runCPU(t, 1, 0x10, 0x11, 0x8c, 0x80, 0x00)
	expectFlags(t, c, cpu.ZeroBit, cpu.ZeroBit)
	expectPC(t, c, origin+5)
}

func TestRunBudget(t *testing.T) {
	// BRA *
	c := loadCPU(t, 0x20, 0xfe)
	n, err := c.Run(10)
	if err != nil || n != 10 {
		t.Errorf("Run incorrect. exp: 10 <nil>, got: %d %v", n, err)
	}
	expectCycles(t, c, 30)
}

func TestRunStop(t *testing.T) {
	// JSR $FC0E; BRA *
	c := loadCPU(t, 0xbd, 0xfc, 0x0e, 0x20, 0xfe)
	c.AttachSyscallHandler(&syscallRecorder{handle: true, stop: true})
	n, err := c.Run(0)
	if !errors.Is(err, cpu.ErrStopped) || n != 1 {
		t.Errorf("Run incorrect. exp: 1 %v, got: %d %v", cpu.ErrStopped, n, err)
	}
	expectPC(t, c, origin+3)
}

func TestRunIllegal(t *testing.T) {
	// NOP; NOP; illegal
	c := loadCPU(t, 0x12, 0x12, 0x02)
	n, err := c.Run(0)
	if !errors.Is(err, cpu.ErrIllegalOpcode) || n != 2 {
		t.Errorf("Run incorrect. got: %d %v", n, err)
	}
}

func TestReset(t *testing.T) {
	c := loadCPU(t)
	c.Mem.StoreAddress(0xfffe, 0x2000)
	c.Reg.DP = 0x12
	c.Reg.CC = 0
	c.Reset()
	expectPC(t, c, 0x2000)
	if c.Reg.DP != 0 {
		t.Errorf("DP incorrect. exp: $00, got: $%02X", c.Reg.DP)
	}
	expectFlags(t, c, cpu.IRQMaskBit|cpu.FIRQMaskBit, cpu.IRQMaskBit|cpu.FIRQMaskBit)
}

func TestNextAddr(t *testing.T) {
	c := loadCPU(t,
		0x86, 0x01, // LDA #$01
		0x10, 0x8e, 0x12, 0x34, // LDY #$1234
		0xa6, 0x9f, 0x12, 0x34, // LDA [$1234]
		0x10, 0x26, 0x00, 0x00, // LBNE
		0x30, 0x05, // LEAX 5,X
		0x26, 0x00, // BNE
		0x12, // NOP
	)
	want := []uint16{0x1002, 0x1006, 0x100a, 0x100e, 0x1010, 0x1012, 0x1013}
	addr := uint16(origin)
	for i, w := range want {
		addr = c.NextAddr(addr)
		if addr != w {
			t.Errorf("instruction %d: next address incorrect. exp: $%04X, got: $%04X", i, w, addr)
		}
	}
}

func TestRegisterViews(t *testing.T) {
	var r cpu.Registers
	r.SetA(0x12)
	r.SetB(0x34)
	if r.D != 0x1234 {
		t.Errorf("D incorrect. exp: $1234, got: $%04X", r.D)
	}
	r.D = 0xabcd
	if r.A() != 0xab || r.B() != 0xcd {
		t.Errorf("A:B incorrect. exp: $AB:$CD, got: $%02X:$%02X", r.A(), r.B())
	}
}

func TestMemoryWrap(t *testing.T) {
	mem := cpu.NewFlatMemory()
	mem.StoreAddress(0xffff, 0xbeef)
	if mem.LoadByte(0xffff) != 0xbe || mem.LoadByte(0x0000) != 0xef {
		t.Error("StoreAddress did not wrap")
	}
	if v := mem.LoadAddress(0xffff); v != 0xbeef {
		t.Errorf("LoadAddress incorrect. exp: $BEEF, got: $%04X", v)
	}

	mem.StoreBytes(0xfffe, []byte{1, 2, 3, 4})
	b := make([]byte, 4)
	mem.LoadBytes(0xfffe, b)
	for i, v := range []byte{1, 2, 3, 4} {
		if b[i] != v {
			t.Errorf("LoadBytes[%d] incorrect. exp: %d, got: %d", i, v, b[i])
		}
	}
	if mem.LoadByte(0x0001) != 4 {
		t.Error("StoreBytes did not wrap")
	}
}
