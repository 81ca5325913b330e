// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Registers contains the state of all 6809 registers. The A and B
// accumulators share storage with D: A is the high byte of D and B is
// the low byte.
type Registers struct {
	D  uint16 // accumulator pair (A:B)
	X  uint16 // X index register
	Y  uint16 // Y index register
	U  uint16 // user stack pointer
	S  uint16 // hardware stack pointer
	PC uint16 // program counter
	DP byte   // direct page register
	CC byte   // condition codes
}

// Bits assigned to the condition code register
const (
	CarryBit    = 1 << 0 // C: carry or borrow out of the top bit
	OverflowBit = 1 << 1 // V: signed overflow
	ZeroBit     = 1 << 2 // Z: result is zero
	SignBit     = 1 << 3 // N: result is negative
	IRQMaskBit  = 1 << 4 // I: IRQ disabled
	HalfBit     = 1 << 5 // H: carry out of bit 3
	FIRQMaskBit = 1 << 6 // F: FIRQ disabled
	EntireBit   = 1 << 7 // E: entire register set was stacked
)

// A returns the A accumulator.
func (r *Registers) A() byte {
	return byte(r.D >> 8)
}

// B returns the B accumulator.
func (r *Registers) B() byte {
	return byte(r.D)
}

// SetA updates the A accumulator, leaving B untouched.
func (r *Registers) SetA(v byte) {
	r.D = uint16(v)<<8 | r.D&0x00ff
}

// SetB updates the B accumulator, leaving A untouched.
func (r *Registers) SetB(v byte) {
	r.D = r.D&0xff00 | uint16(v)
}

// Flag returns true if all bits in 'mask' are set in CC.
func (r *Registers) Flag(mask byte) bool {
	return r.CC&mask == mask
}

// SetFlag sets or clears the CC bits in 'mask'.
func (r *Registers) SetFlag(mask byte, on bool) {
	if on {
		r.CC |= mask
	} else {
		r.CC &^= mask
	}
}

// Init initializes all registers to zero, with both interrupt masks set.
func (r *Registers) Init() {
	*r = Registers{CC: IRQMaskBit | FIRQMaskBit}
}

// Reg identifies the register, or memory operand, an instruction reads
// from or writes to.
type Reg byte

// All operand registers. RegM8 and RegM16 select the byte or word at the
// effective address.
const (
	RegNone Reg = iota
	RegA
	RegB
	RegD
	RegX
	RegY
	RegU
	RegS
	RegPC
	RegDP
	RegCC
	RegM8
	RegM16
)

var regNames = [...]string{
	RegNone: "",
	RegA:    "A",
	RegB:    "B",
	RegD:    "D",
	RegX:    "X",
	RegY:    "Y",
	RegU:    "U",
	RegS:    "S",
	RegPC:   "PC",
	RegDP:   "DP",
	RegCC:   "CC",
	RegM8:   "",
	RegM16:  "",
}

func (r Reg) String() string {
	return regNames[r]
}

// Wide returns true if the register holds 16 bits.
func (r Reg) Wide() bool {
	switch r {
	case RegD, RegX, RegY, RegU, RegS, RegPC, RegM16:
		return true
	}
	return false
}

// Memory returns true if the operand lives at the effective address
// rather than in a register.
func (r Reg) Memory() bool {
	return r == RegM8 || r == RegM16
}

// Transfer register codes used by the EXG and TFR postbyte.
var transferRegs = [16]Reg{
	0x0: RegD, 0x1: RegX, 0x2: RegY, 0x3: RegU,
	0x4: RegS, 0x5: RegPC, 0x8: RegA, 0x9: RegB,
	0xa: RegCC, 0xb: RegDP,
}

// TransferReg returns the register selected by a 4-bit EXG/TFR code, or
// RegNone if the code is undefined.
func TransferReg(code byte) Reg {
	return transferRegs[code&0x0f]
}

// Get returns the value of a register. 8-bit registers are zero-extended.
func (r *Registers) Get(reg Reg) uint16 {
	switch reg {
	case RegA:
		return uint16(r.A())
	case RegB:
		return uint16(r.B())
	case RegD:
		return r.D
	case RegX:
		return r.X
	case RegY:
		return r.Y
	case RegU:
		return r.U
	case RegS:
		return r.S
	case RegPC:
		return r.PC
	case RegDP:
		return uint16(r.DP)
	case RegCC:
		return uint16(r.CC)
	}
	return 0
}

// Set updates a register. 8-bit registers take the low byte of 'v'.
func (r *Registers) Set(reg Reg, v uint16) {
	switch reg {
	case RegA:
		r.SetA(byte(v))
	case RegB:
		r.SetB(byte(v))
	case RegD:
		r.D = v
	case RegX:
		r.X = v
	case RegY:
		r.Y = v
	case RegU:
		r.U = v
	case RegS:
		r.S = v
	case RegPC:
		r.PC = v
	case RegDP:
		r.DP = byte(v)
	case RegCC:
		r.CC = byte(v)
	}
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
