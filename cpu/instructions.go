// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"strings"
	"sync"
)

// An opsym is an internal symbol used to associate an opcode's data
// with its instructions.
type opsym byte

const (
	symIllegal opsym = iota
	symPage2
	symPage3
	symABX
	symADC
	symADD8
	symADD16
	symAND
	symANDCC
	symASL
	symASR
	symBCC
	symBCS
	symBEQ
	symBGE
	symBGT
	symBHI
	symBIT
	symBLE
	symBLS
	symBLT
	symBMI
	symBNE
	symBPL
	symBRA
	symBRN
	symBSR
	symBVC
	symBVS
	symCLR
	symCMP8
	symCMP16
	symCOM
	symCWAI
	symDAA
	symDEC
	symEOR
	symEXG
	symINC
	symJMP
	symJSR
	symLD8
	symLD16
	symLEA
	symLSR
	symMUL
	symNEG
	symNOP
	symOR
	symORCC
	symPSH
	symPUL
	symROL
	symROR
	symRTI
	symRTS
	symSBC
	symSEX
	symST8
	symST16
	symSUB8
	symSUB16
	symSWI
	symSWI2
	symSWI3
	symSYNC
	symTFR
	symTST
)

type instfunc func(cpu *CPU, inst *Instruction)

// Emulator implementation for each opcode. The name is the mnemonic stem;
// the operand register is appended to it when the instruction set is
// built (e.g., "LD" + "A").
type opcodeImpl struct {
	sym  opsym
	name string
	fn   instfunc
}

var impl = []opcodeImpl{
	{symABX, "ABX", (*CPU).abx},
	{symADC, "ADC", (*CPU).adc},
	{symADD8, "ADD", (*CPU).add8},
	{symADD16, "ADD", (*CPU).add16},
	{symAND, "AND", (*CPU).and},
	{symANDCC, "AND", (*CPU).andcc},
	{symASL, "ASL", (*CPU).asl},
	{symASR, "ASR", (*CPU).asr},
	{symBCC, "BCC", (*CPU).bcc},
	{symBCS, "BCS", (*CPU).bcs},
	{symBEQ, "BEQ", (*CPU).beq},
	{symBGE, "BGE", (*CPU).bge},
	{symBGT, "BGT", (*CPU).bgt},
	{symBHI, "BHI", (*CPU).bhi},
	{symBIT, "BIT", (*CPU).bit},
	{symBLE, "BLE", (*CPU).ble},
	{symBLS, "BLS", (*CPU).bls},
	{symBLT, "BLT", (*CPU).blt},
	{symBMI, "BMI", (*CPU).bmi},
	{symBNE, "BNE", (*CPU).bne},
	{symBPL, "BPL", (*CPU).bpl},
	{symBRA, "BRA", (*CPU).bra},
	{symBRN, "BRN", (*CPU).brn},
	{symBSR, "BSR", (*CPU).bsr},
	{symBVC, "BVC", (*CPU).bvc},
	{symBVS, "BVS", (*CPU).bvs},
	{symCLR, "CLR", (*CPU).clr},
	{symCMP8, "CMP", (*CPU).cmp8},
	{symCMP16, "CMP", (*CPU).cmp16},
	{symCOM, "COM", (*CPU).com},
	{symCWAI, "CWAI", (*CPU).cwai},
	{symDAA, "DAA", (*CPU).daa},
	{symDEC, "DEC", (*CPU).dec},
	{symEOR, "EOR", (*CPU).eor},
	{symEXG, "EXG", (*CPU).exg},
	{symINC, "INC", (*CPU).inc},
	{symJMP, "JMP", (*CPU).jmp},
	{symJSR, "JSR", (*CPU).jsr},
	{symLD8, "LD", (*CPU).ld8},
	{symLD16, "LD", (*CPU).ld16},
	{symLEA, "LEA", (*CPU).lea},
	{symLSR, "LSR", (*CPU).lsr},
	{symMUL, "MUL", (*CPU).mul},
	{symNEG, "NEG", (*CPU).neg},
	{symNOP, "NOP", (*CPU).nop},
	{symOR, "OR", (*CPU).or},
	{symORCC, "OR", (*CPU).orcc},
	{symPSH, "PSH", (*CPU).psh},
	{symPUL, "PUL", (*CPU).pul},
	{symROL, "ROL", (*CPU).rol},
	{symROR, "ROR", (*CPU).ror},
	{symRTI, "RTI", (*CPU).rti},
	{symRTS, "RTS", (*CPU).rts},
	{symSBC, "SBC", (*CPU).sbc},
	{symSEX, "SEX", (*CPU).sex},
	{symST8, "ST", (*CPU).st8},
	{symST16, "ST", (*CPU).st16},
	{symSUB8, "SUB", (*CPU).sub8},
	{symSUB16, "SUB", (*CPU).sub16},
	{symSWI, "SWI", (*CPU).swi},
	{symSWI2, "SWI2", (*CPU).swi2},
	{symSWI3, "SWI3", (*CPU).swi3},
	{symSYNC, "SYNC", (*CPU).sync},
	{symTFR, "TFR", (*CPU).tfr},
	{symTST, "TST", (*CPU).tst},
}

// Mode describes a memory addressing mode.
type Mode byte

// All possible memory addressing modes
const (
	INH   Mode = iota // Inherent (no operand)
	DIR               // Direct (DP:byte)
	EXT               // Extended (16-bit address)
	IMM8              // Immediate byte
	IMM16             // Immediate word
	REL               // Relative, 8-bit offset
	RELL              // Relative, 16-bit offset
	RELP              // Relative, 16-bit offset if reached through page 2
	IDX               // Indexed (postbyte)
)

// Left describes how an instruction uses its register operand.
type Left byte

// Left operand roles
const (
	LeftNone      Left = iota // operand unused
	LeftLoad                  // operand is read
	LeftStore                 // result is written to the operand
	LeftLoadStore             // operand is read, then replaced by the result
)

// Right describes how an instruction uses the memory at the effective
// address.
type Right byte

// Right operand roles
const (
	RightNone    Right = iota // no memory operand
	RightLoad8                // byte read from the effective address
	RightStore8               // result byte written to the effective address
	RightLoad16               // word read from the effective address
	RightStore16              // result word written to the effective address
)

// Page selects one of the three opcode tables.
type Page byte

// Opcode pages. Page2 and Page3 are reached through a prefix byte.
const (
	Page1 Page = iota
	Page2
	Page3
)

// Page prefix opcodes
const (
	prefixPage2 = 0x10
	prefixPage3 = 0x11
)

// Prefix returns the prefix byte that selects the page, if any.
func (p Page) Prefix() (byte, bool) {
	switch p {
	case Page2:
		return prefixPage2, true
	case Page3:
		return prefixPage3, true
	}
	return 0, false
}

// Opcode data for an (opcode, mode) pair
type opcodeData struct {
	sym    opsym // internal opcode symbol
	mode   Mode  // addressing mode
	reg    Reg   // operand register
	left   Left  // register operand role
	right  Right // memory operand role
	opcode byte  // opcode hex value
	cycles byte  // base number of CPU cycles, including any prefix
}

// Base page instructions
var page1Data = []opcodeData{
	{symPage2, INH, RegNone, LeftNone, RightNone, 0x10, 0},
	{symPage3, INH, RegNone, LeftNone, RightNone, 0x11, 0},

	{symNEG, DIR, RegM8, LeftLoadStore, RightNone, 0x00, 6},
	{symCOM, DIR, RegM8, LeftLoadStore, RightNone, 0x03, 6},
	{symLSR, DIR, RegM8, LeftLoadStore, RightNone, 0x04, 6},
	{symROR, DIR, RegM8, LeftLoadStore, RightNone, 0x06, 6},
	{symASR, DIR, RegM8, LeftLoadStore, RightNone, 0x07, 6},
	{symASL, DIR, RegM8, LeftLoadStore, RightNone, 0x08, 6},
	{symROL, DIR, RegM8, LeftLoadStore, RightNone, 0x09, 6},
	{symDEC, DIR, RegM8, LeftLoadStore, RightNone, 0x0a, 6},
	{symINC, DIR, RegM8, LeftLoadStore, RightNone, 0x0c, 6},
	{symTST, DIR, RegM8, LeftLoad, RightNone, 0x0d, 6},
	{symJMP, DIR, RegNone, LeftNone, RightNone, 0x0e, 3},
	{symCLR, DIR, RegM8, LeftStore, RightNone, 0x0f, 6},

	{symNOP, INH, RegNone, LeftNone, RightNone, 0x12, 2},
	{symSYNC, INH, RegNone, LeftNone, RightNone, 0x13, 4},
	{symBRA, RELL, RegNone, LeftNone, RightNone, 0x16, 5},
	{symBSR, RELL, RegNone, LeftNone, RightNone, 0x17, 9},
	{symDAA, INH, RegNone, LeftNone, RightNone, 0x19, 2},
	{symORCC, IMM8, RegCC, LeftLoadStore, RightLoad8, 0x1a, 3},
	{symANDCC, IMM8, RegCC, LeftLoadStore, RightLoad8, 0x1c, 3},
	{symSEX, INH, RegNone, LeftNone, RightNone, 0x1d, 2},
	{symEXG, IMM8, RegNone, LeftNone, RightLoad8, 0x1e, 8},
	{symTFR, IMM8, RegNone, LeftNone, RightLoad8, 0x1f, 6},

	{symBRA, REL, RegNone, LeftNone, RightNone, 0x20, 3},
	{symBRN, RELP, RegNone, LeftNone, RightNone, 0x21, 3},
	{symBHI, RELP, RegNone, LeftNone, RightNone, 0x22, 3},
	{symBLS, RELP, RegNone, LeftNone, RightNone, 0x23, 3},
	{symBCC, RELP, RegNone, LeftNone, RightNone, 0x24, 3},
	{symBCS, RELP, RegNone, LeftNone, RightNone, 0x25, 3},
	{symBNE, RELP, RegNone, LeftNone, RightNone, 0x26, 3},
	{symBEQ, RELP, RegNone, LeftNone, RightNone, 0x27, 3},
	{symBVC, RELP, RegNone, LeftNone, RightNone, 0x28, 3},
	{symBVS, RELP, RegNone, LeftNone, RightNone, 0x29, 3},
	{symBPL, RELP, RegNone, LeftNone, RightNone, 0x2a, 3},
	{symBMI, RELP, RegNone, LeftNone, RightNone, 0x2b, 3},
	{symBGE, RELP, RegNone, LeftNone, RightNone, 0x2c, 3},
	{symBLT, RELP, RegNone, LeftNone, RightNone, 0x2d, 3},
	{symBGT, RELP, RegNone, LeftNone, RightNone, 0x2e, 3},
	{symBLE, RELP, RegNone, LeftNone, RightNone, 0x2f, 3},

	{symLEA, IDX, RegX, LeftStore, RightNone, 0x30, 4},
	{symLEA, IDX, RegY, LeftStore, RightNone, 0x31, 4},
	{symLEA, IDX, RegS, LeftStore, RightNone, 0x32, 4},
	{symLEA, IDX, RegU, LeftStore, RightNone, 0x33, 4},
	{symPSH, IMM8, RegS, LeftNone, RightLoad8, 0x34, 5},
	{symPUL, IMM8, RegS, LeftNone, RightLoad8, 0x35, 5},
	{symPSH, IMM8, RegU, LeftNone, RightLoad8, 0x36, 5},
	{symPUL, IMM8, RegU, LeftNone, RightLoad8, 0x37, 5},
	{symRTS, INH, RegNone, LeftNone, RightNone, 0x39, 5},
	{symABX, INH, RegNone, LeftNone, RightNone, 0x3a, 3},
	{symRTI, INH, RegNone, LeftNone, RightNone, 0x3b, 6},
	{symCWAI, IMM8, RegNone, LeftNone, RightLoad8, 0x3c, 20},
	{symMUL, INH, RegNone, LeftNone, RightNone, 0x3d, 11},
	{symSWI, INH, RegNone, LeftNone, RightNone, 0x3f, 19},

	{symNEG, INH, RegA, LeftLoadStore, RightNone, 0x40, 2},
	{symCOM, INH, RegA, LeftLoadStore, RightNone, 0x43, 2},
	{symLSR, INH, RegA, LeftLoadStore, RightNone, 0x44, 2},
	{symROR, INH, RegA, LeftLoadStore, RightNone, 0x46, 2},
	{symASR, INH, RegA, LeftLoadStore, RightNone, 0x47, 2},
	{symASL, INH, RegA, LeftLoadStore, RightNone, 0x48, 2},
	{symROL, INH, RegA, LeftLoadStore, RightNone, 0x49, 2},
	{symDEC, INH, RegA, LeftLoadStore, RightNone, 0x4a, 2},
	{symINC, INH, RegA, LeftLoadStore, RightNone, 0x4c, 2},
	{symTST, INH, RegA, LeftLoad, RightNone, 0x4d, 2},
	{symCLR, INH, RegA, LeftStore, RightNone, 0x4f, 2},

	{symNEG, INH, RegB, LeftLoadStore, RightNone, 0x50, 2},
	{symCOM, INH, RegB, LeftLoadStore, RightNone, 0x53, 2},
	{symLSR, INH, RegB, LeftLoadStore, RightNone, 0x54, 2},
	{symROR, INH, RegB, LeftLoadStore, RightNone, 0x56, 2},
	{symASR, INH, RegB, LeftLoadStore, RightNone, 0x57, 2},
	{symASL, INH, RegB, LeftLoadStore, RightNone, 0x58, 2},
	{symROL, INH, RegB, LeftLoadStore, RightNone, 0x59, 2},
	{symDEC, INH, RegB, LeftLoadStore, RightNone, 0x5a, 2},
	{symINC, INH, RegB, LeftLoadStore, RightNone, 0x5c, 2},
	{symTST, INH, RegB, LeftLoad, RightNone, 0x5d, 2},
	{symCLR, INH, RegB, LeftStore, RightNone, 0x5f, 2},

	{symNEG, IDX, RegM8, LeftLoadStore, RightNone, 0x60, 6},
	{symCOM, IDX, RegM8, LeftLoadStore, RightNone, 0x63, 6},
	{symLSR, IDX, RegM8, LeftLoadStore, RightNone, 0x64, 6},
	{symROR, IDX, RegM8, LeftLoadStore, RightNone, 0x66, 6},
	{symASR, IDX, RegM8, LeftLoadStore, RightNone, 0x67, 6},
	{symASL, IDX, RegM8, LeftLoadStore, RightNone, 0x68, 6},
	{symROL, IDX, RegM8, LeftLoadStore, RightNone, 0x69, 6},
	{symDEC, IDX, RegM8, LeftLoadStore, RightNone, 0x6a, 6},
	{symINC, IDX, RegM8, LeftLoadStore, RightNone, 0x6c, 6},
	{symTST, IDX, RegM8, LeftLoad, RightNone, 0x6d, 6},
	{symJMP, IDX, RegNone, LeftNone, RightNone, 0x6e, 3},
	{symCLR, IDX, RegM8, LeftStore, RightNone, 0x6f, 6},

	{symNEG, EXT, RegM8, LeftLoadStore, RightNone, 0x70, 7},
	{symCOM, EXT, RegM8, LeftLoadStore, RightNone, 0x73, 7},
	{symLSR, EXT, RegM8, LeftLoadStore, RightNone, 0x74, 7},
	{symROR, EXT, RegM8, LeftLoadStore, RightNone, 0x76, 7},
	{symASR, EXT, RegM8, LeftLoadStore, RightNone, 0x77, 7},
	{symASL, EXT, RegM8, LeftLoadStore, RightNone, 0x78, 7},
	{symROL, EXT, RegM8, LeftLoadStore, RightNone, 0x79, 7},
	{symDEC, EXT, RegM8, LeftLoadStore, RightNone, 0x7a, 7},
	{symINC, EXT, RegM8, LeftLoadStore, RightNone, 0x7c, 7},
	{symTST, EXT, RegM8, LeftLoad, RightNone, 0x7d, 7},
	{symJMP, EXT, RegNone, LeftNone, RightNone, 0x7e, 4},
	{symCLR, EXT, RegM8, LeftStore, RightNone, 0x7f, 7},

	{symSUB8, IMM8, RegA, LeftLoadStore, RightLoad8, 0x80, 2},
	{symCMP8, IMM8, RegA, LeftLoad, RightLoad8, 0x81, 2},
	{symSBC, IMM8, RegA, LeftLoadStore, RightLoad8, 0x82, 2},
	{symSUB16, IMM16, RegD, LeftLoadStore, RightLoad16, 0x83, 4},
	{symAND, IMM8, RegA, LeftLoadStore, RightLoad8, 0x84, 2},
	{symBIT, IMM8, RegA, LeftLoad, RightLoad8, 0x85, 2},
	{symLD8, IMM8, RegA, LeftStore, RightLoad8, 0x86, 2},
	{symEOR, IMM8, RegA, LeftLoadStore, RightLoad8, 0x88, 2},
	{symADC, IMM8, RegA, LeftLoadStore, RightLoad8, 0x89, 2},
	{symOR, IMM8, RegA, LeftLoadStore, RightLoad8, 0x8a, 2},
	{symADD8, IMM8, RegA, LeftLoadStore, RightLoad8, 0x8b, 2},
	{symCMP16, IMM16, RegX, LeftLoad, RightLoad16, 0x8c, 4},
	{symBSR, REL, RegNone, LeftNone, RightNone, 0x8d, 7},
	{symLD16, IMM16, RegX, LeftStore, RightLoad16, 0x8e, 3},

	{symSUB8, DIR, RegA, LeftLoadStore, RightLoad8, 0x90, 4},
	{symCMP8, DIR, RegA, LeftLoad, RightLoad8, 0x91, 4},
	{symSBC, DIR, RegA, LeftLoadStore, RightLoad8, 0x92, 4},
	{symSUB16, DIR, RegD, LeftLoadStore, RightLoad16, 0x93, 6},
	{symAND, DIR, RegA, LeftLoadStore, RightLoad8, 0x94, 4},
	{symBIT, DIR, RegA, LeftLoad, RightLoad8, 0x95, 4},
	{symLD8, DIR, RegA, LeftStore, RightLoad8, 0x96, 4},
	{symST8, DIR, RegA, LeftLoad, RightStore8, 0x97, 4},
	{symEOR, DIR, RegA, LeftLoadStore, RightLoad8, 0x98, 4},
	{symADC, DIR, RegA, LeftLoadStore, RightLoad8, 0x99, 4},
	{symOR, DIR, RegA, LeftLoadStore, RightLoad8, 0x9a, 4},
	{symADD8, DIR, RegA, LeftLoadStore, RightLoad8, 0x9b, 4},
	{symCMP16, DIR, RegX, LeftLoad, RightLoad16, 0x9c, 6},
	{symJSR, DIR, RegNone, LeftNone, RightNone, 0x9d, 7},
	{symLD16, DIR, RegX, LeftStore, RightLoad16, 0x9e, 5},
	{symST16, DIR, RegX, LeftLoad, RightStore16, 0x9f, 5},

	{symSUB8, IDX, RegA, LeftLoadStore, RightLoad8, 0xa0, 4},
	{symCMP8, IDX, RegA, LeftLoad, RightLoad8, 0xa1, 4},
	{symSBC, IDX, RegA, LeftLoadStore, RightLoad8, 0xa2, 4},
	{symSUB16, IDX, RegD, LeftLoadStore, RightLoad16, 0xa3, 6},
	{symAND, IDX, RegA, LeftLoadStore, RightLoad8, 0xa4, 4},
	{symBIT, IDX, RegA, LeftLoad, RightLoad8, 0xa5, 4},
	{symLD8, IDX, RegA, LeftStore, RightLoad8, 0xa6, 4},
	{symST8, IDX, RegA, LeftLoad, RightStore8, 0xa7, 4},
	{symEOR, IDX, RegA, LeftLoadStore, RightLoad8, 0xa8, 4},
	{symADC, IDX, RegA, LeftLoadStore, RightLoad8, 0xa9, 4},
	{symOR, IDX, RegA, LeftLoadStore, RightLoad8, 0xaa, 4},
	{symADD8, IDX, RegA, LeftLoadStore, RightLoad8, 0xab, 4},
	{symCMP16, IDX, RegX, LeftLoad, RightLoad16, 0xac, 6},
	{symJSR, IDX, RegNone, LeftNone, RightNone, 0xad, 7},
	{symLD16, IDX, RegX, LeftStore, RightLoad16, 0xae, 5},
	{symST16, IDX, RegX, LeftLoad, RightStore16, 0xaf, 5},

	{symSUB8, EXT, RegA, LeftLoadStore, RightLoad8, 0xb0, 5},
	{symCMP8, EXT, RegA, LeftLoad, RightLoad8, 0xb1, 5},
	{symSBC, EXT, RegA, LeftLoadStore, RightLoad8, 0xb2, 5},
	{symSUB16, EXT, RegD, LeftLoadStore, RightLoad16, 0xb3, 7},
	{symAND, EXT, RegA, LeftLoadStore, RightLoad8, 0xb4, 5},
	{symBIT, EXT, RegA, LeftLoad, RightLoad8, 0xb5, 5},
	{symLD8, EXT, RegA, LeftStore, RightLoad8, 0xb6, 5},
	{symST8, EXT, RegA, LeftLoad, RightStore8, 0xb7, 5},
	{symEOR, EXT, RegA, LeftLoadStore, RightLoad8, 0xb8, 5},
	{symADC, EXT, RegA, LeftLoadStore, RightLoad8, 0xb9, 5},
	{symOR, EXT, RegA, LeftLoadStore, RightLoad8, 0xba, 5},
	{symADD8, EXT, RegA, LeftLoadStore, RightLoad8, 0xbb, 5},
	{symCMP16, EXT, RegX, LeftLoad, RightLoad16, 0xbc, 7},
	{symJSR, EXT, RegNone, LeftNone, RightNone, 0xbd, 8},
	{symLD16, EXT, RegX, LeftStore, RightLoad16, 0xbe, 6},
	{symST16, EXT, RegX, LeftLoad, RightStore16, 0xbf, 6},

	{symSUB8, IMM8, RegB, LeftLoadStore, RightLoad8, 0xc0, 2},
	{symCMP8, IMM8, RegB, LeftLoad, RightLoad8, 0xc1, 2},
	{symSBC, IMM8, RegB, LeftLoadStore, RightLoad8, 0xc2, 2},
	{symADD16, IMM16, RegD, LeftLoadStore, RightLoad16, 0xc3, 4},
	{symAND, IMM8, RegB, LeftLoadStore, RightLoad8, 0xc4, 2},
	{symBIT, IMM8, RegB, LeftLoad, RightLoad8, 0xc5, 2},
	{symLD8, IMM8, RegB, LeftStore, RightLoad8, 0xc6, 2},
	{symEOR, IMM8, RegB, LeftLoadStore, RightLoad8, 0xc8, 2},
	{symADC, IMM8, RegB, LeftLoadStore, RightLoad8, 0xc9, 2},
	{symOR, IMM8, RegB, LeftLoadStore, RightLoad8, 0xca, 2},
	{symADD8, IMM8, RegB, LeftLoadStore, RightLoad8, 0xcb, 2},
	{symLD16, IMM16, RegD, LeftStore, RightLoad16, 0xcc, 3},
	{symLD16, IMM16, RegU, LeftStore, RightLoad16, 0xce, 3},

	{symSUB8, DIR, RegB, LeftLoadStore, RightLoad8, 0xd0, 4},
	{symCMP8, DIR, RegB, LeftLoad, RightLoad8, 0xd1, 4},
	{symSBC, DIR, RegB, LeftLoadStore, RightLoad8, 0xd2, 4},
	{symADD16, DIR, RegD, LeftLoadStore, RightLoad16, 0xd3, 6},
	{symAND, DIR, RegB, LeftLoadStore, RightLoad8, 0xd4, 4},
	{symBIT, DIR, RegB, LeftLoad, RightLoad8, 0xd5, 4},
	{symLD8, DIR, RegB, LeftStore, RightLoad8, 0xd6, 4},
	{symST8, DIR, RegB, LeftLoad, RightStore8, 0xd7, 4},
	{symEOR, DIR, RegB, LeftLoadStore, RightLoad8, 0xd8, 4},
	{symADC, DIR, RegB, LeftLoadStore, RightLoad8, 0xd9, 4},
	{symOR, DIR, RegB, LeftLoadStore, RightLoad8, 0xda, 4},
	{symADD8, DIR, RegB, LeftLoadStore, RightLoad8, 0xdb, 4},
	{symLD16, DIR, RegD, LeftStore, RightLoad16, 0xdc, 5},
	{symST16, DIR, RegD, LeftLoad, RightStore16, 0xdd, 5},
	{symLD16, DIR, RegU, LeftStore, RightLoad16, 0xde, 5},
	{symST16, DIR, RegU, LeftLoad, RightStore16, 0xdf, 5},

	{symSUB8, IDX, RegB, LeftLoadStore, RightLoad8, 0xe0, 4},
	{symCMP8, IDX, RegB, LeftLoad, RightLoad8, 0xe1, 4},
	{symSBC, IDX, RegB, LeftLoadStore, RightLoad8, 0xe2, 4},
	{symADD16, IDX, RegD, LeftLoadStore, RightLoad16, 0xe3, 6},
	{symAND, IDX, RegB, LeftLoadStore, RightLoad8, 0xe4, 4},
	{symBIT, IDX, RegB, LeftLoad, RightLoad8, 0xe5, 4},
	{symLD8, IDX, RegB, LeftStore, RightLoad8, 0xe6, 4},
	{symST8, IDX, RegB, LeftLoad, RightStore8, 0xe7, 4},
	{symEOR, IDX, RegB, LeftLoadStore, RightLoad8, 0xe8, 4},
	{symADC, IDX, RegB, LeftLoadStore, RightLoad8, 0xe9, 4},
	{symOR, IDX, RegB, LeftLoadStore, RightLoad8, 0xea, 4},
	{symADD8, IDX, RegB, LeftLoadStore, RightLoad8, 0xeb, 4},
	{symLD16, IDX, RegD, LeftStore, RightLoad16, 0xec, 5},
	{symST16, IDX, RegD, LeftLoad, RightStore16, 0xed, 5},
	{symLD16, IDX, RegU, LeftStore, RightLoad16, 0xee, 5},
	{symST16, IDX, RegU, LeftLoad, RightStore16, 0xef, 5},

	{symSUB8, EXT, RegB, LeftLoadStore, RightLoad8, 0xf0, 5},
	{symCMP8, EXT, RegB, LeftLoad, RightLoad8, 0xf1, 5},
	{symSBC, EXT, RegB, LeftLoadStore, RightLoad8, 0xf2, 5},
	{symADD16, EXT, RegD, LeftLoadStore, RightLoad16, 0xf3, 7},
	{symAND, EXT, RegB, LeftLoadStore, RightLoad8, 0xf4, 5},
	{symBIT, EXT, RegB, LeftLoad, RightLoad8, 0xf5, 5},
	{symLD8, EXT, RegB, LeftStore, RightLoad8, 0xf6, 5},
	{symST8, EXT, RegB, LeftLoad, RightStore8, 0xf7, 5},
	{symEOR, EXT, RegB, LeftLoadStore, RightLoad8, 0xf8, 5},
	{symADC, EXT, RegB, LeftLoadStore, RightLoad8, 0xf9, 5},
	{symOR, EXT, RegB, LeftLoadStore, RightLoad8, 0xfa, 5},
	{symADD8, EXT, RegB, LeftLoadStore, RightLoad8, 0xfb, 5},
	{symLD16, EXT, RegD, LeftStore, RightLoad16, 0xfc, 6},
	{symST16, EXT, RegD, LeftLoad, RightStore16, 0xfd, 6},
	{symLD16, EXT, RegU, LeftStore, RightLoad16, 0xfe, 6},
	{symST16, EXT, RegU, LeftLoad, RightStore16, 0xff, 6},
}

// Instructions reached through the $10 prefix
var page2Data = []opcodeData{
	{symBRN, RELP, RegNone, LeftNone, RightNone, 0x21, 5},
	{symBHI, RELP, RegNone, LeftNone, RightNone, 0x22, 5},
	{symBLS, RELP, RegNone, LeftNone, RightNone, 0x23, 5},
	{symBCC, RELP, RegNone, LeftNone, RightNone, 0x24, 5},
	{symBCS, RELP, RegNone, LeftNone, RightNone, 0x25, 5},
	{symBNE, RELP, RegNone, LeftNone, RightNone, 0x26, 5},
	{symBEQ, RELP, RegNone, LeftNone, RightNone, 0x27, 5},
	{symBVC, RELP, RegNone, LeftNone, RightNone, 0x28, 5},
	{symBVS, RELP, RegNone, LeftNone, RightNone, 0x29, 5},
	{symBPL, RELP, RegNone, LeftNone, RightNone, 0x2a, 5},
	{symBMI, RELP, RegNone, LeftNone, RightNone, 0x2b, 5},
	{symBGE, RELP, RegNone, LeftNone, RightNone, 0x2c, 5},
	{symBLT, RELP, RegNone, LeftNone, RightNone, 0x2d, 5},
	{symBGT, RELP, RegNone, LeftNone, RightNone, 0x2e, 5},
	{symBLE, RELP, RegNone, LeftNone, RightNone, 0x2f, 5},

	{symSWI2, INH, RegNone, LeftNone, RightNone, 0x3f, 20},

	{symCMP16, IMM16, RegD, LeftLoad, RightLoad16, 0x83, 5},
	{symCMP16, IMM16, RegY, LeftLoad, RightLoad16, 0x8c, 5},
	{symLD16, IMM16, RegY, LeftStore, RightLoad16, 0x8e, 4},
	{symCMP16, DIR, RegD, LeftLoad, RightLoad16, 0x93, 7},
	{symCMP16, DIR, RegY, LeftLoad, RightLoad16, 0x9c, 7},
	{symLD16, DIR, RegY, LeftStore, RightLoad16, 0x9e, 6},
	{symST16, DIR, RegY, LeftLoad, RightStore16, 0x9f, 6},
	{symCMP16, IDX, RegD, LeftLoad, RightLoad16, 0xa3, 7},
	{symCMP16, IDX, RegY, LeftLoad, RightLoad16, 0xac, 7},
	{symLD16, IDX, RegY, LeftStore, RightLoad16, 0xae, 6},
	{symST16, IDX, RegY, LeftLoad, RightStore16, 0xaf, 6},
	{symCMP16, EXT, RegD, LeftLoad, RightLoad16, 0xb3, 8},
	{symCMP16, EXT, RegY, LeftLoad, RightLoad16, 0xbc, 8},
	{symLD16, EXT, RegY, LeftStore, RightLoad16, 0xbe, 7},
	{symST16, EXT, RegY, LeftLoad, RightStore16, 0xbf, 7},

	{symLD16, IMM16, RegS, LeftStore, RightLoad16, 0xce, 4},
	{symLD16, DIR, RegS, LeftStore, RightLoad16, 0xde, 6},
	{symST16, DIR, RegS, LeftLoad, RightStore16, 0xdf, 6},
	{symLD16, IDX, RegS, LeftStore, RightLoad16, 0xee, 6},
	{symST16, IDX, RegS, LeftLoad, RightStore16, 0xef, 6},
	{symLD16, EXT, RegS, LeftStore, RightLoad16, 0xfe, 7},
	{symST16, EXT, RegS, LeftLoad, RightStore16, 0xff, 7},
}

// Instructions reached through the $11 prefix
var page3Data = []opcodeData{
	{symSWI3, INH, RegNone, LeftNone, RightNone, 0x3f, 20},

	{symCMP16, IMM16, RegU, LeftLoad, RightLoad16, 0x83, 5},
	{symCMP16, IMM16, RegS, LeftLoad, RightLoad16, 0x8c, 5},
	{symCMP16, DIR, RegU, LeftLoad, RightLoad16, 0x93, 7},
	{symCMP16, DIR, RegS, LeftLoad, RightLoad16, 0x9c, 7},
	{symCMP16, IDX, RegU, LeftLoad, RightLoad16, 0xa3, 7},
	{symCMP16, IDX, RegS, LeftLoad, RightLoad16, 0xac, 7},
	{symCMP16, EXT, RegU, LeftLoad, RightLoad16, 0xb3, 8},
	{symCMP16, EXT, RegS, LeftLoad, RightLoad16, 0xbc, 8},
}

// An Instruction describes a CPU instruction: its name, the page and
// opcode that select it, how it addresses memory, how it uses its
// operands, and its base CPU cycle cost.
type Instruction struct {
	Name   string // all-caps name of the instruction
	Page   Page   // opcode table holding the instruction
	Opcode byte   // hexadecimal opcode value
	Mode   Mode   // addressing mode
	Reg    Reg    // register operand
	Left   Left   // register operand role
	Right  Right  // memory operand role
	Cycles byte   // number of CPU cycles before mode-dependent extras
	sym    opsym
	fn     instfunc // emulator implementation of the function
}

// Illegal returns true if the opcode does not map to a valid instruction.
func (inst *Instruction) Illegal() bool {
	return inst.sym == symIllegal
}

// IsPrefix returns true if the opcode is a page prefix.
func (inst *Instruction) IsPrefix() bool {
	return inst.sym == symPage2 || inst.sym == symPage3
}

// IsCall returns true if the instruction pushes a return address and
// transfers control to a subroutine.
func (inst *Instruction) IsCall() bool {
	return inst.sym == symJSR || inst.sym == symBSR
}

// IsReturn returns true if the instruction pulls the program counter off
// the hardware stack.
func (inst *Instruction) IsReturn() bool {
	return inst.sym == symRTS || inst.sym == symRTI
}

// OperandSize returns the number of operand bytes following the opcode,
// not counting any bytes implied by an indexed-mode postbyte.
func (inst *Instruction) OperandSize() int {
	switch inst.Mode {
	case DIR, IMM8, REL, IDX:
		return 1
	case EXT, IMM16, RELL:
		return 2
	case RELP:
		if inst.Page == Page2 {
			return 2
		}
		return 1
	}
	return 0
}

// An InstructionSet defines the set of all possible instructions that
// can run on the emulated CPU.
type InstructionSet struct {
	pages    [3][256]Instruction       // all instructions by page and opcode
	variants map[string][]*Instruction // variants of each instruction
}

// Lookup retrieves a CPU instruction corresponding to the requested page
// and opcode.
func (s *InstructionSet) Lookup(page Page, opcode byte) *Instruction {
	return &s.pages[page][opcode]
}

// GetInstructions returns all CPU instructions whose name matches the
// provided string.
func (s *InstructionSet) GetInstructions(name string) []*Instruction {
	return s.variants[strings.ToUpper(name)]
}

// Create the instruction set.
func newInstructionSet() *InstructionSet {
	set := &InstructionSet{}

	// Create a map from symbol to implementation for fast lookups.
	symToImpl := make(map[opsym]*opcodeImpl, len(impl))
	for i := range impl {
		symToImpl[impl[i].sym] = &impl[i]
	}

	// Create a map from instruction name to the slice of all instruction
	// variants matching that name.
	set.variants = make(map[string][]*Instruction)

	// Every opcode starts out illegal.
	for p := range set.pages {
		for i := range set.pages[p] {
			set.pages[p][i] = Instruction{
				Name:   "???",
				Page:   Page(p),
				Opcode: byte(i),
				sym:    symIllegal,
			}
		}
	}

	tables := [3][]opcodeData{page1Data, page2Data, page3Data}
	for p, data := range tables {
		for _, d := range data {
			inst := &set.pages[p][d.opcode]
			if inst.sym != symIllegal {
				panic("duplicate opcode")
			}

			inst.Mode = d.mode
			inst.Reg = d.reg
			inst.Left = d.left
			inst.Right = d.right
			inst.Cycles = d.cycles
			inst.sym = d.sym

			switch d.sym {
			case symPage2, symPage3:
				inst.Name = "PAGE"
				continue
			}

			impl := symToImpl[d.sym]
			inst.fn = impl.fn
			inst.Name = impl.name + d.reg.String()
			if d.mode == RELL || (d.mode == RELP && Page(p) == Page2) {
				inst.Name = "L" + inst.Name
			}

			set.variants[inst.Name] = append(set.variants[inst.Name], inst)
		}
	}
	return set
}

var (
	instructionSet     *InstructionSet
	instructionSetOnce sync.Once
)

// GetInstructionSet returns the 6809 instruction set.
func GetInstructionSet() *InstructionSet {
	instructionSetOnce.Do(func() {
		instructionSet = newInstructionSet()
	})
	return instructionSet
}
