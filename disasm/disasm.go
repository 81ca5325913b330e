// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6809 instruction set
// disassembler.
package disasm

import (
	"fmt"
	"strings"

	"github.com/beevik/go6809/cpu"
)

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code.
func Disassemble(m cpu.Memory, addr uint16) (line string, next uint16) {
	inst, n, next := cpu.Decode(m, addr)
	if inst.Illegal() {
		return "???", next
	}

	// Address of the first operand byte
	op := addr + uint16(n) + 1

	var operand string
	switch inst.Mode {
	case cpu.INH:
		return inst.Name, next
	case cpu.DIR:
		operand = fmt.Sprintf("<$%02X", m.LoadByte(op))
	case cpu.EXT:
		operand = fmt.Sprintf("$%04X", m.LoadAddress(op))
	case cpu.IMM8:
		operand = immediate8(inst, m.LoadByte(op))
	case cpu.IMM16:
		operand = fmt.Sprintf("#$%04X", m.LoadAddress(op))
	case cpu.REL, cpu.RELL, cpu.RELP:
		var off uint16
		if inst.OperandSize() == 2 {
			off = m.LoadAddress(op)
		} else {
			off = uint16(int8(m.LoadByte(op)))
		}
		operand = fmt.Sprintf("$%04X", next+off)
	case cpu.IDX:
		operand = indexed(m, op, next)
	}
	return inst.Name + " " + operand, next
}

// Stack register names by PSH/PUL postbyte bit.
var stackRegs = [8]string{"CC", "A", "B", "DP", "X", "Y", "", "PC"}

func immediate8(inst *cpu.Instruction, v byte) string {
	switch {
	case inst.Name == "EXG" || inst.Name == "TFR":
		return transferName(v>>4) + "," + transferName(v&0x0f)

	case strings.HasPrefix(inst.Name, "PSH") || strings.HasPrefix(inst.Name, "PUL"):
		other := "U"
		if inst.Reg == cpu.RegU {
			other = "S"
		}
		var regs []string
		for i, r := range stackRegs {
			if v&(1<<i) == 0 {
				continue
			}
			if r == "" {
				r = other
			}
			regs = append(regs, r)
		}
		return strings.Join(regs, ",")
	}
	return fmt.Sprintf("#$%02X", v)
}

func transferName(code byte) string {
	if r := cpu.TransferReg(code); r != cpu.RegNone {
		return r.String()
	}
	return "?"
}

var indexRegs = [4]string{"X", "Y", "U", "S"}

// Format the indexed operand whose postbyte is at 'op'.
func indexed(m cpu.Memory, op, next uint16) string {
	post := m.LoadByte(op)
	r := indexRegs[(post>>5)&3]

	if post&0x80 == 0 {
		return fmt.Sprintf("%d,%s", int8(post<<3)>>3, r)
	}
	if !cpu.ValidPostbyte(post) {
		return "???"
	}

	var s string
	switch post & 0x0f {
	case 0x0:
		s = "," + r + "+"
	case 0x1:
		s = "," + r + "++"
	case 0x2:
		s = ",-" + r
	case 0x3:
		s = ",--" + r
	case 0x4:
		s = "," + r
	case 0x5:
		s = "B," + r
	case 0x6:
		s = "A," + r
	case 0x8:
		s = signedByte(m.LoadByte(op+1)) + "," + r
	case 0x9:
		s = fmt.Sprintf("$%04X,%s", m.LoadAddress(op+1), r)
	case 0xb:
		s = "D," + r
	case 0xc:
		s = fmt.Sprintf("$%04X,PCR", next+uint16(int8(m.LoadByte(op+1))))
	case 0xd:
		s = fmt.Sprintf("$%04X,PCR", next+m.LoadAddress(op+1))
	case 0xf:
		s = fmt.Sprintf("$%04X", m.LoadAddress(op+1))
	}

	if post&0x10 != 0 {
		s = "[" + s + "]"
	}
	return s
}

func signedByte(v byte) string {
	if int8(v) < 0 {
		return fmt.Sprintf("-$%02X", -int(int8(v)))
	}
	return fmt.Sprintf("$%02X", v)
}

// GetRegisterString returns a string describing the contents of the
// 6809 registers.
func GetRegisterString(r *cpu.Registers) string {
	return fmt.Sprintf("A=%02X B=%02X X=%04X Y=%04X U=%04X S=%04X DP=%02X CC=[%s] PC=%04X",
		r.A(), r.B(), r.X, r.Y, r.U, r.S, r.DP, getStatusBits(r), r.PC)
}

var flagNames = "EFHINZVC"

func getStatusBits(r *cpu.Registers) string {
	b := []byte(flagNames)
	for i := range b {
		if r.CC&(0x80>>i) == 0 {
			b[i] = '-'
		}
	}
	return string(b)
}
