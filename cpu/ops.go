// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Update the Zero and Negative flags based on the 8-bit value 'v'.
func (cpu *CPU) updateNZ8(v byte) {
	cpu.Reg.SetFlag(ZeroBit, v == 0)
	cpu.Reg.SetFlag(SignBit, v&0x80 != 0)
}

// Update the Zero and Negative flags based on the 16-bit value 'v'.
func (cpu *CPU) updateNZ16(v uint16) {
	cpu.Reg.SetFlag(ZeroBit, v == 0)
	cpu.Reg.SetFlag(SignBit, v&0x8000 != 0)
}

// Update Zero and Negative from an 8-bit result and clear oVerflow.
func (cpu *CPU) updateNZ0(v byte) {
	cpu.updateNZ8(v)
	cpu.Reg.SetFlag(OverflowBit, false)
}

func (cpu *CPU) carry() uint16 {
	return uint16(cpu.Reg.CC & CarryBit)
}

// 8-bit add of 'a', 'b' and 'c', updating H, N, Z, V and C.
func (cpu *CPU) addFlags8(a, b, c uint16) uint16 {
	r := a + b + c
	cpu.Reg.SetFlag(HalfBit, (a^b^r)&0x10 != 0)
	cpu.updateNZ8(byte(r))
	cpu.Reg.SetFlag(OverflowBit, (a^r)&(b^r)&0x80 != 0)
	cpu.Reg.SetFlag(CarryBit, r&0x100 != 0)
	return r & 0xff
}

// 8-bit subtract of 'b' and 'c' from 'a', updating N, Z, V and C.
func (cpu *CPU) subFlags8(a, b, c uint16) uint16 {
	r := a - b - c
	cpu.updateNZ8(byte(r))
	cpu.Reg.SetFlag(OverflowBit, (a^b)&(a^r)&0x80 != 0)
	cpu.Reg.SetFlag(CarryBit, r&0x100 != 0)
	return r & 0xff
}

// 16-bit add of 'a' and 'b', updating N, Z, V and C.
func (cpu *CPU) addFlags16(a, b uint16) uint16 {
	r := uint32(a) + uint32(b)
	cpu.updateNZ16(uint16(r))
	cpu.Reg.SetFlag(OverflowBit, (uint32(a)^r)&(uint32(b)^r)&0x8000 != 0)
	cpu.Reg.SetFlag(CarryBit, r&0x10000 != 0)
	return uint16(r)
}

// 16-bit subtract of 'b' from 'a', updating N, Z, V and C.
func (cpu *CPU) subFlags16(a, b uint16) uint16 {
	r := uint32(a) - uint32(b)
	cpu.updateNZ16(uint16(r))
	cpu.Reg.SetFlag(OverflowBit, (uint32(a)^uint32(b))&(uint32(a)^r)&0x8000 != 0)
	cpu.Reg.SetFlag(CarryBit, r&0x10000 != 0)
	return uint16(r)
}

// Add B to X
func (cpu *CPU) abx(inst *Instruction) {
	cpu.Reg.X += uint16(cpu.Reg.B())
}

// Add with carry
func (cpu *CPU) adc(inst *Instruction) {
	cpu.result = cpu.addFlags8(cpu.left, cpu.right, cpu.carry())
}

// Add (8-bit)
func (cpu *CPU) add8(inst *Instruction) {
	cpu.result = cpu.addFlags8(cpu.left, cpu.right, 0)
}

// Add (16-bit)
func (cpu *CPU) add16(inst *Instruction) {
	cpu.result = cpu.addFlags16(cpu.left, cpu.right)
}

// Boolean AND
func (cpu *CPU) and(inst *Instruction) {
	cpu.result = cpu.left & cpu.right
	cpu.updateNZ0(byte(cpu.result))
}

// AND condition codes
func (cpu *CPU) andcc(inst *Instruction) {
	cpu.result = cpu.left & cpu.right
}

// Arithmetic Shift Left
func (cpu *CPU) asl(inst *Instruction) {
	v := byte(cpu.left)
	r := v << 1
	cpu.Reg.SetFlag(CarryBit, v&0x80 != 0)
	cpu.Reg.SetFlag(OverflowBit, (v^r)&0x80 != 0)
	cpu.updateNZ8(r)
	cpu.result = uint16(r)
}

// Arithmetic Shift Right
func (cpu *CPU) asr(inst *Instruction) {
	v := byte(cpu.left)
	r := v>>1 | v&0x80
	cpu.Reg.SetFlag(CarryBit, v&1 != 0)
	cpu.updateNZ8(r)
	cpu.result = uint16(r)
}

// Take the branch whose offset was resolved into 'right'. Long
// conditional branches cost an extra cycle when taken.
func (cpu *CPU) branch(inst *Instruction, cond bool) {
	if !cond {
		return
	}
	cpu.Reg.PC += cpu.right
	if inst.Mode == RELP && inst.Page == Page2 {
		cpu.deltaCycles++
	}
}

// Branch if Carry Clear
func (cpu *CPU) bcc(inst *Instruction) {
	cpu.branch(inst, !cpu.Reg.Flag(CarryBit))
}

// Branch if Carry Set
func (cpu *CPU) bcs(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.Flag(CarryBit))
}

// Branch if EQual (to zero)
func (cpu *CPU) beq(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.Flag(ZeroBit))
}

// Branch if Greater or Equal (signed)
func (cpu *CPU) bge(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.Flag(SignBit) == cpu.Reg.Flag(OverflowBit))
}

// Branch if Greater Than (signed)
func (cpu *CPU) bgt(inst *Instruction) {
	cpu.branch(inst, !cpu.Reg.Flag(ZeroBit) &&
		cpu.Reg.Flag(SignBit) == cpu.Reg.Flag(OverflowBit))
}

// Branch if HIgher (unsigned)
func (cpu *CPU) bhi(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.CC&(CarryBit|ZeroBit) == 0)
}

// Bit Test
func (cpu *CPU) bit(inst *Instruction) {
	cpu.updateNZ0(byte(cpu.left & cpu.right))
}

// Branch if Less or Equal (signed)
func (cpu *CPU) ble(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.Flag(ZeroBit) ||
		cpu.Reg.Flag(SignBit) != cpu.Reg.Flag(OverflowBit))
}

// Branch if Lower or Same (unsigned)
func (cpu *CPU) bls(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.CC&(CarryBit|ZeroBit) != 0)
}

// Branch if Less Than (signed)
func (cpu *CPU) blt(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.Flag(SignBit) != cpu.Reg.Flag(OverflowBit))
}

// Branch if MInus (negative)
func (cpu *CPU) bmi(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.Flag(SignBit))
}

// Branch if Not Equal (not zero)
func (cpu *CPU) bne(inst *Instruction) {
	cpu.branch(inst, !cpu.Reg.Flag(ZeroBit))
}

// Branch if PLus (positive)
func (cpu *CPU) bpl(inst *Instruction) {
	cpu.branch(inst, !cpu.Reg.Flag(SignBit))
}

// Branch always
func (cpu *CPU) bra(inst *Instruction) {
	cpu.Reg.PC += cpu.right
}

// Branch never
func (cpu *CPU) brn(inst *Instruction) {
}

// Branch to subroutine
func (cpu *CPU) bsr(inst *Instruction) {
	cpu.pushWord(&cpu.Reg.S, cpu.Reg.PC)
	cpu.Reg.PC += cpu.right
}

// Branch if oVerflow Clear
func (cpu *CPU) bvc(inst *Instruction) {
	cpu.branch(inst, !cpu.Reg.Flag(OverflowBit))
}

// Branch if oVerflow Set
func (cpu *CPU) bvs(inst *Instruction) {
	cpu.branch(inst, cpu.Reg.Flag(OverflowBit))
}

// Clear
func (cpu *CPU) clr(inst *Instruction) {
	cpu.result = 0
	cpu.Reg.CC = cpu.Reg.CC&^(SignBit|OverflowBit|CarryBit) | ZeroBit
}

// Compare (8-bit)
func (cpu *CPU) cmp8(inst *Instruction) {
	cpu.subFlags8(cpu.left, cpu.right, 0)
}

// Compare (16-bit)
func (cpu *CPU) cmp16(inst *Instruction) {
	cpu.subFlags16(cpu.left, cpu.right)
}

// Complement
func (cpu *CPU) com(inst *Instruction) {
	r := ^byte(cpu.left)
	cpu.updateNZ0(r)
	cpu.Reg.SetFlag(CarryBit, true)
	cpu.result = uint16(r)
}

// Clear condition codes and wait for interrupt. The entire register set
// is stacked immediately.
func (cpu *CPU) cwai(inst *Instruction) {
	cpu.Reg.CC &= byte(cpu.right)
	cpu.pushEntire()
	cpu.waiting = true
}

// Decimal Adjust A
func (cpu *CPU) daa(inst *Instruction) {
	a := cpu.Reg.A()
	msn, lsn := a&0xf0, a&0x0f

	var cf uint16
	if lsn > 0x09 || cpu.Reg.Flag(HalfBit) {
		cf |= 0x06
	}
	if msn > 0x80 && lsn > 0x09 {
		cf |= 0x60
	}
	if msn > 0x90 || cpu.Reg.Flag(CarryBit) {
		cf |= 0x60
	}

	r := uint16(a) + cf
	cpu.updateNZ0(byte(r))
	if r&0x100 != 0 {
		cpu.Reg.SetFlag(CarryBit, true)
	}
	cpu.Reg.SetA(byte(r))
}

// Decrement
func (cpu *CPU) dec(inst *Instruction) {
	v := byte(cpu.left)
	r := v - 1
	cpu.Reg.SetFlag(OverflowBit, v == 0x80)
	cpu.updateNZ8(r)
	cpu.result = uint16(r)
}

// Boolean XOR
func (cpu *CPU) eor(inst *Instruction) {
	cpu.result = cpu.left ^ cpu.right
	cpu.updateNZ0(byte(cpu.result))
}

// Read a register for EXG or TFR. Undefined codes read as all ones.
func (cpu *CPU) transferLoad(r Reg) uint16 {
	if r == RegNone {
		return 0xffff
	}
	return cpu.Reg.Get(r)
}

// Convert a value read from register 'from' for storage in 'to'. An 8-bit
// value written to a 16-bit register is filled with ones in its high byte.
func transferValue(from, to Reg, v uint16) uint16 {
	if to.Wide() && !from.Wide() {
		return 0xff00 | v
	}
	return v
}

// Exchange registers
func (cpu *CPU) exg(inst *Instruction) {
	r1 := TransferReg(byte(cpu.right) >> 4)
	r2 := TransferReg(byte(cpu.right))
	v1 := cpu.transferLoad(r1)
	v2 := cpu.transferLoad(r2)
	cpu.Reg.Set(r1, transferValue(r2, r1, v2))
	cpu.Reg.Set(r2, transferValue(r1, r2, v1))
}

// Increment
func (cpu *CPU) inc(inst *Instruction) {
	v := byte(cpu.left)
	r := v + 1
	cpu.Reg.SetFlag(OverflowBit, v == 0x7f)
	cpu.updateNZ8(r)
	cpu.result = uint16(r)
}

// Jump to memory address
func (cpu *CPU) jmp(inst *Instruction) {
	cpu.Reg.PC = cpu.ea
}

// Jump to subroutine. Calls into the system range are passed to the
// syscall handler and leave the stack untouched.
func (cpu *CPU) jsr(inst *Instruction) {
	if cpu.ea >= SyscallBase {
		if cpu.syscall == nil || !cpu.syscall.OnSyscall(cpu, cpu.ea) {
			cpu.fault = &SyscallError{Addr: cpu.ea, PC: cpu.LastPC}
		}
		return
	}
	cpu.pushWord(&cpu.Reg.S, cpu.Reg.PC)
	cpu.Reg.PC = cpu.ea
}

// Load register (8-bit)
func (cpu *CPU) ld8(inst *Instruction) {
	cpu.result = cpu.right
	cpu.updateNZ0(byte(cpu.result))
}

// Load register (16-bit)
func (cpu *CPU) ld16(inst *Instruction) {
	cpu.result = cpu.right
	cpu.updateNZ16(cpu.result)
	cpu.Reg.SetFlag(OverflowBit, false)
}

// Load effective address. Only LEAX and LEAY affect Z.
func (cpu *CPU) lea(inst *Instruction) {
	cpu.result = cpu.ea
	if inst.Reg == RegX || inst.Reg == RegY {
		cpu.Reg.SetFlag(ZeroBit, cpu.result == 0)
	}
}

// Logical Shift Right
func (cpu *CPU) lsr(inst *Instruction) {
	v := byte(cpu.left)
	r := v >> 1
	cpu.Reg.SetFlag(CarryBit, v&1 != 0)
	cpu.updateNZ8(r)
	cpu.result = uint16(r)
}

// Multiply A by B, unsigned, into D
func (cpu *CPU) mul(inst *Instruction) {
	cpu.Reg.D = uint16(cpu.Reg.A()) * uint16(cpu.Reg.B())
	cpu.Reg.SetFlag(ZeroBit, cpu.Reg.D == 0)
	cpu.Reg.SetFlag(CarryBit, cpu.Reg.D&0x80 != 0)
}

// Negate
func (cpu *CPU) neg(inst *Instruction) {
	v := byte(cpu.left)
	r := -v
	cpu.updateNZ8(r)
	cpu.Reg.SetFlag(OverflowBit, v == 0x80)
	cpu.Reg.SetFlag(CarryBit, r != 0)
	cpu.result = uint16(r)
}

// No-operation
func (cpu *CPU) nop(inst *Instruction) {
	// Do nothing
}

// Boolean OR
func (cpu *CPU) or(inst *Instruction) {
	cpu.result = cpu.left | cpu.right
	cpu.updateNZ0(byte(cpu.result))
}

// OR condition codes
func (cpu *CPU) orcc(inst *Instruction) {
	cpu.result = cpu.left | cpu.right
}

// Return the stack pointer used by PSH/PUL and the "other" stack pointer
// selected by postbyte bit 6.
func (cpu *CPU) stackPair(inst *Instruction) (sp, other *uint16) {
	if inst.Reg == RegU {
		return &cpu.Reg.U, &cpu.Reg.S
	}
	return &cpu.Reg.S, &cpu.Reg.U
}

// Push registers. Postbyte bits select PC, U/S, Y, X, DP, B, A, CC from
// high to low, and are pushed in that order.
func (cpu *CPU) psh(inst *Instruction) {
	sp, other := cpu.stackPair(inst)
	mask := byte(cpu.right)
	n := 0
	if mask&0x80 != 0 {
		cpu.pushWord(sp, cpu.Reg.PC)
		n += 2
	}
	if mask&0x40 != 0 {
		cpu.pushWord(sp, *other)
		n += 2
	}
	if mask&0x20 != 0 {
		cpu.pushWord(sp, cpu.Reg.Y)
		n += 2
	}
	if mask&0x10 != 0 {
		cpu.pushWord(sp, cpu.Reg.X)
		n += 2
	}
	if mask&0x08 != 0 {
		cpu.push(sp, cpu.Reg.DP)
		n++
	}
	if mask&0x04 != 0 {
		cpu.push(sp, cpu.Reg.B())
		n++
	}
	if mask&0x02 != 0 {
		cpu.push(sp, cpu.Reg.A())
		n++
	}
	if mask&0x01 != 0 {
		cpu.push(sp, cpu.Reg.CC)
		n++
	}
	cpu.deltaCycles += n
}

// Pull registers, in the reverse of the push order.
func (cpu *CPU) pul(inst *Instruction) {
	sp, other := cpu.stackPair(inst)
	mask := byte(cpu.right)
	n := 0
	if mask&0x01 != 0 {
		cpu.Reg.CC = cpu.pull(sp)
		n++
	}
	if mask&0x02 != 0 {
		cpu.Reg.SetA(cpu.pull(sp))
		n++
	}
	if mask&0x04 != 0 {
		cpu.Reg.SetB(cpu.pull(sp))
		n++
	}
	if mask&0x08 != 0 {
		cpu.Reg.DP = cpu.pull(sp)
		n++
	}
	if mask&0x10 != 0 {
		cpu.Reg.X = cpu.pullWord(sp)
		n += 2
	}
	if mask&0x20 != 0 {
		cpu.Reg.Y = cpu.pullWord(sp)
		n += 2
	}
	if mask&0x40 != 0 {
		*other = cpu.pullWord(sp)
		n += 2
	}
	if mask&0x80 != 0 {
		cpu.Reg.PC = cpu.pullWord(sp)
		n += 2
	}
	cpu.deltaCycles += n
}

// Rotate Left through carry
func (cpu *CPU) rol(inst *Instruction) {
	v := byte(cpu.left)
	r := v<<1 | byte(cpu.carry())
	cpu.Reg.SetFlag(CarryBit, v&0x80 != 0)
	cpu.Reg.SetFlag(OverflowBit, (v^v<<1)&0x80 != 0)
	cpu.updateNZ8(r)
	cpu.result = uint16(r)
}

// Rotate Right through carry
func (cpu *CPU) ror(inst *Instruction) {
	v := byte(cpu.left)
	r := v>>1 | byte(cpu.carry())<<7
	cpu.Reg.SetFlag(CarryBit, v&1 != 0)
	cpu.updateNZ8(r)
	cpu.result = uint16(r)
}

// Return from Interrupt. If the stacked E flag is set, the entire
// register set is restored.
func (cpu *CPU) rti(inst *Instruction) {
	s := &cpu.Reg.S
	cpu.Reg.CC = cpu.pull(s)
	if cpu.Reg.Flag(EntireBit) {
		cpu.Reg.SetA(cpu.pull(s))
		cpu.Reg.SetB(cpu.pull(s))
		cpu.Reg.DP = cpu.pull(s)
		cpu.Reg.X = cpu.pullWord(s)
		cpu.Reg.Y = cpu.pullWord(s)
		cpu.Reg.U = cpu.pullWord(s)
		cpu.deltaCycles += 9
	}
	cpu.Reg.PC = cpu.pullWord(s)
}

// Return from Subroutine
func (cpu *CPU) rts(inst *Instruction) {
	cpu.Reg.PC = cpu.pullWord(&cpu.Reg.S)
}

// Subtract with Carry
func (cpu *CPU) sbc(inst *Instruction) {
	cpu.result = cpu.subFlags8(cpu.left, cpu.right, cpu.carry())
}

// Sign EXtend B into A
func (cpu *CPU) sex(inst *Instruction) {
	if cpu.Reg.B()&0x80 != 0 {
		cpu.Reg.SetA(0xff)
	} else {
		cpu.Reg.SetA(0)
	}
	cpu.updateNZ16(cpu.Reg.D)
}

// Store register (8-bit)
func (cpu *CPU) st8(inst *Instruction) {
	cpu.result = cpu.left
	cpu.updateNZ0(byte(cpu.result))
}

// Store register (16-bit)
func (cpu *CPU) st16(inst *Instruction) {
	cpu.result = cpu.left
	cpu.updateNZ16(cpu.result)
	cpu.Reg.SetFlag(OverflowBit, false)
}

// Subtract (8-bit)
func (cpu *CPU) sub8(inst *Instruction) {
	cpu.result = cpu.subFlags8(cpu.left, cpu.right, 0)
}

// Subtract (16-bit)
func (cpu *CPU) sub16(inst *Instruction) {
	cpu.result = cpu.subFlags16(cpu.left, cpu.right)
}

// Software interrupt
func (cpu *CPU) swi(inst *Instruction) {
	cpu.pushEntire()
	cpu.Reg.CC |= IRQMaskBit | FIRQMaskBit
	cpu.vector(vectorSWI)
}

// Software interrupt 2
func (cpu *CPU) swi2(inst *Instruction) {
	cpu.pushEntire()
	cpu.vector(vectorSWI2)
}

// Software interrupt 3
func (cpu *CPU) swi3(inst *Instruction) {
	cpu.pushEntire()
	cpu.vector(vectorSWI3)
}

// Synchronize with interrupt
func (cpu *CPU) sync(inst *Instruction) {
	cpu.waiting = true
}

// Transfer register to register
func (cpu *CPU) tfr(inst *Instruction) {
	from := TransferReg(byte(cpu.right) >> 4)
	to := TransferReg(byte(cpu.right))
	cpu.Reg.Set(to, transferValue(from, to, cpu.transferLoad(from)))
}

// Test
func (cpu *CPU) tst(inst *Instruction) {
	cpu.updateNZ0(byte(cpu.left))
}
