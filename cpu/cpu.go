// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements a 6809 CPU instruction
// set and emulator.
package cpu

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Errors
var (
	ErrIllegalOpcode    = errors.New("illegal opcode")
	ErrUnhandledSyscall = errors.New("unhandled system call")
	ErrStopped          = errors.New("cpu stopped")
	ErrWaiting          = errors.New("cpu waiting for interrupt")
)

// IllegalOpcodeError reports an opcode, or indexed-mode postbyte, that
// does not decode to a valid instruction.
type IllegalOpcodeError struct {
	Addr     uint16 // address of the first opcode byte
	Page     Page   // opcode table consulted
	Opcode   byte   // the offending opcode
	Postbyte byte   // the offending postbyte, if BadIndex is set
	BadIndex bool   // the opcode is legal but its postbyte is not
}

func (e *IllegalOpcodeError) Error() string {
	prefix := ""
	if b, ok := e.Page.Prefix(); ok {
		prefix = fmt.Sprintf("$%02X ", b)
	}
	if e.BadIndex {
		return fmt.Sprintf("illegal indexed postbyte $%02X for opcode %s$%02X at $%04X",
			e.Postbyte, prefix, e.Opcode, e.Addr)
	}
	return fmt.Sprintf("illegal opcode %s$%02X at $%04X", prefix, e.Opcode, e.Addr)
}

func (e *IllegalOpcodeError) Unwrap() error {
	return ErrIllegalOpcode
}

// SyscallError reports a subroutine call into the system address range
// that the attached handler did not recognize.
type SyscallError struct {
	Addr uint16 // system call address
	PC   uint16 // address of the calling instruction
}

func (e *SyscallError) Error() string {
	return fmt.Sprintf("unhandled system call $%04X at $%04X", e.Addr, e.PC)
}

func (e *SyscallError) Unwrap() error {
	return ErrUnhandledSyscall
}

// SyscallBase is the lowest address of the system call range. A JSR to
// an address at or above it is passed to the attached SyscallHandler
// instead of being executed.
const SyscallBase = 0xfc00

// SyscallHandler is an interface implemented by types that provide host
// services to the emulated program. OnSyscall returns false if it does
// not recognize the address.
type SyscallHandler interface {
	OnSyscall(cpu *CPU, addr uint16) bool
}

// CPU represents a single 6809 CPU. It contains a pointer to the
// memory associated with the CPU.
type CPU struct {
	Reg         Registers       // CPU registers
	Mem         Memory          // assigned memory
	Cycles      uint64          // total executed CPU cycles
	LastPC      uint16          // address of the most recent instruction
	InstSet     *InstructionSet // Instruction set used by the CPU
	ea          uint16          // effective address
	left        uint16          // register operand
	right       uint16          // memory operand or branch offset
	result      uint16          // value stored back by the instruction
	prevOpcode  byte            // previous opcode byte fetched
	deltaCycles int
	waiting     bool
	fault       error
	stop        atomic.Bool
	debugger    *Debugger
	syscall     SyscallHandler
	storeByte   func(cpu *CPU, addr uint16, v byte)
}

// Interrupt vectors
const (
	vectorSWI3  = 0xfff2
	vectorSWI2  = 0xfff4
	vectorFIRQ  = 0xfff6
	vectorIRQ   = 0xfff8
	vectorSWI   = 0xfffa
	vectorNMI   = 0xfffc
	vectorReset = 0xfffe
)

// NewCPU creates an emulated 6809 CPU bound to the specified memory.
func NewCPU(m Memory) *CPU {
	cpu := &CPU{
		Mem:       m,
		InstSet:   GetInstructionSet(),
		storeByte: (*CPU).storeByteNormal,
	}

	cpu.Reg.Init()
	return cpu
}

// SetPC updates the CPU program counter to 'addr'. A CPU waiting in SYNC
// or CWAI resumes at the new address.
func (cpu *CPU) SetPC(addr uint16) {
	cpu.Reg.PC = addr
	cpu.waiting = false
}

// Reset loads the program counter from the reset vector, clears the
// direct page and masks interrupts.
func (cpu *CPU) Reset() {
	cpu.Reg.DP = 0
	cpu.Reg.CC |= IRQMaskBit | FIRQMaskBit
	cpu.Reg.PC = cpu.Mem.LoadAddress(vectorReset)
	cpu.prevOpcode = 0
	cpu.waiting = false
}

// Waiting returns true if the CPU executed SYNC or CWAI and is waiting for
// an interrupt that will never arrive.
func (cpu *CPU) Waiting() bool {
	return cpu.waiting
}

// Stop asks a running CPU to return from Run after the current instruction.
// It is safe to call from any goroutine.
func (cpu *CPU) Stop() {
	cpu.stop.Store(true)
}

// GetInstruction returns the instruction at the requested address, along
// with the number of prefix bytes preceding its opcode.
func (cpu *CPU) GetInstruction(addr uint16) (inst *Instruction, prefixLen int) {
	inst, prefixLen, _ = Decode(cpu.Mem, addr)
	return inst, prefixLen
}

// Decode returns the instruction stored in memory at 'addr', the number
// of prefix bytes preceding its opcode, and the address of the following
// instruction. Only the last of several prefixes selects the page.
func Decode(m Memory, addr uint16) (inst *Instruction, prefixLen int, next uint16) {
	page := Page1
	opcode := m.LoadByte(addr)
	for isPrefix(opcode) && prefixLen < 0xffff {
		page = pageOf(opcode)
		prefixLen++
		opcode = m.LoadByte(addr + uint16(prefixLen))
	}
	inst = GetInstructionSet().Lookup(page, opcode)

	next = addr + uint16(prefixLen) + 1 + uint16(inst.OperandSize())
	if inst.Mode == IDX {
		next += uint16(IndexedOperandSize(m.LoadByte(next - 1)))
	}
	return inst, prefixLen, next
}

func isPrefix(opcode byte) bool {
	return opcode == prefixPage2 || opcode == prefixPage3
}

func pageOf(prefix byte) Page {
	if prefix == prefixPage3 {
		return Page3
	}
	return Page2
}

// NextAddr returns the address of the next instruction following the
// instruction at addr.
func (cpu *CPU) NextAddr(addr uint16) uint16 {
	_, _, next := Decode(cpu.Mem, addr)
	return next
}

// Step the cpu by one instruction. Step returns an error if the
// instruction could not be executed.
func (cpu *CPU) Step() error {
	if cpu.waiting {
		return ErrWaiting
	}

	start := cpu.Reg.PC
	pc := start

	// Fetch the opcode, following any page prefixes. The last prefix
	// selects the opcode table.
	page := Page1
	prev := cpu.prevOpcode
	opcode := cpu.Mem.LoadByte(pc)
	pc++
	for isPrefix(opcode) && pc != start {
		prev = opcode
		page = pageOf(opcode)
		opcode = cpu.Mem.LoadByte(pc)
		pc++
	}
	inst := cpu.InstSet.Lookup(page, opcode)

	if inst.Illegal() {
		cpu.Reg.PC = pc
		return &IllegalOpcodeError{Addr: start, Page: page, Opcode: opcode}
	}

	// Reject undefined indexed postbytes before anything is modified.
	if inst.Mode == IDX {
		post := cpu.Mem.LoadByte(pc)
		if !ValidPostbyte(post) {
			cpu.Reg.PC = pc
			return &IllegalOpcodeError{
				Addr: start, Page: page, Opcode: opcode,
				Postbyte: post, BadIndex: true,
			}
		}
	}

	cpu.LastPC = start
	cpu.Reg.PC = pc
	cpu.prevOpcode = prev
	cpu.deltaCycles = 0
	cpu.fault = nil

	cpu.resolve(inst)
	cpu.loadOperands(inst)
	inst.fn(cpu, inst)
	cpu.storeResult(inst)

	cpu.prevOpcode = opcode
	cpu.Cycles += uint64(int(inst.Cycles) + cpu.deltaCycles)

	if cpu.fault != nil {
		return cpu.fault
	}

	// Update the debugger so it can handle breakpoints.
	if cpu.debugger != nil {
		cpu.debugger.onUpdatePC(cpu, cpu.Reg.PC)
	}
	return nil
}

// Run executes instructions until 'budget' instructions have run, Stop is
// called, or an instruction fails. A budget of zero or less runs without
// limit. Run returns the number of instructions executed.
func (cpu *CPU) Run(budget int) (int, error) {
	cpu.stop.Store(false)
	n := 0
	for budget <= 0 || n < budget {
		if err := cpu.Step(); err != nil {
			return n, err
		}
		n++
		if cpu.stop.Swap(false) {
			return n, ErrStopped
		}
	}
	return n, nil
}

// AttachSyscallHandler attaches a handler that is called whenever a JSR
// targets the system call range.
func (cpu *CPU) AttachSyscallHandler(handler SyscallHandler) {
	cpu.syscall = handler
}

// AttachDebugger attaches a debugger to the CPU. The debugger receives
// notifications whenever the CPU executes an instruction or stores a byte
// to memory.
func (cpu *CPU) AttachDebugger(debugger *Debugger) {
	cpu.debugger = debugger
	cpu.storeByte = (*CPU).storeByteDebugger
}

// DetachDebugger detaches the currently debugger from the CPU.
func (cpu *CPU) DetachDebugger() {
	cpu.debugger = nil
	cpu.storeByte = (*CPU).storeByteNormal
}

// Fetch the byte at PC and advance PC.
func (cpu *CPU) fetch() byte {
	v := cpu.Mem.LoadByte(cpu.Reg.PC)
	cpu.Reg.PC++
	return v
}

// Fetch the big-endian word at PC and advance PC.
func (cpu *CPU) fetchWord() uint16 {
	v := cpu.Mem.LoadAddress(cpu.Reg.PC)
	cpu.Reg.PC += 2
	return v
}

// Resolve the effective address of the instruction, consuming exactly the
// operand bytes its addressing mode requires. Immediate operands resolve
// to their own address. Relative modes leave the sign-extended offset in
// 'right'.
func (cpu *CPU) resolve(inst *Instruction) {
	switch inst.Mode {
	case INH:
	case DIR:
		cpu.ea = uint16(cpu.Reg.DP)<<8 | uint16(cpu.fetch())
	case EXT:
		cpu.ea = cpu.fetchWord()
	case IMM8:
		cpu.ea = cpu.Reg.PC
		cpu.Reg.PC++
	case IMM16:
		cpu.ea = cpu.Reg.PC
		cpu.Reg.PC += 2
	case REL:
		cpu.right = uint16(int8(cpu.fetch()))
	case RELL:
		cpu.right = cpu.fetchWord()
	case RELP:
		if cpu.prevOpcode == prefixPage2 {
			cpu.right = cpu.fetchWord()
		} else {
			cpu.right = uint16(int8(cpu.fetch()))
		}
	case IDX:
		cpu.resolveIndexed()
	default:
		panic("Invalid addressing mode")
	}
}

// ValidPostbyte returns true if the indexed-mode postbyte selects a
// defined addressing form.
func ValidPostbyte(post byte) bool {
	if post&0x80 == 0 {
		return true
	}
	indirect := post&0x10 != 0
	switch post & 0x0f {
	case 0x7, 0xa, 0xe:
		return false
	case 0x0, 0x2:
		return !indirect
	case 0xf:
		return indirect
	}
	return true
}

// IndexedOperandSize returns the number of operand bytes following an
// indexed-mode postbyte.
func IndexedOperandSize(post byte) int {
	if post&0x80 == 0 {
		return 0
	}
	switch post & 0x0f {
	case 0x8, 0xc:
		return 1
	case 0x9, 0xd, 0xf:
		return 2
	}
	return 0
}

// Return a pointer to the index register selected by a postbyte.
func (cpu *CPU) indexReg(post byte) *uint16 {
	switch (post >> 5) & 3 {
	case 0:
		return &cpu.Reg.X
	case 1:
		return &cpu.Reg.Y
	case 2:
		return &cpu.Reg.U
	default:
		return &cpu.Reg.S
	}
}

// Resolve an indexed-mode effective address. The postbyte must already
// have been validated.
func (cpu *CPU) resolveIndexed() {
	post := cpu.fetch()
	r := cpu.indexReg(post)

	if post&0x80 == 0 {
		// 5-bit signed offset, sign-extended from bit 4
		cpu.ea = *r + uint16(int8(post<<3)>>3)
		cpu.deltaCycles++
		return
	}

	switch post & 0x0f {
	case 0x0:
		cpu.ea = *r
		*r++
		cpu.deltaCycles += 2
	case 0x1:
		cpu.ea = *r
		*r += 2
		cpu.deltaCycles += 3
	case 0x2:
		*r--
		cpu.ea = *r
		cpu.deltaCycles += 2
	case 0x3:
		*r -= 2
		cpu.ea = *r
		cpu.deltaCycles += 3
	case 0x4:
		cpu.ea = *r
	case 0x5:
		cpu.ea = *r + uint16(int8(cpu.Reg.B()))
		cpu.deltaCycles++
	case 0x6:
		cpu.ea = *r + uint16(int8(cpu.Reg.A()))
		cpu.deltaCycles++
	case 0x8:
		cpu.ea = *r + uint16(int8(cpu.fetch()))
		cpu.deltaCycles++
	case 0x9:
		cpu.ea = *r + cpu.fetchWord()
		cpu.deltaCycles += 4
	case 0xb:
		cpu.ea = *r + cpu.Reg.D
		cpu.deltaCycles += 4
	case 0xc:
		off := uint16(int8(cpu.fetch()))
		cpu.ea = cpu.Reg.PC + off
		cpu.deltaCycles++
	case 0xd:
		off := cpu.fetchWord()
		cpu.ea = cpu.Reg.PC + off
		cpu.deltaCycles += 5
	case 0xf:
		cpu.ea = cpu.fetchWord()
		cpu.deltaCycles += 2
	}

	if post&0x10 != 0 {
		cpu.ea = cpu.Mem.LoadAddress(cpu.ea)
		cpu.deltaCycles += 3
	}
}

// Load the left (register) and right (memory) operands requested by the
// instruction.
func (cpu *CPU) loadOperands(inst *Instruction) {
	switch inst.Left {
	case LeftLoad, LeftLoadStore:
		cpu.left = cpu.loadReg(inst.Reg)
	}

	switch inst.Right {
	case RightLoad8:
		cpu.right = uint16(cpu.Mem.LoadByte(cpu.ea))
	case RightLoad16:
		cpu.right = cpu.Mem.LoadAddress(cpu.ea)
	}
}

// Store the instruction's result. Memory stores requested by the right
// operand are written before the register store.
func (cpu *CPU) storeResult(inst *Instruction) {
	switch inst.Right {
	case RightStore8:
		cpu.storeByte(cpu, cpu.ea, byte(cpu.result))
	case RightStore16:
		cpu.storeWord(cpu.ea, cpu.result)
	}

	switch inst.Left {
	case LeftStore, LeftLoadStore:
		cpu.storeReg(inst.Reg, cpu.result)
	}
}

// Read a register or memory operand.
func (cpu *CPU) loadReg(r Reg) uint16 {
	switch r {
	case RegM8:
		return uint16(cpu.Mem.LoadByte(cpu.ea))
	case RegM16:
		return cpu.Mem.LoadAddress(cpu.ea)
	}
	return cpu.Reg.Get(r)
}

// Write a register or memory operand.
func (cpu *CPU) storeReg(r Reg, v uint16) {
	switch r {
	case RegM8:
		cpu.storeByte(cpu, cpu.ea, byte(v))
	case RegM16:
		cpu.storeWord(cpu.ea, v)
	default:
		cpu.Reg.Set(r, v)
	}
}

// Store the byte value 'v' add the address 'addr'.
func (cpu *CPU) storeByteNormal(addr uint16, v byte) {
	cpu.Mem.StoreByte(addr, v)
}

// Store the byte value 'v' add the address 'addr'.
func (cpu *CPU) storeByteDebugger(addr uint16, v byte) {
	cpu.debugger.onDataStore(cpu, addr, v)
	cpu.Mem.StoreByte(addr, v)
}

// Store a word big-endian at 'addr'.
func (cpu *CPU) storeWord(addr uint16, v uint16) {
	cpu.storeByte(cpu, addr, byte(v>>8))
	cpu.storeByte(cpu, addr+1, byte(v))
}

// Push a byte onto the stack whose pointer is 'sp'.
func (cpu *CPU) push(sp *uint16, v byte) {
	*sp--
	cpu.storeByte(cpu, *sp, v)
}

// Push a word onto a stack. The low byte is pushed first, leaving the
// word big-endian in memory.
func (cpu *CPU) pushWord(sp *uint16, v uint16) {
	cpu.push(sp, byte(v))
	cpu.push(sp, byte(v>>8))
}

// Pull a byte from a stack.
func (cpu *CPU) pull(sp *uint16) byte {
	v := cpu.Mem.LoadByte(*sp)
	*sp++
	return v
}

// Pull a word from a stack.
func (cpu *CPU) pullWord(sp *uint16) uint16 {
	hi := cpu.pull(sp)
	lo := cpu.pull(sp)
	return uint16(hi)<<8 | uint16(lo)
}

// Push the entire register set onto the hardware stack, with the E flag
// set, in preparation for an interrupt.
func (cpu *CPU) pushEntire() {
	cpu.Reg.CC |= EntireBit
	s := &cpu.Reg.S
	cpu.pushWord(s, cpu.Reg.PC)
	cpu.pushWord(s, cpu.Reg.U)
	cpu.pushWord(s, cpu.Reg.Y)
	cpu.pushWord(s, cpu.Reg.X)
	cpu.push(s, cpu.Reg.DP)
	cpu.push(s, cpu.Reg.B())
	cpu.push(s, cpu.Reg.A())
	cpu.push(s, cpu.Reg.CC)
}

// Transfer control through an interrupt vector.
func (cpu *CPU) vector(addr uint16) {
	cpu.Reg.PC = cpu.Mem.LoadAddress(addr)
}
