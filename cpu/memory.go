// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur. Multi-byte values are big-endian, and all address
// arithmetic wraps at the top of the 64K address space.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// LoadBytes loads multiple bytes from the address and stores them into
	// the buffer 'b'.
	LoadBytes(addr uint16, b []byte)

	// LoadAddress loads a 16-bit big-endian value from the requested
	// address and returns it.
	LoadAddress(addr uint16) uint16

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)

	// StoreBytes stores multiple bytes to the requested address.
	StoreBytes(addr uint16, b []byte)

	// StoreAddress stores a 16-bit value 'v' big-endian at the requested
	// address.
	StoreAddress(addr uint16, v uint16)
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer.
type FlatMemory struct {
	b [64 * 1024]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// LoadBytes loads multiple bytes from the address and returns them. A
// read running off the end of memory continues at address zero.
func (m *FlatMemory) LoadBytes(addr uint16, b []byte) {
	for n := 0; n < len(b); {
		c := copy(b[n:], m.b[addr:])
		n += c
		addr += uint16(c)
	}
}

// LoadAddress loads a 16-bit address value from the requested address and
// returns it. The high byte comes first.
func (m *FlatMemory) LoadAddress(addr uint16) uint16 {
	return uint16(m.b[addr])<<8 | uint16(m.b[addr+1])
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes to the requested address, wrapping
// to address zero if necessary.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	for n := 0; n < len(b); {
		c := copy(m.b[addr:], b[n:])
		n += c
		addr += uint16(c)
	}
}

// StoreAddress stores a 16-bit address value to the requested address.
func (m *FlatMemory) StoreAddress(addr uint16, v uint16) {
	m.b[addr] = byte(v >> 8)
	m.b[addr+1] = byte(v)
}
