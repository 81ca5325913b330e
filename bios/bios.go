// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bios provides the host services that emulated programs reach
// by calling subroutines in the system call range at $FC00.
package bios

import (
	"fmt"
	"log/slog"

	"github.com/beevik/go6809/cpu"
	"github.com/beevik/go6809/srec"
)

// System call entry points.
const (
	Putc    uint16 = 0xfc00 // output char in A
	Puts    uint16 = 0xfc02 // output NUL-terminated string at X
	Putsn   uint16 = 0xfc04 // output Y bytes at X
	Getc    uint16 = 0xfc06 // read char into A
	Peekc   uint16 = 0xfc08 // A=1 if a char is available
	Gets    uint16 = 0xfc0a // read line into buffer X, max length Y
	Peeks   uint16 = 0xfc0c // A=1 and Y=length if a line is available
	Exit    uint16 = 0xfc0e // exit with code in A
	Mon     uint16 = 0xfc10 // enter the monitor
	LdStart uint16 = 0xfc12 // begin an S-record load
	LdLine  uint16 = 0xfc14 // load the S-record line at X
	LdEnd   uint16 = 0xfc16 // finish loading
)

// Request identifies why the services stopped the CPU.
type Request byte

// Requests
const (
	RequestNone    Request = iota
	RequestInput           // a read found no input; the call will be retried
	RequestExit            // the program exited
	RequestMonitor         // the program asked for the monitor
)

func (r Request) String() string {
	switch r {
	case RequestInput:
		return "input"
	case RequestExit:
		return "exit"
	case RequestMonitor:
		return "monitor"
	default:
		return "none"
	}
}

type serviceFunc func(s *Services, c *cpu.CPU)

// service describes a single system call.
type service struct {
	Desc    string
	Handler serviceFunc
}

// Services implements cpu.SyscallHandler on top of a Console.
type Services struct {
	// Logger receives a record for each system call.
	Logger *slog.Logger

	console  Console
	calls    map[uint16]service
	request  Request
	exited   bool
	exitCode byte
	loader   *srec.Loader
}

// New creates the services for a program using the console 'con'.
func New(con Console, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	calls := make(map[uint16]service)
	calls[Putc] = service{Desc: "putc", Handler: (*Services).putc}
	calls[Puts] = service{Desc: "puts", Handler: (*Services).puts}
	calls[Putsn] = service{Desc: "putsn", Handler: (*Services).putsn}
	calls[Getc] = service{Desc: "getc", Handler: (*Services).getc}
	calls[Peekc] = service{Desc: "peekc", Handler: (*Services).peekc}
	calls[Gets] = service{Desc: "gets", Handler: (*Services).gets}
	calls[Peeks] = service{Desc: "peeks", Handler: (*Services).peeks}
	calls[Exit] = service{Desc: "exit", Handler: (*Services).exit}
	calls[Mon] = service{Desc: "mon", Handler: (*Services).mon}
	calls[LdStart] = service{Desc: "ldStart", Handler: (*Services).ldStart}
	calls[LdLine] = service{Desc: "ldLine", Handler: (*Services).ldLine}
	calls[LdEnd] = service{Desc: "ldEnd", Handler: (*Services).ldEnd}

	return &Services{
		Logger:  logger,
		console: con,
		calls:   calls,
	}
}

// Name returns the name of the system call at 'addr', if there is one.
func (s *Services) Name(addr uint16) (string, bool) {
	sv, ok := s.calls[addr]
	return sv.Desc, ok
}

// OnSyscall dispatches a system call. It returns false for addresses
// that have no service.
func (s *Services) OnSyscall(c *cpu.CPU, addr uint16) bool {
	sv, ok := s.calls[addr]
	if !ok {
		s.Logger.Error("Unimplemented system call",
			slog.String("addr", fmt.Sprintf("$%04X", addr)),
			slog.String("pc", fmt.Sprintf("$%04X", c.LastPC)))
		return false
	}

	s.Logger.Debug("System call",
		slog.String("name", sv.Desc),
		slog.String("addr", fmt.Sprintf("$%04X", addr)),
		slog.String("pc", fmt.Sprintf("$%04X", c.LastPC)))
	sv.Handler(s, c)
	return true
}

// TakeRequest returns the reason the services last stopped the CPU and
// clears it.
func (s *Services) TakeRequest() Request {
	r := s.request
	s.request = RequestNone
	return r
}

// Exited returns the program's exit code once it has called exit.
func (s *Services) Exited() (code byte, ok bool) {
	return s.exitCode, s.exited
}

// Reset forgets any exit status, pending request and load session.
func (s *Services) Reset() {
	s.request = RequestNone
	s.exited = false
	s.exitCode = 0
	s.loader = nil
}

func (s *Services) stop(c *cpu.CPU, r Request) {
	s.request = r
	c.Stop()
}

// Rewind the calling JSR so it runs again once input arrives.
func (s *Services) wait(c *cpu.CPU) {
	c.Reg.PC = c.LastPC
	s.console.Flush()
	s.stop(c, RequestInput)
}

func (s *Services) putc(c *cpu.CPU) {
	s.console.PutChar(c.Reg.A())
}

func (s *Services) puts(c *cpu.CPU) {
	addr := c.Reg.X
	for i := 0; i < 0x10000; i++ {
		ch := c.Mem.LoadByte(addr)
		if ch == 0 {
			break
		}
		s.console.PutChar(ch)
		addr++
	}
}

func (s *Services) putsn(c *cpu.CPU) {
	addr := c.Reg.X
	for n := c.Reg.Y; n > 0; n-- {
		s.console.PutChar(c.Mem.LoadByte(addr))
		addr++
	}
}

func (s *Services) getc(c *cpu.CPU) {
	ch, ok := s.console.GetChar()
	if !ok {
		s.wait(c)
		return
	}
	c.Reg.SetA(ch)
}

func (s *Services) peekc(c *cpu.CPU) {
	c.Reg.SetA(boolToByte(s.console.PeekChar()))
}

func (s *Services) gets(c *cpu.CPU) {
	line, ok := s.console.GetLine()
	if !ok {
		s.wait(c)
		return
	}

	size := int(c.Reg.Y)
	if size == 0 {
		return
	}
	n := min(len(line), size-1)
	c.Mem.StoreBytes(c.Reg.X, []byte(line[:n]))
	c.Mem.StoreByte(c.Reg.X+uint16(n), 0)
	c.Reg.Y = uint16(n)
}

func (s *Services) peeks(c *cpu.CPU) {
	n, ok := s.console.PeekLine()
	c.Reg.SetA(boolToByte(ok))
	if ok {
		c.Reg.Y = uint16(min(n, 0xffff))
	}
}

func (s *Services) exit(c *cpu.CPU) {
	s.exited = true
	s.exitCode = c.Reg.A()
	s.console.Flush()
	s.Logger.Info("Program exited", slog.Int("code", int(s.exitCode)))
	s.stop(c, RequestExit)
}

func (s *Services) mon(c *cpu.CPU) {
	s.console.Flush()
	s.stop(c, RequestMonitor)
}

func (s *Services) ldStart(c *cpu.CPU) {
	s.loader = srec.NewLoader(c.Mem)
}

func (s *Services) ldLine(c *cpu.CPU) {
	if s.loader == nil {
		s.loader = srec.NewLoader(c.Mem)
	}

	var text []byte
	addr := c.Reg.X
	for i := 0; i < 0x10000; i++ {
		ch := c.Mem.LoadByte(addr)
		if ch == 0 {
			break
		}
		text = append(text, ch)
		addr++
	}

	if err := s.loader.LoadLine(string(text)); err != nil {
		s.Logger.Warn("Bad S-record", slog.Any("err", err))
		c.Reg.SetA(1)
		return
	}
	c.Reg.SetA(0)
}

func (s *Services) ldEnd(c *cpu.CPU) {
	if s.loader == nil {
		c.Reg.X = 0
		c.Reg.SetA(0)
		return
	}

	start, _ := s.loader.StartAddr()
	bad := len(s.loader.Errors)
	s.Logger.Info("S-record load finished",
		slog.Int("records", s.loader.Records),
		slog.Int("bytes", s.loader.Bytes),
		slog.Int("errors", bad),
		slog.String("start", fmt.Sprintf("$%04X", start)))

	c.Reg.X = start
	c.Reg.SetA(byte(min(bad, 0xff)))
	s.loader = nil
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
