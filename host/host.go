// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a computer system
// with a 6809 CPU, 64K of memory, a set of BIOS services, a built-in
// debugger, and other useful tools.
//
// Within the host it is possible to load S-record programs into memory,
// run them against a console, debug and step through machine code, measure
// the number of CPU cycles elapsed, set address and data breakpoints, dump
// the contents of memory, disassemble the contents of memory, manipulate
// CPU registers and memory, and evaluate arbitrary expressions.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"
	"github.com/beevik/go6809/bios"
	"github.com/beevik/go6809/cpu"
	"github.com/beevik/go6809/disasm"
	"github.com/beevik/go6809/srec"
	"golang.org/x/text/message"
)

// ErrQuit is returned by the command processors when the user quits.
var ErrQuit = errors.New("quit requested")

var errInputClosed = errors.New("console input closed while the program waits for it")

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles
	displayAnnotations

	displayAll = displayRegisters | displayCycles | displayAnnotations
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
	stateStepOverBreakpoint
	stateInterrupted
	stateExited
	stateMonitor
	stateFault
)

// Instructions executed between checks for a user break.
const runChunk = 100000

// Console is the terminal shared by the monitor and the emulated program.
type Console interface {
	bios.Console
	io.Writer

	// ReadLine blocks until a full line of input is available.
	ReadLine() (string, error)

	// WaitInput blocks until input is pending or Wake is called.
	WaitInput() bool

	// Wake releases WaitInput from any goroutine.
	Wake()
}

// Config holds the options used to create a Host.
type Config struct {
	Console     Console
	Logger      *slog.Logger
	Interactive bool // the console is a terminal
	EchoInput   bool // echo console input back to the terminal
}

type lineReader interface {
	ReadLine() (string, error)
}

type scriptReader struct {
	s *bufio.Scanner
}

func (r scriptReader) ReadLine() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if r.s.Err() != nil {
		return "", r.s.Err()
	}
	return "", io.EOF
}

// A Host represents a fully emulated 6809 system, 64K of memory, BIOS
// services, a built-in debugger, and other useful tools.
type Host struct {
	input       lineReader
	output      *bufio.Writer
	interactive bool
	terminal    bool
	console     Console
	logger      *slog.Logger
	printer     *message.Printer
	mem         *cpu.FlatMemory
	cpu         *cpu.CPU
	debugger    *cpu.Debugger
	services    *bios.Services
	lastCmd     *cmd.Selection
	state       state
	fault       error
	breakReq    atomic.Bool
	exprParser  *exprParser
	settings    *settings
	annotations map[uint16]string
}

// New creates a new 6809 host environment.
func New(cfg Config) *Host {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h := &Host{
		output:      bufio.NewWriter(cfg.Console),
		terminal:    cfg.Interactive,
		console:     cfg.Console,
		logger:      logger,
		printer:     newPrinter(logger),
		state:       stateProcessingCommands,
		exprParser:  newExprParser(),
		settings:    newSettings(),
		annotations: make(map[uint16]string),
	}
	h.settings.EchoInput = cfg.EchoInput
	h.onSettingsUpdate()

	// Create the emulated CPU and memory.
	h.mem = cpu.NewFlatMemory()
	h.cpu = cpu.NewCPU(h.mem)

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger((*debugHandler)(h))
	h.cpu.AttachDebugger(h.debugger)

	// Route system calls to the BIOS.
	h.services = bios.New(cfg.Console, logger)
	h.cpu.AttachSyscallHandler(h.services)

	return h
}

// RunCommands accepts host commands from the console until the user quits
// or the input ends. A prompt is displayed if the console is a terminal.
func (h *Host) RunCommands() error {
	return h.processCommands(h.console, h.terminal)
}

// RunScript executes the host commands read from 'r'.
func (h *Host) RunScript(r io.Reader) error {
	return h.processCommands(scriptReader{bufio.NewScanner(r)}, false)
}

func (h *Host) processCommands(in lineReader, interactive bool) error {
	prevInput, prevInteractive := h.input, h.interactive
	h.input, h.interactive = in, interactive
	defer func() {
		h.input, h.interactive = prevInput, prevInteractive
	}()

	for {
		h.prompt()

		line, err := h.input.ReadLine()
		if err != nil {
			if interactive {
				h.println()
			}
			return nil
		}

		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}

		var c cmd.Selection
		switch {
		case line == "":
			if h.lastCmd == nil || !interactive {
				continue
			}
			c = *h.lastCmd

		case cmds.findSubtree(line) != nil:
			h.displayCommands(cmds.findSubtree(line))
			continue

		default:
			c, err = cmds.tree.Lookup(line)
			switch {
			case errors.Is(err, cmd.ErrNotFound):
				h.println("Command not found.")
				continue
			case errors.Is(err, cmd.ErrAmbiguous):
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		}

		if c.Command == nil {
			continue
		}
		command, ok := c.Command.Data.(*command)
		if !ok {
			continue
		}
		h.lastCmd = &c

		if err := command.handler(h, c); err != nil {
			return err
		}
	}
}

// Break interrupts a running CPU. It is safe to call from any goroutine.
func (h *Host) Break() {
	h.breakReq.Store(true)
	h.cpu.Stop()
	h.console.Wake()
}

// Load reads an S-record file into memory and points the program counter
// at its start address.
func (h *Host) Load(filename string) (start uint16, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	l := srec.NewLoader(h.mem)
	if err := l.Load(file); err != nil {
		return 0, err
	}

	base := filepath.Base(filename)
	for _, e := range l.Errors {
		h.printf("%s: %v\n", base, e)
	}

	start, ok := l.StartAddr()
	if !ok {
		return 0, fmt.Errorf("%s contains no data records", base)
	}

	h.logger.Info("Loaded program",
		slog.String("file", base),
		slog.Int("bytes", l.Bytes),
		slog.Int("errors", len(l.Errors)),
		slog.String("start", fmt.Sprintf("$%04X", start)))

	h.cpu.SetPC(start)
	h.settings.NextDisasmAddr = start
	return start, nil
}

// RunProgram runs the loaded program from 'start' until it exits. If the
// program asks for the monitor, hits a breakpoint, or is interrupted, the
// interactive monitor takes over until the user quits. RunProgram returns
// the program's exit code.
func (h *Host) RunProgram(start uint16) (int, error) {
	h.services.Reset()
	h.cpu.SetPC(start)

	switch st := h.runCPU(0); st {
	case stateExited:
		code, _ := h.services.Exited()
		return int(code), nil
	case stateFault:
		return 1, h.fault
	default:
		h.reportStop(st)
	}

	if err := h.RunCommands(); err != nil && !errors.Is(err, ErrQuit) {
		return 1, err
	}
	code, _ := h.services.Exited()
	return int(code), nil
}

// ExitCode returns the exit code of the program and whether it has
// exited.
func (h *Host) ExitCode() (int, bool) {
	code, ok := h.services.Exited()
	return int(code), ok
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.console.Flush()
	h.output.Flush()
}

func (h *Host) prompt() {
	if h.interactive {
		h.print("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	}
}

func (h *Host) cmdAnnotate(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	var annotation string
	if len(c.Args) >= 2 {
		annotation = strings.Join(c.Args[1:], " ")
	}

	if annotation == "" {
		delete(h.annotations, addr)
		h.printf("Annotation removed at $%04X.\n", addr)
	} else {
		h.annotations[addr] = annotation
		h.printf("Annotation added at $%04X.\n", addr)
	}

	return nil
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled  Hits")
	h.println("----- -------  ----")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %-5v    %s\n", b.Address, !b.Disabled, h.printer.Sprint(b.Hits))
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}

	if h.debugger.GetBreakpoint(addr) == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveBreakpoint(addr)
	h.printf("Breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c cmd.Selection) error {
	return h.enableBreakpoint(c, true)
}

func (h *Host) cmdBreakpointDisable(c cmd.Selection) error {
	return h.enableBreakpoint(c, false)
}

func (h *Host) enableBreakpoint(c cmd.Selection, enable bool) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = !enable
	h.printf("Breakpoint at $%04X %s.\n", addr, enabledString(enable))
	return nil
}

func (h *Host) cmdDataBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled  Value   Hits")
	h.println("----- -------  ------  ----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		value := "<none>"
		if b.Conditional {
			value = fmt.Sprintf("$%02X", b.Value)
		}
		h.printf("$%04X %-5v    %-6s  %s\n", b.Address, !b.Disabled, value, h.printer.Sprint(b.Hits))
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}

	if len(c.Args) > 1 {
		value, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, byte(value))
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, byte(value))
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}

	return nil
}

func (h *Host) cmdDataBreakpointRemove(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}

	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointEnable(c cmd.Selection) error {
	return h.enableDataBreakpoint(c, true)
}

func (h *Host) cmdDataBreakpointDisable(c cmd.Selection) error {
	return h.enableDataBreakpoint(c, false)
}

func (h *Host) enableDataBreakpoint(c cmd.Selection, enable bool) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}

	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = !enable
	h.printf("Data breakpoint at $%04X %s.\n", addr, enabledString(enable))
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	var addr uint16
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextDisasmAddr
		if addr == 0 {
			addr = h.cpu.Reg.PC
		}

	case ".":
		addr = h.cpu.Reg.PC

	default:
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for range lines {
		d, next := h.disassemble(addr, displayAnnotations)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEvaluate(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c)
		return nil
	}

	expr := strings.Join(c.Args, " ")
	v, err := h.exprParser.Parse(expr, h)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X  %s\n", uint16(v), h.printer.Sprint(v))
	return nil
}

func (h *Host) cmdExecute(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c)
		return nil
	}

	file, err := os.Open(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	defer file.Close()

	return h.RunScript(file)
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.displayCommands(cmds)
		return nil
	}

	line := strings.Join(c.Args, " ")
	if t := cmds.findSubtree(line); t != nil {
		h.displayCommands(t)
		return nil
	}

	s, err := cmds.tree.Lookup(line)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if s.Command == nil {
		return nil
	}
	command, ok := s.Command.Data.(*command)
	if !ok {
		return nil
	}

	if command.usage != "" {
		h.printf("Syntax: %s\n\n", command.usage)
	}
	switch {
	case command.description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, command.description))
	case command.brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, command.brief))
	}
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".s19"
	}

	start, err := h.Load(filename)
	if err != nil {
		h.printf("Failed to load '%s': %v\n", filepath.Base(filename), err)
		return nil
	}

	h.services.Reset()
	h.printf("Loaded '%s'. Start address is $%04X.\n", filepath.Base(filename), start)
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	var addr uint16
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextMemDumpAddr
		if addr == 0 {
			addr = h.cpu.Reg.PC
		}

	case ".":
		addr = h.cpu.Reg.PC

	default:
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) >= 2 {
		var err error
		bytes, err = h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayHelpText(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := make([]byte, 0, len(c.Args)-1)
	for _, arg := range c.Args[1:] {
		v, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		b = append(b, byte(v))
	}

	h.mem.StoreBytes(addr, b)
	h.printf("Memory set at $%04X..$%04X.\n", addr, addr+uint16(len(b)-1))
	return nil
}

func (h *Host) cmdMemoryCopy(c cmd.Selection) error {
	if len(c.Args) < 3 {
		h.displayHelpText(c)
		return nil
	}

	var a [3]uint16
	for i := range a {
		v, err := h.parseExpr(c.Args[i])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		a[i] = v
	}

	dst, begin, end := a[0], a[1], a[2]
	if end < begin {
		h.println("Source range is empty.")
		return nil
	}

	b := make([]byte, int(end)-int(begin)+1)
	h.mem.LoadBytes(begin, b)
	h.mem.StoreBytes(dst, b)
	h.printf("Copied $%04X..$%04X to $%04X.\n", begin, end, dst)
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return ErrQuit
}

// Register and flag names accepted by the register command.
var (
	registerNames = map[string]cpu.Reg{
		"a": cpu.RegA, "b": cpu.RegB, "d": cpu.RegD,
		"x": cpu.RegX, "y": cpu.RegY, "u": cpu.RegU, "s": cpu.RegS,
		"pc": cpu.RegPC, ".": cpu.RegPC, "dp": cpu.RegDP, "cc": cpu.RegCC,
	}
	flagNames = map[string]byte{
		"e": cpu.EntireBit, "entire": cpu.EntireBit,
		"f": cpu.FIRQMaskBit, "firq": cpu.FIRQMaskBit,
		"h": cpu.HalfBit, "half": cpu.HalfBit,
		"i": cpu.IRQMaskBit, "irq": cpu.IRQMaskBit,
		"n": cpu.SignBit, "sign": cpu.SignBit,
		"z": cpu.ZeroBit, "zero": cpu.ZeroBit,
		"v": cpu.OverflowBit, "overflow": cpu.OverflowBit,
		"c": cpu.CarryBit, "carry": cpu.CarryBit,
	}
)

func (h *Host) cmdRegister(c cmd.Selection) error {
	if len(c.Args) == 0 {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
		return nil
	}
	if len(c.Args) < 2 {
		h.displayHelpText(c)
		return nil
	}

	name := strings.ToLower(c.Args[0])
	v, err := h.parseExpr(strings.Join(c.Args[1:], " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if r, ok := registerNames[name]; ok {
		if r == cpu.RegPC {
			h.cpu.SetPC(v)
			h.settings.NextDisasmAddr = v
		} else {
			h.cpu.Reg.Set(r, v)
		}
		if r.Wide() {
			h.printf("Register %s set to $%04X.\n", r, v)
		} else {
			h.printf("Register %s set to $%02X.\n", r, byte(v))
		}
		return nil
	}

	if mask, ok := flagNames[name]; ok {
		h.cpu.Reg.SetFlag(mask, v != 0)
		h.printf("Flag %s set to %v.\n", strings.ToUpper(name), v != 0)
		return nil
	}

	h.printf("Unknown register '%s'.\n", c.Args[0])
	return nil
}

func (h *Host) cmdReset(c cmd.Selection) error {
	h.cpu.Reset()
	h.services.Reset()
	if len(c.Args) > 0 {
		addr, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(addr)
	}

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	h.printf("CPU reset. PC is $%04X.\n", h.cpu.Reg.PC)
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	if len(c.Args) > 0 {
		pc, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(pc)
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)

	st := h.runCPU(h.settings.RunBudget)
	h.reportStop(st)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayHelpText(c)

	default:
		key, value := c.Args[0], strings.Join(c.Args[1:], " ")
		name, err := h.settings.Update(key, value, func(expr string) (int64, error) {
			return h.exprParser.Parse(expr, h)
		})
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}

		h.printf("Setting %s updated.\n", name)
		h.onSettingsUpdate()
	}

	return nil
}

func (h *Host) cmdStepIn(c cmd.Selection) error {
	return h.stepCommand(c, h.step)
}

func (h *Host) cmdStepOver(c cmd.Selection) error {
	return h.stepCommand(c, h.stepOver)
}

func (h *Host) stepCommand(c cmd.Selection, fn func()) error {
	// Parse the number of steps.
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err == nil {
			count = int(n)
		}
	}

	// Step the CPU count times.
	h.breakReq.Store(false)
	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		fn()
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines && h.state == stateRunning:
			h.displayPC()
		}
	}
	st := h.state
	h.state = stateProcessingCommands
	h.reportStop(st)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdStepOut(c cmd.Selection) error {
	h.breakReq.Store(false)
	h.state = stateRunning

	// Step until a return pulls the stack above its current depth.
	sp := h.cpu.Reg.S
	for h.state == stateRunning {
		inst, _ := h.cpu.GetInstruction(h.cpu.Reg.PC)
		ret := inst.IsReturn() && h.cpu.Reg.S >= sp
		h.step()
		if ret {
			break
		}
	}

	st := h.state
	h.state = stateProcessingCommands
	if st == stateRunning {
		h.displayPC()
	}
	h.reportStop(st)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

// Run the CPU until something stops it, and return the state that
// stopped it. A budget of zero or less runs without limit.
func (h *Host) runCPU(budget int) state {
	h.breakReq.Store(false)
	h.state = stateRunning
	h.runLoop(budget)

	st := h.state
	h.state = stateProcessingCommands
	return st
}

func (h *Host) runLoop(budget int) {
	executed := 0
	for h.state == stateRunning {
		if h.breakReq.Swap(false) {
			h.state = stateInterrupted
			return
		}

		n := runChunk
		if budget > 0 {
			if executed >= budget {
				h.printf("Stopped after %s instructions.\n", h.printer.Sprint(executed))
				h.state = stateProcessingCommands
				return
			}
			n = min(n, budget-executed)
		}

		count, err := h.cpu.Run(n)
		executed += count
		h.onStepResult(err)
	}
}

func (h *Host) step() {
	h.onStepResult(h.cpu.Step())
}

func (h *Host) stepOver() {
	cpu := h.cpu

	// Subroutine calls need to be handled specially.
	inst, _ := cpu.GetInstruction(cpu.Reg.PC)
	if !inst.IsCall() {
		h.step()
		return
	}

	// Place a step-over breakpoint on the instruction following the call.
	next := cpu.NextAddr(cpu.Reg.PC)
	h.debugger.SetStepOver(next)
	h.runLoop(0)
	h.debugger.ClearStepOver()

	// If we were interrupted by the step-over breakpoint, then continue as
	// normal.
	if h.state == stateStepOverBreakpoint {
		h.state = stateRunning
	}
}

// Update the host state after the CPU stops or completes a step.
func (h *Host) onStepResult(err error) {
	if err != nil && !errors.Is(err, cpu.ErrStopped) {
		h.fail(err)
		return
	}

	switch h.services.TakeRequest() {
	case bios.RequestExit:
		h.state = stateExited
		return
	case bios.RequestMonitor:
		h.state = stateMonitor
		return
	case bios.RequestInput:
		if h.state == stateRunning && !h.breakReq.Load() && !h.console.WaitInput() {
			h.fail(errInputClosed)
			return
		}
	}

	if h.breakReq.Swap(false) && h.state == stateRunning {
		h.state = stateInterrupted
	}
}

func (h *Host) fail(err error) {
	h.fault = err
	h.state = stateFault
	h.logger.Warn("Execution stopped", slog.Any("err", err),
		slog.String("pc", fmt.Sprintf("$%04X", h.cpu.LastPC)))
	h.printf("ERROR: %v.\n", err)
}

func (h *Host) reportStop(st state) {
	switch st {
	case stateInterrupted:
		h.println()
		h.displayPC()
	case stateExited:
		code, _ := h.services.Exited()
		h.printf("Program exited with code %d.\n", code)
	case stateMonitor:
		h.println("Program entered the monitor.")
		h.displayPC()
	}
}

func (h *Host) onSettingsUpdate() {
	h.exprParser.hexMode = h.settings.HexMode
	if sc, ok := h.console.(*bios.StreamConsole); ok {
		sc.Echo = h.settings.EchoInput
	}
}

func (h *Host) addressArg(c cmd.Selection) (uint16, bool) {
	if len(c.Args) < 1 {
		h.displayHelpText(c)
		return 0, false
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return addr, true
}

func (h *Host) parseExpr(expr string) (uint16, error) {
	v, err := h.exprParser.Parse(expr, h)
	if err != nil {
		return 0, err
	}

	if v < 0 {
		v = 0x10000 + v
	}
	return uint16(v), nil
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	cpu := h.cpu

	var line string
	line, next = disasm.Disassemble(cpu.Mem, addr)

	b := make([]byte, next-addr)
	cpu.Mem.LoadBytes(addr, b)

	str = fmt.Sprintf("%04X-   %s  %-20s", addr, codeString(b), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.GetRegisterString(&cpu.Reg)
	}

	if (flags & displayCycles) != 0 {
		str += h.printer.Sprintf(" C=%d", cpu.Cycles)
	}

	if (flags & displayAnnotations) != 0 {
		if anno, ok := h.annotations[addr]; ok {
			str += " ; " + anno
		} else if name, ok := h.syscallName(addr); ok {
			str += " ; " + name
		}
	}

	return str, next
}

// Name the BIOS service called by a JSR at 'addr'.
func (h *Host) syscallName(addr uint16) (string, bool) {
	inst, n := h.cpu.GetInstruction(addr)
	if inst.Name != "JSR" || inst.Mode != cpu.EXT {
		return "", false
	}
	return h.services.Name(h.mem.LoadAddress(addr + uint16(n) + 1))
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := uint32(addr0), 6, 32; a <= uint32(addr1); a, c1, c2 = a+1, c1+3, c2+1 {
			m := h.mem.LoadByte(uint16(a))
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(string(buf))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := h.mem.LoadByte(a)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(string(buf))
	}
}

func (h *Host) displayHelpText(c cmd.Selection) {
	if command, ok := c.Command.Data.(*command); ok && command.usage != "" {
		h.printf("Syntax: %s\n", command.usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(t *commandTree) {
	title := t.name
	if t != cmds {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	h.printf("%s commands:\n", title)
	for _, e := range t.entries() {
		h.printf("    %-15s  %s\n", e[0], e[1])
	}
}

func (h *Host) resolveIdentifier(s string) (int64, error) {
	if r, ok := registerNames[strings.ToLower(s)]; ok {
		return int64(h.cpu.Reg.Get(r)), nil
	}
	return 0, fmt.Errorf("%w: '%s'", errExprNotFound, s)
}

func (h *Host) onBreakpoint(cpu *cpu.CPU, b *cpu.Breakpoint) {
	if b.StepOver {
		h.state = stateStepOverBreakpoint
	} else {
		h.state = stateBreakpoint
		h.printf("Breakpoint hit at $%04X.\n", b.Address)
		h.displayPC()
	}
	cpu.Stop()
}

func (h *Host) onDataBreakpoint(cpu *cpu.CPU, b *cpu.DataBreakpoint) {
	h.printf("Data breakpoint hit on address $%04X.\n", b.Address)

	h.state = stateBreakpoint
	cpu.Stop()

	if cpu.LastPC != cpu.Reg.PC {
		d, _ := h.disassemble(cpu.LastPC, displayAll)
		h.println(d)
	}

	h.displayPC()
}

func enabledString(enable bool) string {
	if enable {
		return "enabled"
	}
	return "disabled"
}
