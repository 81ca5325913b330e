// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command trace6809 runs an S-record program and writes a trace line for
// every executed instruction to stderr.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/beevik/go6809/bios"
	"github.com/beevik/go6809/cpu"
	"github.com/beevik/go6809/disasm"
	"github.com/beevik/go6809/srec"
)

const defaultSteps = 100000

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Syntax: trace6809 [file.s19] [steps]")
		os.Exit(0)
	}

	steps := defaultSteps
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			exitOnError(err)
		}
		steps = n
	}

	os.Exit(trace(os.Args[1], steps))
}

func trace(filename string, steps int) int {
	file, err := os.Open(filename)
	if err != nil {
		exitOnError(err)
	}
	defer file.Close()

	mem := cpu.NewFlatMemory()
	l := srec.NewLoader(mem)
	if err := l.Load(file); err != nil {
		exitOnError(err)
	}
	for _, e := range l.Errors {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filename, e)
	}
	start, ok := l.StartAddr()
	if !ok {
		exitOnError(errors.New("no data records"))
	}

	con := bios.NewStreamConsole(os.Stdin, os.Stdout)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	services := bios.New(con, logger)

	c := cpu.NewCPU(mem)
	c.AttachSyscallHandler(services)
	c.SetPC(start)

	for i := 0; i < steps; i++ {
		pc := c.Reg.PC
		line, _ := disasm.Disassemble(c.Mem, pc)
		err := c.Step()
		fmt.Fprintf(os.Stderr, "%04X-   %-20s  %s Cycles=%d\n",
			pc, line, disasm.GetRegisterString(&c.Reg), c.Cycles)
		if err != nil {
			con.Flush()
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}

		switch services.TakeRequest() {
		case bios.RequestExit, bios.RequestMonitor:
			code, _ := services.Exited()
			return int(code)
		case bios.RequestInput:
			if !con.WaitInput() {
				fmt.Fprintln(os.Stderr, "ERROR: input closed")
				return 1
			}
		}
	}

	con.Flush()
	return 0
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
