// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/beevik/go6809/bios"
	"github.com/beevik/go6809/host"
	"github.com/beevik/term"
	xterm "golang.org/x/term"
)

var (
	monitor  bool
	script   string
	logLevel string
)

func init() {
	flag.BoolVar(&monitor, "m", false, "enter the monitor instead of running the program")
	flag.StringVar(&script, "x", "", "execute monitor commands from a script file")
	flag.StringVar(&logLevel, "log", "warn", "log level (debug, info, warn, error)")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: go6809 [options] [program.s19]\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		exitOnError(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Put an interactive terminal into raw input mode so running programs
	// see keystrokes as they are typed.
	fd := int(os.Stdin.Fd())
	interactive := xterm.IsTerminal(fd)
	if interactive {
		state, err := term.MakeRawInput(fd)
		if err != nil {
			logger.Warn("Unable to enter raw input mode", slog.Any("err", err))
		} else {
			defer term.Restore(fd, state)
		}
	}

	con := bios.NewStreamConsole(os.Stdin, os.Stdout)
	h := host.New(host.Config{
		Console:     con,
		Logger:      logger,
		Interactive: interactive,
		EchoInput:   interactive,
	})

	// Break on Ctrl-C, whether it arrives as a byte or a signal.
	con.SetInterruptHandler(h.Break)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	if script != "" {
		file, err := os.Open(script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}
		err = h.RunScript(file)
		file.Close()
		if errors.Is(err, host.ErrQuit) {
			code, _ := h.ExitCode()
			return code
		}
	}

	if args := flag.Args(); len(args) > 0 {
		start, err := h.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}

		if !monitor {
			code, err := h.RunProgram(start)
			if err != nil {
				logger.Error("Program failed", slog.Any("err", err))
			}
			return code
		}
	}

	h.RunCommands()
	code, _ := h.ExitCode()
	return code
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
