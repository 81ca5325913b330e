// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bios

import (
	"bufio"
	"bytes"
	"io"
	"sync/atomic"
)

// A Console carries a program's character input and output. The input
// methods never block; they report false when nothing is available yet.
type Console interface {
	PutChar(c byte)
	Flush()

	GetChar() (c byte, ok bool)
	PeekChar() bool

	// GetLine returns the next complete line without its terminator.
	GetLine() (line string, ok bool)

	// PeekLine returns the length of the next complete line.
	PeekLine() (n int, ok bool)
}

const (
	ctrlC     = 0x03
	backspace = 0x08
	del       = 0x7f
)

// StreamConsole is a Console reading from an io.Reader and writing to an
// io.Writer. A background goroutine reads the input so that polling for
// characters never blocks the CPU.
//
// Carriage returns are delivered as line feeds. A backspace erases the
// previous character of an unfinished line. When Echo is set, accepted
// input is written back to the output, as needed for a terminal in raw
// input mode.
type StreamConsole struct {
	Echo bool

	w         *bufio.Writer
	in        chan byte
	wake      chan struct{}
	interrupt atomic.Pointer[func()]
	buf       []byte
	lastCR    bool
	closed    bool
}

// NewStreamConsole starts reading 'r' in the background.
func NewStreamConsole(r io.Reader, w io.Writer) *StreamConsole {
	c := &StreamConsole{
		w:    bufio.NewWriter(w),
		in:   make(chan byte, 4096),
		wake: make(chan struct{}, 1),
	}
	go c.read(r)
	return c
}

// SetInterruptHandler installs a function called from the reader
// goroutine for each Ctrl-C byte, which is then discarded. Without a
// handler, Ctrl-C is ordinary input.
func (c *StreamConsole) SetInterruptHandler(fn func()) {
	c.interrupt.Store(&fn)
}

// Wake releases a goroutine blocked in WaitInput. It may be called from
// any goroutine.
func (c *StreamConsole) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *StreamConsole) read(r io.Reader) {
	defer close(c.in)

	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if fn := c.interrupt.Load(); b == ctrlC && fn != nil && *fn != nil {
			(*fn)()
			continue
		}
		c.in <- b
	}
}

// PutChar writes a character to the output. Output is flushed at the end
// of each line.
func (c *StreamConsole) PutChar(ch byte) {
	c.w.WriteByte(ch)
	if ch == '\n' {
		c.w.Flush()
	}
}

// Write implements io.Writer on the console output.
func (c *StreamConsole) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.w.Flush()
	return n, err
}

// Flush writes any buffered output.
func (c *StreamConsole) Flush() {
	c.w.Flush()
}

func (c *StreamConsole) GetChar() (byte, bool) {
	c.poll()
	if len(c.buf) == 0 {
		return 0, false
	}
	ch := c.buf[0]
	c.buf = c.buf[1:]
	return ch, true
}

func (c *StreamConsole) PeekChar() bool {
	c.poll()
	return len(c.buf) > 0
}

func (c *StreamConsole) GetLine() (string, bool) {
	n, ok := c.PeekLine()
	if !ok {
		return "", false
	}
	line := string(c.buf[:n])
	c.buf = c.buf[n:]
	if len(c.buf) > 0 {
		c.buf = c.buf[1:]
	}
	return line, true
}

// PeekLine reports the length of the next line. Once input has ended, an
// unterminated remainder counts as a line.
func (c *StreamConsole) PeekLine() (int, bool) {
	c.poll()
	if i := bytes.IndexByte(c.buf, '\n'); i >= 0 {
		return i, true
	}
	if c.closed && len(c.buf) > 0 {
		return len(c.buf), true
	}
	return 0, false
}

// WaitInput blocks until new input arrives or Wake is called. It returns
// false once the input has ended.
func (c *StreamConsole) WaitInput() bool {
	n := len(c.buf)
	c.poll()
	if len(c.buf) != n {
		return true
	}
	return c.receive()
}

// ReadLine blocks until a complete line is available and returns it. It
// returns io.EOF once the input has ended.
func (c *StreamConsole) ReadLine() (string, error) {
	for {
		if line, ok := c.GetLine(); ok {
			return line, nil
		}
		if !c.receive() {
			return "", io.EOF
		}
	}
}

// Drain the reader without blocking.
func (c *StreamConsole) poll() {
	for !c.closed {
		select {
		case b, ok := <-c.in:
			if !ok {
				c.closed = true
				return
			}
			c.accept(b)
		default:
			return
		}
	}
}

// Block for a single byte from the reader, or a wake-up.
func (c *StreamConsole) receive() bool {
	if c.closed {
		return false
	}
	select {
	case b, ok := <-c.in:
		if !ok {
			c.closed = true
			return false
		}
		c.accept(b)
	case <-c.wake:
	}
	return true
}

func (c *StreamConsole) accept(b byte) {
	cr := b == '\r'
	if b == '\n' && c.lastCR {
		c.lastCR = false
		return
	}
	c.lastCR = cr
	if cr {
		b = '\n'
	}

	if b == backspace || b == del {
		if n := len(c.buf); n > 0 && c.buf[n-1] != '\n' {
			c.buf = c.buf[:n-1]
			if c.Echo {
				c.w.WriteString("\b \b")
				c.w.Flush()
			}
			return
		}
	}

	c.buf = append(c.buf, b)
	if c.Echo {
		c.w.WriteByte(b)
		c.w.Flush()
	}
}
