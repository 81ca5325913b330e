// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package srec loads Motorola S-record program images into memory.
package srec

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Errors
var (
	ErrSyntax   = errors.New("malformed record")
	ErrChecksum = errors.New("checksum mismatch")
	ErrAddress  = errors.New("address out of range")
	ErrType     = errors.New("unknown record type")
)

// LineError reports a record that could not be loaded.
type LineError struct {
	Line int    // 1-based line number
	Text string // the offending line
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Record is a single decoded S-record.
type Record struct {
	Type byte   // record type digit, 0 through 9
	Addr uint32 // address field
	Data []byte // data field, excluding address and checksum
}

// IsData returns true for S1, S2 and S3 records.
func (r *Record) IsData() bool {
	return r.Type >= 1 && r.Type <= 3
}

// IsTermination returns true for S7, S8 and S9 records.
func (r *Record) IsTermination() bool {
	return r.Type >= 7
}

// Width in bytes of the address field for each record type.
var addrWidth = [10]int{2, 2, 3, 4, 0, 2, 3, 4, 3, 2}

// ParseRecord decodes a single S-record line. Trailing whitespace is
// ignored.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimRight(line, " \t\r\n")
	if len(line) < 4 || (line[0] != 'S' && line[0] != 's') {
		return Record{}, ErrSyntax
	}
	t := line[1]
	if t < '0' || t > '9' || t == '4' {
		return Record{}, ErrType
	}
	typ := t - '0'

	b, err := hex.DecodeString(line[2:])
	if err != nil {
		return Record{}, ErrSyntax
	}

	count := int(b[0])
	aw := addrWidth[typ]
	if count != len(b)-1 || count < aw+1 {
		return Record{}, ErrSyntax
	}

	var sum byte
	for _, v := range b[:len(b)-1] {
		sum += v
	}
	if ^sum != b[len(b)-1] {
		return Record{}, ErrChecksum
	}

	var addr uint32
	for _, v := range b[1 : 1+aw] {
		addr = addr<<8 | uint32(v)
	}
	return Record{Type: typ, Addr: addr, Data: b[1+aw : len(b)-1]}, nil
}

// A Storer accepts the bytes of loaded data records.
type Storer interface {
	StoreBytes(addr uint16, b []byte)
}

// Loader accumulates S-records line by line, storing data records into
// memory as they arrive.
type Loader struct {
	Header  string       // text of the S0 record, if any
	Errors  []*LineError // records that were rejected
	Bytes   int          // number of data bytes stored
	Records int          // number of records accepted

	mem       Storer
	line      int
	start     uint16
	haveStart bool
	termStart uint16
}

// NewLoader creates a loader that stores into 'mem'.
func NewLoader(mem Storer) *Loader {
	return &Loader{mem: mem}
}

// LoadLine parses one line of S-record text. Blank lines are skipped.
// A rejected line is recorded in Errors and returned.
func (l *Loader) LoadLine(text string) error {
	l.line++
	if strings.TrimSpace(text) == "" {
		return nil
	}

	r, err := ParseRecord(text)
	if err == nil && r.IsData() && r.Addr+uint32(len(r.Data)) > 0x10000 {
		err = ErrAddress
	}
	if err != nil {
		e := &LineError{Line: l.line, Text: text, Err: err}
		l.Errors = append(l.Errors, e)
		return e
	}

	l.Records++
	switch {
	case r.Type == 0:
		l.Header = string(r.Data)
	case r.IsData():
		if !l.haveStart {
			l.start, l.haveStart = uint16(r.Addr), true
		}
		l.mem.StoreBytes(uint16(r.Addr), r.Data)
		l.Bytes += len(r.Data)
	case r.IsTermination():
		if r.Addr != 0 && r.Addr <= 0xffff {
			l.termStart = uint16(r.Addr)
		}
	}
	return nil
}

// Load reads S-record lines from 'r' until end of input. Bad lines do
// not stop the load; only a read failure is returned.
func (l *Loader) Load(r io.Reader) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		l.LoadLine(s.Text())
	}
	return s.Err()
}

// StartAddr returns the program's entry point: the termination record's
// address when it is non-zero, otherwise the address of the first data
// record. The second value is false if neither was seen.
func (l *Loader) StartAddr() (uint16, bool) {
	if l.termStart != 0 {
		return l.termStart, true
	}
	return l.start, l.haveStart
}
