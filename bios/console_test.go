package bios_test

import (
	"bytes"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/beevik/go6809/bios"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamConsoleLines(t *testing.T) {
	var out bytes.Buffer
	c := bios.NewStreamConsole(strings.NewReader("ab\r\ncd\x08e\rlast"), &out)

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ab", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ce", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = c.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, c.WaitInput())
	assert.Empty(t, out.String())
}

func TestStreamConsoleChars(t *testing.T) {
	var out bytes.Buffer
	c := bios.NewStreamConsole(strings.NewReader("xy\n"), &out)

	require.True(t, c.WaitInput())
	ch, ok := c.GetChar()
	require.True(t, ok)
	assert.Equal(t, byte('x'), ch)

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "y", line)
	_, ok = c.GetLine()
	assert.False(t, ok)

	c.PutChar('o')
	c.PutChar('k')
	assert.Empty(t, out.String())
	c.Flush()
	assert.Equal(t, "ok", out.String())
}

func TestStreamConsoleEcho(t *testing.T) {
	var out bytes.Buffer
	c := bios.NewStreamConsole(strings.NewReader("ab\x7fc\r"), &out)
	c.Echo = true

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ac", line)
	assert.Equal(t, "ab\b \bc\n", out.String())
}

func TestStreamConsoleInterrupt(t *testing.T) {
	var hits atomic.Int32
	pr, pw := io.Pipe()
	c := bios.NewStreamConsole(pr, io.Discard)
	c.SetInterruptHandler(func() { hits.Add(1) })
	go func() {
		pw.Write([]byte("a\x03b\x03\n"))
		pw.Close()
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ab", line)
	assert.Equal(t, int32(2), hits.Load())
}

func TestStreamConsoleWake(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := bios.NewStreamConsole(pr, io.Discard)

	c.Wake()
	assert.True(t, c.WaitInput())
	assert.False(t, c.PeekChar())
}
