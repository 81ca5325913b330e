package host

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalInt(expr string) (int64, error) {
	return strconv.ParseInt(expr, 0, 64)
}

func TestSettingsUpdate(t *testing.T) {
	s := newSettings()

	name, err := s.Update("hex", "true", evalInt)
	require.NoError(t, err)
	assert.Equal(t, "HexMode", name)
	assert.True(t, s.HexMode)

	name, err = s.Update("memdump", "128", evalInt)
	require.NoError(t, err)
	assert.Equal(t, "MemDumpBytes", name)
	assert.Equal(t, 128, s.MemDumpBytes)

	_, err = s.Update("nextd", "0x1234", evalInt)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), s.NextDisasmAddr)
}

func TestSettingsUpdateErrors(t *testing.T) {
	s := newSettings()

	_, err := s.Update("next", "1", evalInt)
	assert.Error(t, err, "ambiguous prefix")

	_, err = s.Update("bogus", "1", evalInt)
	assert.Error(t, err)

	_, err = s.Update("hexmode", "maybe", evalInt)
	assert.Error(t, err)

	_, err = s.Update("disasmlines", "-1", evalInt)
	assert.ErrorIs(t, err, errSettingRange)

	_, err = s.Update("nextmem", "0x10000", evalInt)
	assert.ErrorIs(t, err, errSettingRange)
	assert.Equal(t, 10, s.DisasmLines)
}

func TestSettingsDisplay(t *testing.T) {
	s := newSettings()
	s.NextMemDumpAddr = 0xbeef

	var buf bytes.Buffer
	s.Display(&buf)
	out := buf.String()
	assert.Contains(t, out, "MemDumpBytes")
	assert.Contains(t, out, "64")
	assert.Contains(t, out, "$BEEF")
	assert.Contains(t, out, "(echo console input)")
}
