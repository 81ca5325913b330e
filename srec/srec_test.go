package srec_test

import (
	"strings"
	"testing"

	"github.com/beevik/go6809/cpu"
	"github.com/beevik/go6809/srec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	r, err := srec.ParseRecord("S10810008641BDFC0067\r\n")
	require.NoError(t, err)
	assert.Equal(t, byte(1), r.Type)
	assert.Equal(t, uint32(0x1000), r.Addr)
	assert.Equal(t, []byte{0x86, 0x41, 0xbd, 0xfc, 0x00}, r.Data)
	assert.True(t, r.IsData())

	r, err = srec.ParseRecord("S207001200010203E0")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1200), r.Addr)
	assert.Equal(t, []byte{1, 2, 3}, r.Data)

	r, err = srec.ParseRecord("S00600004844521B")
	require.NoError(t, err)
	assert.Equal(t, "HDR", string(r.Data))

	r, err = srec.ParseRecord("S9031000EC")
	require.NoError(t, err)
	assert.True(t, r.IsTermination())
	assert.Equal(t, uint32(0x1000), r.Addr)
}

func TestParseRecordErrors(t *testing.T) {
	cases := []struct {
		line string
		err  error
	}{
		{"S10810008641BDFC0068", srec.ErrChecksum},
		{"S10910008641BDFC0067", srec.ErrSyntax},
		{"S1081000864ZBDFC0067", srec.ErrSyntax},
		{"S1081000", srec.ErrSyntax},
		{"X10810008641BDFC0067", srec.ErrSyntax},
		{"S4030000FC", srec.ErrType},
		{"SA030000FC", srec.ErrType},
		{"S1", srec.ErrSyntax},
	}
	for _, c := range cases {
		_, err := srec.ParseRecord(c.line)
		assert.ErrorIs(t, err, c.err, c.line)
	}
}

func TestLoader(t *testing.T) {
	const image = `S00600004844521B
S10810008641BDFC0067

S10810008641BDFC0068
S1042000AA31
S9030000FC
`
	mem := cpu.NewFlatMemory()
	l := srec.NewLoader(mem)
	require.NoError(t, l.Load(strings.NewReader(image)))

	assert.Equal(t, "HDR", l.Header)
	assert.Equal(t, 6, l.Bytes)
	assert.Equal(t, 4, l.Records)
	require.Len(t, l.Errors, 1)
	assert.Equal(t, 4, l.Errors[0].Line)
	assert.ErrorIs(t, l.Errors[0], srec.ErrChecksum)

	assert.Equal(t, byte(0x86), mem.LoadByte(0x1000))
	assert.Equal(t, uint16(0xfc00), mem.LoadAddress(0x1003))
	assert.Equal(t, byte(0xaa), mem.LoadByte(0x2000))

	// A zero termination address leaves the first data address in place.
	start, ok := l.StartAddr()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1000), start)
}

func TestLoaderStartAddr(t *testing.T) {
	l := srec.NewLoader(cpu.NewFlatMemory())
	_, ok := l.StartAddr()
	assert.False(t, ok)

	require.NoError(t, l.LoadLine("S1042000AA31"))
	require.NoError(t, l.LoadLine("S9031000EC"))
	start, ok := l.StartAddr()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1000), start)
}

func TestLoaderRejectsOverflow(t *testing.T) {
	mem := cpu.NewFlatMemory()
	l := srec.NewLoader(mem)
	err := l.LoadLine("S106FFFE010203F6")
	assert.ErrorIs(t, err, srec.ErrAddress)
	assert.Zero(t, l.Bytes)
	assert.Equal(t, byte(0), mem.LoadByte(0xfffe))
	assert.Equal(t, byte(0), mem.LoadByte(0x0000))
}
