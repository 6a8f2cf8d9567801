package binario

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf, binary.LittleEndian)

	require.NoError(t, w.WriteUint8(7))
	require.NoError(t, w.WriteUint16(9002))
	require.NoError(t, w.WriteShortString("bridge"))
	require.NoError(t, w.WriteUint64(0xAABBCCDD11223344))

	// Port goes first on the wire, least significant byte first.
	require.Equal(t, []byte{7, 0x2A, 0x23}, buf.Bytes()[:3])

	r := NewReader(buf, binary.LittleEndian)

	u8, err := r.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(7), u8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(9002), u16)

	s, err := r.ReadShortString()
	require.NoError(t, err)
	require.Equal(t, "bridge", s)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0xAABBCCDD11223344), u64)
}

func TestReader_Truncated(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{5, 'a', 'b'}), binary.LittleEndian)

	_, err := r.ReadShortString()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWriter_ShortStringTooLong(t *testing.T) {
	w := NewWriter(io.Discard, binary.LittleEndian)

	err := w.WriteShortString(strings.Repeat("x", 256))
	require.ErrorIs(t, err, ErrStringTooLong)
}
