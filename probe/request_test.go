package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintRequest_Encode(t *testing.T) {
	req := FingerprintRequest{
		ObjectEntryID: 0x15,
		Originator:    WildcardOriginator,
		Target:        3,
	}

	want := uint64(0x15) | 0xFF<<13 | 3<<21
	require.Equal(t, want, req.Encode())
	require.Equal(t, req, DecodeRequest(want))
}

func TestFingerprintRequest_EntryIDIsMasked(t *testing.T) {
	req := FingerprintRequest{ObjectEntryID: 0xFFFF, Target: 1}
	assert.Equal(t, uint16(maxObjectEntryID), DecodeRequest(req.Encode()).ObjectEntryID)
	assert.Equal(t, uint8(0), DecodeRequest(req.Encode()).Originator)
}

func TestDecodeFragment(t *testing.T) {
	data := uint64(0xCAFEBABE)<<32 | uint64(7)<<24 | uint64(0xFF)<<16 | uint64(5)<<3 | replyStartBit

	frag := DecodeFragment(data)
	assert.True(t, frag.Start)
	assert.False(t, frag.End)
	assert.Equal(t, uint16(5), frag.ObjectEntryID)
	assert.Equal(t, uint8(0xFF), frag.Originator)
	assert.Equal(t, uint8(7), frag.Responder)
	assert.Equal(t, uint32(0xCAFEBABE), frag.Value)
	assert.Equal(t, data, frag.Encode())
}

func TestSplitFingerprint(t *testing.T) {
	low, high := SplitFingerprint(0xAABBCCDD11223344, 2, WildcardOriginator)

	assert.True(t, low.Start)
	assert.Equal(t, uint32(0x11223344), low.Value)
	assert.True(t, high.End)
	assert.Equal(t, uint32(0xAABBCCDD), high.Value)

	p := newNodeProbe(Node{ID: 2}, time.Now())
	p.waiting()
	require.False(t, p.accept(DecodeFragment(low.Encode()), 0xAABBCCDD11223344, time.Now()))
	require.True(t, p.accept(DecodeFragment(high.Encode()), 0xAABBCCDD11223344, time.Now()))
	assert.Equal(t, StateOnline, p.result.State)
}
