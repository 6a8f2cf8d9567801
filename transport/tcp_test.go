package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/canzero/frame"
)

func TestTCPTransport_Send(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	tr := New(client, time.Now().Add(-time.Second), log.NewNopLogger())
	defer tr.Close()

	received := make(chan frame.Frame, 1)

	go func() {
		f, err := frame.NewReader(server).ReadFrame()
		if err == nil {
			received <- f
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := tr.Send(ctx, frame.Frame{ID: frame.MessageID{ID: 0x1FF}, DLC: 8, Data: 7})
	require.NoError(t, err)

	select {
	case f := <-received:
		assert.Equal(t, frame.MessageID{ID: 0x1FF}, f.ID)
		assert.Equal(t, uint64(7), f.Data)
		assert.GreaterOrEqual(t, f.Timestamp, time.Second)
	case <-time.After(time.Second):
		t.Fatal("frame was not received")
	}
}

func TestTCPTransport_Frames(t *testing.T) {
	client, server := net.Pipe()

	tr := New(client, time.Now(), nil)
	defer tr.Close()

	go func() {
		var b []byte
		b = frame.AppendFrame(b, frame.Frame{BusID: 1, Data: 1})
		b = frame.AppendFrame(b, frame.Frame{BusID: 2, Data: 2})
		_, _ = server.Write(b)
		server.Close()
	}()

	var got []frame.Frame
	for f := range tr.Frames() {
		got = append(got, f)
	}

	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].BusID)
	assert.Equal(t, uint32(2), got[1].BusID)
}

func TestTCPTransport_Close(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	tr := New(client, time.Now(), nil)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, ok := <-tr.Frames()
	assert.False(t, ok)

	err := tr.Send(context.Background(), frame.Frame{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTCPTransport_SendCancelled(t *testing.T) {
	// The server end is never read from, so every write blocks.
	client, server := net.Pipe()
	defer server.Close()

	tr := New(client, time.Now(), nil)
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	started := time.Now()

	err := tr.Send(ctx, frame.Frame{Data: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(started), time.Second)
}

func TestTCPTransport_SendDeadline(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	tr := New(client, time.Now(), nil)
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := time.Now()

	err := tr.Send(ctx, frame.Frame{Data: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
}
