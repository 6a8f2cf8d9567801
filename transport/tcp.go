package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/canzero/frame"
)

var ErrClosed = errors.New("connection closed")

// TCPTransport exchanges frames with a bridge server over a TCP connection.
// Inbound frames are decoded by a background reader and handed out through
// the channel returned by Frames.
type TCPTransport struct {
	logger   log.Logger
	conn     net.Conn
	timebase time.Time
	writeMut sync.Mutex
	in       chan frame.Frame
	stop     chan struct{}
	done     chan struct{}
	closed   int32
}

// Dial connects to the bridge server at addr. Outgoing frames are stamped
// relative to timebase, which should be the server start time when known.
func Dial(ctx context.Context, addr string, timebase time.Time, logger log.Logger) (*TCPTransport, error) {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return New(conn, timebase, logger), nil
}

// New wraps an established connection and starts consuming frames from it.
func New(conn net.Conn, timebase time.Time, logger log.Logger) *TCPTransport {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	t := &TCPTransport{
		logger:   logger,
		conn:     conn,
		timebase: timebase,
		in:       make(chan frame.Frame),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go t.consume()

	return t
}

func (t *TCPTransport) consume() {
	defer close(t.done)
	defer close(t.in)

	r := frame.NewReader(t.conn)

	for {
		f, err := r.ReadFrame()
		if err != nil {
			if atomic.LoadInt32(&t.closed) == 0 && !errors.Is(err, io.EOF) {
				level.Error(t.logger).Log("msg", "failed to read frame", "err", err)
			}

			level.Debug(t.logger).Log("msg", "frame reader stopped", "remote", t.conn.RemoteAddr())

			return
		}

		select {
		case t.in <- f:
		case <-t.stop:
			return
		}
	}
}

// Frames returns the inbound frame stream. The channel is shared by all
// callers and is closed once the connection is gone.
func (t *TCPTransport) Frames() <-chan frame.Frame {
	return t.in
}

// Send writes a single frame. A zero timestamp is replaced with the time
// elapsed since the transport timebase. The write gives up when ctx is done.
func (t *TCPTransport) Send(ctx context.Context, f frame.Frame) error {
	if atomic.LoadInt32(&t.closed) == 1 {
		return ErrClosed
	}

	if f.Timestamp == 0 {
		f.Timestamp = time.Since(t.timebase)
	}

	t.writeMut.Lock()
	defer t.writeMut.Unlock()

	deadline, _ := ctx.Deadline()
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	// Interrupt a blocked write once ctx is done.
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetWriteDeadline(time.Now())
	})

	defer stop()

	if _, err := t.conn.Write(frame.AppendFrame(nil, f)); err != nil {
		if atomic.LoadInt32(&t.closed) == 1 {
			return ErrClosed
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("failed to write frame: %w", ctxErr)
		}

		// The write deadline can fire just ahead of the context timer.
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return fmt.Errorf("failed to write frame: %w", context.DeadlineExceeded)
		}

		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

// Close closes the connection and waits for the reader to stop.
func (t *TCPTransport) Close() error {
	if !atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		return nil
	}

	close(t.stop)

	err := t.conn.Close()

	<-t.done

	return err
}
