package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const maxDatagramSize = 1024

// Scanner finds bridge servers on the local network by broadcasting a probe
// and collecting the replies. A Scanner holds no state between scans.
type Scanner struct {
	logger        kitlog.Logger
	broadcastAddr netip.Addr
	readTimeout   time.Duration
}

func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		logger:        kitlog.NewNopLogger(),
		broadcastAddr: netip.AddrFrom4([4]byte{255, 255, 255, 255}),
		readTimeout:   time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan broadcasts a probe for service on port and returns the servers that
// replied within window, in arrival order and at most one per source address.
// Finding nothing is not an error. Only socket failures are returned, or the
// context error when ctx is cancelled before the window ends.
func (s *Scanner) Scan(ctx context.Context, service string, port uint16, window time.Duration) ([]ServerDescriptor, error) {
	probe, err := Advertisement{Kind: KindProbe, Service: service}.MarshalBinary()
	if err != nil {
		return nil, err
	}

	// Datagram sockets are created with SO_BROADCAST enabled.
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("failed to bind discovery socket: %w", err)
	}

	defer conn.Close()

	dst := net.UDPAddrFromAddrPort(netip.AddrPortFrom(s.broadcastAddr, port))
	if _, err := conn.WriteToUDP(probe, dst); err != nil {
		return nil, fmt.Errorf("failed to send discovery probe to %s: %w", dst, err)
	}

	level.Debug(s.logger).Log("msg", "discovery probe sent", "service", service, "to", dst)

	deadline := time.Now().Add(window)

	scanCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	// Unblock the pending read as soon as the scan is cancelled.
	stop := context.AfterFunc(scanCtx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})

	defer stop()

	var (
		found = make([]ServerDescriptor, 0)
		seen  = make(map[netip.AddrPort]struct{})
		buf   = make([]byte, maxDatagramSize)
	)

	for scanCtx.Err() == nil {
		readDeadline := deadline
		if s.readTimeout > 0 {
			if idle := time.Now().Add(s.readTimeout); idle.Before(deadline) {
				readDeadline = idle
			}
		}

		if err := conn.SetReadDeadline(readDeadline); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}

		// Cancellation may have fired before the deadline above replaced its own.
		if scanCtx.Err() != nil {
			break
		}

		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				level.Warn(s.logger).Log("msg", "discovery read failed", "err", err)
			}

			break
		}

		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())

		if _, ok := seen[from]; ok {
			level.Debug(s.logger).Log("msg", "duplicate discovery reply", "from", from)
			continue
		}

		desc, err := parseReply(buf[:n], service, from.Addr())
		if err != nil {
			level.Debug(s.logger).Log("msg", "discarded discovery datagram", "from", from, "err", err)
			continue
		}

		seen[from] = struct{}{}
		found = append(found, desc)

		level.Debug(s.logger).Log(
			"msg", "bridge server found",
			"name", desc.ServerName,
			"addr", desc.AddrPort(),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return found, nil
}
