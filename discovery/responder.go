package discovery

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Responder answers discovery probes on behalf of a bridge server.
type Responder struct {
	logger  kitlog.Logger
	conn    *net.UDPConn
	service string
	reply   []byte
	closed  int32
}

// Listen binds the discovery port on addr, for example ":9002".
func Listen(addr string, info ServerInfo, logger kitlog.Logger) (*Responder, error) {
	reply, err := info.MarshalReply()
	if err != nil {
		return nil, fmt.Errorf("invalid server info: %w", err)
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen udp port on %s: %w", addr, err)
	}

	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	return &Responder{
		logger:  logger,
		conn:    conn,
		service: info.Service,
		reply:   reply,
	}, nil
}

// Addr returns the local address the responder is bound to.
func (r *Responder) Addr() netip.AddrPort {
	return r.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// Serve answers probes until the responder is closed.
func (r *Responder) Serve() error {
	buf := make([]byte, maxDatagramSize)

	for {
		n, from, err := r.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if atomic.LoadInt32(&r.closed) == 1 {
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			return fmt.Errorf("failed to read from udp: %w", err)
		}

		service, err := parseProbe(buf[:n])
		if err != nil || service != r.service {
			level.Debug(r.logger).Log("msg", "ignored datagram", "from", from, "err", err)
			continue
		}

		if _, err := r.conn.WriteToUDPAddrPort(r.reply, from); err != nil {
			level.Warn(r.logger).Log("msg", "failed to answer probe", "to", from, "err", err)
			continue
		}

		level.Debug(r.logger).Log("msg", "answered discovery probe", "to", from)
	}
}

func (r *Responder) Close() error {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil
	}

	return r.conn.Close()
}
