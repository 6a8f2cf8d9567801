package discovery

import (
	"net/netip"
	"time"

	kitlog "github.com/go-kit/log"
)

type Option func(*Scanner)

// WithBroadcastAddr overrides the address probes are sent to. Scans limited
// to a subnet use its directed broadcast address, tests use loopback.
func WithBroadcastAddr(addr netip.Addr) Option {
	return func(s *Scanner) {
		s.broadcastAddr = addr
	}
}

// WithReadTimeout sets the idle timeout after which the scan stops early when
// no datagram arrives. Zero disables it, so the scan always lasts the full window.
func WithReadTimeout(t time.Duration) Option {
	return func(s *Scanner) {
		s.readTimeout = t
	}
}

func WithLogger(logger kitlog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}
