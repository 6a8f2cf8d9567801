package probe

import (
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/maxpoletaev/canzero/frame"
)

type Config struct {
	// RequestID and ResponseID are the message identifiers the network
	// configuration assigns to fingerprint requests and replies.
	RequestID  frame.MessageID
	ResponseID frame.MessageID

	// BusID is the bus the requests are sent on.
	BusID uint32

	// DLC is the data length code of request frames.
	DLC uint8

	// Timeout bounds the wait for both reply fragments of a single node.
	Timeout time.Duration

	Logger kitlog.Logger
}

func DefaultConfig() Config {
	return Config{
		DLC:     8,
		Timeout: 100 * time.Millisecond,
		Logger:  kitlog.NewNopLogger(),
	}
}
