package probe

//go:generate mockgen -source=facilities.go -destination=facilities_mock_test.go -package=probe

import (
	"context"

	"github.com/maxpoletaev/canzero/frame"
)

// Transport is a connection to a bridge server that carries addressed frames
// in both directions.
type Transport interface {
	// Send writes the frame, blocking until it is sent or ctx is done.
	Send(ctx context.Context, f frame.Frame) error

	// Frames returns the inbound frame stream. The stream is shared by the
	// whole session and is closed when the connection goes away.
	Frames() <-chan frame.Frame
}
