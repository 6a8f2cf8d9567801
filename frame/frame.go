package frame

import (
	"fmt"
	"time"
)

const (
	maxStandardID = 1<<11 - 1
	maxExtendedID = 1<<29 - 1
)

// MessageID identifies a CAN message. Standard (11-bit) and extended (29-bit)
// identifiers live in separate spaces, so the same numeric ID with a different
// format is a different message.
type MessageID struct {
	ID       uint32
	Extended bool
}

// Valid reports whether the identifier fits into its format.
func (id MessageID) Valid() bool {
	if id.Extended {
		return id.ID <= maxExtendedID
	}

	return id.ID <= maxStandardID
}

func (id MessageID) String() string {
	if id.Extended {
		return fmt.Sprintf("0x%08X(ext)", id.ID)
	}

	return fmt.Sprintf("0x%03X", id.ID)
}

// Frame is a CAN frame as carried by the bridge server, addressed to one of
// the buses of the network. Timestamp is relative to the server timebase.
type Frame struct {
	Timestamp time.Duration
	BusID     uint32
	ID        MessageID
	RTR       bool
	DLC       uint8
	Data      uint64
}
