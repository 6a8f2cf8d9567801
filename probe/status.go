package probe

import "time"

type State int

const (
	StateOnline State = iota + 1
	StateDesync
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "ONLINE"
	case StateDesync:
		return "DESYNC"
	case StateOffline:
		return "OFFLINE"
	default:
		return ""
	}
}

// Node is a participant of the control network that can be asked for its
// configuration fingerprint.
type Node struct {
	ID            uint8
	Name          string
	ObjectEntryID uint16
}

// NodeStatus is the outcome of probing a single node. RoundTrip is only set
// for nodes that replied.
type NodeStatus struct {
	Node      Node
	State     State
	RoundTrip time.Duration
}

func (s NodeStatus) HasRoundTrip() bool {
	return s.State == StateOnline || s.State == StateDesync
}

type phase int

const (
	phaseSent phase = iota
	phaseWaitingFirst
	phaseWaitingSecond
	phaseClassified
	phaseTimedOut
)

// nodeProbe tracks a single outstanding fingerprint request.
type nodeProbe struct {
	node   Node
	phase  phase
	sentAt time.Time
	low    uint32
	toggle bool
	result NodeStatus
}

func newNodeProbe(node Node, sentAt time.Time) *nodeProbe {
	return &nodeProbe{
		node:   node,
		phase:  phaseSent,
		sentAt: sentAt,
	}
}

func (p *nodeProbe) waiting() {
	if p.phase == phaseSent {
		p.phase = phaseWaitingFirst
	}
}

// accept feeds a fragment addressed to this probe and reports whether the
// fingerprint is complete. The fragment with the start bit is the low half.
// A lone end fragment while waiting for the first one is a leftover of an
// earlier exchange and is ignored. Fragments without either bit are taken
// in arrival order, and the toggle bit tells a repeated first fragment from
// the second one.
func (p *nodeProbe) accept(frag Fragment, local uint64, now time.Time) bool {
	switch p.phase {
	case phaseSent, phaseWaitingFirst:
		if frag.End && !frag.Start {
			return false
		}

		p.low = frag.Value
		p.toggle = frag.Toggle
		p.phase = phaseWaitingSecond

	case phaseWaitingSecond:
		if frag.Start {
			p.low = frag.Value
			p.toggle = frag.Toggle
			return false
		}

		if !frag.End && frag.Toggle == p.toggle {
			return false
		}

		hash := uint64(frag.Value)<<32 | uint64(p.low)
		state := StateOnline

		if hash != local {
			state = StateDesync
		}

		p.classify(state, now.Sub(p.sentAt))

		return true
	}

	return false
}

func (p *nodeProbe) timeout() {
	if p.phase == phaseClassified {
		return
	}

	p.phase = phaseTimedOut
	p.classify(StateOffline, 0)
}

func (p *nodeProbe) classify(state State, rtt time.Duration) {
	p.phase = phaseClassified
	p.result = NodeStatus{
		Node:      p.node,
		State:     state,
		RoundTrip: rtt,
	}
}
