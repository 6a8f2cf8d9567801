package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/canzero/frame"
	"github.com/maxpoletaev/canzero/internal/generic"
)

// ErrClosed is returned when the inbound stream ends in the middle of a session.
var ErrClosed = errors.New("transport stream closed")

// Prober checks that every node of the network reports the same configuration
// fingerprint as the local configuration.
type Prober struct {
	transport Transport
	logger    kitlog.Logger
	requestID frame.MessageID
	replyID   frame.MessageID
	busID     uint32
	dlc       uint8
	timeout   time.Duration
	pending   *generic.SyncMap[correlationKey, chan Fragment]
}

func New(tr Transport, conf Config) *Prober {
	logger := conf.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	return &Prober{
		transport: tr,
		logger:    logger,
		requestID: conf.RequestID,
		replyID:   conf.ResponseID,
		busID:     conf.BusID,
		dlc:       conf.DLC,
		timeout:   conf.Timeout,
		pending:   new(generic.SyncMap[correlationKey, chan Fragment]),
	}
}

// Probe asks each node for its fingerprint, one node at a time in the given
// order, and compares it against local. A node that does not answer within the
// configured timeout is reported offline and probing moves on. The returned
// slice holds one status per completed node, even when an error is returned.
func (p *Prober) Probe(ctx context.Context, local uint64, nodes []Node) ([]NodeStatus, error) {
	sessionCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(sessionCtx)
	statuses := make([]NodeStatus, 0, len(nodes))

	g.Go(func() error {
		return p.dispatch(gctx)
	})

	g.Go(func() error {
		// Stops the dispatcher once all nodes are done.
		defer stop()

		for _, node := range nodes {
			status, err := p.probeNode(gctx, local, node)
			if err != nil {
				return err
			}

			level.Debug(p.logger).Log(
				"msg", "node probed",
				"node", node.Name,
				"node_id", node.ID,
				"state", status.State,
				"rtt", status.RoundTrip,
			)

			statuses = append(statuses, status)
		}

		return nil
	})

	err := g.Wait()

	// The dispatcher reports closure of the stream, which takes priority over the
	// cancellation it causes in the probe loop. A cancelled parent context is
	// reported as is.
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	return statuses, err
}

// dispatch drains the inbound stream and routes reply fragments to the probe
// waiting for them. Everything else is dropped.
func (p *Prober) dispatch(ctx context.Context) error {
	frames := p.transport.Frames()

	for {
		select {
		case <-ctx.Done():
			return nil

		case f, ok := <-frames:
			if !ok {
				return ErrClosed
			}

			if f.ID != p.replyID {
				continue
			}

			frag := DecodeFragment(f.Data)

			replies, ok := p.pending.Load(frag.key())
			if !ok {
				level.Debug(p.logger).Log(
					"msg", "dropped unexpected reply",
					"originator", frag.Originator,
					"responder", frag.Responder,
				)

				continue
			}

			select {
			case replies <- frag:
			default:
				level.Warn(p.logger).Log("msg", "reply queue is full", "responder", frag.Responder)
			}
		}
	}
}

func (p *Prober) probeNode(ctx context.Context, local uint64, node Node) (NodeStatus, error) {
	key := correlationKey{
		originator: WildcardOriginator,
		responder:  node.ID,
	}

	// Register before sending so that an immediate reply is not lost.
	replies := make(chan Fragment, 4)
	p.pending.Store(key, replies)
	defer p.pending.Delete(key)

	req := FingerprintRequest{
		ObjectEntryID: node.ObjectEntryID,
		Originator:    WildcardOriginator,
		Target:        node.ID,
	}

	// The per-node deadline covers the send too.
	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	probe := newNodeProbe(node, time.Now())

	if err := p.transport.Send(waitCtx, p.requestFrame(req)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return NodeStatus{}, ctxErr
		}

		return NodeStatus{}, fmt.Errorf("failed to send fingerprint request to %s: %w", node.Name, err)
	}

	probe.waiting()

	for {
		select {
		case frag := <-replies:
			if probe.accept(frag, local, time.Now()) {
				return probe.result, nil
			}

		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return NodeStatus{}, err
			}

			probe.timeout()

			return probe.result, nil
		}
	}
}

func (p *Prober) requestFrame(req FingerprintRequest) frame.Frame {
	return frame.Frame{
		BusID: p.busID,
		ID:    p.requestID,
		DLC:   p.dlc,
		Data:  req.Encode(),
	}
}
