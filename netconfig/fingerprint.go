package netconfig

import (
	"encoding/binary"
	"io"

	"github.com/twmb/murmur3"
	"golang.org/x/exp/slices"

	"github.com/maxpoletaev/canzero/internal/binario"
)

// Fingerprint returns a 64-bit hash of the network description. Two processes
// loading the same network get the same value regardless of the order buses,
// nodes and object entries are listed in.
func (n *Network) Fingerprint() uint64 {
	h := murmur3.New64()
	n.writeCanonical(h)

	return h.Sum64()
}

func (n *Network) writeCanonical(out io.Writer) {
	w := binario.NewWriter(out, binary.LittleEndian)

	buses := slices.Clone(n.Buses)
	slices.SortFunc(buses, func(a, b Bus) bool {
		return a.ID < b.ID || a.ID == b.ID && a.Name < b.Name
	})

	_ = w.WriteUint32(uint32(len(buses)))

	for _, bus := range buses {
		_ = w.WriteUint32(bus.ID)
		_ = w.WriteString(bus.Name)
		_ = w.WriteUint32(bus.Baudrate)
	}

	for _, msg := range []Message{n.GetReq, n.GetResp} {
		_ = w.WriteUint32(msg.ID)
		_ = w.WriteUint8(boolByte(msg.Extended))
		_ = w.WriteString(msg.Bus)
		_ = w.WriteUint8(msg.DLC)
	}

	nodes := slices.Clone(n.Nodes)
	slices.SortFunc(nodes, func(a, b Node) bool { return a.ID < b.ID })

	_ = w.WriteUint32(uint32(len(nodes)))

	for _, node := range nodes {
		_ = w.WriteUint8(node.ID)
		_ = w.WriteString(node.Name)

		entries := slices.Clone(node.ObjectEntries)
		slices.SortFunc(entries, func(a, b ObjectEntry) bool {
			return a.ID < b.ID || a.ID == b.ID && a.Name < b.Name
		})

		_ = w.WriteUint32(uint32(len(entries)))

		for _, oe := range entries {
			_ = w.WriteUint16(oe.ID)
			_ = w.WriteString(oe.Name)
			_ = w.WriteString(oe.Type)
		}
	}
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}

	return 0
}
