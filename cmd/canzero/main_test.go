package main

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/canzero/discovery"
	"github.com/maxpoletaev/canzero/frame"
	"github.com/maxpoletaev/canzero/netconfig"
)

func TestSelectServer(t *testing.T) {
	pod := discovery.ServerDescriptor{ServerName: "pod", ServerAddr: netip.MustParseAddr("10.0.0.2"), ServicePort: 9003}
	bench := discovery.ServerDescriptor{ServerName: "bench", ServerAddr: netip.MustParseAddr("10.0.0.3"), ServicePort: 9003}

	_, err := selectServer(nil, "")
	assert.ErrorIs(t, err, errNoServerFound)

	s, err := selectServer([]discovery.ServerDescriptor{pod}, "")
	require.NoError(t, err)
	assert.Equal(t, pod, s)

	_, err = selectServer([]discovery.ServerDescriptor{pod, bench}, "")
	assert.ErrorIs(t, err, errAmbiguousServer)
	assert.Contains(t, err.Error(), "bench at 10.0.0.3:9003")

	s, err = selectServer([]discovery.ServerDescriptor{pod, bench}, "bench")
	require.NoError(t, err)
	assert.Equal(t, bench, s)

	_, err = selectServer([]discovery.ServerDescriptor{pod}, "bench")
	assert.ErrorIs(t, err, errNoServerFound)
}

func TestServerFromAddr(t *testing.T) {
	s, err := serverFromAddr("192.168.0.10:9003")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddrPort("192.168.0.10:9003"), s.AddrPort())

	_, err = serverFromAddr("pod")
	assert.Error(t, err)
}

func TestProberConfig(t *testing.T) {
	network := &netconfig.Network{
		Buses:   []netconfig.Bus{{Name: "can0", ID: 0}, {Name: "can1", ID: 1}},
		GetReq:  netconfig.Message{ID: 0x1FF, Bus: "can1", DLC: 4},
		GetResp: netconfig.Message{ID: 0x1FE, Extended: true, Bus: "can1"},
		Nodes: []netconfig.Node{
			{Name: "b", ID: 7, ObjectEntries: []netconfig.ObjectEntry{{Name: "x", ID: 1}, {Name: "config_hash", ID: 3}}},
			{Name: "a", ID: 2, ObjectEntries: []netconfig.ObjectEntry{{Name: "config_hash", ID: 0}}},
		},
	}

	conf, err := proberConfig(network, 250*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, frame.MessageID{ID: 0x1FF}, conf.RequestID)
	assert.Equal(t, frame.MessageID{ID: 0x1FE, Extended: true}, conf.ResponseID)
	assert.Equal(t, uint32(1), conf.BusID)
	assert.Equal(t, uint8(4), conf.DLC)
	assert.Equal(t, 250*time.Millisecond, conf.Timeout)

	targets := probeTargets(network)
	require.Len(t, targets, 2)
	assert.Equal(t, "b", targets[0].Name)
	assert.Equal(t, uint16(3), targets[0].ObjectEntryID)
	assert.Equal(t, uint8(2), targets[1].ID)

	network.GetReq.Bus = "can7"
	_, err = proberConfig(network, time.Second, nil)
	assert.Error(t, err)
}
