package main

import (
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/canzero/discovery"
	"github.com/maxpoletaev/canzero/netconfig"
	"github.com/maxpoletaev/canzero/probe"
	"github.com/maxpoletaev/canzero/transport"
)

type statusCommand struct {
	Discovery  discoveryOpts `group:"Discovery Options"`
	Config     string        `short:"c" long:"config" description:"network configuration file" env:"CANZERO_CONFIG" required:"true"`
	Addr       string        `long:"addr" description:"bridge server address, skips discovery" env:"CANZERO_ADDR"`
	ServerName string        `long:"server" description:"name of the server to use when several are found"`
	Timeout    time.Duration `long:"timeout" description:"per node reply timeout" default:"100ms"`
}

func (c *statusCommand) Execute([]string) error {
	logger := setupLogger()

	network, err := netconfig.Load(c.Config)
	if err != nil {
		return err
	}

	localHash := network.Fingerprint()

	server, err := c.findServer(logger)
	if err != nil {
		return err
	}

	if server.ConfigFingerprint != 0 && server.ConfigFingerprint != localHash {
		level.Warn(logger).Log(
			"msg", "server runs a different network configuration",
			"server", serverName(server),
		)
	}

	timebase := server.StartTimestamp
	if timebase.IsZero() {
		timebase = time.Now()
	}

	tr, err := transport.Dial(appctx, server.AddrPort().String(), timebase, logger)
	if err != nil {
		return err
	}

	defer tr.Close()

	conf, err := proberConfig(network, c.Timeout, logger)
	if err != nil {
		return err
	}

	statuses, err := probe.New(tr, conf).Probe(appctx, localHash, probeTargets(network))

	for _, s := range statuses {
		if s.HasRoundTrip() {
			fmt.Printf("%-25s : %-7s (%dms)\n", s.Node.Name, s.State, s.RoundTrip.Milliseconds())
		} else {
			fmt.Printf("%-25s : %-7s\n", s.Node.Name, s.State)
		}
	}

	return err
}

func (c *statusCommand) findServer(logger kitlog.Logger) (discovery.ServerDescriptor, error) {
	if c.Addr != "" {
		return serverFromAddr(c.Addr)
	}

	scanner, err := setupScanner(c.Discovery, logger)
	if err != nil {
		return discovery.ServerDescriptor{}, err
	}

	servers, err := scanner.Scan(appctx, c.Discovery.Service, c.Discovery.Port, c.Discovery.Window)
	if err != nil {
		return discovery.ServerDescriptor{}, err
	}

	return selectServer(servers, c.ServerName)
}

func proberConfig(network *netconfig.Network, timeout time.Duration, logger kitlog.Logger) (probe.Config, error) {
	busID, ok := network.BusID(network.GetReq.Bus)
	if !ok {
		return probe.Config{}, fmt.Errorf("unknown bus %q", network.GetReq.Bus)
	}

	conf := probe.DefaultConfig()
	conf.RequestID = network.GetReq.MessageID()
	conf.ResponseID = network.GetResp.MessageID()
	conf.BusID = busID
	conf.Timeout = timeout
	conf.Logger = logger

	if network.GetReq.DLC != 0 {
		conf.DLC = network.GetReq.DLC
	}

	return conf, nil
}

// probeTargets lists the nodes in configuration order. Validation guarantees
// every node has a config hash entry.
func probeTargets(network *netconfig.Network) []probe.Node {
	nodes := make([]probe.Node, 0, len(network.Nodes))

	for _, n := range network.Nodes {
		oe, _ := n.ObjectEntry(netconfig.ConfigHashEntry)

		nodes = append(nodes, probe.Node{
			ID:            n.ID,
			Name:          n.Name,
			ObjectEntryID: oe.ID,
		})
	}

	return nodes
}
