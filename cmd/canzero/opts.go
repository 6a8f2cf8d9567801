package main

import (
	"time"
)

type discoveryOpts struct {
	Service       string        `long:"service" description:"discovery service name" env:"CANZERO_SERVICE" default:"CANzero"`
	Port          uint16        `long:"discovery-port" description:"udp port servers listen for probes on" env:"CANZERO_DISCOVERY_PORT" default:"9002"`
	Window        time.Duration `long:"window" description:"how long to collect replies" env:"CANZERO_WINDOW" default:"1s"`
	ReadTimeout   time.Duration `long:"read-timeout" description:"stop collecting after this long without replies (0 to disable)" default:"1s"`
	BroadcastAddr string        `long:"broadcast-addr" description:"address probes are sent to" env:"CANZERO_BROADCAST_ADDR" default:"255.255.255.255"`
}

var opts struct {
	Verbose bool `short:"v" long:"verbose" description:"verbose mode" env:"CANZERO_VERBOSE"`

	Scan   scanCommand   `command:"scan" description:"Scans the network for running CANzero communication servers"`
	Status statusCommand `command:"status" description:"Checks that every node runs the selected network configuration"`
}
