package main

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/maxpoletaev/canzero/discovery"
)

var (
	errNoServerFound   = errors.New("no server found")
	errAmbiguousServer = errors.New("more than one server found")
)

func serverName(s discovery.ServerDescriptor) string {
	if s.ServerName == "" {
		return "unnamed"
	}

	return s.ServerName
}

// selectServer picks the server to connect to: the only one found, or the
// one called name when several replied.
func selectServer(servers []discovery.ServerDescriptor, name string) (discovery.ServerDescriptor, error) {
	if name != "" {
		for _, s := range servers {
			if s.ServerName == name {
				return s, nil
			}
		}

		return discovery.ServerDescriptor{}, fmt.Errorf("%w with name %q", errNoServerFound, name)
	}

	switch len(servers) {
	case 0:
		return discovery.ServerDescriptor{}, errNoServerFound
	case 1:
		return servers[0], nil
	}

	candidates := make([]string, 0, len(servers))
	for _, s := range servers {
		candidates = append(candidates, fmt.Sprintf("%s at %s", serverName(s), s.AddrPort()))
	}

	return discovery.ServerDescriptor{}, fmt.Errorf("%w, pick one with --server: %s",
		errAmbiguousServer, strings.Join(candidates, ", "))
}

// serverFromAddr describes a server given directly on the command line.
func serverFromAddr(addr string) (discovery.ServerDescriptor, error) {
	addrPort, err := netip.ParseAddrPort(addr)
	if err != nil {
		return discovery.ServerDescriptor{}, fmt.Errorf("invalid server address: %w", err)
	}

	return discovery.ServerDescriptor{
		ServerAddr:  addrPort.Addr(),
		ServicePort: addrPort.Port(),
	}, nil
}
