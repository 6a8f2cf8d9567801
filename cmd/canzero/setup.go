package main

import (
	"fmt"
	"net/netip"
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/canzero/discovery"
)

func setupLogger() kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if opts.Verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}

	return level.NewFilter(logger, level.AllowWarn())
}

func setupScanner(dopts discoveryOpts, logger kitlog.Logger) (*discovery.Scanner, error) {
	addr, err := netip.ParseAddr(dopts.BroadcastAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid broadcast address: %w", err)
	}

	scanner := discovery.NewScanner(
		discovery.WithBroadcastAddr(addr),
		discovery.WithReadTimeout(dopts.ReadTimeout),
		discovery.WithLogger(logger),
	)

	return scanner, nil
}
