package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
)

// appctx is cancelled on SIGINT and SIGTERM.
var appctx context.Context

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	appctx = ctx

	p := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	p.LongDescription = "The command line interface for the CANzero toolchain."

	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				fmt.Println(err)
				return 0
			}

			fmt.Fprintln(os.Stderr, "cli error:", err)

			return 2
		}

		fmt.Fprintln(os.Stderr, "error:", err)

		return 1
	}

	return 0
}
