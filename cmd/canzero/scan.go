package main

import (
	"fmt"
)

type scanCommand struct {
	Discovery discoveryOpts `group:"Discovery Options"`
	Forever   bool          `short:"i" long:"inf" description:"keep scanning until interrupted"`
}

func (c *scanCommand) Execute([]string) error {
	logger := setupLogger()

	scanner, err := setupScanner(c.Discovery, logger)
	if err != nil {
		return err
	}

	for {
		servers, err := scanner.Scan(appctx, c.Discovery.Service, c.Discovery.Port, c.Discovery.Window)
		if err != nil {
			if appctx.Err() != nil {
				return nil
			}

			return err
		}

		if len(servers) == 0 {
			fmt.Println("No connections found")
		} else {
			fmt.Println("Found TCP servers at:")

			for _, s := range servers {
				fmt.Printf("- %s at %s\n", serverName(s), s.AddrPort())
			}
		}

		if !c.Forever {
			return nil
		}
	}
}
