package main

import (
	"errors"
	"os"

	"servicedeck/pkg/log"
)

func main() {
	// Initialize logger
	_ = log.Logger

	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errUnhealthy) {
			log.Error().Err(err).Msg("Dashboard failed")
		}
		os.Exit(1)
	}
}
