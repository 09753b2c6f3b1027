// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"

	"github.com/relabs-tech/gnss_enricher/internal/app"
	"github.com/relabs-tech/gnss_enricher/internal/config"
	"github.com/relabs-tech/gnss_enricher/internal/log"
)

func main() {
	// Load configuration
	if err := config.InitGlobal("gnss_config.txt"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := log.Init(config.Get().LogDebug); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting GNSS web server (MQTT subscriber)")

	if err := app.RunWeb(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
