// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/log"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

// RunMockConsole drives the simulated receiver through the enrichment
// pipeline once per second and prints every fix. No hardware or broker is
// needed.
func RunMockConsole(ctx context.Context) error {
	return runMockConsole(ctx, gps.NewMockSource(time.Now()), time.Second, -1, os.Stdout)
}

// runMockConsole prints up to epochs epochs (unbounded when negative).
func runMockConsole(ctx context.Context, src *gps.MockSource, every time.Duration, epochs int, w io.Writer) error {
	nc := NewNMEAClient(true)
	nc.Start()
	defer nc.Stop()

	pipeline := newFixPipeline(nc, func(fix gps.Fix, _ nmeafix.Result, sats *gps.Satellites) error {
		fmt.Fprintln(w, formatFix(fix))
		if sats != nil {
			fmt.Fprintln(w, formatSatellites(*sats))
		}
		return nil
	}, log.Named("mock"))

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for n := 0; epochs < 0 || n < epochs; n++ {
		epoch, err := src.Next()
		if err != nil {
			return err
		}
		for _, s := range epoch {
			if err := pipeline.handle(s); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
