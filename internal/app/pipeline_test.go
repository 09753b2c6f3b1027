// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

// badChecksum frames payload with a checksum that cannot match.
func badChecksum(payload string) string {
	s := gps.WithChecksum(payload)
	if s[len(s)-2:] == "00" {
		return s[:len(s)-2] + "FF"
	}
	return s[:len(s)-2] + "00"
}

func collectFixes(t *testing.T, lines ...string) []gps.Fix {
	t.Helper()
	nc := NewNMEAClient(true)
	nc.Start()

	var fixes []gps.Fix
	p := newFixPipeline(nc, func(f gps.Fix, _ nmeafix.Result, _ *gps.Satellites) error {
		fixes = append(fixes, f)
		return nil
	}, zap.NewNop().Sugar())

	for i, l := range lines {
		require.NoError(t, p.handle(gps.Sentence{Text: l, TimestampMillis: int64(1000 + i)}))
	}
	return fixes
}

const (
	epoch1GGA = "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"
	epoch1RMC = "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	epoch2GGA = "GPGGA,123520,4807.040,N,01131.002,E,2,07,1.1,550.0,M,46.9,M,,"
	epoch2RMC = "GPRMC,123520,A,4807.040,N,01131.002,E,022.4,084.4,230394,003.1,W"
)

func TestFixPipeline_AppliesSameEpochGGA(t *testing.T) {
	fixes := collectFixes(t,
		gps.WithChecksum(epoch1GGA), gps.WithChecksum(epoch1RMC),
		gps.WithChecksum(epoch2GGA), gps.WithChecksum(epoch2RMC),
	)
	require.Len(t, fixes, 2)
	assert.Equal(t, int64(8), fixes[0].SatellitesUse)
	assert.Equal(t, int64(7), fixes[1].SatellitesUse)
	assert.Equal(t, "2", fixes[1].FixQuality)
}

func TestFixPipeline_CorruptGGADoesNotReusePreviousEpoch(t *testing.T) {
	fixes := collectFixes(t,
		gps.WithChecksum(epoch1GGA), gps.WithChecksum(epoch1RMC),
		badChecksum(epoch2GGA), gps.WithChecksum(epoch2RMC),
	)
	require.Len(t, fixes, 2)
	assert.Equal(t, int64(8), fixes[0].SatellitesUse)

	second := fixes[1]
	assert.Empty(t, second.FixQuality)
	assert.Zero(t, second.SatellitesUse)
	assert.Zero(t, second.HDOP)
	// the window still starts at the corrupt GGA, so extras describe epoch 2
	alt, ok := second.Extra(nmeafix.KeyMSLAltitude)
	require.True(t, ok)
	assert.InDelta(t, 550.0, alt, 1e-9)
}

func TestFixPipeline_RMCWithoutFreshGGA(t *testing.T) {
	fixes := collectFixes(t,
		gps.WithChecksum(epoch1GGA), gps.WithChecksum(epoch1RMC),
		gps.WithChecksum(epoch2RMC),
	)
	require.Len(t, fixes, 2)
	assert.Equal(t, int64(8), fixes[0].SatellitesUse)
	assert.Zero(t, fixes[1].SatellitesUse)
}
