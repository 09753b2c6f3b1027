// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

func TestFormatFix(t *testing.T) {
	f := gps.Fix{Time: "12:35:19.0000", Latitude: 48.1173, Longitude: 11.5167, Validity: "A"}
	assert.Contains(t, formatFix(f), "inview=-- msl=--")

	f.SetExtra(nmeafix.KeySatellitesInView, 9)
	f.SetExtra(nmeafix.KeyMSLAltitude, 545.4)
	out := formatFix(f)
	assert.Contains(t, out, "lat=48.117300")
	assert.Contains(t, out, "inview=9 msl=545.4m")
}

func TestFormatSatellites(t *testing.T) {
	out := formatSatellites(gps.Satellites{
		Total:            5,
		PerConstellation: map[string]int{"glonass": 2, "beidou": 1, "gps": 2},
	})
	assert.Equal(t, "[SATS]  total=5 beidou=1 glonass=2 gps=2", out)
}

func TestRunMockConsole(t *testing.T) {
	var buf bytes.Buffer
	src := gps.NewMockSource(time.Date(2026, 3, 23, 12, 0, 0, 0, time.UTC))

	err := runMockConsole(context.Background(), src, time.Millisecond, 2, &buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "[GPS ]"))
	assert.Contains(t, lines[0], "inview=9")
	assert.Contains(t, lines[0], "msl=545.4m")
	assert.Equal(t, "[SATS]  total=9 beidou=1 galileo=2 glonass=2 gps=3 qzss=1", lines[1])
}

func TestRunMockConsole_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	src := gps.NewMockSource(time.Now())
	assert.NoError(t, runMockConsole(ctx, src, time.Hour, -1, &buf))
}
