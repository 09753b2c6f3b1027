// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"context"
	"strings"
	"testing"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time {
		ms++
		return time.UnixMilli(ms)
	}
}

func TestReadSentences_FiltersAndOrders(t *testing.T) {
	input := strings.Join([]string{
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,",
		"",
		"u-blox boot chatter",
		"   $GPGSV,1,1,01,03,03,111,00  ",
		"$GPRMC,123519,A",
	}, "\r\n")

	out := make(chan Sentence, 10)
	err := ReadSentences(context.Background(), strings.NewReader(input), out, fixedClock(1000))
	require.NoError(t, err)
	close(out)

	var got []Sentence
	for s := range out {
		got = append(got, s)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "$GPGSV,1,1,01,03,03,111,00", got[1].Text)
	assert.Equal(t, int64(1001), got[0].TimestampMillis)
	assert.Equal(t, int64(1003), got[2].TimestampMillis)
}

func TestReadSentences_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Sentence) // nobody reads
	err := ReadSentences(ctx, strings.NewReader("$GPGGA,1\n$GPGGA,2\n"), out, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadSentences_SkipsOversizedNoise(t *testing.T) {
	tests := []struct {
		name  string
		noise int
	}{
		{"just over the limit", maxSentenceLen + 1},
		{"several buffers", 3*maxSentenceLen + 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "$GPGSV,1,1,01,03,03,111,00\n" +
				strings.Repeat("\x00", tt.noise) + "\n" +
				"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,\n"

			out := make(chan Sentence, 10)
			err := ReadSentences(context.Background(), strings.NewReader(input), out, fixedClock(0))
			require.NoError(t, err)
			close(out)

			var got []string
			for s := range out {
				got = append(got, s.Text)
			}
			require.Len(t, got, 2)
			assert.True(t, strings.HasPrefix(got[1], "$GPGGA,123519"))
		})
	}
}

func TestReadSentences_OversizedLineAtEOF(t *testing.T) {
	input := "$GPGSV,1,1,01,03,03,111,00\n$" + strings.Repeat("A", 2*maxSentenceLen)

	out := make(chan Sentence, 10)
	require.NoError(t, ReadSentences(context.Background(), strings.NewReader(input), out, nil))
	close(out)
	assert.Len(t, out, 1)
}

func TestOpenSerial_EmptyPort(t *testing.T) {
	_, err := OpenSerial("", 9600)
	assert.Error(t, err)
}

func TestMockSource_EpochParsesAndEnriches(t *testing.T) {
	start := time.Date(2026, 3, 23, 12, 35, 19, 0, time.UTC)
	src := NewMockSource(start)

	epoch, err := src.Next()
	require.NoError(t, err)
	require.NotEmpty(t, epoch)

	buf := nmeafix.NewSentenceBuffer()
	for _, s := range epoch {
		_, err := nmea.Parse(s.Text)
		require.NoError(t, err, s.Text)
		buf.Ingest(s.Text, s.TimestampMillis)
	}

	w := buf.Window()
	require.True(t, w.HasOrigin)
	assert.Equal(t, start.UnixMilli(), w.Origin.UnixMilli())
	assert.Len(t, w.Sentences, len(epoch))

	res := nmeafix.Enrich(w.Sentences)
	require.NotNil(t, res.SatellitesInView)
	assert.Equal(t, 9, *res.SatellitesInView)
	require.NotNil(t, res.MSLAltitude)
	assert.InDelta(t, 545.4, *res.MSLAltitude, 1e-9)

	next, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Second).UnixMilli(), next[0].TimestampMillis)
}

func TestNmeaCoord(t *testing.T) {
	v, h := nmeaCoord(48.1173, 2, "N", "S")
	assert.Equal(t, "4807.0380", v)
	assert.Equal(t, "N", h)

	v, h = nmeaCoord(-11.5, 3, "E", "W")
	assert.Equal(t, "01130.0000", v)
	assert.Equal(t, "W", h)
}
