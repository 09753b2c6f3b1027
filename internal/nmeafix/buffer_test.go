// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmeafix

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGGA = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"

func TestSentenceBuffer_EmptyBeforeIngest(t *testing.T) {
	b := NewSentenceBuffer()

	snap := b.Snapshot()
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
	assert.False(t, b.IsActive())
	assert.False(t, b.Window().HasOrigin)
}

func TestSentenceBuffer_AccumulatesWithoutFix(t *testing.T) {
	b := NewSentenceBuffer()
	in := []string{
		"$GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00",
		"$GLGSV,1,1,02,65,30,045,32,66,12,110,28",
		"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W",
	}
	for i, s := range in {
		b.Ingest(s, int64(i))
	}

	assert.Equal(t, in, b.Snapshot())
	assert.False(t, b.Window().HasOrigin)
	assert.Nil(t, Enrich(b.Snapshot()).MSLAltitude)
}

func TestSentenceBuffer_FixResetsWindow(t *testing.T) {
	b := NewSentenceBuffer()
	b.Ingest("$GPGSV,1,1,01,03,03,111,00", 1)
	b.Ingest("$GLGSV,1,1,01,65,30,045,32", 2)

	b.Ingest(sampleGGA, 1000)

	assert.Equal(t, []string{sampleGGA}, b.Snapshot())
	w := b.Window()
	require.True(t, w.HasOrigin)
	assert.Equal(t, int64(1000), w.Origin.UnixMilli())
}

func TestSentenceBuffer_OriginOnlyMovesOnFix(t *testing.T) {
	b := NewSentenceBuffer()
	b.Ingest(sampleGGA, 1000)
	b.Ingest("$GPGSV,1,1,01,03,03,111,00", 1500)
	b.Ingest("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W", 1600)

	w := b.Window()
	assert.Equal(t, int64(1000), w.Origin.UnixMilli())
	assert.Len(t, w.Sentences, 3)
	assert.Equal(t, sampleGGA, w.Sentences[0])

	b.Ingest(sampleGGA, 2000)
	assert.Equal(t, int64(2000), b.Window().Origin.UnixMilli())
	assert.Equal(t, 1, b.Len())
}

func TestSentenceBuffer_SnapshotIsACopy(t *testing.T) {
	b := NewSentenceBuffer()
	b.Ingest(sampleGGA, 1)
	b.Ingest("$GPGSV,1,1,01,03,03,111,00", 2)

	snap := b.Snapshot()
	snap[0] = "mutated"
	b.Ingest("$GLGSV,1,1,01,65,30,045,32", 3)

	assert.Len(t, snap, 2)
	assert.Equal(t, sampleGGA, b.Snapshot()[0])
}

func TestSentenceBuffer_IsActive(t *testing.T) {
	b := NewSentenceBuffer()

	b.SetActive(true)
	assert.False(t, b.IsActive(), "active without any sentence")

	b.Ingest("$GPGSV,1,1,01,03,03,111,00", 1)
	assert.True(t, b.IsActive())

	b.SetActive(false)
	assert.False(t, b.IsActive())
}

// Each window written below holds one GGA tagged with its epoch followed by
// GSV sentences carrying the same tag. A snapshot mixing two epochs would
// show different tags.
func TestSentenceBuffer_ConcurrentSnapshotsNeverMixWindows(t *testing.T) {
	b := NewSentenceBuffer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for epoch := 0; epoch < 2000; epoch++ {
			b.Ingest(fmt.Sprintf("$GPGGA,%d,,,,,,,,100.0,M,,,,", epoch), int64(epoch))
			for i := 0; i < 4; i++ {
				b.Ingest(fmt.Sprintf("$GPGSV,%d,%d", epoch, i), int64(epoch))
			}
		}
	}()

	for r := 0; r < 2; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				snap := b.Snapshot()
				if len(snap) == 0 {
					continue
				}
				tag := strings.Split(snap[0], ",")[1]
				for _, s := range snap[1:] {
					if got := strings.Split(s, ",")[1]; got != tag {
						t.Errorf("snapshot mixes epochs %s and %s", tag, got)
						return
					}
				}
				res := Enrich(snap)
				if res.SatellitesInView != nil && *res.SatellitesInView != len(snap)-1 {
					t.Errorf("satellites %d for window of %d", *res.SatellitesInView, len(snap))
					return
				}
			}
		}()
	}
	wg.Wait()
}
