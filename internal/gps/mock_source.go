// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"math"
	"time"
)

// mockGSVCounts is how many GSV sentences the mock emits per talker.
var mockGSVCounts = []struct {
	talker string
	count  int
}{
	{"GP", 3},
	{"GL", 2},
	{"GA", 2},
	{"BD", 1},
	{"QZ", 1},
}

// MockSource simulates a multi-constellation receiver. Every call to Next
// yields one epoch: GGA, GSA, the GSV sentences and RMC, one second apart
// from the previous epoch.
type MockSource struct {
	start time.Time
	epoch int
}

// NewMockSource creates a mock receiver whose first epoch is at start.
func NewMockSource(start time.Time) *MockSource {
	return &MockSource{start: start.UTC()}
}

func (m *MockSource) Next() ([]Sentence, error) {
	t := m.start.Add(time.Duration(m.epoch) * time.Second)
	elapsed := float64(m.epoch)
	m.epoch++

	// Slow circle around a fixed point with a gently varying altitude.
	lat := 48.1173 + 0.001*math.Sin(elapsed/60)
	lon := 11.5167 + 0.001*math.Cos(elapsed/60)
	alt := 545.4 + 5*math.Sin(elapsed/30)

	hms := fmt.Sprintf("%02d%02d%02d.00", t.Hour(), t.Minute(), t.Second())
	dmy := fmt.Sprintf("%02d%02d%02d", t.Day(), int(t.Month()), t.Year()%100)
	latS, latH := nmeaCoord(lat, 2, "N", "S")
	lonS, lonH := nmeaCoord(lon, 3, "E", "W")

	lines := []string{
		fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,1,08,0.9,%.1f,M,46.9,M,,", hms, latS, latH, lonS, lonH, alt),
		"GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1",
	}
	for _, g := range mockGSVCounts {
		inView := g.count * 4
		for i := 1; i <= g.count; i++ {
			lines = append(lines, fmt.Sprintf("%sGSV,%d,%d,%02d,%02d,45,%03d,38", g.talker, g.count, i, inView, i*3, (i*40)%360))
		}
	}
	lines = append(lines, fmt.Sprintf("GPRMC,%s,A,%s,%s,%s,%s,000.5,054.7,%s,,,A", hms, latS, latH, lonS, lonH, dmy))

	out := make([]Sentence, len(lines))
	for i, l := range lines {
		out[i] = Sentence{
			Text:            WithChecksum(l),
			TimestampMillis: t.Add(time.Duration(i) * time.Millisecond).UnixMilli(),
		}
	}
	return out, nil
}

// WithChecksum frames an NMEA payload (no leading "$") as "$payload*CS".
func WithChecksum(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

// nmeaCoord formats decimal degrees as ddmm.mmmm / dddmm.mmmm plus hemisphere.
func nmeaCoord(v float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	deg := math.Floor(v)
	mins := (v - deg) * 60
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(deg), mins), hemi
}
