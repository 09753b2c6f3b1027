// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	nmea "github.com/adrianmo/go-nmea"
)

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "23/03/94"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void), etc.

	// From the latest GGA, when one was seen.
	FixQuality    string  `json:"fix_quality,omitempty"`
	SatellitesUse int64   `json:"satellites_used,omitempty"`
	HDOP          float64 `json:"hdop,omitempty"`

	// Extras is the extensible attribute store, e.g. satellites in view and
	// MSL altitude merged in by the enricher.
	Extras map[string]float64 `json:"extras,omitempty"`
}

// FixFromRMC fills a Fix from an RMC sentence.
func FixFromRMC(m nmea.RMC) Fix {
	return Fix{
		Time:       m.Time.String(),
		Date:       m.Date.String(),
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SpeedKnots: m.Speed,
		CourseDeg:  m.Course,
		Validity:   m.Validity,
	}
}

// ApplyGGA copies fix quality, satellites in use and HDOP from a GGA.
// Altitude is deliberately not taken here; it arrives through Extras.
func (f *Fix) ApplyGGA(m nmea.GGA) {
	f.FixQuality = m.FixQuality
	f.SatellitesUse = m.NumSatellites
	f.HDOP = m.HDOP
}

// SetExtra stores an attribute, allocating the map on first use.
func (f *Fix) SetExtra(key string, value float64) {
	if f.Extras == nil {
		f.Extras = make(map[string]float64)
	}
	f.Extras[key] = value
}

func (f *Fix) Extra(key string) (float64, bool) {
	v, ok := f.Extras[key]
	return v, ok
}
