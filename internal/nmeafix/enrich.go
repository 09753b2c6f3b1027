// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmeafix

import (
	"math"
	"strconv"
	"strings"
)

// Well-known attribute keys used when merging a Result into a fix. Older
// location consumers name them geolocator_satellites_in_view and
// geolocator_mslAltitude.
const (
	KeySatellitesInView = "satellites_in_view"
	KeyMSLAltitude      = "msl_altitude"
)

// GGA field layout, counting the "$GPGGA" identifier as field 0:
//
//	1: time
//	2: latitude
//	3: N/S
//	4: longitude
//	5: E/W
//	6: fix quality
//	7: number of satellites in use
//	8: HDOP
//	9: altitude above mean sea level
//
// 10: altitude units (M)
const ggaAltitudeField = 9

// Result holds the values derived from one fix window. Absent values are nil.
type Result struct {
	SatellitesInView *int
	MSLAltitude      *float64

	// PerConstellation counts GSV sentences per constellation; tags with
	// no sentences are left out.
	PerConstellation map[Constellation]int
}

// Empty reports whether neither value could be derived.
func (r Result) Empty() bool {
	return r.SatellitesInView == nil && r.MSLAltitude == nil
}

// Attributes returns the present values keyed by KeySatellitesInView and
// KeyMSLAltitude, ready to be merged into a fix's attribute store.
func (r Result) Attributes() map[string]float64 {
	out := make(map[string]float64, 2)
	if r.SatellitesInView != nil {
		out[KeySatellitesInView] = float64(*r.SatellitesInView)
	}
	if r.MSLAltitude != nil {
		out[KeyMSLAltitude] = *r.MSLAltitude
	}
	return out
}

// Enrich derives the satellites-in-view total and MSL altitude from a
// window snapshot. It never fails: anything it cannot read is left absent.
// The altitude field is read leniently: surrounding spaces and a checksum
// attached to it ("12.5*4F") are stripped before parsing.
func Enrich(snapshot []string) Result {
	res := Result{PerConstellation: map[Constellation]int{}}

	total := 0
	for _, s := range snapshot {
		if c, ok := ClassifySentence(s); ok {
			res.PerConstellation[c]++
			total++
		}
	}
	if total > 0 {
		res.SatellitesInView = &total
	}

	for _, s := range snapshot {
		if !strings.HasPrefix(s, PrefixGlobalPositionFix) {
			continue
		}
		if alt, ok := mslAltitude(s); ok {
			res.MSLAltitude = &alt
		}
		break
	}

	return res
}

func mslAltitude(gga string) (float64, bool) {
	fields := strings.Split(gga, ",")
	if len(fields) <= ggaAltitudeField {
		return 0, false
	}
	v := fields[ggaAltitudeField]
	// A truncated sentence may end at this field with its checksum attached.
	if star := strings.IndexByte(v, '*'); star != -1 {
		v = v[:star]
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	alt, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(alt) || math.IsInf(alt, 0) {
		return 0, false
	}
	return alt, true
}
