// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmeafix

import "strings"

// Constellation identifies a satellite navigation system by the talker ID
// of its satellites-in-view (GSV) sentence.
type Constellation int

const (
	GPS Constellation = iota
	GLONASS
	QZSS
	BeiDou
	Galileo
)

var constellationPrefixes = [...]string{
	GPS:     "$GPGSV",
	GLONASS: "$GLGSV",
	QZSS:    "$QZGSV",
	BeiDou:  "$BDGSV",
	Galileo: "$GAGSV",
}

var constellationNames = [...]string{
	GPS:     "gps",
	GLONASS: "glonass",
	QZSS:    "qzss",
	BeiDou:  "beidou",
	Galileo: "galileo",
}

// Constellations returns every tracked constellation in a fixed order.
func Constellations() []Constellation {
	return []Constellation{GPS, GLONASS, QZSS, BeiDou, Galileo}
}

// Prefix is the GSV sentence identifier, e.g. "$GPGSV".
func (c Constellation) Prefix() string {
	if c < 0 || int(c) >= len(constellationPrefixes) {
		return ""
	}
	return constellationPrefixes[c]
}

func (c Constellation) String() string {
	if c < 0 || int(c) >= len(constellationNames) {
		return "unknown"
	}
	return constellationNames[c]
}

// ClassifySentence matches the sentence against the GSV prefixes. Matching
// is case-sensitive; prefixes are disjoint so at most one tag applies.
func ClassifySentence(sentence string) (Constellation, bool) {
	for _, c := range Constellations() {
		if strings.HasPrefix(sentence, c.Prefix()) {
			return c, true
		}
	}
	return 0, false
}
