// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

// Satellites is the per-constellation breakdown published next to each fix.
// Counts are satellites-in-view sentences in the fix window.
type Satellites struct {
	Total            int            `json:"total"`
	PerConstellation map[string]int `json:"per_constellation"`
	WindowStart      string         `json:"window_start,omitempty"` // RFC3339, origin of the fix window
}
