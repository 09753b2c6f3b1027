// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmeafix groups a live NMEA 0183 stream into per-fix windows and
// derives satellite counts and MSL altitude from them.
package nmeafix

import (
	"strings"
	"sync"
	"time"
)

// PrefixGlobalPositionFix marks the start of a new fix window.
const PrefixGlobalPositionFix = "$GPGGA"

// Window is a copied view of the sentences grouped under one fix.
type Window struct {
	Sentences []string
	Origin    time.Time // delivery time of the GGA that opened the window
	HasOrigin bool
}

// SentenceBuffer owns the rolling window of sentences since the last
// global-position-fix sentence. Ingest and the read methods may be called
// from different goroutines.
type SentenceBuffer struct {
	mu        sync.RWMutex
	sentences []string
	origin    int64
	hasOrigin bool
	ingested  bool
	active    bool
}

func NewSentenceBuffer() *SentenceBuffer {
	return &SentenceBuffer{}
}

// Ingest appends a sentence to the current window. A GGA sentence resets
// the window so that it holds only that sentence and records timestampMillis
// as the window origin.
func (b *SentenceBuffer) Ingest(sentence string, timestampMillis int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ingested = true
	if strings.HasPrefix(sentence, PrefixGlobalPositionFix) {
		// Fresh backing array: snapshots already handed out stay untouched.
		b.sentences = []string{sentence}
		b.origin = timestampMillis
		b.hasOrigin = true
		return
	}
	b.sentences = append(b.sentences, sentence)
}

// Snapshot returns a copy of the current window. It is empty until
// something has been ingested.
func (b *SentenceBuffer) Snapshot() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.sentences))
	copy(out, b.sentences)
	return out
}

// Window returns a copy of the current window with its origin.
func (b *SentenceBuffer) Window() Window {
	b.mu.RLock()
	defer b.mu.RUnlock()

	w := Window{
		Sentences: make([]string, len(b.sentences)),
		HasOrigin: b.hasOrigin,
	}
	copy(w.Sentences, b.sentences)
	if b.hasOrigin {
		w.Origin = time.UnixMilli(b.origin)
	}
	return w
}

// Len reports the number of sentences in the current window.
func (b *SentenceBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sentences)
}

// SetActive is called by the lifecycle owner when sentence delivery is
// subscribed or unsubscribed.
func (b *SentenceBuffer) SetActive(active bool) {
	b.mu.Lock()
	b.active = active
	b.mu.Unlock()
}

// IsActive reports whether enrichment is allowed: delivery has been
// granted and at least one sentence has arrived.
func (b *SentenceBuffer) IsActive() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active && b.ingested
}
