// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"sync"

	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

// NMEAClient owns the sentence buffer for one receiver. It decides when
// sentences are accepted (Start/Stop) and merges enrichment results into
// fixes handed to EnrichFix.
type NMEAClient struct {
	buf            *nmeafix.SentenceBuffer
	useMSLAltitude bool

	mu      sync.Mutex
	started bool
}

// NewNMEAClient creates a client. With useMSLAltitude unset the client
// never subscribes and EnrichFix leaves every fix untouched.
func NewNMEAClient(useMSLAltitude bool) *NMEAClient {
	return &NMEAClient{
		buf:            nmeafix.NewSentenceBuffer(),
		useMSLAltitude: useMSLAltitude,
	}
}

// Start subscribes the client to sentence delivery. Calling it twice is a no-op.
func (c *NMEAClient) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || !c.useMSLAltitude {
		return
	}
	c.started = true
	c.buf.SetActive(true)
}

func (c *NMEAClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.useMSLAltitude {
		return
	}
	c.started = false
	c.buf.SetActive(false)
}

// Deliver is the sentence listener. Sentences arriving while stopped are
// dropped.
func (c *NMEAClient) Deliver(sentence string, timestampMillis int64) {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return
	}
	c.buf.Ingest(sentence, timestampMillis)
}

// Buffer exposes the underlying buffer for read-only use.
func (c *NMEAClient) Buffer() *nmeafix.SentenceBuffer {
	return c.buf
}

// EnrichFix merges satellites in view and MSL altitude into fix.Extras. A
// nil fix, an inactive client or an empty window leaves the fix as is. The
// returned result is what was derived, empty when nothing was merged.
func (c *NMEAClient) EnrichFix(fix *gps.Fix) nmeafix.Result {
	if fix == nil || !c.buf.IsActive() {
		return nmeafix.Result{}
	}
	snap := c.buf.Snapshot()
	if len(snap) == 0 {
		return nmeafix.Result{}
	}

	res := nmeafix.Enrich(snap)
	for k, v := range res.Attributes() {
		fix.SetExtra(k, v)
	}
	return res
}
