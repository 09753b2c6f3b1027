// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"go.uber.org/zap"

	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

// fixHandler receives every enriched fix together with what was derived
// for it.
type fixHandler func(fix gps.Fix, res nmeafix.Result, sats *gps.Satellites) error

// fixPipeline feeds sentences to an NMEAClient and turns every RMC into an
// enriched fix. RMC is taken as the position-fix event: receivers emit it
// after the GGA and GSV sentences of the same epoch.
type fixPipeline struct {
	client *NMEAClient
	onFix  fixHandler
	logger *zap.SugaredLogger

	lastGGA *nmea.GGA
}

func newFixPipeline(client *NMEAClient, onFix fixHandler, logger *zap.SugaredLogger) *fixPipeline {
	return &fixPipeline{client: client, onFix: onFix, logger: logger}
}

// handle processes a single sentence. Parse failures are noise on a GNSS
// stream and are only logged at debug level.
func (p *fixPipeline) handle(s gps.Sentence) error {
	p.client.Deliver(s.Text, s.TimestampMillis)

	sentence, err := nmea.Parse(s.Text)
	if err != nil {
		p.logger.Debugf("NMEA parse error: %v (line: %q)", err, s.Text)
		// The window was reset by this line; a GGA from the previous epoch
		// must not leak into the next fix.
		if strings.HasPrefix(s.Text, nmeafix.PrefixGlobalPositionFix) {
			p.lastGGA = nil
		}
		return nil
	}

	switch sentence.DataType() {
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		p.lastGGA = &m

	case nmea.TypeRMC:
		fix := gps.FixFromRMC(sentence.(nmea.RMC))
		if p.lastGGA != nil {
			fix.ApplyGGA(*p.lastGGA)
			p.lastGGA = nil
		}
		res := p.client.EnrichFix(&fix)
		p.logger.Debugf("fix %s: window=%d sentences extras=%d", fix.Time, p.client.Buffer().Len(), len(fix.Extras))
		return p.onFix(fix, res, p.satellites(res))

	default:
		// other sentence types only matter through the buffer
	}
	return nil
}

func (p *fixPipeline) satellites(res nmeafix.Result) *gps.Satellites {
	if res.SatellitesInView == nil {
		return nil
	}
	out := &gps.Satellites{
		Total:            *res.SatellitesInView,
		PerConstellation: make(map[string]int, len(res.PerConstellation)),
	}
	for c, n := range res.PerConstellation {
		out.PerConstellation[c.String()] = n
	}
	if w := p.client.Buffer().Window(); w.HasOrigin {
		out.WindowStart = w.Origin.UTC().Format(time.RFC3339Nano)
	}
	return out
}

// run consumes sentences until the channel is closed or ctx is done.
func (p *fixPipeline) run(ctx context.Context, in <-chan gps.Sentence) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-in:
			if !ok {
				return nil
			}
			if err := p.handle(s); err != nil {
				return err
			}
		}
	}
}
