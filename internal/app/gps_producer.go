// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/gnss_enricher/internal/config"
	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/log"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

// publisher is the part of an MQTT client the producer needs.
type publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

// RunGPSProducer reads NMEA sentences from the receiver (or a replay file),
// enriches every fix with satellites in view and MSL altitude, and publishes
// it as JSON to the configured MQTT topics. It returns when the source is
// exhausted, on a read error, or when ctx is cancelled.
func RunGPSProducer(ctx context.Context) error {
	cfg := config.Get()
	logger := log.Named("gps")

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)
	logger.Infof("GPS producer connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open sentence source ----
	src, err := openSentenceSource(cfg, logger)
	if err != nil {
		return err
	}

	// ---- 3) Listener lifecycle ----
	nc := NewNMEAClient(cfg.GPSUseMSLAltitude)
	nc.Start()
	defer nc.Stop()
	if !cfg.GPSUseMSLAltitude {
		logger.Info("MSL altitude enrichment disabled; fixes are published unmodified")
	}

	pub := mqttPublisher{client: client}
	pipeline := newFixPipeline(nc, publishFix(pub, cfg.TopicGPS, cfg.TopicGPSSatellites, logger), logger)

	return multierr.Append(runSource(ctx, src, pipeline), src.Close())
}

// runSource wires a reader goroutine to the pipeline. Cancelling ctx closes
// src so a blocked serial read returns.
func runSource(ctx context.Context, src io.ReadCloser, pipeline *fixPipeline) error {
	sentences := make(chan gps.Sentence, 64)
	g, gctx := errgroup.WithContext(ctx)

	stop := context.AfterFunc(gctx, func() { _ = src.Close() })
	defer stop()

	g.Go(func() error {
		defer close(sentences)
		return gps.ReadSentences(gctx, src, sentences, nil)
	})
	g.Go(func() error {
		return pipeline.run(gctx, sentences)
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	// Cancellation is a normal shutdown.
	return nil
}

// publishFix returns the handler that publishes fixes and satellite
// breakdowns. Publish failures are logged and do not stop the producer.
func publishFix(pub publisher, topicFix, topicSats string, logger *zap.SugaredLogger) fixHandler {
	return func(fix gps.Fix, res nmeafix.Result, sats *gps.Satellites) error {
		payload, err := json.Marshal(fix)
		if err != nil {
			logger.Errorf("GPS JSON marshal error: %v", err)
			return nil
		}
		if err := pub.Publish(topicFix, payload); err != nil {
			logger.Warnf("GPS publish error: %v", err)
			return nil
		}

		if sats != nil && topicSats != "" {
			if payload, err := json.Marshal(sats); err != nil {
				logger.Errorf("satellites JSON marshal error: %v", err)
			} else if err := pub.Publish(topicSats, payload); err != nil {
				logger.Warnf("satellites publish error: %v", err)
			}
		}

		logger.Debugf("published GPS fix: %+v", fix)
		return nil
	}
}

func openSentenceSource(cfg *config.Config, logger *zap.SugaredLogger) (io.ReadCloser, error) {
	if cfg.GPSReplayFile != "" {
		f, err := os.Open(cfg.GPSReplayFile)
		if err != nil {
			return nil, fmt.Errorf("open replay file: %w", err)
		}
		logger.Infof("replaying NMEA from %s", cfg.GPSReplayFile)
		return &onceCloser{ReadCloser: f}, nil
	}

	port, err := gps.OpenSerial(cfg.GPSSerialPort, uint(cfg.GPSBaudRate))
	if err != nil {
		return nil, err
	}
	logger.Infof("GPS serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)
	return &onceCloser{ReadCloser: port}, nil
}

// onceCloser lets both the cancel path and the normal exit close the source.
type onceCloser struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.ReadCloser.Close() })
	return c.err
}
