// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gnss_enricher/internal/config"
	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/log"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

func RunConsoleMQTT() error {
	cfg := config.Get()
	logger := log.Named("console")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to enriched fixes
	gpsToken := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			logger.Warnf("gps unmarshal error: %v", err)
			return
		}
		fmt.Println(formatFix(f))
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}
	logger.Infof("subscribed to %s", cfg.TopicGPS)

	// Subscribe to constellation breakdown
	if cfg.TopicGPSSatellites != "" {
		satsToken := client.Subscribe(cfg.TopicGPSSatellites, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var s gps.Satellites
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				logger.Warnf("satellites unmarshal error: %v", err)
				return
			}
			fmt.Println(formatSatellites(s))
		})
		satsToken.Wait()
		if satsToken.Error() != nil {
			return satsToken.Error()
		}
		logger.Infof("subscribed to %s", cfg.TopicGPSSatellites)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	client.Disconnect(250)
	return nil
}

func formatFix(f gps.Fix) string {
	sats := "--"
	if v, ok := f.Extra(nmeafix.KeySatellitesInView); ok {
		sats = fmt.Sprintf("%.0f", v)
	}
	alt := "--"
	if v, ok := f.Extra(nmeafix.KeyMSLAltitude); ok {
		alt = fmt.Sprintf("%.1fm", v)
	}
	return fmt.Sprintf(
		"[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s inview=%s msl=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity, sats, alt,
	)
}

func formatSatellites(s gps.Satellites) string {
	names := make([]string, 0, len(s.PerConstellation))
	for name := range s.PerConstellation {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, s.PerConstellation[name]))
	}
	return fmt.Sprintf("[SATS]  total=%d %s", s.Total, strings.Join(parts, " "))
}
