// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gnss_enricher/internal/config"
	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/log"
	"github.com/relabs-tech/gnss_enricher/internal/nmeafix"
)

// DisplayData holds the latest fix for display
type DisplayData struct {
	mu      sync.RWMutex
	fix     gps.Fix
	haveFix bool
}

func (d *DisplayData) set(f gps.Fix) {
	d.mu.Lock()
	d.fix = f
	d.haveFix = true
	d.mu.Unlock()
}

func (d *DisplayData) get() (gps.Fix, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fix, d.haveFix
}

// addrBus pins every transaction to one address so the panel can sit at a
// non-default I2C address.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

func RunDisplay() error {
	cfg := config.Get()
	logger := log.Named("display")

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	logger.Infof("display initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		logger.Warnf("error showing splash: %v", err)
	}

	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			logger.Warnf("gps unmarshal error: %v", err)
			return
		}
		data.set(f)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Infof("subscribed to %s", cfg.TopicGPS)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	logger.Info("starting update loop")
	for range ticker.C {
		f, ok := data.get()
		if err := dev.Draw(dev.Bounds(), renderFix(f, ok), image.Point{}); err != nil {
			logger.Warnf("error updating display: %v", err)
		}
	}
	return nil
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// renderFix draws position, satellites in view and MSL altitude on four
// 13px rows.
func renderFix(f gps.Fix, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("GPS Position"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return img
	}

	latDir := "N"
	lat := f.Latitude
	if lat < 0 {
		latDir = "S"
		lat = -lat
	}
	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lat, latDir)))

	lonDir := "E"
	lon := f.Longitude
	if lon < 0 {
		lonDir = "W"
		lon = -lon
	}
	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lon, lonDir)))

	sats := "Sats: --"
	if v, ok := f.Extra(nmeafix.KeySatellitesInView); ok {
		sats = fmt.Sprintf("Sats: %.0f", v)
	}
	drawer.Dot = fixed.P(0, 39)
	drawer.DrawBytes([]byte(sats))

	alt := "MSL: --"
	if v, ok := f.Extra(nmeafix.KeyMSLAltitude); ok {
		alt = fmt.Sprintf("MSL: %.0fm", v)
	}
	drawer.Dot = fixed.P(0, 52)
	drawer.DrawBytes([]byte(alt))

	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("GNSS Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Looking for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("sats"))

	return img
}
