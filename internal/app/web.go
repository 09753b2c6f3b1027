// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/gnss_enricher/internal/config"
	"github.com/relabs-tech/gnss_enricher/internal/gps"
	"github.com/relabs-tech/gnss_enricher/internal/log"
)

// wsWriteWait bounds a single websocket write so a stalled client cannot
// hold up fix ingestion.
const wsWriteWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// fixHub keeps the latest fix and pushes every new one to connected
// websocket clients.
type fixHub struct {
	mu      sync.RWMutex
	last    []byte
	clients map[*websocket.Conn]struct{}
	logger  *zap.SugaredLogger

	writeWait time.Duration
}

func newFixHub(logger *zap.SugaredLogger) *fixHub {
	return &fixHub{
		clients:   make(map[*websocket.Conn]struct{}),
		logger:    logger,
		writeWait: wsWriteWait,
	}
}

func (h *fixHub) write(conn *websocket.Conn, msg []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// update stores a JSON-encoded fix and broadcasts it. Payloads that are not
// a fix are rejected.
func (h *fixHub) update(payload []byte) error {
	var f gps.Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		return fmt.Errorf("fix unmarshal: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = append([]byte(nil), payload...)
	for conn := range h.clients {
		if err := h.write(conn, h.last); err != nil {
			h.logger.Debugf("websocket write error, dropping client: %v", err)
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}

func (h *fixHub) serveLatest(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.last == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(h.last); err != nil {
		h.logger.Warnf("http write error: %v", err)
	}
}

func (h *fixHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade error: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	if h.last != nil {
		_ = h.write(conn, h.last)
	}
	h.mu.Unlock()

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debugf("websocket read error: %v", err)
				}
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

func (h *fixHub) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/gps", h.serveLatest)
	mux.HandleFunc("/ws/gps", h.serveWS)
	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func RunWeb() error {
	cfg := config.Get()
	logger := log.Named("web")
	hub := newFixHub(logger)

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to enriched fixes
	token := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := hub.update(msg.Payload()); err != nil {
			logger.Warnf("MQTT payload error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Infof("subscribed to MQTT topic %s", cfg.TopicGPS)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Infof("web server listening on %s", addr)
	return http.ListenAndServe(addr, hub.routes())
}
