// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/posture_baseline/internal/calibration"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocket message types
type WSMessage struct {
	Action string `json:"action"` // start, cancel
}

type WSResponse struct {
	Type      string          `json:"type"` // progress, state, complete, failed, error
	SessionID string          `json:"session_id,omitempty"`
	State     string          `json:"state,omitempty"`
	Progress  float64         `json:"progress"`
	Samples   int             `json:"samples,omitempty"`
	Results   json.RawMessage `json:"results,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// wsClient is one websocket connection. Writes come from both the read
// loop and the progress stream, so they go through writeMu.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	stop chan struct{} // closes the running stream; nil when idle
	wg   sync.WaitGroup
}

// handleCalibrationWS handles the WebSocket connection for calibration.
func (s *Server) handleCalibrationWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("calibration: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn}
	defer c.stopStream()

	// Main message loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("calibration: websocket read error: %v", err)
			}
			return
		}

		switch msg.Action {
		case "start":
			s.cal.Start()
			log.Printf("calibration: session %s started from web", s.cal.Snapshot().SessionID)
			c.stopStream()
			c.startStream(s.cal, s.tick)

		case "cancel":
			log.Printf("calibration: stream cancelled by user")
			c.stopStream()

		default:
			c.send(WSResponse{Type: "error", Message: "unknown action: " + msg.Action})
		}
	}
}

func (c *wsClient) startStream(cal *Calibrator, interval time.Duration) {
	stop := make(chan struct{})
	c.stop = stop
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.stream(cal, interval, stop)
	}()
}

func (c *wsClient) stopStream() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
	c.wg.Wait()
}

// stream sends progress every interval until the window ends, then the
// final state and either the baseline or the failure.
func (c *wsClient) stream(cal *Calibrator, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ev, b, err := cal.Outcome()
		if ev.State == calibration.StateCapturing.String() {
			if err := c.send(WSResponse{
				Type:      "progress",
				SessionID: ev.SessionID,
				State:     ev.State,
				Progress:  ev.Progress,
				Samples:   ev.Samples,
			}); err != nil {
				return
			}
			continue
		}

		c.sendResult(ev, b, err)
		return
	}
}

func (c *wsClient) sendResult(ev StateEvent, b calibration.Baseline, err error) {
	if err := c.send(WSResponse{
		Type:      "state",
		SessionID: ev.SessionID,
		State:     ev.State,
		Progress:  ev.Progress,
		Samples:   ev.Samples,
	}); err != nil {
		return
	}

	if err != nil {
		c.send(WSResponse{Type: "failed", SessionID: ev.SessionID, Progress: ev.Progress, Message: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := calibration.Encode(&buf, b); err != nil {
		c.send(WSResponse{Type: "error", Message: err.Error()})
		return
	}
	c.send(WSResponse{
		Type:      "complete",
		SessionID: ev.SessionID,
		Progress:  ev.Progress,
		Samples:   ev.Samples,
		Results:   json.RawMessage(bytes.TrimSpace(buf.Bytes())),
	})
}

func (c *wsClient) send(resp WSResponse) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		log.Printf("calibration: websocket write error: %v", err)
		return err
	}
	return nil
}
