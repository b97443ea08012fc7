// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_baseline/internal/calibration"
	"github.com/relabs-tech/posture_baseline/internal/config"
	"github.com/relabs-tech/posture_baseline/internal/landmark"
	"github.com/relabs-tech/posture_baseline/internal/monitoring"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// mqttPublisher publishes through a connected paho client at QoS 0.
type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, payload []byte, retained bool) error {
	if token := p.client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// StateEvent is published on the calibration state topic.
type StateEvent struct {
	SessionID string  `json:"session_id"`
	State     string  `json:"state"`
	Progress  float64 `json:"progress"`
	Samples   int     `json:"samples"`
	Error     string  `json:"error,omitempty"`
}

// Calibrator serializes access to a calibration session shared between the
// MQTT frame callback, the liveness ticker and any controller (CLI, web).
// State changes are published as StateEvents; a completed baseline is
// saved to the configured file and published retained.
type Calibrator struct {
	mu      sync.Mutex
	session *calibration.Session
	pub     Publisher

	stateTopic    string
	baselineTopic string
	path          string

	saveErr error
}

// NewCalibrator wraps session. Topics and the baseline file come from cfg.
func NewCalibrator(session *calibration.Session, pub Publisher, cfg *config.Config) *Calibrator {
	return &Calibrator{
		session:       session,
		pub:           pub,
		stateTopic:    cfg.TopicCalibrationState,
		baselineTopic: cfg.TopicBaseline,
		path:          cfg.CalibrationFile,
	}
}

// Start begins or restarts the capture window.
func (c *Calibrator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.saveErr = nil
	c.session.Start()
	c.publishState()
}

// HandlePayload decodes a landmark.Frame from payload and feeds it to the
// session.
func (c *Calibrator) HandlePayload(payload []byte) error {
	var f landmark.Frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return fmt.Errorf("failed to decode landmark frame: %w", err)
	}
	c.feed(f.Raw(), false)
	return nil
}

// Tick feeds a "no detection" frame so the window closes even when the
// producer goes quiet. While capturing it also publishes progress.
func (c *Calibrator) Tick() calibration.State {
	return c.feed(nil, true)
}

func (c *Calibrator) feed(raw landmark.Raw, tick bool) calibration.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.session.State()
	st := c.session.AddFrame(raw)

	if st != prev && st.Terminal() {
		c.finish(st)
	}
	if st != prev || (tick && st == calibration.StateCapturing) {
		c.publishState()
	}
	return st
}

// finish runs once per window, with c.mu held.
func (c *Calibrator) finish(st calibration.State) {
	if st != calibration.StateComplete {
		return
	}

	if err := c.session.Save(c.path); err != nil {
		c.saveErr = err
		monitoring.Logf("calibrator: %v", err)
		return
	}

	b, _ := c.session.Baseline()
	var buf bytes.Buffer
	if err := calibration.Encode(&buf, b); err != nil {
		monitoring.Logf("calibrator: %v", err)
		return
	}
	if err := c.pub.Publish(c.baselineTopic, buf.Bytes(), true); err != nil {
		monitoring.Logf("calibrator: publish error (baseline): %v", err)
	}
}

func (c *Calibrator) publishState() {
	payload, err := json.Marshal(c.snapshot())
	if err != nil {
		monitoring.Logf("calibrator: json marshal error (state): %v", err)
		return
	}
	if err := c.pub.Publish(c.stateTopic, payload, false); err != nil {
		monitoring.Logf("calibrator: publish error (state): %v", err)
	}
}

// Snapshot returns the current state as an event.
func (c *Calibrator) Snapshot() StateEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Calibrator) snapshot() StateEvent {
	ev := StateEvent{
		SessionID: c.session.ID(),
		State:     c.session.State().String(),
		Progress:  c.session.Progress(),
		Samples:   c.session.SampleCount(),
	}
	if c.saveErr != nil {
		ev.Error = c.saveErr.Error()
	}
	return ev
}

// State returns the session state.
func (c *Calibrator) State() calibration.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State()
}

// Baseline returns the session's baseline, if any.
func (c *Calibrator) Baseline() (calibration.Baseline, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Baseline()
}

// Result returns the finished baseline, or the error that kept it from
// being produced or saved.
func (c *Calibrator) Result() (calibration.Baseline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result()
}

// Outcome returns the state event together with the result, both read
// under one lock so a concurrent restart cannot split them.
func (c *Calibrator) Outcome() (StateEvent, calibration.Baseline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.result()
	return c.snapshot(), b, err
}

func (c *Calibrator) result() (calibration.Baseline, error) {
	b, err := c.session.Result()
	if err != nil {
		return calibration.Baseline{}, err
	}
	if c.saveErr != nil {
		return b, c.saveErr
	}
	return b, nil
}

// RunCalibrator runs one calibration window against the landmark topic and
// returns the saved baseline.
func RunCalibrator(ctx context.Context) (calibration.Baseline, error) {
	cfg := config.Get()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDCalibrator)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return calibration.Baseline{}, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("calibrator: connected to MQTT broker at %s", cfg.MQTTBroker)

	cal := NewCalibrator(calibration.NewSession(cfg.Session()), mqttPublisher{client: client}, cfg)

	token := client.Subscribe(cfg.TopicLandmarks, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := cal.HandlePayload(msg.Payload()); err != nil {
			log.Printf("calibrator: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return calibration.Baseline{}, token.Error()
	}
	log.Printf("calibrator: subscribed to %s", cfg.TopicLandmarks)

	if err := runWindow(ctx, cal, cfg.Tick()); err != nil {
		return calibration.Baseline{}, err
	}
	return cal.Result()
}

// runWindow starts cal and ticks it until the window ends or ctx is done.
func runWindow(ctx context.Context, cal *Calibrator, interval time.Duration) error {
	cal.Start()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if cal.Tick().Terminal() {
				return nil
			}
		}
	}
}
