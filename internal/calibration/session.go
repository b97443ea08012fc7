// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration captures a personal good-posture baseline from a timed
// window of landmark frames and persists it for the posture monitor.
//
// Usage:
//
//	s := calibration.NewSession(calibration.DefaultConfig())
//	s.Start()
//
//	// in the frame loop:
//	if s.AddFrame(raw) == calibration.StateComplete {
//		err := s.Save("data/calibration.json")
//	}
//
//	// later:
//	b, err := calibration.Load("data/calibration.json")
package calibration

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/relabs-tech/posture_baseline/internal/landmark"
	"github.com/relabs-tech/posture_baseline/internal/monitoring"
)

// State is the calibration session state.
type State int

const (
	StateIdle      State = iota // not yet started
	StateCapturing              // accumulating frames
	StateComplete               // baseline computed
	StateFailed                 // window elapsed without enough usable frames
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCapturing:
		return "CAPTURING"
	case StateComplete:
		return "COMPLETE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is COMPLETE or FAILED.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Config holds the capture policy of a session.
type Config struct {
	Duration      time.Duration // capture window
	MinConfidence float64       // per-landmark visibility threshold
	MinSamples    int           // accepted frames needed to complete; values < 1 mean 1
}

// DefaultConfig returns a 5 second window, 0.5 visibility threshold and a
// single-frame minimum.
func DefaultConfig() Config {
	return Config{
		Duration:      5 * time.Second,
		MinConfidence: 0.5,
		MinSamples:    1,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for elapsed-time checks.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithWallClock sets the source of the baseline's capture timestamp.
func WithWallClock(now func() time.Time) Option {
	return func(s *Session) { s.wallNow = now }
}

// Session is the calibration state machine.
//
// It is not safe for concurrent use: AddFrame is expected from a single
// capture loop, and Start/Save from a controller that does not overlap
// with it. Callers needing concurrent access must serialize externally.
type Session struct {
	cfg     Config
	clock   clock.Clock
	wallNow func() time.Time

	id       string
	state    State
	start    time.Time
	samples  []landmark.Sample
	baseline *Baseline
}

// NewSession creates an idle session.
func NewSession(cfg Config, opts ...Option) *Session {
	if cfg.MinSamples < 1 {
		cfg.MinSamples = 1
	}
	s := &Session{cfg: cfg, state: StateIdle}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.wallNow == nil {
		s.wallNow = s.clock.Now
	}
	return s
}

// Config returns the session's capture policy.
func (s *Session) Config() Config { return s.cfg }

// State returns the current state.
func (s *Session) State() State { return s.state }

// ID identifies the current capture run. It is empty before the first Start.
func (s *Session) ID() string { return s.id }

// SampleCount returns the number of accepted frames in the current window.
func (s *Session) SampleCount() int { return len(s.samples) }

// Done reports whether the current window has finished.
func (s *Session) Done() bool { return s.state.Terminal() }

// Start begins, or restarts, the capture window. Any in-progress window and
// previous baseline are discarded.
func (s *Session) Start() {
	s.samples = nil
	s.start = s.clock.Now()
	s.baseline = nil
	s.id = uuid.NewString()
	s.state = StateCapturing
	monitoring.Logf("calibration: session %s started (window %s, min visibility %.2f, min samples %d)",
		s.id, s.cfg.Duration, s.cfg.MinConfidence, s.cfg.MinSamples)
}

// AddFrame feeds one frame of landmarks into the session. A nil raw means no
// pose was detected. Frames that fail the visibility filter are dropped.
// Elapsed time is checked on every call so a window ends even when no
// usable frames arrive. It returns the state after processing.
func (s *Session) AddFrame(raw landmark.Raw) State {
	if s.state != StateCapturing {
		return s.state
	}

	if sample, ok := NewSample(raw, s.cfg.MinConfidence); ok {
		s.samples = append(s.samples, sample)
	}

	if s.clock.Since(s.start) >= s.cfg.Duration {
		s.finalize()
	}
	return s.state
}

// Progress returns capture progress in [0, 1]: 0 while idle, 1 once the
// window has finished.
func (s *Session) Progress() float64 {
	switch s.state {
	case StateIdle:
		return 0
	case StateComplete, StateFailed:
		return 1
	}
	if s.cfg.Duration <= 0 {
		return 1
	}
	p := float64(s.clock.Since(s.start)) / float64(s.cfg.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Baseline returns a copy of the computed baseline, if any.
func (s *Session) Baseline() (Baseline, bool) {
	if s.baseline == nil {
		return Baseline{}, false
	}
	return *s.baseline, true
}

// Result returns the baseline of a finished window. It fails with
// ErrInvalidState while the window is idle or capturing and with
// ErrNoBaseline when the window failed.
func (s *Session) Result() (Baseline, error) {
	if !s.state.Terminal() {
		return Baseline{}, fmt.Errorf("result requested in state %s: %w", s.state, ErrInvalidState)
	}
	b, ok := s.Baseline()
	if !ok {
		return Baseline{}, ErrNoBaseline
	}
	return b, nil
}

// Save persists the session's baseline to path.
func (s *Session) Save(path string) error {
	return Save(path, s.baseline)
}

func (s *Session) finalize() {
	if len(s.samples) < s.cfg.MinSamples {
		s.state = StateFailed
		monitoring.Logf("calibration: session %s failed: %d usable frames, need %d",
			s.id, len(s.samples), s.cfg.MinSamples)
		return
	}

	avg, err := Average(s.samples)
	if err != nil {
		// unreachable with MinSamples >= 1
		s.state = StateFailed
		monitoring.Logf("calibration: session %s failed: %v", s.id, err)
		return
	}
	b := Build(avg, s.wallNow())
	s.baseline = &b
	s.state = StateComplete
	monitoring.Logf("calibration: session %s complete: %d frames, neck angle %.2f°",
		s.id, len(s.samples), b.NeckAngle)
}
