// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package landmark

import (
	"math"

	"github.com/benbjohnson/clock"
)

// Source is anything that can provide landmark frames over time.
// A nil Raw with a nil error means no pose was detected in that frame.
type Source interface {
	Next() (Raw, error)
}

// upright is a seated, camera-facing reference posture in normalized
// image coordinates.
var upright = Sample{
	Nose:          {X: 0.50, Y: 0.20, Z: -0.30, Confidence: 0.99},
	LeftEar:       {X: 0.56, Y: 0.22, Z: -0.10, Confidence: 0.95},
	RightEar:      {X: 0.44, Y: 0.22, Z: -0.10, Confidence: 0.95},
	LeftShoulder:  {X: 0.62, Y: 0.40, Z: 0.00, Confidence: 0.98},
	RightShoulder: {X: 0.40, Y: 0.40, Z: 0.00, Confidence: 0.98},
	LeftHip:       {X: 0.58, Y: 0.75, Z: 0.02, Confidence: 0.90},
	RightHip:      {X: 0.43, Y: 0.75, Z: 0.02, Confidence: 0.90},
}

type mockSource struct {
	clk   clock.Clock
	start float64
	n     int

	// every dropEvery-th frame reports no detection; 0 disables.
	dropEvery int
}

// NewMockSource creates a mock landmark source that sways gently around an
// upright posture and periodically loses the pose.
func NewMockSource(clk clock.Clock, dropEvery int) Source {
	if clk == nil {
		clk = clock.New()
	}
	return &mockSource{
		clk:       clk,
		start:     float64(clk.Now().UnixNano()) / 1e9,
		dropEvery: dropEvery,
	}
}

func (m *mockSource) Next() (Raw, error) {
	m.n++
	if m.dropEvery > 0 && m.n%m.dropEvery == 0 {
		return nil, nil
	}

	elapsed := float64(m.clk.Now().UnixNano())/1e9 - m.start
	sway := 0.01 * math.Sin(elapsed)
	lean := 0.005 * math.Cos(elapsed*0.7)

	raw := make(Raw, NumRequired)
	for _, id := range Required {
		p := upright[id]
		p.X += sway
		if id == Nose || id == LeftEar || id == RightEar {
			// head moves more than the torso
			p.X += lean
			p.Y += lean / 2
		}
		raw[id] = p
	}
	return raw, nil
}
