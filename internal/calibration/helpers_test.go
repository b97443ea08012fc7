// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"github.com/relabs-tech/posture_baseline/internal/landmark"
)

// goodRaw returns a complete frame with every landmark fully visible.
func goodRaw() landmark.Raw {
	return landmark.Raw{
		landmark.Nose:          {X: 0.50, Y: 0.15, Z: -0.2, Confidence: 0.99},
		landmark.LeftEar:       {X: 0.56, Y: 0.18, Z: -0.1, Confidence: 0.90},
		landmark.RightEar:      {X: 0.60, Y: 0.20, Z: -0.1, Confidence: 0.92},
		landmark.LeftShoulder:  {X: 0.70, Y: 0.50, Z: 0.0, Confidence: 0.97},
		landmark.RightShoulder: {X: 0.50, Y: 0.50, Z: 0.0, Confidence: 0.97},
		landmark.LeftHip:       {X: 0.66, Y: 0.90, Z: 0.1, Confidence: 0.80},
		landmark.RightHip:      {X: 0.48, Y: 0.90, Z: 0.1, Confidence: 0.80},
	}
}

func sampleOf(raw landmark.Raw) landmark.Sample {
	var s landmark.Sample
	for id, p := range raw {
		s[id] = p
	}
	return s
}

// shifted returns a copy of s with every coordinate moved by d.
func shifted(s landmark.Sample, d float64) landmark.Sample {
	for i := range s {
		s[i].X += d
		s[i].Y += d
		s[i].Z += d
		s[i].Confidence -= d / 10
	}
	return s
}
