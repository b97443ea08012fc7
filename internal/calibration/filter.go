// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import "github.com/relabs-tech/posture_baseline/internal/landmark"

// Accepts reports whether raw carries every required landmark with a
// confidence of at least minConfidence. One weak landmark rejects the frame,
// and so does a NaN confidence.
func Accepts(raw landmark.Raw, required []landmark.ID, minConfidence float64) bool {
	if raw == nil {
		return false
	}
	for _, id := range required {
		p, ok := raw[id]
		if !ok || !(p.Confidence >= minConfidence) {
			return false
		}
	}
	return true
}

// NewSample builds a Sample from raw if it passes Accepts for all required
// landmarks. Partial samples are never constructed.
func NewSample(raw landmark.Raw, minConfidence float64) (landmark.Sample, bool) {
	if !Accepts(raw, landmark.Required, minConfidence) {
		return landmark.Sample{}, false
	}
	var s landmark.Sample
	for _, id := range landmark.Required {
		s[id] = raw[id]
	}
	return s, true
}
