// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package landmark

import (
	"encoding/json"
	"math"
	"time"
)

// MediaPipe pose landmark indices for the required points.
var mediaPipeIndex = [NumRequired]int{
	Nose:          0,
	LeftEar:       7,
	RightEar:      8,
	LeftShoulder:  11,
	RightShoulder: 12,
	LeftHip:       23,
	RightHip:      24,
}

// FromMediaPipe picks the required landmarks out of a full MediaPipe pose
// landmark list (33 points). Indices past the end of the list are left out,
// so a truncated list yields a partial Raw.
func FromMediaPipe(points []Point) Raw {
	raw := make(Raw, NumRequired)
	for _, id := range Required {
		idx := mediaPipeIndex[id]
		if idx < len(points) {
			raw[id] = points[idx]
		}
	}
	return raw
}

// Frame is the JSON payload carried on the landmarks topic. A producer sets
// either Landmarks (keyed by landmark name) or PoseLandmarks (the full
// MediaPipe list). Detected=false is the explicit "no pose" signal.
type Frame struct {
	Timestamp     time.Time        `json:"timestamp"`
	Detected      bool             `json:"detected"`
	Landmarks     map[string]Point `json:"landmarks,omitempty"`
	PoseLandmarks []Point          `json:"pose_landmarks,omitempty"`
}

// NewFrame wraps raw landmarks in a Frame. A nil raw produces a
// "no detection" frame.
func NewFrame(raw Raw, ts time.Time) Frame {
	f := Frame{Timestamp: ts, Detected: raw != nil}
	if raw == nil {
		return f
	}
	f.Landmarks = make(map[string]Point, len(raw))
	for id, p := range raw {
		f.Landmarks[id.String()] = p
	}
	return f
}

// Raw returns the frame's landmarks, or nil when no pose was detected.
// Names that are not required landmarks are ignored.
func (f Frame) Raw() Raw {
	if !f.Detected {
		return nil
	}
	if len(f.PoseLandmarks) > 0 {
		return FromMediaPipe(f.PoseLandmarks)
	}
	raw := make(Raw, len(f.Landmarks))
	for name, p := range f.Landmarks {
		id, err := ParseID(name)
		if err != nil {
			continue
		}
		raw[id] = p
	}
	return raw
}

// UnmarshalJSON decodes a wire point. A point missing any of x, y, z or
// visibility gets a NaN confidence, so the calibration filter rejects it
// at every threshold.
func (p *Point) UnmarshalJSON(data []byte) error {
	var w struct {
		X          *float64 `json:"x"`
		Y          *float64 `json:"y"`
		Z          *float64 `json:"z"`
		Visibility *float64 `json:"visibility"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Point{Confidence: math.NaN()}
	if w.X != nil {
		p.X = *w.X
	}
	if w.Y != nil {
		p.Y = *w.Y
	}
	if w.Z != nil {
		p.Z = *w.Z
	}
	if w.X != nil && w.Y != nil && w.Z != nil && w.Visibility != nil {
		p.Confidence = *w.Visibility
	}
	return nil
}
