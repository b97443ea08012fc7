// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package landmark holds the skeletal landmark types consumed by posture
// calibration and the geometry derived from them.
package landmark

import "fmt"

// ID identifies one of the body points required for posture analysis.
type ID int

const (
	Nose ID = iota
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftHip
	RightHip

	// NumRequired is the number of landmarks every Sample carries.
	NumRequired = int(RightHip) + 1
)

// Required lists every landmark a frame must carry to be usable.
var Required = []ID{Nose, LeftEar, RightEar, LeftShoulder, RightShoulder, LeftHip, RightHip}

var idNames = [NumRequired]string{
	"nose",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_hip",
	"right_hip",
}

// String returns the key used for the landmark in JSON payloads and
// calibration files.
func (id ID) String() string {
	if id < 0 || int(id) >= NumRequired {
		return fmt.Sprintf("landmark(%d)", int(id))
	}
	return idNames[id]
}

// ParseID maps a persisted key such as "right_ear" back to its ID.
func ParseID(name string) (ID, error) {
	for i, n := range idNames {
		if n == name {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown landmark %q", name)
}

// Point is a single tracked body point. Confidence is the detector's
// visibility score in [0, 1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"visibility"`
}

// Raw is one frame of landmarks as delivered by the pose-estimation
// adapter. It may be missing points; nothing is validated yet.
type Raw map[ID]Point

// Sample is a complete set of required landmarks, indexed by ID.
type Sample [NumRequired]Point

// Get returns the point stored for id.
func (s Sample) Get(id ID) Point {
	return s[id]
}
