// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package landmark

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vector returns the point's position as an r3 vector.
func (p Point) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// NeckAngleDegrees returns the forward head angle from vertical in degrees.
// Positive means the ear sits forward of the shoulder.
//
// Image y grows downward, so the vertical component is inverted:
//
//	dx = ear.x - shoulder.x
//	dy = shoulder.y - ear.y
//	angle = atan2(dx, dy)
//
// A vertically aligned ear and shoulder (dx == 0) is 0 degrees whichever
// one sits higher.
func NeckAngleDegrees(ear, shoulder Point) float64 {
	dx := ear.X - shoulder.X
	if dx == 0 {
		return 0
	}
	dy := shoulder.Y - ear.Y
	return math.Atan2(dx, dy) * 180.0 / math.Pi
}

// MidpointX returns the x coordinate halfway between a and b.
func MidpointX(a, b Point) float64 {
	return (a.X + b.X) / 2.0
}

// MidpointY returns the y coordinate halfway between a and b.
func MidpointY(a, b Point) float64 {
	return (a.Y + b.Y) / 2.0
}

// HorizontalDistance returns |a.x - b.x|.
func HorizontalDistance(a, b Point) float64 {
	return math.Abs(a.X - b.X)
}

// Distance returns the euclidean distance between a and b in 3D.
func Distance(a, b Point) float64 {
	return a.Vector().Distance(b.Vector())
}

// Centroid returns the mean x and y of the given points. It returns zeros
// for an empty argument list.
func Centroid(points ...Point) (x, y float64) {
	if len(points) == 0 {
		return 0, 0
	}
	for _, p := range points {
		x += p.X
		y += p.Y
	}
	n := float64(len(points))
	return x / n, y / n
}
