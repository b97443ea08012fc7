// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/posture_baseline/internal/landmark"
)

// Average returns the per-landmark arithmetic mean of x, y, z and confidence
// across samples. Every sample has equal weight.
func Average(samples []landmark.Sample) (landmark.Sample, error) {
	if len(samples) == 0 {
		return landmark.Sample{}, ErrNoSamples
	}

	n := len(samples)
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	cs := make([]float64, n)

	var avg landmark.Sample
	for _, id := range landmark.Required {
		for i, s := range samples {
			p := s[id]
			xs[i], ys[i], zs[i], cs[i] = p.X, p.Y, p.Z, p.Confidence
		}
		avg[id] = landmark.Point{
			X:          stat.Mean(xs, nil),
			Y:          stat.Mean(ys, nil),
			Z:          stat.Mean(zs, nil),
			Confidence: stat.Mean(cs, nil),
		}
	}
	return avg, nil
}
