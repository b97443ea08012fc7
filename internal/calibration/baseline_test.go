// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/posture_baseline/internal/landmark"
)

func TestBuild(t *testing.T) {
	avg := sampleOf(goodRaw())
	now := time.Unix(1767225600, 250000000)

	b := Build(avg, now)

	assert.Equal(t, avg[landmark.Nose], b.Nose)
	assert.Equal(t, avg[landmark.LeftEar], b.LeftEar)
	assert.Equal(t, avg[landmark.RightEar], b.RightEar)
	assert.Equal(t, avg[landmark.LeftShoulder], b.LeftShoulder)
	assert.Equal(t, avg[landmark.RightShoulder], b.RightShoulder)
	assert.Equal(t, avg[landmark.LeftHip], b.LeftHip)
	assert.Equal(t, avg[landmark.RightHip], b.RightHip)

	// right ear (0.6, 0.2) over right shoulder (0.5, 0.5)
	assert.InDelta(t, math.Atan2(0.1, 0.3)*180/math.Pi, b.NeckAngle, 1e-9)
	assert.InDelta(t, 0.5, b.ShoulderYAvg, 1e-12)
	assert.InDelta(t, 0.2, b.ShoulderWidth, 1e-12)
	assert.InDelta(t, (0.70+0.50+0.66+0.48)/4, b.TorsoCentroidX, 1e-12)
	assert.InDelta(t, 0.7, b.TorsoCentroidY, 1e-12)
	assert.InDelta(t, 1767225600.25, b.CapturedAt, 1e-6)
	assert.Equal(t, avg, b.Sample())
}

func TestBuild_UsesRightSideOnly(t *testing.T) {
	avg := sampleOf(goodRaw())
	want := Build(avg, time.Unix(0, 0)).NeckAngle

	// moving the left ear has no effect on the neck angle
	avg[landmark.LeftEar] = landmark.Point{X: 0.1, Y: 0.9, Confidence: 1}
	assert.Equal(t, want, Build(avg, time.Unix(0, 0)).NeckAngle)
}

func TestBaseline_CapturedTime(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 30, 0, 500000000, time.UTC)
	b := Build(sampleOf(goodRaw()), now)

	got := b.CapturedTime()
	assert.WithinDuration(t, now, got, time.Microsecond)
}
