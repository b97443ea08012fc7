// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"time"

	"github.com/relabs-tech/posture_baseline/internal/landmark"
)

// Baseline is the user's good-posture reference: the averaged landmark
// positions plus metrics derived from them once, at build time.
type Baseline struct {
	Nose          landmark.Point
	LeftEar       landmark.Point
	RightEar      landmark.Point
	LeftShoulder  landmark.Point
	RightShoulder landmark.Point
	LeftHip       landmark.Point
	RightHip      landmark.Point

	NeckAngle      float64 // forward head angle, right ear over right shoulder (degrees)
	ShoulderYAvg   float64 // mean y of both shoulders (slouch reference)
	ShoulderWidth  float64 // |right.x - left.x| of the shoulders
	TorsoCentroidX float64 // mean x of both shoulders and both hips
	TorsoCentroidY float64 // mean y of both shoulders and both hips

	CapturedAt float64 // unix seconds
}

// Build derives a Baseline from an averaged sample. The neck angle uses the
// right ear/shoulder pair only.
func Build(avg landmark.Sample, now time.Time) Baseline {
	ls := avg[landmark.LeftShoulder]
	rs := avg[landmark.RightShoulder]
	lh := avg[landmark.LeftHip]
	rh := avg[landmark.RightHip]

	cx, cy := landmark.Centroid(ls, rs, lh, rh)

	return Baseline{
		Nose:          avg[landmark.Nose],
		LeftEar:       avg[landmark.LeftEar],
		RightEar:      avg[landmark.RightEar],
		LeftShoulder:  ls,
		RightShoulder: rs,
		LeftHip:       lh,
		RightHip:      rh,

		NeckAngle:      landmark.NeckAngleDegrees(avg[landmark.RightEar], rs),
		ShoulderYAvg:   landmark.MidpointY(ls, rs),
		ShoulderWidth:  landmark.HorizontalDistance(rs, ls),
		TorsoCentroidX: cx,
		TorsoCentroidY: cy,

		CapturedAt: unixSeconds(now),
	}
}

// Sample returns the baseline's points as a Sample.
func (b Baseline) Sample() landmark.Sample {
	var s landmark.Sample
	s[landmark.Nose] = b.Nose
	s[landmark.LeftEar] = b.LeftEar
	s[landmark.RightEar] = b.RightEar
	s[landmark.LeftShoulder] = b.LeftShoulder
	s[landmark.RightShoulder] = b.RightShoulder
	s[landmark.LeftHip] = b.LeftHip
	s[landmark.RightHip] = b.RightHip
	return s
}

// CapturedTime returns CapturedAt as a time.Time.
func (b Baseline) CapturedTime() time.Time {
	sec := int64(b.CapturedAt)
	nsec := int64((b.CapturedAt - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
