// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/relabs-tech/posture_baseline/internal/landmark"
	"github.com/relabs-tech/posture_baseline/internal/monitoring"
)

// record is the on-disk layout of a baseline.
type record struct {
	Nose          landmark.Point `json:"nose"`
	LeftEar       landmark.Point `json:"left_ear"`
	RightEar      landmark.Point `json:"right_ear"`
	LeftShoulder  landmark.Point `json:"left_shoulder"`
	RightShoulder landmark.Point `json:"right_shoulder"`
	LeftHip       landmark.Point `json:"left_hip"`
	RightHip      landmark.Point `json:"right_hip"`

	NeckAngle      float64 `json:"neck_angle"`
	ShoulderYAvg   float64 `json:"shoulder_y_avg"`
	ShoulderWidth  float64 `json:"shoulder_width"`
	TorsoCentroidX float64 `json:"torso_centroid_x"`
	TorsoCentroidY float64 `json:"torso_centroid_y"`
	CapturedAt     float64 `json:"captured_at"`
}

// pointFields and recordFields use pointers so a missing key can be told
// apart from a zero value.
type pointFields struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Z          *float64 `json:"z"`
	Visibility *float64 `json:"visibility"`
}

type recordFields struct {
	Nose          *pointFields `json:"nose"`
	LeftEar       *pointFields `json:"left_ear"`
	RightEar      *pointFields `json:"right_ear"`
	LeftShoulder  *pointFields `json:"left_shoulder"`
	RightShoulder *pointFields `json:"right_shoulder"`
	LeftHip       *pointFields `json:"left_hip"`
	RightHip      *pointFields `json:"right_hip"`

	NeckAngle      *float64 `json:"neck_angle"`
	ShoulderYAvg   *float64 `json:"shoulder_y_avg"`
	ShoulderWidth  *float64 `json:"shoulder_width"`
	TorsoCentroidX *float64 `json:"torso_centroid_x"`
	TorsoCentroidY *float64 `json:"torso_centroid_y"`
	CapturedAt     *float64 `json:"captured_at"`
}

// Encode writes b as an indented JSON record.
func Encode(w io.Writer, b Baseline) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toRecord(b)); err != nil {
		return fmt.Errorf("failed to encode baseline: %w", err)
	}
	return nil
}

// Decode reads one baseline record from r. With strict set, keys outside the
// record layout and trailing data are rejected; otherwise unknown keys are
// ignored. Every failure wraps ErrCorrupt.
func Decode(r io.Reader, strict bool) (Baseline, error) {
	dec := json.NewDecoder(r)
	if strict {
		dec.DisallowUnknownFields()
	}

	var f recordFields
	if err := dec.Decode(&f); err != nil {
		return Baseline{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if strict {
		if _, err := dec.Token(); err != io.EOF {
			return Baseline{}, fmt.Errorf("%w: trailing data after record", ErrCorrupt)
		}
	}

	b, err := f.baseline()
	if err != nil {
		return Baseline{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return b, nil
}

// Save writes b to path, creating parent directories and replacing any
// existing file. A nil b fails with ErrNoBaseline.
func Save(path string, b *Baseline) error {
	if b == nil {
		return ErrNoBaseline
	}

	var buf bytes.Buffer
	if err := Encode(&buf, *b); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create calibration directory: %w", err)
	}

	// Write next to the target and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(dir, ".calibration-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create calibration file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set calibration file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace calibration file: %w", err)
	}

	monitoring.Logf("calibration: saved baseline to %s", path)
	return nil
}

// Load reads a baseline written by Save. Unknown keys are ignored but every
// required key must be present.
func Load(path string) (Baseline, error) {
	return load(path, false)
}

// LoadStrict is like Load but rejects any key outside the record layout.
func LoadStrict(path string) (Baseline, error) {
	return load(path, true)
}

func load(path string, strict bool) (Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Baseline{}, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		return Baseline{}, fmt.Errorf("failed to read calibration file: %w", err)
	}

	b, err := Decode(bytes.NewReader(data), strict)
	if err != nil {
		return Baseline{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func toRecord(b Baseline) record {
	return record{
		Nose:           b.Nose,
		LeftEar:        b.LeftEar,
		RightEar:       b.RightEar,
		LeftShoulder:   b.LeftShoulder,
		RightShoulder:  b.RightShoulder,
		LeftHip:        b.LeftHip,
		RightHip:       b.RightHip,
		NeckAngle:      b.NeckAngle,
		ShoulderYAvg:   b.ShoulderYAvg,
		ShoulderWidth:  b.ShoulderWidth,
		TorsoCentroidX: b.TorsoCentroidX,
		TorsoCentroidY: b.TorsoCentroidY,
		CapturedAt:     b.CapturedAt,
	}
}

func (f *recordFields) baseline() (Baseline, error) {
	var (
		b   Baseline
		err error
	)

	points := []struct {
		name string
		src  *pointFields
		dst  *landmark.Point
	}{
		{"nose", f.Nose, &b.Nose},
		{"left_ear", f.LeftEar, &b.LeftEar},
		{"right_ear", f.RightEar, &b.RightEar},
		{"left_shoulder", f.LeftShoulder, &b.LeftShoulder},
		{"right_shoulder", f.RightShoulder, &b.RightShoulder},
		{"left_hip", f.LeftHip, &b.LeftHip},
		{"right_hip", f.RightHip, &b.RightHip},
	}
	for _, p := range points {
		if *p.dst, err = p.src.point(p.name); err != nil {
			return Baseline{}, err
		}
	}

	scalars := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"neck_angle", f.NeckAngle, &b.NeckAngle},
		{"shoulder_y_avg", f.ShoulderYAvg, &b.ShoulderYAvg},
		{"shoulder_width", f.ShoulderWidth, &b.ShoulderWidth},
		{"torso_centroid_x", f.TorsoCentroidX, &b.TorsoCentroidX},
		{"torso_centroid_y", f.TorsoCentroidY, &b.TorsoCentroidY},
		{"captured_at", f.CapturedAt, &b.CapturedAt},
	}
	for _, s := range scalars {
		if s.src == nil {
			return Baseline{}, fmt.Errorf("missing key %q", s.name)
		}
		*s.dst = *s.src
	}
	return b, nil
}

func (p *pointFields) point(name string) (landmark.Point, error) {
	if p == nil {
		return landmark.Point{}, fmt.Errorf("missing key %q", name)
	}
	switch {
	case p.X == nil:
		return landmark.Point{}, fmt.Errorf("missing key %q in %q", "x", name)
	case p.Y == nil:
		return landmark.Point{}, fmt.Errorf("missing key %q in %q", "y", name)
	case p.Z == nil:
		return landmark.Point{}, fmt.Errorf("missing key %q in %q", "z", name)
	case p.Visibility == nil:
		return landmark.Point{}, fmt.Errorf("missing key %q in %q", "visibility", name)
	}
	return landmark.Point{X: *p.X, Y: *p.Y, Z: *p.Z, Confidence: *p.Visibility}, nil
}
