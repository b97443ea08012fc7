// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/posture_baseline/internal/landmark"
)

func testBaseline() Baseline {
	return Build(sampleOf(goodRaw()), time.Unix(1767225600, 0))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// encodedMap returns the JSON record of testBaseline as a generic map.
func encodedMap(t *testing.T) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testBaseline()))
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func mapJSON(t *testing.T, m map[string]any) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return string(data)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	want := testBaseline()
	path := filepath.Join(t.TempDir(), "calibration.json")

	require.NoError(t, Save(path, &want))

	for name, load := range map[string]func(string) (Baseline, error){
		"lenient": Load,
		"strict":  LoadStrict,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := load(path)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("baseline mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSaveLoad_RoundTripVaried(t *testing.T) {
	point := func(x, y, z, c float64) landmark.Point {
		return landmark.Point{X: x, Y: y, Z: z, Confidence: c}
	}
	uniform := func(p landmark.Point) Baseline {
		return Baseline{
			Nose: p, LeftEar: p, RightEar: p,
			LeftShoulder: p, RightShoulder: p,
			LeftHip: p, RightHip: p,
		}
	}

	negative := uniform(point(-0.25, -1.5, -3.75, 0.5))
	negative.NeckAngle = -42.125
	negative.TorsoCentroidX = -0.3
	negative.CapturedAt = 1767225600.123456

	large := uniform(point(1e300, -1e300, 1.7976931348623157e308, 1))
	large.ShoulderWidth = 1e300
	large.CapturedAt = 4102444800.5

	small := uniform(point(5e-324, 1e-300, -2.2250738585072014e-308, 1e-12))
	small.ShoulderYAvg = 1e-310
	small.CapturedAt = 0.000001

	mixed := testBaseline()
	mixed.RightEar = point(0.1234567890123456, 0.9876543210987654, -0.5, 0.51)
	mixed.CapturedAt = 1767225600.999999

	tests := []struct {
		name string
		b    Baseline
	}{
		{"zero", Baseline{}},
		{"negative", negative},
		{"large magnitudes", large},
		{"small magnitudes", small},
		{"fractional mixed", mixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "calibration.json")
			require.NoError(t, Save(path, &tt.b))

			got, err := LoadStrict(path)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.b, got); diff != "" {
				t.Errorf("baseline mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSave_Nil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	err := Save(path, nil)
	assert.True(t, errors.Is(err, ErrNoBaseline))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_CreatesDirectoriesAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "calibration.json")

	first := testBaseline()
	require.NoError(t, Save(path, &first))

	second := testBaseline()
	second.NeckAngle = 3.5
	second.CapturedAt = 1767225700
	require.NoError(t, Save(path, &second))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.NeckAngle)
	assert.Equal(t, 1767225700.0, got.CapturedAt)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "calibration.json", entries[0].Name())
}

func TestEncode_Keys(t *testing.T) {
	m := encodedMap(t)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"captured_at",
		"left_ear", "left_hip", "left_shoulder",
		"neck_angle",
		"nose",
		"right_ear", "right_hip", "right_shoulder",
		"shoulder_width", "shoulder_y_avg",
		"torso_centroid_x", "torso_centroid_y",
	}, keys)

	nose, ok := m["nose"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, nose, 4)
	for _, k := range []string{"x", "y", "z", "visibility"} {
		assert.Contains(t, nose, k)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrCorrupt))
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		raw    string
	}{
		{name: "invalid json", raw: `{"nose": `},
		{name: "not an object", raw: `[1, 2, 3]`},
		{name: "empty file", raw: ``},
		{
			name:   "missing scalar",
			mutate: func(m map[string]any) { delete(m, "neck_angle") },
		},
		{
			name:   "missing point",
			mutate: func(m map[string]any) { delete(m, "left_hip") },
		},
		{
			name: "missing point field",
			mutate: func(m map[string]any) {
				delete(m["right_ear"].(map[string]any), "visibility")
			},
		},
		{
			name:   "wrong type",
			mutate: func(m map[string]any) { m["shoulder_width"] = "wide" },
		},
		{
			name:   "null point",
			mutate: func(m map[string]any) { m["nose"] = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := tt.raw
			if tt.mutate != nil {
				m := encodedMap(t)
				tt.mutate(m)
				content = mapJSON(t, m)
			}
			path := writeFile(t, content)

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
			assert.False(t, errors.Is(err, ErrNotFound))

			_, err = LoadStrict(path)
			assert.True(t, errors.Is(err, ErrCorrupt), "strict: got %v", err)
		})
	}
}

func TestLoad_UnknownKeys(t *testing.T) {
	m := encodedMap(t)
	m["posture_score"] = 0.9
	m["nose"].(map[string]any)["presence"] = 1.0
	path := writeFile(t, mapJSON(t, m))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(testBaseline(), got); diff != "" {
		t.Errorf("baseline mismatch (-want +got):\n%s", diff)
	}

	_, err = LoadStrict(path)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestDecode_TrailingData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testBaseline()))
	content := buf.String() + `{"extra": true}`

	_, err := Decode(strings.NewReader(content), false)
	assert.NoError(t, err)

	_, err = Decode(strings.NewReader(content), true)
	assert.True(t, errors.Is(err, ErrCorrupt))
}
