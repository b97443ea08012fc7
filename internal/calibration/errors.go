// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import "errors"

var (
	// ErrInvalidState is returned when an operation is not meaningful in the
	// session's current state, e.g. asking for a result mid-capture.
	ErrInvalidState = errors.New("calibration: invalid state")

	// ErrNoBaseline is returned when saving without a computed baseline.
	ErrNoBaseline = errors.New("calibration: no baseline available")

	// ErrNotFound is returned when a calibration file does not exist.
	ErrNotFound = errors.New("calibration: file not found")

	// ErrCorrupt is returned when a calibration file cannot be parsed into a
	// well-formed baseline.
	ErrCorrupt = errors.New("calibration: corrupt calibration data")

	// ErrNoSamples is returned when averaging an empty sample set.
	ErrNoSamples = errors.New("calibration: no samples")
)
