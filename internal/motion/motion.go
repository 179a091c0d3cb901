// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

// Estimate is a per-frame camera motion estimate in the camera-local
// frame. DeltaX/DeltaY are meters, Rotation is radians, Confidence is
// in [0, 1].
type Estimate struct {
	DeltaX     float64 `json:"dx"`
	DeltaY     float64 `json:"dy"`
	Rotation   float64 `json:"rotation"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
}
