// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pose

import (
	"math"

	"github.com/relabs-tech/visual_inertial/internal/motion"
)

// Pose is the canonical planar world-frame pose: position in meters,
// heading in radians normalized to [0, 2π).
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// MinConfidence is the confidence floor below which a motion estimate
// is considered too unreliable to integrate at all.
const MinConfidence = 0.1

// Integrate rotates the camera-local motion delta into the world
// frame and returns the advanced pose. Estimates at or below
// MinConfidence leave the pose untouched, heading included.
func Integrate(p Pose, est motion.Estimate) Pose {
	if est.Confidence <= MinConfidence {
		return p
	}

	sin, cos := math.Sincos(p.Heading)
	p.X += est.DeltaX*cos - est.DeltaY*sin
	p.Y += est.DeltaX*sin + est.DeltaY*cos
	p.Heading = NormalizeHeading(p.Heading + est.Rotation)
	return p
}

// NormalizeHeading wraps h into [0, 2π).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 2*math.Pi)
	if h < 0 {
		h += 2 * math.Pi
	}
	return h
}
