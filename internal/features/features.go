// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package features

// PointType classifies a detected feature by the spatial density of
// detections around it.
type PointType int

const (
	// Environment marks sparse background structure (walls, floor edges).
	Environment PointType = iota
	// Obstacle marks dense clusters of detections, typically objects
	// close to the camera.
	Obstacle
)

func (t PointType) String() string {
	if t == Obstacle {
		return "obstacle"
	}
	return "environment"
}

// Point is a corner-like feature detected in a single frame. Points
// are immutable once created; downstream stages reference them
// without mutation.
type Point struct {
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Score int       `json:"score"`
	Type  PointType `json:"type"`
}
