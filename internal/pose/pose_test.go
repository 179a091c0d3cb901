// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/visual_inertial/internal/motion"
)

func TestIntegrate(t *testing.T) {
	t.Parallel()

	t.Run("low confidence leaves the pose untouched", func(t *testing.T) {
		t.Parallel()
		p := Pose{X: 1, Y: 2, Heading: 3}
		est := motion.Estimate{DeltaX: 5, DeltaY: 5, Rotation: 1, Confidence: MinConfidence}

		assert.Equal(t, p, Integrate(p, est))
	})

	t.Run("identity heading adds the delta directly", func(t *testing.T) {
		t.Parallel()
		est := motion.Estimate{DeltaX: 0.5, DeltaY: 0.25, Confidence: 0.9}

		p := Integrate(Pose{}, est)
		assert.InDelta(t, 0.5, p.X, 1e-12)
		assert.InDelta(t, 0.25, p.Y, 1e-12)
		assert.Zero(t, p.Heading)
	})

	t.Run("delta is rotated into the world frame", func(t *testing.T) {
		t.Parallel()
		est := motion.Estimate{DeltaX: 1, Confidence: 0.9}

		p := Integrate(Pose{Heading: math.Pi / 2}, est)
		assert.InDelta(t, 0, p.X, 1e-12)
		assert.InDelta(t, 1, p.Y, 1e-12)
	})

	t.Run("heading stays normalized after rotation", func(t *testing.T) {
		t.Parallel()
		est := motion.Estimate{Rotation: 1.5, Confidence: 0.9}

		p := Integrate(Pose{Heading: 5.5}, est)
		assert.InDelta(t, 7.0-2*math.Pi, p.Heading, 1e-12)
	})
}

func TestNormalizeHeading(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, NormalizeHeading(2*math.Pi), 1e-12)
	assert.InDelta(t, 2*math.Pi-0.1, NormalizeHeading(-0.1), 1e-12)
	assert.InDelta(t, 1.5, NormalizeHeading(1.5+4*math.Pi), 1e-12)
	assert.GreaterOrEqual(t, NormalizeHeading(-3*math.Pi), 0.0)
	assert.Less(t, NormalizeHeading(-3*math.Pi), 2*math.Pi)
}
