// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/visual_inertial/internal/features"
	"github.com/relabs-tech/visual_inertial/internal/track"
)

const (
	frameW = 320
	frameH = 240
)

// match builds a zero-residual match from prev to curr coordinates.
func match(px, py, cx, cy int) track.Match {
	return track.Match{
		Prev: features.Point{X: px, Y: py},
		Curr: features.Point{X: cx, Y: cy},
	}
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	t.Run("below minimum matches yields zero estimate", func(t *testing.T) {
		t.Parallel()
		e := NewEstimator(EstimatorConfig{})
		matches := []track.Match{
			match(100, 100, 102, 100),
			match(110, 100, 112, 100),
			match(120, 100, 122, 100),
			match(130, 100, 132, 100),
		}

		est := e.Estimate(matches, frameW, frameH)
		assert.Zero(t, est.DeltaX)
		assert.Zero(t, est.DeltaY)
		assert.Zero(t, est.Rotation)
		assert.Zero(t, est.Confidence)
		assert.Equal(t, 4, est.MatchCount)
	})

	t.Run("median rejects outlier matches", func(t *testing.T) {
		t.Parallel()
		e := NewEstimator(EstimatorConfig{})

		// Eight inliers shifted (+2, 0) on the horizontal center line,
		// plus two gross mismatches that also flip their angle about
		// the center by π/2 so the rotation pass drops them too.
		var matches []track.Match
		for _, r := range []int{10, 20, 30, 40} {
			matches = append(matches,
				match(frameW/2+r, frameH/2, frameW/2+r+2, frameH/2),
				match(frameW/2-r, frameH/2, frameW/2-r+2, frameH/2),
			)
		}
		matches = append(matches,
			match(frameW/2+100, frameH/2, frameW/2, frameH/2+100),
			match(frameW/2, frameH/2+100, frameW/2+100, frameH/2),
		)

		est := e.Estimate(matches, frameW, frameH)
		require.Equal(t, 10, est.MatchCount)

		// Camera moves opposite to perceived x flow; y is not negated.
		assert.InDelta(t, -0.002, est.DeltaX, 1e-12)
		assert.InDelta(t, 0.0, est.DeltaY, 1e-12)
		assert.InDelta(t, 0.0, est.Rotation, 1e-12)
	})

	t.Run("confidence scales with match ratio and residuals", func(t *testing.T) {
		t.Parallel()
		e := NewEstimator(EstimatorConfig{})

		matches := make([]track.Match, 300)
		for i := range matches {
			m := match(100, 100, 100, 100)
			m.SSD = 1000
			matches[i] = m
		}

		est := e.Estimate(matches, frameW, frameH)
		// ratio saturates at 1, residual term is 1/(1+1000*1e-4)
		assert.InDelta(t, 1/1.1, est.Confidence, 1e-12)
	})

	t.Run("confidence never exceeds one", func(t *testing.T) {
		t.Parallel()
		e := NewEstimator(EstimatorConfig{TrackingCap: 10})

		matches := make([]track.Match, 50)
		for i := range matches {
			matches[i] = match(100, 100, 100, 100)
		}

		est := e.Estimate(matches, frameW, frameH)
		assert.Equal(t, 1.0, est.Confidence)
	})

	t.Run("recovers a small rotation about the center", func(t *testing.T) {
		t.Parallel()
		e := NewEstimator(EstimatorConfig{})

		matches := make([]track.Match, 6)
		for i := range matches {
			matches[i] = match(frameW/2+100, frameH/2, frameW/2+99, frameH/2+10)
		}

		est := e.Estimate(matches, frameW, frameH)
		expected := math.Atan2(10, 99)
		assert.InDelta(t, expected, est.Rotation, 1e-12)
	})

	t.Run("discards per-match rotation outliers", func(t *testing.T) {
		t.Parallel()
		e := NewEstimator(EstimatorConfig{})

		// Every match rotates by π/2, past the outlier cutoff.
		matches := make([]track.Match, 6)
		for i := range matches {
			matches[i] = match(frameW/2+100, frameH/2, frameW/2, frameH/2+100)
		}

		est := e.Estimate(matches, frameW, frameH)
		assert.Zero(t, est.Rotation)
	})
}
