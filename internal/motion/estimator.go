// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/visual_inertial/internal/track"
)

// Estimator converts a set of feature matches into a single robust
// translation + rotation estimate with an attached confidence score.
type Estimator struct {
	cfg EstimatorConfig
}

// EstimatorConfig tunes the estimator. Zero values take the defaults.
type EstimatorConfig struct {
	MinMatches     int     // below this, emit zero motion with confidence 0; default 5
	TrackingCap    int     // match-ratio denominator, default 300
	PixelsToMeters float64 // pixel displacement scale, default 0.001
	MaxAngleDelta  float64 // per-match rotation outlier cutoff (rad), default 0.5
}

// NewEstimator builds an estimator, filling in defaults for zero
// fields.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	if cfg.MinMatches == 0 {
		cfg.MinMatches = 5
	}
	if cfg.TrackingCap == 0 {
		cfg.TrackingCap = 300
	}
	if cfg.PixelsToMeters == 0 {
		cfg.PixelsToMeters = 0.001
	}
	if cfg.MaxAngleDelta == 0 {
		cfg.MaxAngleDelta = 0.5
	}
	return &Estimator{cfg: cfg}
}

// Estimate computes frame motion from matches. With fewer than
// MinMatches it returns a zero estimate with confidence 0 and the
// match count passed through: insufficient data, not a failure.
// frameW/frameH locate the frame center for rotation estimation.
func (e *Estimator) Estimate(matches []track.Match, frameW, frameH int) Estimate {
	n := len(matches)
	if n < e.cfg.MinMatches {
		return Estimate{MatchCount: n}
	}

	dxs := make([]float64, n)
	dys := make([]float64, n)
	ssds := make([]float64, n)
	for i, m := range matches {
		dxs[i] = float64(m.Curr.X - m.Prev.X)
		dys[i] = float64(m.Curr.Y - m.Prev.Y)
		ssds[i] = m.SSD
	}

	// Median displacement per axis, robust to outlier mismatches.
	// Camera motion is opposite to perceived scene flow on x; y is
	// not negated.
	dx := -median(dxs) * e.cfg.PixelsToMeters
	dy := median(dys) * e.cfg.PixelsToMeters

	rotation := e.estimateRotation(matches, float64(frameW)/2, float64(frameH)/2)

	matchRatio := float64(n) / float64(e.cfg.TrackingCap)
	if matchRatio > 1 {
		matchRatio = 1
	}
	ssdConfidence := 1 / (1 + stat.Mean(ssds, nil)*1e-4)
	confidence := clamp(matchRatio*ssdConfidence, 0, 1)

	return Estimate{
		DeltaX:     dx,
		DeltaY:     dy,
		Rotation:   rotation,
		Confidence: confidence,
		MatchCount: n,
	}
}

// estimateRotation averages per-match angular deltas about the frame
// center, discarding outliers beyond MaxAngleDelta.
func (e *Estimator) estimateRotation(matches []track.Match, cx, cy float64) float64 {
	var deltas []float64
	for _, m := range matches {
		prevAngle := math.Atan2(float64(m.Prev.Y)-cy, float64(m.Prev.X)-cx)
		currAngle := math.Atan2(float64(m.Curr.Y)-cy, float64(m.Curr.X)-cx)
		d := normalizeAngle(currAngle - prevAngle)
		if math.Abs(d) >= e.cfg.MaxAngleDelta {
			continue
		}
		deltas = append(deltas, d)
	}
	if len(deltas) == 0 {
		return 0
	}
	return stat.Mean(deltas, nil)
}

func median(v []float64) float64 {
	sorted := make([]float64, len(v))
	copy(sorted, v)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// normalizeAngle wraps a into [-π, π].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
