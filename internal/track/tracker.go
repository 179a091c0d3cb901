// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package track

import (
	"github.com/relabs-tech/visual_inertial/internal/features"
	"github.com/relabs-tech/visual_inertial/internal/frame"
)

// Match pairs a feature from the previous frame with its best patch
// match in the current frame. Matches live for one frame cycle only.
type Match struct {
	Prev features.Point
	Curr features.Point
	SSD  float64
}

// Tracker searches a bounded neighborhood of each previous-frame
// feature for the best sum-of-squared-differences patch match.
type Tracker struct {
	cfg TrackerConfig
}

// TrackerConfig tunes the tracker. Zero values take the defaults.
type TrackerConfig struct {
	MaxTracked   int     // subsample cap on previous features, default 300
	PatchSize    int     // odd patch side, default 7
	SearchRadius int     // half-width of the search window, default 20
	SearchStep   int     // search grid step, default 3
	MaxSSD       float64 // accept threshold, default 3000
}

// NewTracker builds a tracker, filling in defaults for zero fields.
func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.MaxTracked == 0 {
		cfg.MaxTracked = 300
	}
	if cfg.PatchSize == 0 {
		cfg.PatchSize = 7
	}
	if cfg.SearchRadius == 0 {
		cfg.SearchRadius = 20
	}
	if cfg.SearchStep == 0 {
		cfg.SearchStep = 3
	}
	if cfg.MaxSSD == 0 {
		cfg.MaxSSD = 3000
	}
	return &Tracker{cfg: cfg}
}

// MaxTracked exposes the subsample cap; the motion estimator uses it
// as the match-ratio denominator.
func (t *Tracker) MaxTracked() int {
	return t.cfg.MaxTracked
}

// Track matches prev-frame features into the current frame. Features
// whose patch runs off-frame or whose best SSD exceeds the threshold
// are dropped silently.
func (t *Tracker) Track(prev, curr *frame.Frame, pts []features.Point) []Match {
	if prev == nil || curr == nil || len(pts) == 0 {
		return nil
	}

	// Uniform-stride subsample down to the tracking cap.
	stride := 1
	if len(pts) > t.cfg.MaxTracked {
		stride = len(pts) / t.cfg.MaxTracked
	}

	half := t.cfg.PatchSize / 2

	// The grid must stay aligned to the step so offset zero (and every
	// step multiple) is sampled; radius 20 step 3 scans -18..18.
	span := (t.cfg.SearchRadius / t.cfg.SearchStep) * t.cfg.SearchStep

	var out []Match
	for i := 0; i < len(pts); i += stride {
		p := pts[i]
		if !patchFits(prev, p.X, p.Y, half) {
			continue
		}

		bestSSD := -1.0
		bestX, bestY := p.X, p.Y
		bestOffSq := 0
		for dy := -span; dy <= span; dy += t.cfg.SearchStep {
			for dx := -span; dx <= span; dx += t.cfg.SearchStep {
				cx, cy := p.X+dx, p.Y+dy
				if !patchFits(curr, cx, cy, half) {
					continue
				}
				ssd := patchSSD(prev, curr, p.X, p.Y, cx, cy, half)
				offSq := dx*dx + dy*dy
				// Ties break toward the smaller displacement so
				// repeating texture does not alias to a farther copy.
				if bestSSD < 0 || ssd < bestSSD || (ssd == bestSSD && offSq < bestOffSq) {
					bestSSD = ssd
					bestX, bestY = cx, cy
					bestOffSq = offSq
				}
			}
		}

		if bestSSD < 0 || bestSSD >= t.cfg.MaxSSD {
			continue
		}
		out = append(out, Match{
			Prev: p,
			Curr: features.Point{X: bestX, Y: bestY, Score: p.Score, Type: p.Type},
			SSD:  bestSSD,
		})
	}
	return out
}

func patchFits(f *frame.Frame, x, y, half int) bool {
	return x-half >= 0 && y-half >= 0 && x+half < f.W && y+half < f.H
}

func patchSSD(a, b *frame.Frame, ax, ay, bx, by, half int) float64 {
	sum := 0.0
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			d := float64(a.At(ax+dx, ay+dy)) - float64(b.At(bx+dx, by+dy))
			sum += d * d
		}
	}
	return sum
}
