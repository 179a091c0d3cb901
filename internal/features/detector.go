// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package features

import (
	"sort"

	"github.com/relabs-tech/visual_inertial/internal/frame"
)

// Detector finds corner-like points with a 16-point intensity circle
// test, suppresses duplicates per grid cell, and classifies survivors
// as obstacle or environment by detection density.
type Detector struct {
	cfg DetectorConfig
}

// DetectorConfig tunes the detector. Zero values are replaced with
// the defaults below.
type DetectorConfig struct {
	ScanStride      int // pixel step while scanning, default 3
	Border          int // unscanned margin, default 10
	BrightnessDelta int // circle sample vs center threshold, default 20
	MinArcCount     int // samples that must agree, default 12
	NMSCellSize     int // non-maximum suppression cell, default 6
	ClusterCellSize int // density clustering cell, default 35
	MaxFeatures     int // hard cap, earliest-first, default 1500
}

// circleOffsets is the 16-point Bresenham circle of radius 3 used by
// the segment test, in clockwise order from 12 o'clock.
var circleOffsets = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1},
	{3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
	{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// NewDetector builds a detector, filling in defaults for zero fields.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.ScanStride == 0 {
		cfg.ScanStride = 3
	}
	if cfg.Border == 0 {
		cfg.Border = 10
	}
	if cfg.BrightnessDelta == 0 {
		cfg.BrightnessDelta = 20
	}
	if cfg.MinArcCount == 0 {
		cfg.MinArcCount = 12
	}
	if cfg.NMSCellSize == 0 {
		cfg.NMSCellSize = 6
	}
	if cfg.ClusterCellSize == 0 {
		cfg.ClusterCellSize = 35
	}
	if cfg.MaxFeatures == 0 {
		cfg.MaxFeatures = 1500
	}
	return &Detector{cfg: cfg}
}

type candidate struct {
	x, y     int
	score    int
	brighter int
	darker   int
}

type cellKey struct{ cx, cy int }

// Detect runs the full detection pass over f and returns classified
// feature points in scan order, capped at MaxFeatures.
func (d *Detector) Detect(f *frame.Frame) []Point {
	cands := d.scan(f)
	cands = d.suppress(cands)
	return d.classify(f, cands)
}

// scan evaluates the segment test on a coarse stride, keeping a
// border wide enough for full-circle sampling and later patch
// extraction.
func (d *Detector) scan(f *frame.Frame) []candidate {
	var out []candidate
	b := d.cfg.Border
	for y := b; y < f.H-b; y += d.cfg.ScanStride {
		for x := b; x < f.W-b; x += d.cfg.ScanStride {
			center := int(f.At(x, y))
			brighter, darker := 0, 0
			for _, off := range circleOffsets {
				v := int(f.At(x+off[0], y+off[1]))
				if v > center+d.cfg.BrightnessDelta {
					brighter++
				} else if v < center-d.cfg.BrightnessDelta {
					darker++
				}
			}
			if brighter >= d.cfg.MinArcCount || darker >= d.cfg.MinArcCount {
				score := brighter
				if darker > score {
					score = darker
				}
				out = append(out, candidate{x: x, y: y, score: score, brighter: brighter, darker: darker})
			}
		}
	}
	return out
}

// suppress keeps only the highest-scoring candidate per NMS grid
// cell. Output order is re-sorted to scan order so downstream
// truncation stays deterministic.
func (d *Detector) suppress(cands []candidate) []candidate {
	best := make(map[cellKey]candidate)
	for _, c := range cands {
		k := cellKey{c.x / d.cfg.NMSCellSize, c.y / d.cfg.NMSCellSize}
		if cur, ok := best[k]; !ok || c.score > cur.score {
			best[k] = c
		}
	}

	out := make([]candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].y != out[j].y {
			return out[i].y < out[j].y
		}
		return out[i].x < out[j].x
	})
	return out
}

// classify assigns obstacle/environment labels from per-cluster
// detection density and score shape, then applies the feature cap.
func (d *Detector) classify(f *frame.Frame, cands []candidate) []Point {
	if len(cands) == 0 {
		return nil
	}

	clusters := make(map[cellKey]int)
	for _, c := range cands {
		k := cellKey{c.x / d.cfg.ClusterCellSize, c.y / d.cfg.ClusterCellSize}
		clusters[k]++
	}

	sizes := make([]int, 0, len(clusters))
	for _, n := range clusters {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)

	avgClusterSize := float64(len(cands)) / float64(len(clusters))
	medianClusterSize := float64(sizes[len(sizes)/2])
	obstacleDensityThreshold := avgClusterSize * 1.4
	if obstacleDensityThreshold < 2.5 {
		obstacleDensityThreshold = 2.5
	}

	out := make([]Point, 0, len(cands))
	for _, c := range cands {
		if len(out) >= d.cfg.MaxFeatures {
			break
		}
		k := cellKey{c.x / d.cfg.ClusterCellSize, c.y / d.cfg.ClusterCellSize}
		density := float64(clusters[k])

		diff := c.brighter - c.darker
		if diff < 0 {
			diff = -diff
		}
		central := c.x > f.W*30/100 && c.x < f.W*70/100 &&
			c.y > f.H*20/100 && c.y < f.H*80/100

		t := Environment
		switch {
		case density >= obstacleDensityThreshold*1.1:
			t = Obstacle
		case c.score >= 15 && diff <= 2: // balanced high-contrast edge
			t = Obstacle
		case central && density >= medianClusterSize*1.4:
			t = Obstacle
		case c.score >= 16:
			t = Obstacle
		case density > medianClusterSize*2.2:
			t = Obstacle
		}

		out = append(out, Point{X: c.x, Y: c.y, Score: c.score, Type: t})
	}
	return out
}
