// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package landmarks

// Landmark is a persistent world-frame point of interest. Quality
// counts observations (saturating); the averaging weight is the
// pre-update quality, so well-observed landmarks resist single noisy
// observations.
type Landmark struct {
	ID      int64   `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Quality int     `json:"quality"`
}

// Map is a bounded collection of landmarks. New observations within
// MergeRadius of an existing landmark fold into it; otherwise a new
// landmark is inserted until the cap is reached, after which inserts
// are rejected silently.
type Map struct {
	cfg    MapConfig
	marks  []Landmark
	nextID int64
}

// MapConfig tunes the landmark map. Zero values take the defaults.
type MapConfig struct {
	MaxLandmarks int     // size cap, default 500
	MergeRadius  float64 // world-distance merge threshold, default 0.01
	MaxQuality   int     // quality saturation, default 10
}

// NewMap builds a landmark map, filling in defaults for zero fields.
func NewMap(cfg MapConfig) *Map {
	if cfg.MaxLandmarks == 0 {
		cfg.MaxLandmarks = 500
	}
	if cfg.MergeRadius == 0 {
		cfg.MergeRadius = 0.01
	}
	if cfg.MaxQuality == 0 {
		cfg.MaxQuality = 10
	}
	return &Map{cfg: cfg, nextID: 1}
}

// Observe records a world-frame observation. The nearest landmark
// within MergeRadius absorbs it via a quality-weighted running mean;
// failing that, a new landmark is inserted if the map has room.
func (m *Map) Observe(x, y float64) {
	bestIdx := -1
	bestDistSq := m.cfg.MergeRadius * m.cfg.MergeRadius
	for i := range m.marks {
		dx := m.marks[i].X - x
		dy := m.marks[i].Y - y
		if d := dx*dx + dy*dy; d <= bestDistSq {
			bestDistSq = d
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		lm := &m.marks[bestIdx]
		q := float64(lm.Quality)
		lm.X = (lm.X*q + x) / (q + 1)
		lm.Y = (lm.Y*q + y) / (q + 1)
		if lm.Quality < m.cfg.MaxQuality {
			lm.Quality++
		}
		return
	}

	if len(m.marks) >= m.cfg.MaxLandmarks {
		return
	}
	m.marks = append(m.marks, Landmark{ID: m.nextID, X: x, Y: y, Quality: 1})
	m.nextID++
}

// Count returns the number of landmarks currently held.
func (m *Map) Count() int {
	return len(m.marks)
}

// Snapshot returns a copy of the current landmark set.
func (m *Map) Snapshot() []Landmark {
	out := make([]Landmark, len(m.marks))
	copy(out, m.marks)
	return out
}

// Reset clears the map and restarts the ID counter.
func (m *Map) Reset() {
	m.marks = m.marks[:0]
	m.nextID = 1
}
