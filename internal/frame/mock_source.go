// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

type mockSource struct {
	w, h int
	tick int
}

// NewMockSource creates a mock frame source that renders a
// deterministic scene of bright blocks drifting across a dark
// background. The drift is keyed to the frame counter, not the wall
// clock, so replays are reproducible.
func NewMockSource(w, h int) Source {
	return &mockSource{w: w, h: h}
}

func (m *mockSource) Next() (*Frame, error) {
	f := New(m.w, m.h)
	for i := range f.Pix {
		f.Pix[i] = 30
	}

	// Blocks on a 40px lattice, shifted one pixel every two frames.
	shift := m.tick / 2
	for by := 20; by < m.h-30; by += 40 {
		for bx := 20; bx < m.w-30; bx += 40 {
			x0 := (bx + shift) % (m.w - 30)
			for y := by; y < by+12 && y < m.h; y++ {
				for x := x0; x < x0+12 && x < m.w; x++ {
					f.Set(x, y, 220)
				}
			}
		}
	}

	m.tick++
	return f, nil
}
