// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"image"

	"golang.org/x/image/draw"
)

// Frame is a single-channel intensity buffer. Pix is row-major,
// one byte per pixel.
type Frame struct {
	W   int
	H   int
	Pix []uint8
}

// New allocates a zeroed frame of the given size.
func New(w, h int) *Frame {
	return &Frame{W: w, H: h, Pix: make([]uint8, w*h)}
}

// At returns the intensity at (x, y). The caller is responsible for
// staying in bounds; the hot paths in the detector and tracker do
// their own bounds checks before calling.
func (f *Frame) At(x, y int) uint8 {
	return f.Pix[y*f.W+x]
}

// Set writes the intensity at (x, y).
func (f *Frame) Set(x, y int, v uint8) {
	f.Pix[y*f.W+x] = v
}

// In reports whether (x, y) lies inside the frame.
func (f *Frame) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.W && y < f.H
}

// FromImage converts a color image into an intensity frame using the
// fixed luminance weights 0.299 R + 0.587 G + 0.114 B, truncated to
// an integer. It never fails for a well-formed image.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels; scale down to 8-bit first.
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			f.Pix[y*f.W+x] = uint8(int(lum))
		}
	}
	return f
}

// Scaled downscales img to w×h before grayscale conversion. Camera
// frames often arrive larger than the processing resolution; scaling
// first keeps the per-frame cost bounded.
func Scaled(img image.Image, w, h int) *Frame {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return FromImage(img)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return FromImage(dst)
}
