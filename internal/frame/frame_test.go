package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImage(t *testing.T) {
	t.Parallel()

	t.Run("applies fixed luminance weights with truncation", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 3, 1))
		img.Set(0, 0, color.RGBA{R: 255, A: 255})
		img.Set(1, 0, color.RGBA{G: 255, A: 255})
		img.Set(2, 0, color.RGBA{B: 255, A: 255})

		f := FromImage(img)
		require.Equal(t, 3, f.W)
		require.Equal(t, 1, f.H)

		assert.Equal(t, uint8(76), f.At(0, 0))  // 0.299*255 = 76.245
		assert.Equal(t, uint8(149), f.At(1, 0)) // 0.587*255 = 149.685
		assert.Equal(t, uint8(29), f.At(2, 0))  // 0.114*255 = 29.07
	})

	t.Run("gray input passes through", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, color.RGBA{R: 100, G: 100, B: 100, A: 255})

		f := FromImage(img)
		assert.Equal(t, uint8(100), f.At(0, 0))
	})

	t.Run("respects non-zero bounds origin", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(5, 5, 7, 7))
		img.Set(5, 5, color.RGBA{R: 200, G: 200, B: 200, A: 255})

		f := FromImage(img)
		require.Equal(t, 2, f.W)
		assert.Equal(t, uint8(200), f.At(0, 0))
	})
}

func TestScaled(t *testing.T) {
	t.Parallel()

	t.Run("same size skips resampling", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		f := Scaled(img, 4, 4)
		assert.Equal(t, 4, f.W)
		assert.Equal(t, 4, f.H)
	})

	t.Run("downscales to requested size", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 64, 48))
		f := Scaled(img, 32, 24)
		assert.Equal(t, 32, f.W)
		assert.Equal(t, 24, f.H)
	})
}

func TestMockSource(t *testing.T) {
	t.Parallel()

	t.Run("frames are deterministic per tick", func(t *testing.T) {
		t.Parallel()
		a := NewMockSource(160, 120)
		b := NewMockSource(160, 120)

		for i := 0; i < 5; i++ {
			fa, err := a.Next()
			require.NoError(t, err)
			fb, err := b.Next()
			require.NoError(t, err)
			assert.Equal(t, fa.Pix, fb.Pix, "tick %d", i)
		}
	})

	t.Run("scene drifts over time", func(t *testing.T) {
		t.Parallel()
		src := NewMockSource(160, 120)
		first, err := src.Next()
		require.NoError(t, err)

		var later *Frame
		for i := 0; i < 4; i++ {
			later, err = src.Next()
			require.NoError(t, err)
		}
		assert.NotEqual(t, first.Pix, later.Pix)
	})
}

func TestReplaySource(t *testing.T) {
	t.Parallel()

	t.Run("missing directory fails", func(t *testing.T) {
		t.Parallel()
		_, err := NewReplaySource("/does/not/exist", 32, 24)
		assert.Error(t, err)
	})

	t.Run("empty directory fails", func(t *testing.T) {
		t.Parallel()
		_, err := NewReplaySource(t.TempDir(), 32, 24)
		assert.Error(t, err)
	})
}
