package postprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDownsampleKeepsSmallImages(t *testing.T) {
	img := solid(10, 8, color.NRGBA{1, 2, 3, 255})
	assert.Same(t, img, Downsample(img, 10, 8))
	assert.Same(t, img, Downsample(img, 20, 20))
}

func TestDownsampleSolidColor(t *testing.T) {
	c := color.NRGBA{200, 100, 50, 255}
	out := Downsample(solid(40, 20, c), 20, 10)
	require.Equal(t, image.Rect(0, 0, 20, 10), out.Rect)
	assertNear(t, c, out.NRGBAAt(10, 5))
	assertNear(t, c, out.NRGBAAt(0, 0))
}

func TestDownsampleNoDarkHalo(t *testing.T) {
	img := solid(4, 4, color.NRGBA{0, 0, 0, 0})
	for y := 0; y < 4; y++ {
		img.SetNRGBA(0, y, color.NRGBA{255, 255, 255, 255})
		img.SetNRGBA(1, y, color.NRGBA{255, 255, 255, 255})
	}
	out := Downsample(img, 2, 2)
	c := out.NRGBAAt(0, 1)
	require.Greater(t, c.A, uint8(0))
	assert.GreaterOrEqual(t, c.R, uint8(250))
}

func TestThumbnailLetterboxes(t *testing.T) {
	bg := color.NRGBA{0xf8, 0xf9, 0xfa, 0xff}
	red := color.NRGBA{255, 0, 0, 255}
	th := Thumbnail(solid(200, 100, red), 50, bg)
	require.Equal(t, image.Rect(0, 0, 50, 50), th.Rect)
	assert.Equal(t, bg, th.NRGBAAt(25, 2))
	assertNear(t, red, th.NRGBAAt(25, 25))

	small := Thumbnail(solid(10, 10, red), 40, bg)
	assertNear(t, red, small.NRGBAAt(20, 20))
}

func assertNear(t *testing.T, want, got color.NRGBA) {
	t.Helper()
	w := []int{int(want.R), int(want.G), int(want.B), int(want.A)}
	g := []int{int(got.R), int(got.G), int(got.B), int(got.A)}
	for i := range w {
		assert.InDelta(t, w[i], g[i], 1, "channel %d of %v vs %v", i, want, got)
	}
}
