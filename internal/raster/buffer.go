package raster

import (
	"image"
	"image/color"
)

// FrameBuffer holds the render target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8 // RGBA interleaved, len = W*H*4
	Valid  []bool  // true where a source sample landed, len = W*H
}

// NewFrameBuffer allocates a transparent buffer with no valid pixels.
func NewFrameBuffer(w, h int) *FrameBuffer {
	n := w * h
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		Valid:  make([]bool, n),
	}
}

// Fill sets every pixel to c and clears the validity mask.
func (fb *FrameBuffer) Fill(c color.NRGBA) {
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = c.R
		fb.Color[i+1] = c.G
		fb.Color[i+2] = c.B
		fb.Color[i+3] = c.A
	}
	clear(fb.Valid)
}

// Set writes a rounded color and marks the pixel valid.
func (fb *FrameBuffer) Set(x, y int, c [4]float64) {
	i := y*fb.Width + x
	o := i * 4
	fb.Color[o] = clamp8(c[0])
	fb.Color[o+1] = clamp8(c[1])
	fb.Color[o+2] = clamp8(c[2])
	fb.Color[o+3] = clamp8(c[3])
	fb.Valid[i] = true
}

// At returns the pixel color as floats.
func (fb *FrameBuffer) At(x, y int) [4]float64 {
	o := (y*fb.Width + x) * 4
	return [4]float64{float64(fb.Color[o]), float64(fb.Color[o+1]), float64(fb.Color[o+2]), float64(fb.Color[o+3])}
}

// Clone returns a deep copy.
func (fb *FrameBuffer) Clone() *FrameBuffer {
	return &FrameBuffer{
		Width:  fb.Width,
		Height: fb.Height,
		Color:  append([]uint8(nil), fb.Color...),
		Valid:  append([]bool(nil), fb.Valid...),
	}
}

// Image returns an NRGBA view sharing the buffer's pixels.
func (fb *FrameBuffer) Image() *image.NRGBA {
	return &image.NRGBA{Pix: fb.Color, Stride: fb.Width * 4, Rect: image.Rect(0, 0, fb.Width, fb.Height)}
}

// FromImage wraps an NRGBA image with every pixel marked valid.
func FromImage(img *image.NRGBA) *FrameBuffer {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	fb := NewFrameBuffer(w, h)
	for y := 0; y < h; y++ {
		copy(fb.Color[y*w*4:(y+1)*w*4], img.Pix[y*img.Stride:y*img.Stride+w*4])
	}
	for i := range fb.Valid {
		fb.Valid[i] = true
	}
	return fb
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
