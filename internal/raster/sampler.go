package raster

import (
	"image"
	"math"
)

// Bilinear samples src at fractional pixel coordinates, clamping to the
// image edge. Channels, alpha included, are interpolated independently and
// returned unrounded; an exact integer coordinate returns that pixel.
func Bilinear(src *image.NRGBA, sx, sy float64) [4]float64 {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	sx = math.Max(0, math.Min(float64(w-1), sx))
	sy = math.Max(0, math.Min(float64(h-1), sy))

	x1 := int(sx)
	y1 := int(sy)
	x2 := min(x1+1, w-1)
	y2 := min(y1+1, h-1)
	fx := sx - float64(x1)
	fy := sy - float64(y1)

	stride := src.Stride
	pix := src.Pix

	// Four texels
	i11 := y1*stride + x1*4
	i21 := y1*stride + x2*4
	i12 := y2*stride + x1*4
	i22 := y2*stride + x2*4

	w11 := (1 - fx) * (1 - fy)
	w21 := fx * (1 - fy)
	w12 := (1 - fx) * fy
	w22 := fx * fy

	var out [4]float64
	for c := 0; c < 4; c++ {
		out[c] = float64(pix[i11+c])*w11 + float64(pix[i21+c])*w21 + float64(pix[i12+c])*w12 + float64(pix[i22+c])*w22
	}
	return out
}

// Sample is Bilinear rounded to the nearest integer per channel.
func Sample(src *image.NRGBA, sx, sy float64) [4]uint8 {
	c := Bilinear(src, sx, sy)
	return [4]uint8{clamp8(c[0]), clamp8(c[1]), clamp8(c[2]), clamp8(c[3])}
}
