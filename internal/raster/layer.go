package raster

import (
	"image"

	"projwarp/internal/projection"
)

// Layer yields the color a frame would have at a destination pixel.
type Layer interface {
	At(x, y int) (c [4]float64, ok bool)
}

// Inverter maps a destination pixel back to a geographic coordinate.
type Inverter interface {
	Invert(x, y float64) (lon, lat float64, ok bool)
}

// InverseLayer samples Src through an inverse projection.
type InverseLayer struct {
	Proj Inverter
	Src  *image.NRGBA
}

// At inverts the pixel, maps the coordinate into the source raster and
// samples it bilinearly. Pixels without a source are not ok.
func (l InverseLayer) At(x, y int) ([4]float64, bool) {
	lon, lat, ok := l.Proj.Invert(float64(x), float64(y))
	if !ok {
		return [4]float64{}, false
	}
	sx, sy := projection.GeoToImage(lon, lat, l.Src.Rect.Dx(), l.Src.Rect.Dy())
	return Bilinear(l.Src, sx, sy), true
}

// FrameLayer reads a pre-rendered frame of the same size.
type FrameLayer struct {
	Buf *FrameBuffer
}

func (l FrameLayer) At(x, y int) ([4]float64, bool) {
	if x >= l.Buf.Width || y >= l.Buf.Height || !l.Buf.Valid[y*l.Buf.Width+x] {
		return [4]float64{}, false
	}
	return l.Buf.At(x, y), true
}

// BlendColor mixes two layer samples at progress t. A pixel valid on only one
// side fades that side against bg; a pixel valid on neither side is bg.
func BlendColor(prev [4]float64, prevOK bool, next [4]float64, nextOK bool, bg [4]float64, t float64) ([4]float64, bool) {
	switch {
	case prevOK && nextOK:
		return mix(prev, next, t), true
	case prevOK:
		return mix(prev, bg, t), true
	case nextOK:
		return mix(bg, next, t), true
	}
	return bg, false
}

func mix(a, b [4]float64, t float64) [4]float64 {
	var out [4]float64
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}
