package vector

import (
	"math"

	"github.com/paulmach/orb"
)

// Graticule generates meridians and parallels: minor lines every Step degrees
// inside the minor extent, major lines every MajorStep degrees inside the
// full extent, sampled every Precision degrees.
type Graticule struct {
	Step      float64
	MajorStep float64
	MinorLat  float64
	MajorLat  float64
	Precision float64
}

const gratEpsilon = 1e-6

// DefaultGraticule is a ten-degree graticule that stops minor meridians at
// ±80° latitude.
func DefaultGraticule() Graticule {
	return Graticule{Step: 10, MajorStep: 90, MinorLat: 80, MajorLat: 90, Precision: 2.5}
}

// Lines returns the graticule as geographic polylines, major lines first.
func (g Graticule) Lines() []orb.LineString {
	var out []orb.LineString
	y0, y1 := -g.MinorLat-gratEpsilon, g.MinorLat+gratEpsilon
	Y0, Y1 := -g.MajorLat+gratEpsilon, g.MajorLat-gratEpsilon

	for _, x := range stepRange(-180, 180, g.MajorStep) {
		out = append(out, g.meridian(x, Y0, Y1))
	}
	for _, y := range stepRange(Y0, Y1, g.MajorStep) {
		out = append(out, g.parallel(y, -180, 180))
	}
	for _, x := range stepRange(-180, 180, g.Step) {
		if math.Abs(math.Mod(x, g.MajorStep)) > gratEpsilon {
			out = append(out, g.meridian(x, y0, y1))
		}
	}
	for _, y := range stepRange(y0, y1, g.Step) {
		if math.Abs(math.Mod(y, g.MajorStep)) > gratEpsilon {
			out = append(out, g.parallel(y, -180, 180))
		}
	}
	return out
}

// Outline returns the closed ring bounding the major extent.
func (g Graticule) Outline() orb.Ring {
	Y0, Y1 := -g.MajorLat+gratEpsilon, g.MajorLat-gratEpsilon
	west := g.meridian(-180, Y0, Y1)
	north := g.parallel(Y1, -180, 180)
	east := g.meridian(180, Y0, Y1)
	south := g.parallel(Y0, -180, 180)

	ring := orb.Ring(append(orb.LineString{}, west...))
	ring = append(ring, north[1:]...)
	ring = append(ring, reversed(east)[1:]...)
	ring = append(ring, reversed(south)[1:]...)
	return ring
}

func (g Graticule) meridian(x, y0, y1 float64) orb.LineString {
	ys := sample(y0, y1, g.Precision)
	ls := make(orb.LineString, len(ys))
	for i, y := range ys {
		ls[i] = orb.Point{x, y}
	}
	return ls
}

func (g Graticule) parallel(y, x0, x1 float64) orb.LineString {
	xs := sample(x0, x1, g.Precision)
	ls := make(orb.LineString, len(xs))
	for i, x := range xs {
		ls[i] = orb.Point{x, y}
	}
	return ls
}

// stepRange returns multiples of step in [lo, hi).
func stepRange(lo, hi, step float64) []float64 {
	var out []float64
	for v := math.Ceil(lo/step) * step; v < hi; v += step {
		out = append(out, v)
	}
	return out
}

// sample returns lo, lo+step, ... strictly below hi, then hi.
func sample(lo, hi, step float64) []float64 {
	var out []float64
	for v := lo; v < hi-gratEpsilon; v += step {
		out = append(out, v)
	}
	return append(out, hi)
}

func reversed(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}
