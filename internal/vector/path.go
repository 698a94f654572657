// Package vector projects GeoJSON features, the sphere outline and the
// graticule into plane paths.
package vector

import (
	"math"
	"strconv"
	"strings"
)

// Kind classifies a rendered path.
type Kind int

const (
	KindSphere Kind = iota
	KindGraticule
	KindOutline
	KindFeature
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindGraticule:
		return "graticule"
	case KindOutline:
		return "outline"
	default:
		return "feature"
	}
}

// Point is a plane coordinate in target pixels.
type Point struct {
	X, Y float64
}

// Line is a projected polyline. Closed lines end with a close command.
type Line struct {
	Points []Point
	Closed bool
}

// Path is one rendered element: the sphere, the graticule, its outline, or a
// feature. Point features are stored as circles.
type Path struct {
	Kind    Kind
	Key     string
	Opacity float64
	Lines   []Line
	Circles []Point
	Radius  float64
}

// Empty reports whether the path draws nothing.
func (p Path) Empty() bool {
	return len(p.Lines) == 0 && len(p.Circles) == 0
}

// D returns the SVG path data. Coordinates are rounded to three decimals so
// equal geometry always yields byte-identical strings.
func (p Path) D() string {
	var b strings.Builder
	for _, l := range p.Lines {
		for i, pt := range l.Points {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			writePair(&b, pt.X, pt.Y)
		}
		if l.Closed {
			b.WriteByte('Z')
		}
	}
	r := p.Radius
	for _, c := range p.Circles {
		b.WriteByte('M')
		writePair(&b, c.X, c.Y)
		b.WriteString("m0,")
		b.WriteString(format(r))
		b.WriteString("a")
		writePair(&b, r, r)
		b.WriteString(" 0 1,1 0,")
		b.WriteString(format(-2 * r))
		b.WriteString("a")
		writePair(&b, r, r)
		b.WriteString(" 0 1,1 0,")
		b.WriteString(format(2 * r))
		b.WriteByte('Z')
	}
	return b.String()
}

// Strings returns the path data of every path, in order.
func Strings(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.D()
	}
	return out
}

func writePair(b *strings.Builder, x, y float64) {
	b.WriteString(format(x))
	b.WriteByte(',')
	b.WriteString(format(y))
}

func format(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
