package vector

import (
	"math"

	"github.com/paulmach/orb"

	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
)

// MaxResampleDepth bounds the recursive subdivision of one segment.
const MaxResampleDepth = 16

// cosMinDistance forces subdivision of segments longer than 30° of arc.
var cosMinDistance = math.Cos(mathutil.Deg2Rad(30))

type node struct {
	lon, lat float64
	v        mathutil.Vec3
	x, y     float64
	ok       bool
}

// resampler projects geographic polylines, inserting great-circle midpoints
// wherever the projected chord deviates from the curve by more than the
// projector's precision. Lines break where a point or midpoint fails to
// project and where the projector reports a tear.
type resampler struct {
	p      projection.Projector
	cut    projection.Cutter
	delta2 float64

	out    []Line
	cur    []Point
	broken bool
}

func newResampler(p projection.Projector) *resampler {
	d := p.Precision()
	c, _ := p.(projection.Cutter)
	return &resampler{p: p, cut: c, delta2: d * d}
}

func (r *resampler) node(lon, lat float64) node {
	x, y, ok := r.p.Project(lon, lat)
	return node{lon: lon, lat: lat, v: mathutil.LonLatToCartesian(lon, lat), x: x, y: y, ok: ok}
}

// tear breaks the line between a and b when the projector is torn there,
// extending both fragments to the edge of the plane.
func (r *resampler) tear(a, b node) bool {
	if r.cut == nil {
		return false
	}
	exit, enter, cut := r.cut.Cut(a.lon, a.lat, b.lon, b.lat)
	if !cut {
		return false
	}
	if exit.OK {
		r.cur = append(r.cur, Point{exit.X, exit.Y})
	}
	r.breakLine()
	if enter.OK {
		r.cur = append(r.cur, Point{enter.X, enter.Y})
	}
	return true
}

// breakLine ends the current fragment.
func (r *resampler) breakLine() {
	r.broken = true
	r.flush()
}

func (r *resampler) flush() {
	if len(r.cur) >= 2 {
		r.out = append(r.out, Line{Points: r.cur})
	}
	r.cur = nil
}

// project converts one polyline. When closed is set and the line survives
// unbroken it is emitted as a closed ring without the repeated end point.
func (r *resampler) project(ls []orb.Point, closed bool) []Line {
	r.out, r.cur, r.broken = nil, nil, false

	var prev node
	have := false
	for _, pt := range ls {
		n := r.node(pt[0], pt[1])
		if !n.ok {
			if have {
				r.broken = true
			}
			r.flush()
			have = false
			continue
		}
		if have {
			if !r.tear(prev, n) && r.delta2 > 0 {
				r.segment(prev, n, MaxResampleDepth)
			}
		}
		r.cur = append(r.cur, Point{n.x, n.y})
		prev, have = n, true
	}
	r.flush()

	if !closed || len(r.out) == 0 {
		return r.out
	}
	if !r.broken && len(r.out) == 1 {
		l := r.out[0]
		if n := len(l.Points); n > 2 && l.Points[0] == l.Points[n-1] {
			l.Points = l.Points[:n-1]
		}
		l.Closed = true
		r.out[0] = l
		return r.out
	}
	// A ring cut open in the middle continues from its last fragment into its first.
	if n := len(r.out); n > 1 {
		first, last := r.out[0], r.out[n-1]
		if last.Points[len(last.Points)-1] == first.Points[0] {
			merged := append(last.Points[:len(last.Points)-1:len(last.Points)-1], first.Points...)
			r.out = append([]Line{{Points: merged}}, r.out[1:n-1]...)
		}
	}
	return r.out
}

func (r *resampler) segment(a, b node, depth int) {
	dx, dy := b.x-a.x, b.y-a.y
	d2 := dx*dx + dy*dy
	if d2 <= 4*r.delta2 || depth == 0 {
		return
	}
	mv := a.v.Add(b.v)
	if mv.Len() < mathutil.Epsilon {
		return
	}
	mv = mv.Normalize()
	lon, lat := mathutil.CartesianToDegrees(mv)
	mx, my, ok := r.p.Project(lon, lat)
	if !ok {
		r.breakLine()
		return
	}
	m := node{lon: lon, lat: lat, v: mv, x: mx, y: my, ok: true}

	dx2, dy2 := mx-a.x, my-a.y
	dz := dy*dx2 - dx*dy2
	if dz*dz/d2 > r.delta2 ||
		math.Abs((dx*dx2+dy*dy2)/d2-0.5) > 0.3 ||
		a.v.Dot(b.v) < cosMinDistance {
		r.segment(a, m, depth-1)
		r.cur = append(r.cur, Point{mx, my})
		r.segment(m, b, depth-1)
	}
}
