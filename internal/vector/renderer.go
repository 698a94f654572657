package vector

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"projwarp/internal/projection"
	"projwarp/internal/scene"
)

// DefaultPointRadius is the circle radius used for point features.
const DefaultPointRadius = 4.5

// Renderer projects scenes into ordered path lists.
type Renderer struct {
	Graticule   Graticule
	PointRadius float64
}

// NewRenderer returns a renderer with the ten-degree graticule.
func NewRenderer() *Renderer {
	return &Renderer{Graticule: DefaultGraticule(), PointRadius: DefaultPointRadius}
}

// Render projects the sphere outline, the graticule and its outline when
// graticule is set, then every feature of v in order. v may be nil.
func (r *Renderer) Render(v *scene.Vector, p projection.Projector, graticule bool) []Path {
	out := []Path{r.Sphere(p)}
	if graticule {
		out = append(out, r.GraticulePaths(p)...)
	}
	if v != nil {
		for i, f := range v.Features {
			out = append(out, r.Feature(f, i, p))
		}
	}
	return out
}

// Sphere builds the projection boundary from the projector's outline samples.
func (r *Renderer) Sphere(p projection.Projector) Path {
	samples := p.Sphere()
	path := Path{Kind: KindSphere, Key: "sphere", Opacity: 1}
	var cur []Point
	complete := true
	for _, s := range samples {
		if !s.OK {
			complete = false
			if len(cur) >= 2 {
				path.Lines = append(path.Lines, Line{Points: cur})
			}
			cur = nil
			continue
		}
		cur = append(cur, Point{s.X, s.Y})
	}
	if len(cur) >= 2 {
		path.Lines = append(path.Lines, Line{Points: cur, Closed: complete})
	}
	return path
}

// GraticulePaths returns the graticule lines and the graticule outline.
func (r *Renderer) GraticulePaths(p projection.Projector) []Path {
	rs := newResampler(p)
	lines := Path{Kind: KindGraticule, Key: "graticule", Opacity: 1}
	for _, ls := range r.Graticule.Lines() {
		lines.Lines = append(lines.Lines, rs.project(ls, false)...)
	}
	outline := Path{Kind: KindOutline, Key: "outline", Opacity: 1}
	outline.Lines = rs.project(r.Graticule.Outline(), true)
	return []Path{lines, outline}
}

// Feature projects one feature. index is its position in the scene and is
// used as the key when the feature has neither an id nor a name.
func (r *Renderer) Feature(f *geojson.Feature, index int, p projection.Projector) Path {
	path := Path{Kind: KindFeature, Key: FeatureKey(f, index), Opacity: 1, Radius: r.PointRadius}
	r.geometry(&path, f.Geometry, newResampler(p), p)
	return path
}

func (r *Renderer) geometry(path *Path, g orb.Geometry, rs *resampler, p projection.Projector) {
	switch g := g.(type) {
	case orb.Point:
		if x, y, ok := p.Project(g[0], g[1]); ok {
			path.Circles = append(path.Circles, Point{x, y})
		}
	case orb.MultiPoint:
		for _, pt := range g {
			r.geometry(path, pt, rs, p)
		}
	case orb.LineString:
		path.Lines = append(path.Lines, rs.project(g, false)...)
	case orb.MultiLineString:
		for _, ls := range g {
			path.Lines = append(path.Lines, rs.project(ls, false)...)
		}
	case orb.Ring:
		path.Lines = append(path.Lines, rs.project(g, true)...)
	case orb.Polygon:
		for _, ring := range g {
			path.Lines = append(path.Lines, rs.project(ring, true)...)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			r.geometry(path, poly, rs, p)
		}
	case orb.Collection:
		for _, c := range g {
			r.geometry(path, c, rs, p)
		}
	case orb.Bound:
		r.geometry(path, g.ToRing(), rs, p)
	}
}

// FeatureKey identifies a feature across renders: its id, else its name
// property, else its index.
func FeatureKey(f *geojson.Feature, index int) string {
	if f != nil {
		if f.ID != nil {
			return fmt.Sprint(f.ID)
		}
		if name, ok := f.Properties["name"]; ok && name != nil {
			return fmt.Sprint(name)
		}
	}
	return strconv.Itoa(index)
}
