package projection

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"projwarp/internal/mathutil"
)

// SphereSamples is the fixed number of points in a sphere outline, so two
// outlines can be blended point by point.
const SphereSamples = 144

// Sample is a plane point with its validity.
type Sample struct {
	X, Y float64
	OK   bool
}

// Projector is anything that maps geographic degrees into the render plane.
// Configured projections and transition blends both satisfy it.
type Projector interface {
	Project(lon, lat float64) (x, y float64, ok bool)
	Sphere() []Sample
	Precision() float64
}

// Cutter is implemented by projectors whose plane is torn along a line on the
// sphere. Cut reports whether the segment a→b crosses the tear and, when it
// does, the plane points where the segment leaves and re-enters the plane.
// Either edge point may be invalid when it cannot be projected.
type Cutter interface {
	Cut(lonA, latA, lonB, latB float64) (exit, enter Sample, cut bool)
}

// Configured binds a raw formula to scale, translation, rotation and clipping.
type Configured struct {
	id      string
	forward RawFunc
	inverse InverseFunc
	params  Params

	rot      mathutil.Mat3
	identity bool
	clip     s1.Angle
	maxLat   float64
}

// Configure binds def to p. rot must be the rotation matrix of p.Rotate.
func Configure(def *Definition, p Params, rot mathutil.Mat3) *Configured {
	return NewConfigured(def.ID, def.Forward, def.Inverse, def.maxLatitude(), p, rot)
}

// NewConfigured binds arbitrary raw functions. inverse may be nil.
// maxLat bounds the unclipped sphere outline, in degrees.
func NewConfigured(id string, forward RawFunc, inverse InverseFunc, maxLat float64, p Params, rot mathutil.Mat3) *Configured {
	if maxLat <= 0 {
		maxLat = 90
	}
	return &Configured{
		id:       id,
		forward:  forward,
		inverse:  inverse,
		params:   p,
		rot:      rot,
		identity: rot == mathutil.Mat3Identity(),
		clip:     s1.Angle(mathutil.Deg2Rad(p.ClipAngle)),
		maxLat:   mathutil.Deg2Rad(maxLat),
	}
}

func (c *Configured) ID() string                  { return c.id }
func (c *Configured) Params() Params              { return c.params }
func (c *Configured) Rotation() mathutil.Mat3     { return c.rot }
func (c *Configured) HasInverse() bool            { return c.inverse != nil }
func (c *Configured) Precision() float64          { return c.params.Precision }
func (c *Configured) Raw() (RawFunc, InverseFunc) { return c.forward, c.inverse }

// MaxLatitude is the latitude bound of the unclipped outline, in degrees.
func (c *Configured) MaxLatitude() float64 { return mathutil.Rad2Deg(c.maxLat) }

// rotate applies the view rotation to (λ, φ) in radians.
func (c *Configured) rotate(lambda, phi float64) (float64, float64) {
	if c.identity {
		return lambda, phi
	}
	return mathutil.CartesianToRadians(c.rot.MulVec3T(mathutil.RadiansToCartesian(lambda, phi)))
}

func (c *Configured) unrotate(lambda, phi float64) (float64, float64) {
	if c.identity {
		return lambda, phi
	}
	return mathutil.CartesianToRadians(c.rot.MulVec3(mathutil.RadiansToCartesian(lambda, phi)))
}

// visible reports whether a rotated point lies inside the clip circle.
func (c *Configured) visible(lambda, phi float64) bool {
	if c.params.ClipAngle <= 0 {
		return true
	}
	ll := s2.LatLng{Lat: s1.Angle(phi), Lng: s1.Angle(lambda)}
	return ll.Distance(s2.LatLng{}) <= c.clip+s1.Angle(mathutil.Epsilon2)
}

// toPlane scales, reflects and translates raw coordinates into the target.
func (c *Configured) toPlane(x, y float64) (float64, float64) {
	x *= c.params.Scale
	y *= c.params.Scale
	if c.params.ReflectX {
		x = -x
	}
	if c.params.ReflectY {
		y = -y
	}
	return c.params.Translate[0] + x, c.params.Translate[1] - y
}

func (c *Configured) fromPlane(x, y float64) (float64, float64) {
	x = (x - c.params.Translate[0]) / c.params.Scale
	y = (c.params.Translate[1] - y) / c.params.Scale
	if c.params.ReflectX {
		x = -x
	}
	if c.params.ReflectY {
		y = -y
	}
	return x, y
}

// Project maps a geographic coordinate in degrees to the plane. ok is false
// when the point is clipped or the formula degenerates.
func (c *Configured) Project(lon, lat float64) (float64, float64, bool) {
	lambda, phi := c.rotate(mathutil.Deg2Rad(lon), mathutil.Deg2Rad(lat))
	if !c.visible(lambda, phi) {
		return 0, 0, false
	}
	return c.projectRotated(lambda, phi)
}

// Cut splits segments that cross the antimeridian of the rotated frame, for
// formulas that do not join up along it.
func (c *Configured) Cut(lonA, latA, lonB, latB float64) (exit, enter Sample, cut bool) {
	la, pa := c.rotate(mathutil.Deg2Rad(lonA), mathutil.Deg2Rad(latA))
	lb, pb := c.rotate(mathutil.Deg2Rad(lonB), mathutil.Deg2Rad(latB))
	if math.Abs(la-lb) <= math.Pi {
		return exit, enter, false
	}
	// Points on the antimeridian belong to either side.
	if math.Pi-math.Abs(la) < mathutil.Epsilon || math.Pi-math.Abs(lb) < mathutil.Epsilon {
		return exit, enter, false
	}
	phi := antimeridianLatitude(la, pa, lb, pb)
	side := math.Copysign(math.Pi, la)
	exit, enter = c.sample(side, phi), c.sample(-side, phi)
	if exit.OK && enter.OK && math.Hypot(exit.X-enter.X, exit.Y-enter.Y) <= mathutil.Epsilon {
		return Sample{}, Sample{}, false
	}
	return exit, enter, true
}

// antimeridianLatitude is the latitude at which the great circle through two
// rotated points on opposite sides meets the antimeridian.
func antimeridianLatitude(l0, p0, l1, p1 float64) float64 {
	s := math.Sin(l0 - l1)
	if math.Abs(s) <= mathutil.Epsilon {
		return (p0 + p1) / 2
	}
	c0, c1 := math.Cos(p0), math.Cos(p1)
	return math.Atan((math.Sin(p0)*c1*math.Sin(l1) - math.Sin(p1)*c0*math.Sin(l0)) / (c0 * c1 * s))
}

// projectRotated projects (λ, φ) already in the rotated frame.
func (c *Configured) projectRotated(lambda, phi float64) (float64, float64, bool) {
	rx, ry := c.forward(lambda, phi)
	if !mathutil.Finite(rx, ry) {
		return 0, 0, false
	}
	x, y := c.toPlane(rx, ry)
	if e := c.params.ClipExtent; e != nil && !e.Contains(x, y) {
		return 0, 0, false
	}
	return x, y, true
}

// Invert maps a plane point back to degrees. ok is false when the projection
// has no inverse, the point is outside the projection's domain, outside the
// clip circle, or the formula degenerates.
func (c *Configured) Invert(x, y float64) (float64, float64, bool) {
	if c.inverse == nil {
		return 0, 0, false
	}
	lambda, phi := c.inverse(c.fromPlane(x, y))
	if !mathutil.Finite(lambda, phi) {
		return 0, 0, false
	}
	const slack = 1e-9
	if math.Abs(lambda) > math.Pi+slack || math.Abs(phi) > mathutil.HalfPi+slack {
		return 0, 0, false
	}
	if !c.visible(lambda, phi) {
		return 0, 0, false
	}
	lambda, phi = c.unrotate(lambda, phi)
	lon, lat := mathutil.Rad2Deg(lambda), mathutil.Rad2Deg(phi)
	if !ValidateCoordinates(lon, lat) {
		return 0, 0, false
	}
	return lon, lat, true
}

// Sphere samples the projection's outer boundary: the clip circle for clipped
// projections, otherwise the two antimeridian edges joined at the poles.
// The result always has SphereSamples entries.
func (c *Configured) Sphere() []Sample {
	out := make([]Sample, SphereSamples)
	if c.params.ClipAngle > 0 {
		r := mathutil.Deg2Rad(c.params.ClipAngle)
		sinR, cosR := math.Sin(r), math.Cos(r)
		for i := range out {
			a := mathutil.Tau * float64(i) / SphereSamples
			phi := mathutil.AsinSafe(sinR * math.Cos(a))
			lambda := math.Atan2(math.Sin(a)*sinR, cosR)
			out[i] = c.sample(lambda, phi)
		}
		return out
	}
	half := SphereSamples / 2
	for i := 0; i < half; i++ {
		t := float64(i) / float64(half-1)
		out[i] = c.sample(-math.Pi, mathutil.Lerp(-c.maxLat, c.maxLat, t))
		out[half+i] = c.sample(math.Pi, mathutil.Lerp(c.maxLat, -c.maxLat, t))
	}
	return out
}

func (c *Configured) sample(lambda, phi float64) Sample {
	rx, ry := c.forward(lambda, phi)
	if !mathutil.Finite(rx, ry) {
		return Sample{}
	}
	x, y := c.toPlane(rx, ry)
	return Sample{X: x, Y: y, OK: true}
}
