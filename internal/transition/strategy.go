// Package transition animates the switch between two projection
// configurations.
package transition

import (
	"math"

	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
)

// Strategy is how intermediate frames are produced. It is chosen once when
// a transition starts.
type Strategy int

const (
	// InterpolateRaw blends the two raw formulas and the view parameters.
	InterpolateRaw Strategy = iota
	// InterpolateTransform blends the plane outputs of both configured projections.
	InterpolateTransform
	// Crossfade blends two independently rendered frames by opacity.
	Crossfade
)

func (s Strategy) String() string {
	switch s {
	case InterpolateRaw:
		return "interpolate-raw"
	case InterpolateTransform:
		return "interpolate-transform"
	default:
		return "crossfade"
	}
}

// SevereClipAngle is the largest clip angle treated as hemisphere-limited.
const SevereClipAngle = 95

// ClipTolerance is the clip-angle difference above which two severe clips
// crossfade.
const ClipTolerance = 5

// Side is one end of a transition. Snapshots of an interrupted transition
// have a projector but no configured projection.
type Side struct {
	Configured *projection.Configured
	Proj       projection.Projector
	Params     projection.Params
}

// NewSide wraps a configured projection.
func NewSide(c *projection.Configured) Side {
	return Side{Configured: c, Proj: c, Params: c.Params()}
}

// ID names the side for logging.
func (s Side) ID() string {
	if s.Configured != nil {
		return s.Configured.ID()
	}
	return "snapshot"
}

// HasInverse reports whether the side can be sampled per destination pixel.
func (s Side) HasInverse() bool {
	return s.Configured != nil && s.Configured.HasInverse()
}

func (s Side) raw() projection.RawFunc {
	if s.Configured == nil {
		return nil
	}
	f, _ := s.Configured.Raw()
	return f
}

func severe(clip float64) bool {
	return clip > 0 && clip <= SevereClipAngle
}

// samplePoints are the fifteen lon/lat pairs (degrees) used to compare the
// validity of two raw formulas.
var samplePoints = func() [][2]float64 {
	var pts [][2]float64
	for _, lon := range []float64{-180, 0, 180} {
		for _, lat := range []float64{-90, -45, 0, 45, 90} {
			pts = append(pts, [2]float64{lon, lat})
		}
	}
	return pts
}()

// Compatible reports whether two raw formulas agree on which sample points
// are finite.
func Compatible(a, b projection.RawFunc) bool {
	for _, p := range samplePoints {
		l, f := mathutil.Deg2Rad(p[0]), mathutil.Deg2Rad(p[1])
		if mathutil.Finite(a(l, f)) != mathutil.Finite(b(l, f)) {
			return false
		}
	}
	return true
}

// Select picks the strategy for a switch from prev to next.
func Select(prev, next Side) Strategy {
	pc, nc := prev.Params.ClipAngle, next.Params.ClipAngle
	ps, ns := severe(pc), severe(nc)
	if (ps && ns && math.Abs(pc-nc) > ClipTolerance) || ps != ns {
		return Crossfade
	}
	pr, nr := prev.raw(), next.raw()
	if pr != nil && nr != nil && Compatible(pr, nr) {
		return InterpolateRaw
	}
	return InterpolateTransform
}

// EaseInOutCubic is the cubic ease-in-out curve on [0, 1].
func EaseInOutCubic(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
