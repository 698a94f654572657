package transition

import (
	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
)

// unclippedAngle stands in for "no clip" while interpolating clip angles.
const unclippedAngle = 180

// unclipThreshold is where an interpolated clip angle reverts to unclipped.
const unclipThreshold = 179.999

// InterpolateParams blends two parameter sets at t. Numbers are linear,
// an unclipped side counts as a 180° clip, and reflection flags and a
// one-sided clip extent switch at t = 0.5.
func InterpolateParams(a, b projection.Params, t float64) projection.Params {
	lerp := func(x, y float64) float64 { return mathutil.Lerp(x, y, t) }
	out := projection.Params{
		Scale:     lerp(a.Scale, b.Scale),
		Translate: [2]float64{lerp(a.Translate[0], b.Translate[0]), lerp(a.Translate[1], b.Translate[1])},
		Rotate:    [2]float64{lerp(a.Rotate[0], b.Rotate[0]), lerp(a.Rotate[1], b.Rotate[1])},
		Precision: lerp(a.Precision, b.Precision),
		ClipAngle: interpolateClip(a.ClipAngle, b.ClipAngle, t),
		ReflectX:  a.ReflectX,
		ReflectY:  a.ReflectY,
	}
	if t >= 0.5 {
		out.ReflectX, out.ReflectY = b.ReflectX, b.ReflectY
	}
	switch {
	case a.ClipExtent != nil && b.ClipExtent != nil:
		out.ClipExtent = &projection.Extent{
			X0: lerp(a.ClipExtent.X0, b.ClipExtent.X0),
			Y0: lerp(a.ClipExtent.Y0, b.ClipExtent.Y0),
			X1: lerp(a.ClipExtent.X1, b.ClipExtent.X1),
			Y1: lerp(a.ClipExtent.Y1, b.ClipExtent.Y1),
		}
	case t < 0.5:
		out.ClipExtent = a.ClipExtent
	default:
		out.ClipExtent = b.ClipExtent
	}
	return out
}

func interpolateClip(a, b, t float64) float64 {
	if a <= 0 {
		a = unclippedAngle
	}
	if b <= 0 {
		b = unclippedAngle
	}
	c := mathutil.Lerp(a, b, t)
	if c > unclipThreshold {
		return 0
	}
	return c
}
