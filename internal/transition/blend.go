package transition

import (
	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
)

// blendRaw mixes two raw formulas. Where only one side is finite that
// side's value is used unblended.
func blendRaw(a, b projection.RawFunc, t float64) projection.RawFunc {
	return func(lambda, phi float64) (float64, float64) {
		ax, ay := a(lambda, phi)
		bx, by := b(lambda, phi)
		aok, bok := mathutil.Finite(ax, ay), mathutil.Finite(bx, by)
		switch {
		case aok && bok:
			return mathutil.Lerp(ax, bx, t), mathutil.Lerp(ay, by, t)
		case aok:
			return ax, ay
		default:
			return bx, by
		}
	}
}

// RawProjector configures the blend of both sides' raw formulas with
// interpolated parameters.
func RawProjector(prev, next *projection.Configured, t float64) *projection.Configured {
	pr, _ := prev.Raw()
	nr, _ := next.Raw()
	p := InterpolateParams(prev.Params(), next.Params(), t)
	rot := mathutil.RotationMatrix(p.Rotate[0], p.Rotate[1])
	maxLat := mathutil.Lerp(prev.MaxLatitude(), next.MaxLatitude(), t)
	return projection.NewConfigured(prev.ID()+"~"+next.ID(), blendRaw(pr, nr, t), nil, maxLat, p, rot)
}

// TransformProjector blends the plane outputs of two projectors.
type TransformProjector struct {
	Prev, Next projection.Projector
	T          float64
}

// Project maps through both sides. Points valid on one side only take that
// side's position; points invalid on both are dropped.
func (tp TransformProjector) Project(lon, lat float64) (float64, float64, bool) {
	ax, ay, aok := tp.Prev.Project(lon, lat)
	bx, by, bok := tp.Next.Project(lon, lat)
	return blendPoint(ax, ay, aok, bx, by, bok, tp.T)
}

// Sphere blends the two outlines sample by sample.
func (tp TransformProjector) Sphere() []projection.Sample {
	a, b := tp.Prev.Sphere(), tp.Next.Sphere()
	out := make([]projection.Sample, len(a))
	for i := range out {
		var s projection.Sample
		if i < len(b) {
			s.X, s.Y, s.OK = blendPoint(a[i].X, a[i].Y, a[i].OK, b[i].X, b[i].Y, b[i].OK, tp.T)
		} else {
			s = a[i]
		}
		out[i] = s
	}
	return out
}

// Cut reports a tear when either side is torn between the two points. The
// edge points are left invalid because the sides tear in different places.
func (tp TransformProjector) Cut(lonA, latA, lonB, latB float64) (exit, enter projection.Sample, cut bool) {
	for _, p := range []projection.Projector{tp.Prev, tp.Next} {
		if c, ok := p.(projection.Cutter); ok {
			if _, _, cut := c.Cut(lonA, latA, lonB, latB); cut {
				return exit, enter, true
			}
		}
	}
	return exit, enter, false
}

func (tp TransformProjector) Precision() float64 {
	return mathutil.Lerp(tp.Prev.Precision(), tp.Next.Precision(), tp.T)
}

func blendPoint(ax, ay float64, aok bool, bx, by float64, bok bool, t float64) (float64, float64, bool) {
	switch {
	case aok && bok:
		return mathutil.Lerp(ax, bx, t), mathutil.Lerp(ay, by, t), true
	case aok:
		return ax, ay, true
	case bok:
		return bx, by, true
	}
	return 0, 0, false
}
