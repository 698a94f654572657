package mathutil

import "math"

const (
	// Epsilon is the tolerance used by iterative solvers and pole tests.
	Epsilon = 1e-6

	// Epsilon2 is the convergence threshold for Newton iterations.
	Epsilon2 = 1e-12

	HalfPi = math.Pi / 2
	Tau    = 2 * math.Pi
)

// NormalizeLongitude wraps a longitude in degrees into [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	d := math.Mod(lon+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

// ClampLatitude limits a latitude in degrees to [-90, 90].
func ClampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// Finite reports whether both components are neither NaN nor infinite.
func Finite(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b) && !math.IsInf(a, 0) && !math.IsInf(b, 0)
}

// Lerp returns a + (b-a)*t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// AsinSafe clamps its argument into asin's domain.
func AsinSafe(x float64) float64 {
	if x > 1 {
		return HalfPi
	}
	if x < -1 {
		return -HalfPi
	}
	return math.Asin(x)
}
