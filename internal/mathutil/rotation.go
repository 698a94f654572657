package mathutil

import (
	"math"

	"github.com/golang/geo/s2"
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}

// LonLatToCartesian returns the unit vector for a geographic coordinate in degrees.
func LonLatToCartesian(lon, lat float64) Vec3 {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	return Vec3{p.X, p.Y, p.Z}
}

// RadiansToCartesian is LonLatToCartesian for radian input.
func RadiansToCartesian(lambda, phi float64) Vec3 {
	cosPhi := math.Cos(phi)
	return Vec3{cosPhi * math.Cos(lambda), cosPhi * math.Sin(lambda), math.Sin(phi)}
}

// CartesianToRadians converts a unit vector back to (λ, φ) in radians.
func CartesianToRadians(v Vec3) (lambda, phi float64) {
	return math.Atan2(v[1], v[0]), AsinSafe(v[2])
}

// CartesianToDegrees converts a unit vector to longitude and latitude in degrees.
func CartesianToDegrees(v Vec3) (lon, lat float64) {
	lambda, phi := CartesianToRadians(v)
	return Rad2Deg(lambda), Rad2Deg(phi)
}

// SphericalRotation rotates geographic coordinates by a longitude offset
// followed by a latitude tilt (gamma is fixed at zero). Angles in radians.
type SphericalRotation struct {
	DLambda float64
	cosPhi  float64
	sinPhi  float64
}

// NewSphericalRotation builds a rotation from offsets in degrees.
func NewSphericalRotation(dLon, dLat float64) SphericalRotation {
	p := Deg2Rad(dLat)
	return SphericalRotation{
		DLambda: Deg2Rad(dLon),
		cosPhi:  math.Cos(p),
		sinPhi:  math.Sin(p),
	}
}

// Forward rotates (λ, φ) in radians.
func (r SphericalRotation) Forward(lambda, phi float64) (float64, float64) {
	lambda += r.DLambda
	if lambda > math.Pi {
		lambda -= Tau
	} else if lambda < -math.Pi {
		lambda += Tau
	}
	cosPhi := math.Cos(phi)
	x := math.Cos(lambda) * cosPhi
	y := math.Sin(lambda) * cosPhi
	z := math.Sin(phi)
	k := z*r.cosPhi + x*r.sinPhi
	return math.Atan2(y, x*r.cosPhi-z*r.sinPhi), AsinSafe(k)
}

// RotationMatrix evaluates the rotation at (0°,0°), (90°,0°) and (0°,90°) and
// stacks the resulting unit vectors as rows. Rotating a Cartesian point is
// then Mᵀ·v and undoing it is M·v. A zero rotation yields the exact identity.
func RotationMatrix(dLon, dLat float64) Mat3 {
	if dLon == 0 && dLat == 0 {
		return Mat3Identity()
	}
	r := NewSphericalRotation(dLon, dLat)
	basis := [3][2]float64{{0, 0}, {90, 0}, {0, 90}}
	var rows [3]Vec3
	for i, b := range basis {
		l, p := r.Forward(Deg2Rad(b[0]), Deg2Rad(b[1]))
		rows[i] = LonLatToCartesian(Rad2Deg(l), Rad2Deg(p))
	}
	return Mat3FromRows(rows[0], rows[1], rows[2])
}
