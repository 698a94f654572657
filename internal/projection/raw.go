package projection

import (
	"math"

	"projwarp/internal/mathutil"
)

// Raw formulas on the unit sphere. Inputs and outputs of inverse functions are
// radians; non-finite results are passed through for the caller to reject.

func mercatorRaw(lambda, phi float64) (float64, float64) {
	return lambda, math.Log(math.Tan((mathutil.HalfPi + phi) / 2))
}

func mercatorInvert(x, y float64) (float64, float64) {
	return x, 2*math.Atan(math.Exp(y)) - mathutil.HalfPi
}

func equirectangularRaw(lambda, phi float64) (float64, float64) {
	return lambda, phi
}

func equirectangularInvert(x, y float64) (float64, float64) {
	return x, y
}

// azimuthalRaw builds an azimuthal projection from its radial scale function,
// evaluated on cos λ·cos φ.
func azimuthalRaw(scale func(cxcy float64) float64) RawFunc {
	return func(lambda, phi float64) (float64, float64) {
		cx, cy := math.Cos(lambda), math.Cos(phi)
		k := scale(cx * cy)
		if math.IsInf(k, 0) {
			return math.NaN(), math.NaN()
		}
		return k * cy * math.Sin(lambda), k * math.Sin(phi)
	}
}

// azimuthalInvert builds the inverse from the angular distance as a function
// of planar radius.
func azimuthalInvert(angle func(z float64) float64) InverseFunc {
	return func(x, y float64) (float64, float64) {
		z := math.Hypot(x, y)
		c := angle(z)
		sc, cc := math.Sin(c), math.Cos(c)
		phi := 0.0
		if z != 0 {
			phi = math.Asin(y * sc / z)
		}
		return math.Atan2(x*sc, z*cc), phi
	}
}

var (
	stereographicRaw = azimuthalRaw(func(cxcy float64) float64 {
		return 1 / (1 + cxcy)
	})
	stereographicInvert = azimuthalInvert(func(z float64) float64 {
		return 2 * math.Atan(z)
	})

	azimuthalEquidistantRaw = azimuthalRaw(func(cxcy float64) float64 {
		c := math.Acos(math.Max(-1, math.Min(1, cxcy)))
		if c == 0 {
			return 1
		}
		return c / math.Sin(c)
	})
	azimuthalEquidistantInvert = azimuthalInvert(func(z float64) float64 {
		if z > math.Pi {
			return math.NaN()
		}
		return z
	})

	orthographicInvert = azimuthalInvert(math.Asin)
	gnomonicInvert     = azimuthalInvert(math.Atan)
)

func orthographicRaw(lambda, phi float64) (float64, float64) {
	return math.Cos(phi) * math.Sin(lambda), math.Sin(phi)
}

func gnomonicRaw(lambda, phi float64) (float64, float64) {
	cy := math.Cos(phi)
	k := math.Cos(lambda) * cy
	return cy * math.Sin(lambda) / k, math.Sin(phi) / k
}

// Equal Earth polynomial coefficients (Šavrič, Patterson, Jenny 2018).
const (
	eeA1 = 1.340264
	eeA2 = -0.081106
	eeA3 = 0.000893
	eeA4 = 0.003796
)

var eeM = math.Sqrt(3) / 2

// EqualEarthIterations bounds the Newton solve in the inverse.
const EqualEarthIterations = 12

func equalEarthRaw(lambda, phi float64) (float64, float64) {
	l := math.Asin(eeM * math.Sin(phi))
	l2 := l * l
	l6 := l2 * l2 * l2
	x := lambda * math.Cos(l) / (eeM * (eeA1 + 3*eeA2*l2 + l6*(7*eeA3+9*eeA4*l2)))
	y := l * (eeA1 + eeA2*l2 + l6*(eeA3+eeA4*l2))
	return x, y
}

func equalEarthInvert(x, y float64) (float64, float64) {
	l := y
	l2 := l * l
	l6 := l2 * l2 * l2
	for i := 0; i < EqualEarthIterations; i++ {
		fy := l*(eeA1+eeA2*l2+l6*(eeA3+eeA4*l2)) - y
		fpy := eeA1 + 3*eeA2*l2 + l6*(7*eeA3+9*eeA4*l2)
		delta := fy / fpy
		l -= delta
		l2 = l * l
		l6 = l2 * l2 * l2
		if math.Abs(delta) < mathutil.Epsilon2 {
			break
		}
	}
	lambda := eeM * x * (eeA1 + 3*eeA2*l2 + l6*(7*eeA3+9*eeA4*l2)) / math.Cos(l)
	return lambda, math.Asin(math.Sin(l) / eeM)
}

// Mollweide constants: cx = 2√2/π, cy = √2, cp = π.
var (
	mollCx = math.Sqrt2 / mathutil.HalfPi
	mollCy = math.Sqrt2
)

// MollweideIterations bounds the Newton solve for the auxiliary angle.
const MollweideIterations = 30

// mollweideTheta solves 2θ + sin 2θ = π sin φ for θ.
func mollweideTheta(phi float64) float64 {
	if math.Abs(phi) >= mathutil.HalfPi-mathutil.Epsilon2 {
		return math.Copysign(mathutil.HalfPi, phi)
	}
	cpSinPhi := math.Pi * math.Sin(phi)
	for i := 0; i < MollweideIterations; i++ {
		delta := (phi + math.Sin(phi) - cpSinPhi) / (1 + math.Cos(phi))
		phi -= delta
		if math.Abs(delta) <= mathutil.Epsilon2 {
			break
		}
	}
	return phi / 2
}

func mollweideRaw(lambda, phi float64) (float64, float64) {
	theta := mollweideTheta(phi)
	return mollCx * lambda * math.Cos(theta), mollCy * math.Sin(theta)
}

func mollweideInvert(x, y float64) (float64, float64) {
	theta := math.Asin(y / mollCy)
	return x / (mollCx * math.Cos(theta)), math.Asin((2*theta + math.Sin(2*theta)) / math.Pi)
}

// NaturalEarthIterations bounds the Newton solve in the inverse.
const NaturalEarthIterations = 25

func naturalEarth1Raw(lambda, phi float64) (float64, float64) {
	phi2 := phi * phi
	phi4 := phi2 * phi2
	x := lambda * (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	y := phi * (1.007226 + phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4)))
	return x, y
}

func naturalEarth1Invert(x, y float64) (float64, float64) {
	phi := y
	for i := 0; i < NaturalEarthIterations; i++ {
		phi2 := phi * phi
		phi4 := phi2 * phi2
		delta := (phi*(1.007226+phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4))) - y) /
			(1.007226 + phi2*(0.015085*3+phi4*(-0.044475*7+0.028874*9*phi2-0.005916*11*phi4)))
		phi -= delta
		if math.Abs(delta) <= mathutil.Epsilon {
			break
		}
	}
	phi2 := phi * phi
	return x / (0.8707 + phi2*(-0.131979+phi2*(-0.013791+phi2*phi2*phi2*(0.003971-0.001529*phi2)))), phi
}

func sinci(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x / math.Sin(x)
}

func aitoffRaw(lambda, phi float64) (float64, float64) {
	half := lambda / 2
	cosy := math.Cos(phi)
	sincia := sinci(math.Acos(math.Max(-1, math.Min(1, cosy*math.Cos(half)))))
	return 2 * cosy * math.Sin(half) * sincia, math.Sin(phi) * sincia
}

// winkel3Raw averages Aitoff with equirectangular at the standard parallel
// arccos(2/π). No closed-form inverse exists.
func winkel3Raw(lambda, phi float64) (float64, float64) {
	ax, ay := aitoffRaw(lambda, phi)
	return (ax + lambda/mathutil.HalfPi) / 2, (ay + phi) / 2
}
