package projection

// Family classifies a projection by the property it preserves.
type Family int

const (
	Conformal Family = iota
	EqualArea
	Equidistant
	Perspective
	Compromise
)

func (f Family) String() string {
	switch f {
	case Conformal:
		return "conformal"
	case EqualArea:
		return "equal-area"
	case Equidistant:
		return "equidistant"
	case Perspective:
		return "perspective"
	case Compromise:
		return "compromise"
	}
	return "unknown"
}

// RawFunc maps (λ, φ) in radians to unit-sphere plane coordinates, y pointing up.
// Results may be NaN or infinite; callers treat those as invalid.
type RawFunc func(lambda, phi float64) (x, y float64)

// InverseFunc maps unit-sphere plane coordinates back to (λ, φ) in radians.
type InverseFunc func(x, y float64) (lambda, phi float64)

// Definition is an immutable catalog entry.
type Definition struct {
	ID              string
	Label           string
	Family          Family
	Description     string
	Characteristics []string

	Forward RawFunc
	Inverse InverseFunc // nil when the projection has no closed-form inverse

	// ClipAngle is the default small-circle clip radius in degrees; 0 means unclipped.
	ClipAngle float64

	// MaxLatitude bounds the sphere outline in degrees; 0 means 90.
	MaxLatitude float64
}

// HasInverse reports whether the definition carries an inverse formula.
func (d *Definition) HasInverse() bool {
	return d.Inverse != nil
}

func (d *Definition) maxLatitude() float64 {
	if d.MaxLatitude <= 0 {
		return 90
	}
	return d.MaxLatitude
}
