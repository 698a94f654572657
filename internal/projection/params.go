package projection

// DefaultScale is the view scale in pixels per unit-sphere radian.
const DefaultScale = 150

// DefaultPrecision is the resampling tolerance in pixels (√0.5).
const DefaultPrecision = 0.7071067811865476

// Extent is an axis-aligned clip rectangle in plane coordinates.
type Extent struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether (x, y) lies inside the extent, edges included.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.X0 && x <= e.X1 && y >= e.Y0 && y <= e.Y1
}

// Params are the scalar settings that turn a raw formula into a configured
// projection. They are interpolated field by field during transitions.
type Params struct {
	Scale     float64
	Translate [2]float64
	Rotate    [2]float64 // longitude, latitude offsets in degrees
	Precision float64    // resampling tolerance in pixels; 0 disables resampling

	// ClipAngle is the small-circle clip radius in degrees; 0 means unclipped.
	ClipAngle  float64
	ClipExtent *Extent

	ReflectX bool
	ReflectY bool
}

// NewParams returns the parameters a definition uses inside a width×height
// target for the given scale and rotation.
func NewParams(d *Definition, scale float64, rotate [2]float64, width, height int) Params {
	return Params{
		Scale:     scale,
		Translate: [2]float64{float64(width) / 2, float64(height) / 2},
		Rotate:    rotate,
		Precision: DefaultPrecision,
		ClipAngle: d.ClipAngle,
	}
}
