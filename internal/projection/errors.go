package projection

import "errors"

var (
	// ErrUnknownProjection is returned when an id is not registered in the catalog.
	ErrUnknownProjection = errors.New("projection: unknown projection")

	// ErrUnsupportedInverse marks a projection that has no closed-form inverse.
	// Raster callers recover from it by forward scattering or filling background.
	ErrUnsupportedInverse = errors.New("projection: inverse not supported")

	// ErrNumericDegenerate marks a formula result that is NaN or infinite.
	// It is recovered per pixel or per point and never aborts a render.
	ErrNumericDegenerate = errors.New("projection: degenerate numeric result")
)
