// Package view holds the mutable view parameters of a session and the
// rotation basis derived from them.
package view

import (
	"errors"
	"fmt"
	"math"

	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
)

// ErrInvalidScale is returned when a non-positive or non-finite scale is set.
var ErrInvalidScale = errors.New("view: scale must be positive")

// Parameters are the user-controlled view settings.
type Parameters struct {
	ProjectionID string
	Scale        float64
	Rotation     [2]float64 // longitude, latitude offsets in degrees
	Graticule    bool
}

// DefaultParameters returns the parameters of a fresh session.
func DefaultParameters(projectionID string) Parameters {
	return Parameters{
		ProjectionID: projectionID,
		Scale:        projection.DefaultScale,
		Graticule:    true,
	}
}

// State owns Parameters and caches the rotation matrix derived from them.
// It is not safe for concurrent use; the owning session serializes access.
type State struct {
	catalog *projection.Catalog
	params  Parameters

	rot      mathutil.Mat3
	rotValid bool
}

// New validates p against the catalog and returns a State holding it.
func New(catalog *projection.Catalog, p Parameters) (*State, error) {
	if _, err := catalog.Get(p.ProjectionID); err != nil {
		return nil, fmt.Errorf("view: new: %w", err)
	}
	if err := checkScale(p.Scale); err != nil {
		return nil, err
	}
	s := &State{catalog: catalog}
	s.params = p
	s.params.Rotation = normalizeRotation(p.Rotation[0], p.Rotation[1])
	return s, nil
}

// Parameters returns a copy of the current parameters.
func (s *State) Parameters() Parameters { return s.params }

// Catalog returns the catalog the state validates against.
func (s *State) Catalog() *projection.Catalog { return s.catalog }

// Definition returns the definition of the current projection.
func (s *State) Definition() *projection.Definition {
	d, _ := s.catalog.Get(s.params.ProjectionID)
	return d
}

// SetProjection switches the projection id. Unknown ids leave the state unchanged.
func (s *State) SetProjection(id string) error {
	if _, err := s.catalog.Get(id); err != nil {
		return fmt.Errorf("view: set projection: %w", err)
	}
	s.params.ProjectionID = id
	return nil
}

// SetScale updates the scale. Invalid values leave the state unchanged.
func (s *State) SetScale(scale float64) error {
	if err := checkScale(scale); err != nil {
		return err
	}
	s.params.Scale = scale
	s.rotValid = false
	return nil
}

// SetRotation normalizes and stores the rotation pair.
func (s *State) SetRotation(lon, lat float64) {
	s.params.Rotation = normalizeRotation(lon, lat)
	s.rotValid = false
}

// SetGraticule toggles graticule visibility.
func (s *State) SetGraticule(visible bool) {
	s.params.Graticule = visible
}

// RotationMatrix returns the cached rotation basis, computing it on first use
// after any rotation or scale change.
func (s *State) RotationMatrix() mathutil.Mat3 {
	if !s.rotValid {
		s.rot = mathutil.RotationMatrix(s.params.Rotation[0], s.params.Rotation[1])
		s.rotValid = true
	}
	return s.rot
}

// Configure binds the current parameters to a width×height target.
func (s *State) Configure(width, height int) *projection.Configured {
	return s.ConfigureParams(s.params, width, height)
}

// ConfigureParams binds arbitrary parameters against the same catalog,
// reusing the cached rotation when p matches the current rotation.
func (s *State) ConfigureParams(p Parameters, width, height int) *projection.Configured {
	d, err := s.catalog.Get(p.ProjectionID)
	if err != nil {
		return nil
	}
	rot := s.RotationMatrix()
	if p.Rotation != s.params.Rotation {
		rot = mathutil.RotationMatrix(p.Rotation[0], p.Rotation[1])
	}
	return projection.Configure(d, projection.NewParams(d, p.Scale, p.Rotation, width, height), rot)
}

func checkScale(scale float64) error {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	return nil
}

func normalizeRotation(lon, lat float64) [2]float64 {
	return [2]float64{mathutil.NormalizeLongitude(lon), mathutil.ClampLatitude(lat)}
}
