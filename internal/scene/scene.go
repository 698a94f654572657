// Package scene holds the immutable input a session renders: either a set of
// GeoJSON features or a decoded raster image in equirectangular layout.
package scene

import (
	"errors"
	"image"

	"github.com/paulmach/orb/geojson"
)

var (
	// ErrInvalidGeometry is returned when a vector payload is malformed.
	ErrInvalidGeometry = errors.New("scene: invalid geometry")
	// ErrInvalidRaster is returned for empty or undecodable raster payloads.
	ErrInvalidRaster = errors.New("scene: invalid raster")
)

// Kind tags the variant of a Scene.
type Kind int

const (
	KindVector Kind = iota
	KindRaster
)

func (k Kind) String() string {
	if k == KindRaster {
		return "raster"
	}
	return "vector"
}

// Scene is either a *Vector or a *Raster.
type Scene interface {
	Kind() Kind
	sealed()
}

// Vector is an ordered feature set.
type Vector struct {
	Features []*geojson.Feature
}

func (*Vector) Kind() Kind { return KindVector }
func (*Vector) sealed()    {}

// Raster is a row-major RGBA image whose x axis spans longitude -180..180
// and whose y axis spans latitude 90..-90.
type Raster struct {
	Image *image.NRGBA
}

func (*Raster) Kind() Kind { return KindRaster }
func (*Raster) sealed()    {}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.Image.Rect.Dx() }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.Image.Rect.Dy() }

// NewRaster wraps any image, converting it to NRGBA with its origin at (0,0).
func NewRaster(img image.Image) (*Raster, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrInvalidRaster
	}
	return &Raster{Image: toNRGBA(img)}, nil
}
