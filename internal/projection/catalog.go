package projection

import (
	"fmt"
	"slices"
)

// Catalog is a read-only registry of projection definitions in registration order.
// The order is stable and doubles as the shader's projection index.
type Catalog struct {
	defs []*Definition
	byID map[string]int
}

// NewCatalog builds a catalog from definitions. Duplicate ids are rejected.
func NewCatalog(defs ...*Definition) (*Catalog, error) {
	c := &Catalog{
		defs: make([]*Definition, 0, len(defs)),
		byID: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d == nil || d.ID == "" || d.Forward == nil {
			return nil, fmt.Errorf("projection: incomplete definition %+v", d)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("projection: duplicate id %q", d.ID)
		}
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// Default returns a fresh catalog holding the built-in projections.
func Default() *Catalog {
	c, err := NewCatalog(builtins()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the definition for id, or ErrUnknownProjection.
func (c *Catalog) Get(id string) (*Definition, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProjection, id)
	}
	return c.defs[i], nil
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// SupportsInverse reports whether id is registered and has an inverse formula.
func (c *Catalog) SupportsInverse(id string) bool {
	d, err := c.Get(id)
	return err == nil && d.HasInverse()
}

// Characteristics returns a copy of the descriptive bullet points for id.
func (c *Catalog) Characteristics(id string) ([]string, error) {
	d, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(d.Characteristics), nil
}

// Index returns the stable registration index of id.
func (c *Catalog) Index(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// List returns the definitions in registration order.
func (c *Catalog) List() []*Definition {
	return slices.Clone(c.defs)
}

// IDs returns the registered ids in registration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.defs))
	for i, d := range c.defs {
		ids[i] = d.ID
	}
	return ids
}

// InverseIDs returns the ids whose definitions carry an inverse.
func (c *Catalog) InverseIDs() []string {
	var ids []string
	for _, d := range c.defs {
		if d.HasInverse() {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Len returns the number of registered projections.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// AntipodeClipAngle trims the antipode, where the azimuthal equidistant plane
// tears apart.
const AntipodeClipAngle = 180 - 1e-3

// MercatorMaxLatitude is the latitude at which the Mercator square closes.
const MercatorMaxLatitude = 85.0511287798066

func builtins() []*Definition {
	return []*Definition{
		{
			ID:          "mercator",
			Label:       "Mercator",
			Family:      Conformal,
			Description: "Conformal cylindrical projection used for navigation charts; severe area distortion toward the poles.",
			Characteristics: []string{
				"Preserves angles locally",
				"Rhumb lines are straight",
				"Poles lie at infinity",
			},
			Forward:     mercatorRaw,
			Inverse:     mercatorInvert,
			MaxLatitude: MercatorMaxLatitude,
		},
		{
			ID:          "stereographic",
			Label:       "Stereographic",
			Family:      Conformal,
			Description: "Conformal azimuthal projection; distortion grows with distance from the centre.",
			Characteristics: []string{
				"Preserves angles locally",
				"Circles on the sphere map to circles",
				"Clipped to one hemisphere",
			},
			Forward:   stereographicRaw,
			Inverse:   stereographicInvert,
			ClipAngle: 90,
		},
		{
			ID:          "equalEarth",
			Label:       "Equal Earth",
			Family:      EqualArea,
			Description: "Equal-area pseudocylindrical projection with a natural look for world maps.",
			Characteristics: []string{
				"Preserves relative area",
				"Straight parallels",
				"Inverse solved by Newton iteration",
			},
			Forward: equalEarthRaw,
			Inverse: equalEarthInvert,
		},
		{
			ID:          "mollweide",
			Label:       "Mollweide",
			Family:      EqualArea,
			Description: "Equal-area pseudocylindrical projection drawing the globe as an ellipse.",
			Characteristics: []string{
				"Preserves relative area",
				"Elliptical outline with 2:1 aspect",
				"Forward solved by Newton iteration",
			},
			Forward: mollweideRaw,
			Inverse: mollweideInvert,
		},
		{
			ID:          "azimuthalEquidistant",
			Label:       "Azimuthal Equidistant",
			Family:      Equidistant,
			Description: "Distances and directions from the centre are true; distortion grows away from it.",
			Characteristics: []string{
				"True distance from the centre",
				"True direction from the centre",
				"Whole sphere fits in a disc of radius π",
			},
			Forward:   azimuthalEquidistantRaw,
			Inverse:   azimuthalEquidistantInvert,
			ClipAngle: AntipodeClipAngle,
		},
		{
			ID:          "orthographic",
			Label:       "Orthographic",
			Family:      Perspective,
			Description: "The globe as seen from infinitely far away; one hemisphere only.",
			Characteristics: []string{
				"Perspective view of a globe",
				"Shows a single hemisphere",
				"Strong compression near the limb",
			},
			Forward:   orthographicRaw,
			Inverse:   orthographicInvert,
			ClipAngle: 90,
		},
		{
			ID:          "gnomonic",
			Label:       "Gnomonic",
			Family:      Perspective,
			Description: "Projection from the centre of the globe; great circles become straight lines.",
			Characteristics: []string{
				"Great circles are straight lines",
				"Used for great-circle route planning",
				"Clipped at 60° from the centre",
			},
			Forward:   gnomonicRaw,
			Inverse:   gnomonicInvert,
			ClipAngle: 60,
		},
		{
			ID:          "naturalEarth1",
			Label:       "Natural Earth",
			Family:      Compromise,
			Description: "Compromise pseudocylindrical projection balancing area and shape distortion.",
			Characteristics: []string{
				"Neither conformal nor equal-area",
				"Rounded corners at the poles",
				"Inverse solved by Newton iteration",
			},
			Forward: naturalEarth1Raw,
			Inverse: naturalEarth1Invert,
		},
		{
			ID:          "equirectangular",
			Label:       "Equirectangular",
			Family:      Equidistant,
			Description: "Plate carrée: longitude and latitude mapped linearly to x and y.",
			Characteristics: []string{
				"True distance along meridians",
				"Identity mapping of the source raster",
			},
			Forward: equirectangularRaw,
			Inverse: equirectangularInvert,
		},
		{
			ID:          "winkel3",
			Label:       "Winkel Tripel",
			Family:      Compromise,
			Description: "Average of Aitoff and equirectangular; minimizes a blend of area, direction and distance errors.",
			Characteristics: []string{
				"Low overall distortion",
				"Curved meridians and parallels",
				"No closed-form inverse",
			},
			Forward: winkel3Raw,
		},
	}
}
