package scene

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// envelope is decoded first to apply the structural checks orb does not make.
type envelope struct {
	Type     string          `json:"type"`
	Features json.RawMessage `json:"features"`
	Geometry json.RawMessage `json:"geometry"`
}

// ParseVector decodes a FeatureCollection or a single Feature. Any structural
// or coordinate problem is reported as ErrInvalidGeometry.
func ParseVector(data []byte) (*Vector, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var features []*geojson.Feature
	switch env.Type {
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidGeometry)
	case "FeatureCollection":
		if !isArray(env.Features) {
			return nil, fmt.Errorf("%w: features must be an array", ErrInvalidGeometry)
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		features = fc.Features
	case "Feature":
		if isNull(env.Geometry) {
			return nil, fmt.Errorf("%w: feature has no geometry", ErrInvalidGeometry)
		}
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		features = []*geojson.Feature{f}
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidGeometry, env.Type)
	}

	return NewVector(features...)
}

// NewVector wraps already-decoded features, applying the same validation as
// ParseVector.
func NewVector(features ...*geojson.Feature) (*Vector, error) {
	for i, f := range features {
		if f == nil || f.Geometry == nil {
			return nil, fmt.Errorf("%w: feature %d has no geometry", ErrInvalidGeometry, i)
		}
		if err := validate(f.Geometry); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrInvalidGeometry, i, err)
		}
	}
	return &Vector{Features: features}, nil
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		}
		return false
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	s := string(raw)
	return len(raw) == 0 || s == "null"
}

func validate(g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Point:
		return checkPoint(g)
	case orb.MultiPoint:
		return checkPoints(g, 1)
	case orb.LineString:
		return checkPoints(g, 2)
	case orb.MultiLineString:
		for _, ls := range g {
			if err := checkPoints(ls, 2); err != nil {
				return err
			}
		}
	case orb.Ring:
		return checkPoints(g, 4)
	case orb.Polygon:
		if len(g) == 0 {
			return fmt.Errorf("empty polygon")
		}
		for _, r := range g {
			if err := checkPoints(r, 4); err != nil {
				return err
			}
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if err := validate(p); err != nil {
				return err
			}
		}
	case orb.Collection:
		for _, c := range g {
			if err := validate(c); err != nil {
				return err
			}
		}
	case orb.Bound:
		return checkPoints([]orb.Point{g.Min, g.Max}, 2)
	default:
		return fmt.Errorf("unsupported geometry %T", g)
	}
	return nil
}

func checkPoints(ps []orb.Point, min int) error {
	if len(ps) < min {
		return fmt.Errorf("need at least %d positions, got %d", min, len(ps))
	}
	for _, p := range ps {
		if err := checkPoint(p); err != nil {
			return err
		}
	}
	return nil
}

func checkPoint(p orb.Point) error {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coordinate %v", p)
		}
	}
	return nil
}
