package projection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogShape(t *testing.T) {
	c := Default()
	require.GreaterOrEqual(t, c.Len(), 8)

	families := map[Family]bool{}
	for _, d := range c.List() {
		families[d.Family] = true
		assert.NotEmpty(t, d.Label, d.ID)
		assert.NotEmpty(t, d.Characteristics, d.ID)
	}
	for _, f := range []Family{Conformal, EqualArea, Equidistant, Perspective} {
		assert.True(t, families[f], "missing family %s", f)
	}
}

func TestCatalogGetUnknown(t *testing.T) {
	_, err := Default().Get("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProjection))
}

func TestCatalogSupportsInverse(t *testing.T) {
	c := Default()
	assert.True(t, c.SupportsInverse("mercator"))
	assert.True(t, c.SupportsInverse("mollweide"))
	assert.False(t, c.SupportsInverse("winkel3"))
	assert.False(t, c.SupportsInverse("nonexistent"))
	assert.NotContains(t, c.InverseIDs(), "winkel3")
}

func TestCatalogDefaultClipAngles(t *testing.T) {
	c := Default()
	tests := map[string]float64{
		"mercator":      0,
		"stereographic": 90,
		"orthographic":  90,
		"gnomonic":      60,
		"equalEarth":    0,

		"azimuthalEquidistant": AntipodeClipAngle,
	}
	for id, want := range tests {
		d, err := c.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want, d.ClipAngle, id)
	}
}

func TestCatalogCharacteristicsAreCopied(t *testing.T) {
	c := Default()
	got, err := c.Characteristics("gnomonic")
	require.NoError(t, err)
	got[0] = "changed"

	again, err := c.Characteristics("gnomonic")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again[0])
}

func TestCatalogIndexIsRegistrationOrder(t *testing.T) {
	c := Default()
	for i, id := range c.IDs() {
		got, ok := c.Index(id)
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
	_, ok := c.Index("nonexistent")
	assert.False(t, ok)
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	d := &Definition{ID: "a", Forward: equirectangularRaw}
	_, err := NewCatalog(d, d)
	assert.Error(t, err)
}
