package config

import (
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projwarp/internal/engine"
)

func TestResolveDefaults(t *testing.T) {
	var c Config
	c.Resolve(Flags{})
	assert.Equal(t, "mercator", c.Projection)
	assert.Equal(t, 150.0, c.Scale)
	assert.Equal(t, 800, c.Width)
	assert.Equal(t, 600, c.Height)
	require.NotNil(t, c.Graticule)
	assert.True(t, *c.Graticule)
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	assert.Equal(t, 50, c.ChunkRows)
	assert.Equal(t, 500, c.VectorTransitionMS)
	assert.Equal(t, 1200, c.RasterTransitionMS)
	assert.Equal(t, 90, c.WebPQuality)
	assert.Equal(t, 1, c.Supersample)
	assert.Equal(t, "renders", c.OutputDir)
	assert.Equal(t, "cpu", c.Accelerator)

	bg, err := c.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0xf8, 0xf9, 0xfa, 0xff}, bg)
	assert.Equal(t, engine.DefaultBackground, bg)
}

func TestLoadAndFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projwarp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"projection": "orthographic",
		"rotation": [30, -15],
		"graticule": false,
		"width": 320,
		"webp_quality": 75,
		"background": "#000"
	}`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	c.Resolve(Flags{Projection: "mollweide", Width: 640, Graticule: "on"})

	assert.Equal(t, "mollweide", c.Projection)
	assert.Equal(t, 640, c.Width)
	assert.Equal(t, 600, c.Height)
	assert.Equal(t, 75, c.WebPQuality)
	assert.True(t, *c.Graticule)

	p := c.Parameters()
	assert.Equal(t, [2]float64{30, -15}, p.Rotation)
	assert.True(t, p.Graticule)

	bg, err := c.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0, 0, 0xff}, bg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestBackgroundColorRejectsGarbage(t *testing.T) {
	for _, bg := range []string{"#12", "#gggggg", "blue"} {
		c := Config{Background: bg}
		_, err := c.BackgroundColor()
		assert.Error(t, err, bg)
	}
	c := Config{Background: "#11223380"}
	got, err := c.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x11, 0x22, 0x33, 0x80}, got)
}

func TestEngineOptions(t *testing.T) {
	var c Config
	c.Resolve(Flags{Width: 64, Height: 48, Accelerator: "emulator"})
	opts, err := c.EngineOptions()
	require.NoError(t, err)

	s, err := engine.New(opts...)
	require.NoError(t, err)
	defer s.Close()
	w, h := s.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
	assert.Equal(t, "emulator", s.Backend())

	c.Accelerator = "vulkan"
	_, err = c.EngineOptions()
	assert.Error(t, err)
}
