package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"projwarp/internal/engine"
	"projwarp/internal/gpu"
	"projwarp/internal/projection"
	"projwarp/internal/scene"
	"projwarp/internal/view"
)

func vectorScene(t *testing.T) *scene.Vector {
	t.Helper()
	v, err := scene.ParseVector([]byte(`{"type":"Feature","properties":{"name":"box"},
		"geometry":{"type":"Polygon","coordinates":[[[-30,-20],[30,-20],[30,20],[-30,20],[-30,-20]]]}}`))
	require.NoError(t, err)
	return v
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, PNG, FormatFor("a/b.PNG"))
	assert.Equal(t, JPEG, FormatFor("x.jpg"))
	assert.Equal(t, JPEG, FormatFor("x.jpeg"))
	assert.Equal(t, WebP, FormatFor("x.webp"))
	assert.Equal(t, WebP, FormatFor("x"))
}

func TestEncodeWebPDecodes(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 3)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, WebP, 90))
	got, err := webp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Rect, got.Bounds())
	r, g, b, _ := got.At(2, 1).RGBA()
	want := img.NRGBAAt(2, 1)
	assert.Equal(t, [3]uint32{uint32(want.R), uint32(want.G), uint32(want.B)}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestGalleryRun(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Scene:       vectorScene(t),
		OutputDir:   dir,
		Parameters:  view.DefaultParameters("mercator"),
		Projections: []string{"mercator", "orthographic", "winkel3", "nonexistent"},
		Options:     []engine.Option{engine.WithSize(64, 48), engine.WithWorkers(1)},
		Format:      PNG,
		Thumbnail:   16,
		Background:  color.NRGBA{0xf8, 0xf9, 0xfa, 0xff},
		Workers:     2,
	}
	results := Run(context.Background(), cfg)
	require.Len(t, results, 4)
	for i, r := range results[:3] {
		assert.True(t, r.Success, "%s: %s", r.Projection, r.Error)
		assert.Equal(t, cfg.Projections[i], r.Projection)
		_, err := os.Stat(filepath.Join(dir, r.Image))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, r.Thumbnail))
		assert.NoError(t, err)
	}
	assert.False(t, results[3].Success)
	assert.NotEmpty(t, results[3].Error)

	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(path, projection.Default(), results))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "orthographic.png", entries[1].Image)
	assert.Equal(t, 90.0, entries[1].ClipAngle)
	assert.False(t, entries[2].Inverse)
	assert.NotEmpty(t, entries[0].Characteristics)
}

func TestGalleryDefaultsToWholeCatalog(t *testing.T) {
	results := Run(context.Background(), Config{
		Scene:      vectorScene(t),
		OutputDir:  t.TempDir(),
		Parameters: view.DefaultParameters("mercator"),
		Options:    []engine.Option{engine.WithSize(32, 24)},
		Workers:    4,
	})
	require.Len(t, results, projection.Default().Len())
	for _, r := range results {
		assert.True(t, r.Success, "%s: %s", r.Projection, r.Error)
		assert.Equal(t, r.Projection+".webp", r.Image)
	}
}

func TestGalleryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, Config{
		Scene:       vectorScene(t),
		OutputDir:   t.TempDir(),
		Parameters:  view.DefaultParameters("mercator"),
		Projections: []string{"mercator"},
	})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}

func TestGallerySharesSceneCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "box.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"Feature","properties":{},
		"geometry":{"type":"Point","coordinates":[10,20]}}`), 0o644))

	cache := scene.NewCache()
	results := Run(context.Background(), Config{
		SceneFile:   path,
		Scenes:      cache,
		OutputDir:   dir,
		Parameters:  view.DefaultParameters("mercator"),
		Projections: []string{"mercator", "mollweide", "equalEarth"},
		Options:     []engine.Option{engine.WithSize(32, 24)},
		Workers:     3,
	})
	for _, r := range results {
		assert.True(t, r.Success, "%s: %s", r.Projection, r.Error)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestGalleryMissingSceneFile(t *testing.T) {
	results := Run(context.Background(), Config{
		SceneFile:   filepath.Join(t.TempDir(), "missing.geojson"),
		Scenes:      scene.NewCache(),
		OutputDir:   t.TempDir(),
		Parameters:  view.DefaultParameters("mercator"),
		Projections: []string{"mercator"},
	})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "missing.geojson")
}

func TestGallerySharedAccelerator(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 36, 18))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	sc, err := scene.NewRaster(img)
	require.NoError(t, err)

	ids := projection.Default().InverseIDs()
	results := Run(context.Background(), Config{
		Scene:       sc,
		OutputDir:   t.TempDir(),
		Parameters:  view.DefaultParameters("mercator"),
		Projections: ids,
		Options: []engine.Option{
			engine.WithSize(32, 24),
			engine.WithAccelerator(gpu.NewEmulator()),
		},
		Format:  PNG,
		Workers: 8,
	})
	require.Len(t, results, len(ids))
	for _, r := range results {
		assert.True(t, r.Success, "%s: %s", r.Projection, r.Error)
		assert.Empty(t, r.Warnings, r.Projection)
	}
}
