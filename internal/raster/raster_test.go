package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projwarp/internal/logging"
	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
)

var bg = color.NRGBA{0xf8, 0xf9, 0xfa, 0xff}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x + y) % 256), 255})
		}
	}
	return img
}

func configured(t *testing.T, id string, w, h int, rot [2]float64) *projection.Configured {
	t.Helper()
	d, err := projection.Default().Get(id)
	require.NoError(t, err)
	return projection.Configure(d, projection.NewParams(d, projection.DefaultScale, rot, w, h), mathutil.RotationMatrix(rot[0], rot[1]))
}

func pixel(fb *FrameBuffer, x, y int) color.NRGBA {
	return fb.Image().NRGBAAt(x, y)
}

func TestBilinearIntegerCoordinateIsExact(t *testing.T) {
	src := gradient(16, 8)
	for _, p := range [][2]int{{0, 0}, {5, 3}, {15, 7}} {
		got := Sample(src, float64(p[0]), float64(p[1]))
		want := src.NRGBAAt(p[0], p[1])
		assert.Equal(t, [4]uint8{want.R, want.G, want.B, want.A}, got)
	}
}

func TestBilinearInterpolatesAndClamps(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})
	src.SetNRGBA(1, 0, color.NRGBA{100, 200, 50, 255})

	c := Bilinear(src, 0.5, 0)
	assert.Equal(t, [4]float64{50, 100, 25, 127.5}, c)
	assert.Equal(t, [4]uint8{50, 100, 25, 128}, Sample(src, 0.5, 0))

	assert.Equal(t, [4]float64{100, 200, 50, 255}, Bilinear(src, 7, 3))
	assert.Equal(t, [4]float64{0, 0, 0, 0}, Bilinear(src, -2, -1))
}

func TestWarpMercatorCentreIsSourceCentre(t *testing.T) {
	src := gradient(100, 100)
	w := &Warper{Background: bg}
	fb, err := w.Warp(context.Background(), src, configured(t, "mercator", 800, 600, [2]float64{}), 800, 600)
	require.NoError(t, err)
	assert.Equal(t, src.NRGBAAt(50, 50), pixel(fb, 400, 300))
}

func TestWarpOutsideDomainIsBackground(t *testing.T) {
	w := &Warper{Background: bg}
	fb, err := w.Warp(context.Background(), gradient(64, 32), configured(t, "orthographic", 400, 400, [2]float64{}), 400, 400)
	require.NoError(t, err)
	assert.Equal(t, bg, pixel(fb, 0, 0))
	assert.False(t, fb.Valid[0])
	assert.True(t, fb.Valid[200*400+200])
}

func TestWarpIsIndependentOfWorkerCount(t *testing.T) {
	src := gradient(90, 45)
	p := configured(t, "equalEarth", 300, 200, [2]float64{30, 15})
	one, err := (&Warper{Workers: 1, ChunkRows: 7, Background: bg}).Warp(context.Background(), src, p, 300, 200)
	require.NoError(t, err)
	many, err := (&Warper{Workers: 8, ChunkRows: 3, Background: bg}).Warp(context.Background(), src, p, 300, 200)
	require.NoError(t, err)
	assert.Equal(t, one.Color, many.Color)
	assert.Equal(t, one.Valid, many.Valid)
}

func TestWarpProgress(t *testing.T) {
	var got []float64
	w := &Warper{Workers: 3, ChunkRows: 10, Background: bg, Progress: func(f float64) { got = append(got, f) }}
	_, err := w.Warp(context.Background(), gradient(20, 10), configured(t, "mollweide", 100, 95, [2]float64{}), 100, 95)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
	assert.Equal(t, 1.0, got[len(got)-1])
}

func TestWarpCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fb, err := (&Warper{Background: bg}).Warp(ctx, gradient(20, 10), configured(t, "mercator", 100, 100, [2]float64{}), 100, 100)
	assert.Nil(t, fb)
	assert.True(t, errors.Is(err, context.Canceled))

	fb, err = (&Warper{Background: bg}).Warp(ctx, gradient(20, 10), configured(t, "winkel3", 100, 100, [2]float64{}), 100, 100)
	assert.Nil(t, fb)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestScatterLeavesGaps(t *testing.T) {
	src := gradient(36, 18)
	w := &Warper{Background: bg}
	fb, err := w.Warp(context.Background(), src, configured(t, "winkel3", 600, 400, [2]float64{}), 600, 400)
	require.NoError(t, err)

	valid := 0
	for _, v := range fb.Valid {
		if v {
			valid++
		}
	}
	assert.Positive(t, valid)
	assert.Less(t, valid, len(fb.Valid)/4, "a coarse source cannot cover the target")
	assert.Equal(t, bg, pixel(fb, 0, 0))

	// The source pixel at (18, 9) is lon 0, lat 0 and lands on the centre.
	assert.True(t, fb.Valid[200*600+300])
	assert.Equal(t, src.NRGBAAt(18, 9), pixel(fb, 300, 200))
}

func TestNoScatterReportsUnsupportedInverse(t *testing.T) {
	w := &Warper{Background: bg, NoScatter: true}
	fb, err := w.Warp(context.Background(), gradient(8, 4), configured(t, "winkel3", 50, 50, [2]float64{}), 50, 50)
	assert.True(t, errors.Is(err, projection.ErrUnsupportedInverse))
	require.NotNil(t, fb)
	for i := 0; i < 50*50; i++ {
		assert.False(t, fb.Valid[i])
	}
	assert.Equal(t, bg, pixel(fb, 25, 25))
}

type constLayer struct {
	c  [4]float64
	ok bool
}

func (l constLayer) At(int, int) ([4]float64, bool) { return l.c, l.ok }

func TestBlendRules(t *testing.T) {
	red := [4]float64{255, 0, 0, 255}
	blue := [4]float64{0, 0, 255, 255}
	b := [4]float64{float64(bg.R), float64(bg.G), float64(bg.B), 255}
	w := &Warper{Background: bg, Workers: 2, ChunkRows: 1}

	tests := []struct {
		name       string
		prev, next constLayer
		want       [4]float64
		valid      bool
	}{
		{"both", constLayer{red, true}, constLayer{blue, true}, mix(red, blue, 0.25), true},
		{"prev only", constLayer{red, true}, constLayer{}, mix(red, b, 0.25), true},
		{"next only", constLayer{}, constLayer{blue, true}, mix(b, blue, 0.25), true},
		{"neither", constLayer{}, constLayer{}, b, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := w.Blend(context.Background(), tt.prev, tt.next, 0.25, 3, 3)
			require.NoError(t, err)
			got := pixel(fb, 1, 1)
			assert.Equal(t, color.NRGBA{clamp8(tt.want[0]), clamp8(tt.want[1]), clamp8(tt.want[2]), clamp8(tt.want[3])}, got)
			assert.Equal(t, tt.valid, fb.Valid[4])
		})
	}
}

func TestFrameLayerRoundTrip(t *testing.T) {
	src := gradient(10, 6)
	fb := FromImage(src)
	c, ok := FrameLayer{Buf: fb}.At(3, 2)
	require.True(t, ok)
	want := src.NRGBAAt(3, 2)
	assert.Equal(t, [4]float64{float64(want.R), float64(want.G), float64(want.B), float64(want.A)}, c)

	fb.Valid[2*10+3] = false
	_, ok = FrameLayer{Buf: fb}.At(3, 2)
	assert.False(t, ok)

	clone := fb.Clone()
	clone.Color[0] = 99
	assert.NotEqual(t, clone.Color[0], fb.Color[0])
}

func TestScatterFallbackIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { logging.SetLogger(nil) })

	w := &Warper{Workers: 1, Background: bg}
	_, err := w.Warp(context.Background(), gradient(8, 4), configured(t, "winkel3", 40, 30, [2]float64{}), 40, 30)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "forward scattering")
	assert.Contains(t, buf.String(), "projection=winkel3")

	buf.Reset()
	_, err = w.Warp(context.Background(), gradient(8, 4), configured(t, "mercator", 40, 30, [2]float64{}), 40, 30)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "forward scattering")
}
