package vector

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
	"projwarp/internal/scene"
)

func configured(t *testing.T, id string, scale float64, w, h int, rot [2]float64) *projection.Configured {
	t.Helper()
	d, err := projection.Default().Get(id)
	require.NoError(t, err)
	return projection.Configure(d, projection.NewParams(d, scale, rot, w, h), mathutil.RotationMatrix(rot[0], rot[1]))
}

func polygonScene(t *testing.T) *scene.Vector {
	t.Helper()
	v, err := scene.ParseVector([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"Block"},
		 "geometry":{"type":"Polygon","coordinates":[[[-20,-10],[20,-10],[20,10],[-20,10],[-20,-10]]]}}]}`))
	require.NoError(t, err)
	return v
}

func TestRenderIsDeterministic(t *testing.T) {
	v := polygonScene(t)
	r := NewRenderer()
	a := Strings(r.Render(v, configured(t, "equalEarth", 150, 800, 600, [2]float64{20, 10}), true))
	b := Strings(r.Render(v, configured(t, "equalEarth", 150, 800, 600, [2]float64{20, 10}), true))
	assert.Equal(t, a, b)
}

func TestRenderOrder(t *testing.T) {
	v := polygonScene(t)
	paths := NewRenderer().Render(v, configured(t, "mercator", 150, 800, 600, [2]float64{}), true)
	require.Len(t, paths, 4)
	assert.Equal(t, KindSphere, paths[0].Kind)
	assert.Equal(t, KindGraticule, paths[1].Kind)
	assert.Equal(t, KindOutline, paths[2].Kind)
	assert.Equal(t, KindFeature, paths[3].Kind)
	assert.Equal(t, "Block", paths[3].Key)

	paths = NewRenderer().Render(v, configured(t, "mercator", 150, 800, 600, [2]float64{}), false)
	require.Len(t, paths, 2)
	assert.Equal(t, KindFeature, paths[1].Kind)
}

func TestFeatureKey(t *testing.T) {
	withID := geojson.NewFeature(orb.Point{0, 0})
	withID.ID = "abc"
	withID.Properties["name"] = "ignored"
	assert.Equal(t, "abc", FeatureKey(withID, 3))

	numeric := geojson.NewFeature(orb.Point{0, 0})
	numeric.ID = 42
	assert.Equal(t, "42", FeatureKey(numeric, 3))

	named := geojson.NewFeature(orb.Point{0, 0})
	named.Properties["name"] = "Fiji"
	assert.Equal(t, "Fiji", FeatureKey(named, 3))

	anon := geojson.NewFeature(orb.Point{0, 0})
	assert.Equal(t, "3", FeatureKey(anon, 3))
}

func TestGraticuleLineCount(t *testing.T) {
	g := DefaultGraticule()
	lines := g.Lines()
	// 4 major meridians, the equator, 32 minor meridians, 16 minor parallels
	assert.Len(t, lines, 53)

	for _, ls := range lines {
		for _, p := range ls {
			assert.LessOrEqual(t, math.Abs(p[1]), 90.0)
		}
	}
	ring := g.Outline()
	assert.Equal(t, ring[0], ring[len(ring)-1])
}

func TestPathD(t *testing.T) {
	p := Path{Lines: []Line{{Points: []Point{{1, 2}, {3.5, 4}, {-0.0001, 5.12345}}, Closed: true}}}
	assert.Equal(t, "M1,2L3.5,4L0,5.123Z", p.D())

	c := Path{Circles: []Point{{10, 20}}, Radius: 4.5}
	assert.Equal(t, "M10,20m0,4.5a4.5,4.5 0 1,1 0,-9a4.5,4.5 0 1,1 0,9Z", c.D())

	assert.Equal(t, "", Path{}.D())
	assert.True(t, Path{}.Empty())
}

func TestPolygonRingIsClosed(t *testing.T) {
	paths := NewRenderer().Render(polygonScene(t), configured(t, "equirectangular", 100, 400, 200, [2]float64{}), false)
	f := paths[1]
	require.Len(t, f.Lines, 1)
	assert.True(t, f.Lines[0].Closed)
	pts := f.Lines[0].Points
	assert.NotEqual(t, pts[0], pts[len(pts)-1])
	assert.Contains(t, f.D(), "Z")
}

func TestHalfHiddenPolygonIsStrokedOpen(t *testing.T) {
	// Rotated so the block's eastern part lies beyond the horizon.
	paths := NewRenderer().Render(polygonScene(t), configured(t, "orthographic", 100, 400, 200, [2]float64{80, 0}), false)
	f := paths[1]
	require.NotEmpty(t, f.Lines)
	for _, l := range f.Lines {
		assert.False(t, l.Closed)
	}
	assert.NotContains(t, f.D(), "Z")

	style := DefaultStyle(color.NRGBA{0xff, 0xff, 0xff, 0xff})
	style.FeatureStroke.Width = 0
	img, err := Rasterize([]Path{f}, 400, 200, style)
	require.NoError(t, err)
	for i := 0; i < len(img.Pix); i += 4 {
		require.Equal(t, uint8(0xff), img.Pix[i], "open rings are not filled")
	}
}

func TestPointFeatures(t *testing.T) {
	v, err := scene.NewVector(
		geojson.NewFeature(orb.Point{0, 0}),
		geojson.NewFeature(orb.Point{180, 0}),
	)
	require.NoError(t, err)
	paths := NewRenderer().Render(v, configured(t, "orthographic", 100, 200, 200, [2]float64{}), false)
	require.Len(t, paths, 3)
	require.Len(t, paths[1].Circles, 1)
	assert.Equal(t, Point{100, 100}, paths[1].Circles[0])
	assert.Equal(t, DefaultPointRadius, paths[1].Radius)
	assert.True(t, paths[2].Empty(), "far side point is clipped")
}

func TestResampleBendsLongSegments(t *testing.T) {
	rs := newResampler(configured(t, "mercator", 150, 800, 600, [2]float64{}))
	lines := rs.project([]orb.Point{{-60, 0}, {60, 0}}, false)
	require.Len(t, lines, 1)
	pts := lines[0].Points
	assert.GreaterOrEqual(t, len(pts), 3)
	for i := 1; i < len(pts); i++ {
		assert.Greater(t, pts[i].X, pts[i-1].X)
		assert.InDelta(t, 300, pts[i].Y, 1e-9)
	}
}

func TestResampleBreaksAtAntimeridian(t *testing.T) {
	rs := newResampler(configured(t, "equirectangular", 100, 800, 400, [2]float64{}))
	lines := rs.project([]orb.Point{{170, 10}, {-170, 10}}, false)
	require.Len(t, lines, 2)
	for _, p := range lines[0].Points {
		assert.Greater(t, p.X, 400.0)
	}
	for _, p := range lines[1].Points {
		assert.Less(t, p.X, 400.0)
	}
	// Both fragments run to the edge of the plane at the same height.
	exit := lines[0].Points[len(lines[0].Points)-1]
	enter := lines[1].Points[0]
	assert.InDelta(t, 400+100*math.Pi, exit.X, 1e-9)
	assert.InDelta(t, 400-100*math.Pi, enter.X, 1e-9)
	assert.InDelta(t, exit.Y, enter.Y, 1e-9)
	assert.Less(t, exit.Y, 200-100*mathutil.Deg2Rad(10), "the great circle bulges poleward")
}

func TestResampleJoinsAcrossAzimuthalAntimeridian(t *testing.T) {
	rs := newResampler(configured(t, "azimuthalEquidistant", 100, 800, 800, [2]float64{}))
	lines := rs.project([]orb.Point{{170, 10}, {-170, 10}}, false)
	assert.Len(t, lines, 1, "the azimuthal plane is continuous across the antimeridian")
}

func TestOutlineIsOneClosedRing(t *testing.T) {
	r := NewRenderer()
	for _, d := range projection.Default().List() {
		if d.ClipAngle > 0 {
			continue
		}
		paths := r.GraticulePaths(configured(t, d.ID, 150, 960, 500, [2]float64{}))
		outline := paths[1]
		require.Len(t, outline.Lines, 1, d.ID)
		assert.True(t, outline.Lines[0].Closed, d.ID)
	}
}

// gapProjector is a plate carrée plane with a hole around the prime meridian.
type gapProjector struct{}

func (gapProjector) Project(lon, lat float64) (float64, float64, bool) {
	return lon * 10, -lat * 10, math.Abs(lon) >= 5
}
func (gapProjector) Sphere() []projection.Sample { return nil }
func (gapProjector) Precision() float64          { return 1 }

func TestResampleBreaksWhereMidpointIsHidden(t *testing.T) {
	rs := newResampler(gapProjector{})
	lines := rs.project([]orb.Point{{-40, 0}, {-20, 0}, {20, 0}, {40, 0}}, false)
	require.Len(t, lines, 2)
	assert.Equal(t, []Point{{-400, 0}, {-200, 0}}, lines[0].Points)
	assert.Equal(t, []Point{{200, 0}, {400, 0}}, lines[1].Points)
}

func TestSphereOutline(t *testing.T) {
	r := NewRenderer()
	for _, id := range []string{"orthographic", "mercator", "mollweide"} {
		s := r.Sphere(configured(t, id, 100, 400, 400, [2]float64{}))
		require.Len(t, s.Lines, 1, id)
		assert.True(t, s.Lines[0].Closed, id)
		assert.Len(t, s.Lines[0].Points, projection.SphereSamples, id)
	}
}

func TestRasterizeFillsSphere(t *testing.T) {
	bg := color.NRGBA{0xf8, 0xf9, 0xfa, 0xff}
	style := DefaultStyle(bg)
	paths := NewRenderer().Render(nil, configured(t, "orthographic", 20, 60, 60, [2]float64{}), false)
	img, err := Rasterize(paths, 60, 60, style)
	require.NoError(t, err)

	assertNear(t, bg, img.NRGBAAt(0, 0), 1)
	assertNear(t, style.SphereFill, img.NRGBAAt(30, 30), 2)
}

func assertNear(t *testing.T, want, got color.NRGBA, tol float64) {
	t.Helper()
	assert.InDelta(t, float64(want.R), float64(got.R), tol, "R")
	assert.InDelta(t, float64(want.G), float64(got.G), tol, "G")
	assert.InDelta(t, float64(want.B), float64(got.B), tol, "B")
	assert.InDelta(t, float64(want.A), float64(got.A), tol, "A")
}

func TestOverlayDrawsGraticule(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 360, 180))
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	p := configured(t, "equirectangular", 180/math.Pi, 360, 180, [2]float64{})
	require.NoError(t, Overlay(dst, NewRenderer().Render(nil, p, true), OverlayStyle()))

	assert.Greater(t, dst.NRGBAAt(180, 90).R, uint8(50), "equator and prime meridian cross here")
	assertNear(t, color.NRGBA{0, 0, 0, 0xff}, dst.NRGBAAt(185, 95), 1)
}

// flushFailer is a gg accelerator that accelerates nothing and fails every
// flush while err is set.
type flushFailer struct{ err error }

func (*flushFailer) Name() string                        { return "flush-failer" }
func (*flushFailer) Init() error                         { return nil }
func (*flushFailer) Close()                              {}
func (*flushFailer) CanAccelerate(gg.AcceleratedOp) bool { return false }
func (*flushFailer) FillPath(gg.GPURenderTarget, *gg.Path, *gg.Paint) error {
	return gg.ErrFallbackToCPU
}
func (*flushFailer) StrokePath(gg.GPURenderTarget, *gg.Path, *gg.Paint) error {
	return gg.ErrFallbackToCPU
}
func (*flushFailer) FillShape(gg.GPURenderTarget, gg.DetectedShape, *gg.Paint) error {
	return gg.ErrFallbackToCPU
}
func (*flushFailer) StrokeShape(gg.GPURenderTarget, gg.DetectedShape, *gg.Paint) error {
	return gg.ErrFallbackToCPU
}
func (f *flushFailer) Flush(gg.GPURenderTarget) error { return f.err }

func TestFlushErrorsAreReturned(t *testing.T) {
	acc := &flushFailer{err: errors.New("device lost")}
	require.NoError(t, gg.RegisterAccelerator(acc))
	t.Cleanup(func() { acc.err = nil })

	p := configured(t, "equirectangular", 180/math.Pi, 360, 180, [2]float64{})
	paths := NewRenderer().Render(nil, p, true)

	_, err := Rasterize(paths, 360, 180, DefaultStyle(color.NRGBA{A: 0xff}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")

	dst := image.NewNRGBA(image.Rect(0, 0, 360, 180))
	err = Overlay(dst, paths, OverlayStyle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
	assert.Equal(t, make([]uint8, len(dst.Pix)), dst.Pix, "a failed overlay leaves dst untouched")
}

func TestStyleScaled(t *testing.T) {
	base := DefaultStyle(color.NRGBA{A: 0xff})
	s := base.Scaled(3)
	assert.Equal(t, base.Sphere.Width*3, s.Sphere.Width)
	assert.Equal(t, base.Graticule.Width*3, s.Graticule.Width)
	assert.Equal(t, base.Outline.Width*3, s.Outline.Width)
	assert.Equal(t, base.FeatureStroke.Width*3, s.FeatureStroke.Width)
	assert.Equal(t, base.FeatureFill, s.FeatureFill)
	assert.Equal(t, 0.5, base.Graticule.Width, "the receiver is not modified")
}
