// Package engine ties the projection state, renderers and transition
// machine into one session that owns the current scene and view.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"projwarp/internal/gpu"
	"projwarp/internal/logging"
	"projwarp/internal/postprocess"
	"projwarp/internal/projection"
	"projwarp/internal/raster"
	"projwarp/internal/scene"
	"projwarp/internal/transition"
	"projwarp/internal/vector"
	"projwarp/internal/view"
)

var (
	// ErrRenderInProgress is returned when a render is requested while
	// another one is running. The request is dropped, not queued.
	ErrRenderInProgress = errors.New("engine: render already in progress")
	// ErrNoScene is returned when rendering before a scene is loaded.
	ErrNoScene = errors.New("engine: no scene loaded")
	// ErrInvalidSize is returned for non-positive target dimensions.
	ErrInvalidSize = errors.New("engine: invalid target size")
)

// Session is the engine's boundary. It is not safe for concurrent use apart
// from the render guard, which rejects overlapping renders.
type Session struct {
	opts     options
	state    *view.State
	renderer *vector.Renderer
	warper   *raster.Warper
	gpu      *gpu.Path
	machine  transition.Machine

	scene         scene.Scene
	width, height int

	busy atomic.Bool
	last *Frame
	// lastRaster is the last raster frame before any overlay.
	lastRaster *raster.FrameBuffer
	// from freezes the on-screen frame when a raster transition cannot
	// sample its previous side live; to caches a next side that has no
	// inverse.
	from, to *raster.FrameBuffer
	warnings []error
}

// New creates a session. Without options it renders Mercator at 800×600.
func New(opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = projection.Default()
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.width, o.height)
	}
	if o.clock == nil {
		o.clock = transition.SystemClock
	}
	st, err := view.New(o.catalog, o.params)
	if err != nil {
		return nil, fmt.Errorf("engine: new session: %w", err)
	}
	s := &Session{
		opts:     o,
		state:    st,
		renderer: vector.NewRenderer(),
		width:    o.width,
		height:   o.height,
	}
	s.warper = &raster.Warper{
		Workers:    o.workers,
		ChunkRows:  o.chunkRows,
		Background: o.background,
		Progress:   o.progress,
		NoScatter:  o.noScatter,
	}
	s.gpu = gpu.NewPath(o.accelerator, s.warper)
	s.gpu.OnFallback = s.warn
	return s, nil
}

// Close releases the accelerator, if any.
func (s *Session) Close() {
	s.gpu.Close()
}

// Backend names the raster backend: an accelerator name or "cpu".
func (s *Session) Backend() string { return s.gpu.Name() }

func (s *Session) Catalog() *projection.Catalog { return s.state.Catalog() }
func (s *Session) Parameters() view.Parameters  { return s.state.Parameters() }
func (s *Session) Scene() scene.Scene           { return s.scene }
func (s *Session) Size() (width, height int)    { return s.width, s.height }
func (s *Session) State() transition.State      { return s.machine.State() }
func (s *Session) LastFrame() *Frame            { return s.last }

func (s *Session) configure() *projection.Configured {
	return s.state.Configure(s.width, s.height)
}

func (s *Session) warn(err error) {
	s.warnings = append(s.warnings, err)
	logging.Logger().Warn("engine: recovered", "error", err)
	if s.opts.warn != nil {
		s.opts.warn(err)
	}
}

// LoadScene replaces the current scene. Any transition is dropped and the
// next render starts from scratch.
func (s *Session) LoadScene(sc scene.Scene) error {
	if sc == nil {
		return fmt.Errorf("engine: load scene: %w", scene.ErrInvalidGeometry)
	}
	s.scene = sc
	s.machine.Cancel()
	s.last, s.lastRaster, s.from, s.to = nil, nil, nil, nil
	logging.Logger().Info("engine: scene loaded", "kind", sc.Kind().String())
	return nil
}

// SetProjection switches to id. When a frame has already been rendered the
// switch animates; a switch during a transition retargets it from what is
// currently on screen. Unknown ids are rejected with no state change.
func (s *Session) SetProjection(id string) error {
	if _, err := s.state.Catalog().Get(id); err != nil {
		return fmt.Errorf("engine: set projection: %w", err)
	}
	if id == s.state.Parameters().ProjectionID {
		return nil
	}
	prev, retarget := s.displayed()
	if err := s.state.SetProjection(id); err != nil {
		return fmt.Errorf("engine: set projection: %w", err)
	}
	logging.Logger().Info("engine: projection switched", "to", id)
	if s.last == nil || s.scene == nil {
		return nil
	}

	d := s.opts.vectorDur
	if s.scene.Kind() == scene.KindRaster {
		d = s.opts.rasterDur
	}
	tr := s.machine.Begin(prev, transition.NewSide(s.configure()), s.opts.clock.Now(), d)
	s.from, s.to = nil, nil
	if s.scene.Kind() == scene.KindRaster &&
		(retarget || tr.Strategy == transition.Crossfade || !tr.Prev.HasInverse() || !tr.Next.HasInverse()) {
		s.from = s.lastRaster
		if s.from == nil {
			s.from = raster.NewFrameBuffer(0, 0)
		}
	}
	return nil
}

// displayed returns the side currently on screen. retarget is set when it
// is a snapshot of a running transition.
func (s *Session) displayed() (side transition.Side, retarget bool) {
	if tr := s.machine.Active(); tr != nil {
		return tr.Snapshot(tr.Eased(s.opts.clock.Now())), true
	}
	return transition.NewSide(s.configure()), false
}

// SetScale sets the view scale. Non-positive values are rejected.
func (s *Session) SetScale(scale float64) error {
	if err := s.state.SetScale(scale); err != nil {
		return fmt.Errorf("engine: set scale: %w", err)
	}
	return nil
}

// SetRotation sets the view centre.
func (s *Session) SetRotation(lon, lat float64) {
	s.state.SetRotation(lon, lat)
}

// SetGraticuleVisible toggles the graticule and its outline.
func (s *Session) SetGraticuleVisible(visible bool) {
	s.state.SetGraticule(visible)
}

// Reset restores the default scale and an unrotated view.
func (s *Session) Reset() {
	_ = s.state.SetScale(projection.DefaultScale)
	s.state.SetRotation(0, 0)
}

// Resize changes the target size. A running transition is completed
// immediately and the next render is a full render at the new size.
func (s *Session) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	s.width, s.height = width, height
	s.machine.Cancel()
	s.last, s.lastRaster, s.from, s.to = nil, nil, nil, nil
	return nil
}

// RenderFrame renders the frame for the current clock time. A render
// requested while another is in flight returns ErrRenderInProgress. On
// error the previous frame stays current.
func (s *Session) RenderFrame(ctx context.Context) (*Frame, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrRenderInProgress
	}
	defer s.busy.Store(false)
	if s.scene == nil {
		return nil, ErrNoScene
	}
	s.warnings = nil

	tr, t, done := s.machine.Advance(s.opts.clock.Now())
	f := &Frame{
		Kind:       s.scene.Kind(),
		Width:      s.width,
		Height:     s.height,
		Projection: s.state.Parameters().ProjectionID,
	}
	if !done {
		f.Transitioning, f.Strategy, f.Progress = true, tr.Strategy, t
	}

	switch sc := s.scene.(type) {
	case *scene.Vector:
		f.Paths = s.renderVector(sc, tr, t, done)
	case *scene.Raster:
		fb, err := s.renderRaster(ctx, sc, tr, t, done)
		if err != nil {
			return nil, fmt.Errorf("engine: render frame: %w", err)
		}
		f.Raster = fb
		if s.state.Parameters().Graticule {
			out := fb.Clone()
			grid := s.renderer.GraticulePaths(s.overlayProjector(tr, t, done))
			if err := vector.Overlay(out.Image(), grid, vector.OverlayStyle()); err != nil {
				return nil, fmt.Errorf("engine: graticule overlay: %w", err)
			}
			f.Raster = out
		}
		s.lastRaster = fb
	}
	if done {
		s.from, s.to = nil, nil
	}
	f.Warnings = s.warnings
	s.last = f
	logging.Logger().Debug("engine: frame", "kind", f.Kind.String(), "projection", f.Projection,
		"transitioning", f.Transitioning, "progress", f.Progress)
	return f, nil
}

func (s *Session) renderVector(v *scene.Vector, tr *transition.Transition, t float64, done bool) []vector.Path {
	graticule := s.state.Parameters().Graticule
	if done {
		return s.renderer.Render(v, s.configure(), graticule)
	}
	if tr.Strategy != transition.Crossfade {
		return s.renderer.Render(v, tr.Projector(t), graticule)
	}
	prev := fade(s.renderer.Render(v, tr.Prev.Proj, graticule), 1-t)
	next := fade(s.renderer.Render(v, tr.Next.Proj, graticule), t)
	return append(prev, next...)
}

func fade(paths []vector.Path, opacity float64) []vector.Path {
	for i := range paths {
		paths[i].Opacity *= opacity
	}
	return paths
}

func (s *Session) renderRaster(ctx context.Context, r *scene.Raster, tr *transition.Transition, t float64, done bool) (*raster.FrameBuffer, error) {
	if done {
		return s.warp(ctx, r.Image, s.configure(), s.width, s.height)
	}
	if s.from == nil {
		return s.gpu.Blend(ctx, r.Image, tr.Prev.Configured, tr.Next.Configured, t, s.width, s.height)
	}
	var next raster.Layer = raster.InverseLayer{Proj: tr.Next.Configured, Src: r.Image}
	if !tr.Next.HasInverse() {
		if s.to == nil {
			fb, err := s.warp(ctx, r.Image, tr.Next.Configured, s.width, s.height)
			if err != nil {
				return nil, err
			}
			s.to = fb
		}
		next = raster.FrameLayer{Buf: s.to}
	}
	return s.warper.Blend(ctx, raster.FrameLayer{Buf: s.from}, next, t, s.width, s.height)
}

// warp renders one settled raster frame. An unsupported inverse yields the
// background frame and a warning.
func (s *Session) warp(ctx context.Context, src *image.NRGBA, c *projection.Configured, width, height int) (*raster.FrameBuffer, error) {
	fb, err := s.gpu.Warp(ctx, src, c, width, height)
	if err != nil && fb != nil && errors.Is(err, projection.ErrUnsupportedInverse) {
		s.warn(err)
		return fb, nil
	}
	return fb, err
}

func (s *Session) overlayProjector(tr *transition.Transition, t float64, done bool) projection.Projector {
	if done {
		return s.configure()
	}
	if p := tr.Projector(t); p != nil {
		return p
	}
	if t < 0.5 {
		return tr.Prev.Proj
	}
	return tr.Next.Proj
}

// ExportStill renders the settled view at the current size, ignoring any
// running transition. supersample > 1 renders at that multiple and
// downsamples.
func (s *Session) ExportStill(ctx context.Context, supersample int) (*image.NRGBA, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrRenderInProgress
	}
	defer s.busy.Store(false)
	if s.scene == nil {
		return nil, ErrNoScene
	}
	s.warnings = nil

	k := max(1, supersample)
	w, h := s.width*k, s.height*k
	p := s.state.Parameters()
	p.Scale *= float64(k)
	c := s.state.ConfigureParams(p, w, h)

	// Strokes and point markers grow with the canvas so they keep their
	// width after downsampling.
	r := *s.renderer
	r.PointRadius *= float64(k)

	var img *image.NRGBA
	switch sc := s.scene.(type) {
	case *scene.Vector:
		style := vector.DefaultStyle(s.opts.background).Scaled(float64(k))
		out, err := vector.Rasterize(r.Render(sc, c, p.Graticule), w, h, style)
		if err != nil {
			return nil, fmt.Errorf("engine: export still: %w", err)
		}
		img = out
	case *scene.Raster:
		fb, err := s.warp(ctx, sc.Image, c, w, h)
		if err != nil {
			return nil, fmt.Errorf("engine: export still: %w", err)
		}
		img = fb.Image()
		if p.Graticule {
			if err := vector.Overlay(img, r.GraticulePaths(c), vector.OverlayStyle().Scaled(float64(k))); err != nil {
				return nil, fmt.Errorf("engine: export still: %w", err)
			}
		}
	}
	if k > 1 {
		img = postprocess.Downsample(img, s.width, s.height)
	}
	logging.Logger().Debug("engine: still exported", "projection", p.ProjectionID, "supersample", k)
	return img, nil
}

// Run renders a frame every interval and hands it to sink until a settled
// frame has been delivered, ctx is done, or sink fails. A tick that finds a
// render in flight is skipped.
func (s *Session) Run(ctx context.Context, interval time.Duration, sink func(*Frame) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		f, err := s.RenderFrame(ctx)
		switch {
		case errors.Is(err, ErrRenderInProgress):
		case err != nil:
			return err
		default:
			if err := sink(f); err != nil {
				return err
			}
			if !f.Transitioning {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
