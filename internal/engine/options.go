package engine

import (
	"image/color"
	"time"

	"projwarp/internal/gpu"
	"projwarp/internal/projection"
	"projwarp/internal/transition"
	"projwarp/internal/view"
)

// DefaultBackground is the fill for pixels no projection reaches (#f8f9fa).
var DefaultBackground = color.NRGBA{0xf8, 0xf9, 0xfa, 0xff}

// Default render target size.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

type options struct {
	catalog     *projection.Catalog
	params      view.Parameters
	width       int
	height      int
	clock       transition.Clock
	warn        func(error)
	progress    func(float64)
	accelerator gpu.Accelerator
	workers     int
	chunkRows   int
	vectorDur   time.Duration
	rasterDur   time.Duration
	background  color.NRGBA
	noScatter   bool
}

func defaultOptions() options {
	return options{
		params:     view.DefaultParameters("mercator"),
		width:      DefaultWidth,
		height:     DefaultHeight,
		clock:      transition.SystemClock,
		vectorDur:  transition.VectorDuration,
		rasterDur:  transition.RasterDuration,
		background: DefaultBackground,
	}
}

// Option configures a Session.
type Option func(*options)

// WithCatalog replaces the built-in projection catalog.
func WithCatalog(c *projection.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithParameters sets the initial view parameters.
func WithParameters(p view.Parameters) Option {
	return func(o *options) { o.params = p }
}

// WithSize sets the initial render target size.
func WithSize(width, height int) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithClock sets the clock transitions are timed against.
func WithClock(c transition.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithWarningHandler receives every recovered condition, such as an
// unsupported inverse or a GPU fallback.
func WithWarningHandler(fn func(error)) Option {
	return func(o *options) { o.warn = fn }
}

// WithProgress receives the completed fraction of long raster passes.
func WithProgress(fn func(float64)) Option {
	return func(o *options) { o.progress = fn }
}

// WithAccelerator routes raster warps through a.
func WithAccelerator(a gpu.Accelerator) Option {
	return func(o *options) { o.accelerator = a }
}

// WithWorkers bounds the raster worker pool. Zero means one per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithChunkRows sets the rows per raster work unit.
func WithChunkRows(n int) Option {
	return func(o *options) { o.chunkRows = n }
}

// WithDurations sets the vector and raster transition durations.
func WithDurations(vector, raster time.Duration) Option {
	return func(o *options) { o.vectorDur, o.rasterDur = vector, raster }
}

// WithBackground sets the background fill.
func WithBackground(c color.NRGBA) Option {
	return func(o *options) { o.background = c }
}

// WithoutScatter disables the forward-scatter fallback; raster frames of
// projections without an inverse are then background with a warning.
func WithoutScatter() Option {
	return func(o *options) { o.noScatter = true }
}
