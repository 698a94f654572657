package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gogpu/gg"

	"projwarp/internal/engine"
	"projwarp/internal/gpu"
	"projwarp/internal/projection"
	"projwarp/internal/transition"
	"projwarp/internal/view"
)

// Config holds the scene, view and render settings.
type Config struct {
	// Paths
	Scene     string `json:"scene"`
	OutputDir string `json:"output_dir"`

	// View
	Projection string     `json:"projection"`
	Scale      float64    `json:"scale"`
	Rotation   [2]float64 `json:"rotation"`
	Graticule  *bool      `json:"graticule"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Background string     `json:"background"`

	// Render settings
	Supersample        int    `json:"supersample"`
	WebPQuality        int    `json:"webp_quality"`
	Workers            int    `json:"workers"`
	ChunkRows          int    `json:"chunk_rows"`
	VectorTransitionMS int    `json:"vector_transition_ms"`
	RasterTransitionMS int    `json:"raster_transition_ms"`
	NoScatter          bool   `json:"no_scatter"`
	Accelerator        string `json:"accelerator"`
}

// Defaults applied by Resolve.
const (
	DefaultProjection  = "mercator"
	DefaultBackground  = "#f8f9fa"
	DefaultWebPQuality = 90
	DefaultOutputDir   = "renders"
)

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings. Zero
// values leave the file setting alone.
type Flags struct {
	Scene       string
	OutputDir   string
	Projection  string
	Scale       float64
	Width       int
	Height      int
	Quality     int
	Workers     int
	Supersample int
	Accelerator string
	// Graticule is "on", "off" or empty.
	Graticule string
}

// Resolve applies flags over the file settings, then fills any empty field
// with its default.
func (c *Config) Resolve(flags Flags) {
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Projection != "" {
		c.Projection = flags.Projection
	}
	if flags.Scale > 0 {
		c.Scale = flags.Scale
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Quality > 0 {
		c.WebPQuality = flags.Quality
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Accelerator != "" {
		c.Accelerator = flags.Accelerator
	}
	switch flags.Graticule {
	case "on":
		c.Graticule = boolPtr(true)
	case "off":
		c.Graticule = boolPtr(false)
	}

	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Projection == "" {
		c.Projection = DefaultProjection
	}
	if c.Scale <= 0 {
		c.Scale = projection.DefaultScale
	}
	if c.Graticule == nil {
		c.Graticule = boolPtr(true)
	}
	if c.Width <= 0 {
		c.Width = engine.DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = engine.DefaultHeight
	}
	if c.Background == "" {
		c.Background = DefaultBackground
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.WebPQuality <= 0 {
		c.WebPQuality = DefaultWebPQuality
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ChunkRows <= 0 {
		c.ChunkRows = 50
	}
	if c.VectorTransitionMS <= 0 {
		c.VectorTransitionMS = int(transition.VectorDuration / time.Millisecond)
	}
	if c.RasterTransitionMS <= 0 {
		c.RasterTransitionMS = int(transition.RasterDuration / time.Millisecond)
	}
	if c.Accelerator == "" {
		c.Accelerator = "cpu"
	}
}

func boolPtr(v bool) *bool { return &v }

// Parameters returns the initial view parameters.
func (c *Config) Parameters() view.Parameters {
	p := view.DefaultParameters(c.Projection)
	p.Scale = c.Scale
	p.Rotation = c.Rotation
	p.Graticule = c.Graticule == nil || *c.Graticule
	return p
}

// BackgroundColor parses Background as #RGB, #RGBA, #RRGGBB or #RRGGBBAA.
func (c *Config) BackgroundColor() (color.NRGBA, error) {
	hex := strings.TrimPrefix(c.Background, "#")
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("config: background %q: want 3, 4, 6 or 8 hex digits", c.Background)
	}
	if strings.Trim(strings.ToLower(hex), "0123456789abcdef") != "" {
		return color.NRGBA{}, fmt.Errorf("config: background %q: not hexadecimal", c.Background)
	}
	v := gg.Hex(hex)
	to8 := func(f float64) uint8 { return uint8(f*255 + 0.5) }
	return color.NRGBA{R: to8(v.R), G: to8(v.G), B: to8(v.B), A: to8(v.A)}, nil
}

// EngineOptions converts the resolved config into session options.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	bg, err := c.BackgroundColor()
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithParameters(c.Parameters()),
		engine.WithSize(c.Width, c.Height),
		engine.WithBackground(bg),
		engine.WithWorkers(c.Workers),
		engine.WithChunkRows(c.ChunkRows),
		engine.WithDurations(
			time.Duration(c.VectorTransitionMS)*time.Millisecond,
			time.Duration(c.RasterTransitionMS)*time.Millisecond),
	}
	if c.NoScatter {
		opts = append(opts, engine.WithoutScatter())
	}
	switch c.Accelerator {
	case "cpu", "":
	case "emulator":
		opts = append(opts, engine.WithAccelerator(gpu.NewEmulator()))
	default:
		return nil, fmt.Errorf("config: unknown accelerator %q", c.Accelerator)
	}
	return opts, nil
}
