package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gogpu/gg"

	"projwarp/internal/batch"
	"projwarp/internal/config"
	"projwarp/internal/engine"
	"projwarp/internal/logging"
	"projwarp/internal/scene"
	"projwarp/internal/vector"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	mode := flag.String("mode", "still", "still, strip or gallery")
	sceneFile := flag.String("scene", "", "Scene file (.geojson/.json vector, or PNG/JPEG/TGA/BMP/WebP raster)")
	proj := flag.String("projection", "", "Projection id (default: mercator)")
	to := flag.String("to", "orthographic", "Target projection for -mode strip")
	frames := flag.Int("frames", 8, "Frames in a transition strip")
	scale := flag.Float64("scale", 0, "Scale in pixels per radian (default: 150)")
	rotLon := flag.Float64("lon", 0, "Rotation longitude in degrees")
	rotLat := flag.Float64("lat", 0, "Rotation latitude in degrees")
	width := flag.Int("width", 0, "Output width (default: 800)")
	height := flag.Int("height", 0, "Output height (default: 600)")
	graticule := flag.String("graticule", "", "on or off (default: on)")
	supersample := flag.Int("supersample", 0, "Supersample factor for stills (default: 1)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	accel := flag.String("accelerator", "", "Raster backend: cpu or emulator (default: cpu)")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	format := flag.String("format", "webp", "Output format: webp, png or jpeg")
	quality := flag.Int("quality", 0, "JPEG quality 1-100 (default: 90)")
	thumbs := flag.Int("thumbs", 0, "Gallery thumbnail size in pixels (0: none)")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.SetLogger(logger)
	gg.SetLogger(logger)

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Scene:       *sceneFile,
		OutputDir:   *outputDir,
		Projection:  *proj,
		Scale:       *scale,
		Width:       *width,
		Height:      *height,
		Quality:     *quality,
		Workers:     *workers,
		Supersample: *supersample,
		Accelerator: *accel,
		Graticule:   *graticule,
	})
	if *rotLon != 0 || *rotLat != 0 {
		cfg.Rotation = [2]float64{*rotLon, *rotLat}
	}

	if cfg.Scene == "" {
		fmt.Fprintln(os.Stderr, "Error: no scene. Use -scene or config.json.")
		os.Exit(1)
	}
	scenes := scene.NewCache()
	sc, err := scenes.Get(cfg.Scene)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scene: %v\n", err)
		os.Exit(1)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	f := batch.FormatFor("." + *format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Projection renderer: %s scene, %dx%d\n", sc.Kind(), cfg.Width, cfg.Height)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")
	start := time.Now()

	switch *mode {
	case "still":
		err = still(ctx, cfg, sc, opts, f)
	case "strip":
		err = strip(ctx, cfg, sc, opts, f, *to, *frames)
	case "gallery":
		err = gallery(ctx, cfg, scenes, opts, f, *thumbs)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func outPath(cfg config.Config, name string, f batch.Format) string {
	ext := string(f)
	if f == batch.JPEG {
		ext = "jpg"
	}
	return filepath.Join(cfg.OutputDir, name+"."+ext)
}

func still(ctx context.Context, cfg config.Config, sc scene.Scene, opts []engine.Option, f batch.Format) error {
	s, err := engine.New(append(opts, engine.WithWarningHandler(printWarning))...)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.LoadScene(sc); err != nil {
		return err
	}
	img, err := s.ExportStill(ctx, cfg.Supersample)
	if err != nil {
		return err
	}
	path := outPath(cfg, cfg.Projection, f)
	if err := batch.Save(path, img, cfg.WebPQuality); err != nil {
		return err
	}
	fmt.Printf("Still (%s, backend %s): %s\n", cfg.Projection, s.Backend(), path)
	return nil
}

// stepClock is advanced by hand so strip frames land on exact progress
// values.
type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func strip(ctx context.Context, cfg config.Config, sc scene.Scene, opts []engine.Option, f batch.Format, target string, n int) error {
	n = max(n, 2)
	clock := &stepClock{now: time.Unix(0, 0)}
	s, err := engine.New(append(opts, engine.WithClock(clock), engine.WithWarningHandler(printWarning))...)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.LoadScene(sc); err != nil {
		return err
	}
	if _, err := s.RenderFrame(ctx); err != nil {
		return err
	}
	if err := s.SetProjection(target); err != nil {
		return err
	}

	d := time.Duration(cfg.VectorTransitionMS) * time.Millisecond
	if sc.Kind() == scene.KindRaster {
		d = time.Duration(cfg.RasterTransitionMS) * time.Millisecond
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return err
	}
	start := clock.now
	for i := 0; i < n; i++ {
		clock.now = start.Add(d * time.Duration(i) / time.Duration(n-1))
		fr, err := s.RenderFrame(ctx)
		if err != nil {
			return err
		}
		img := fr.Image()
		if fr.Kind == scene.KindVector {
			if img, err = vector.Rasterize(fr.Paths, fr.Width, fr.Height, vector.DefaultStyle(bg)); err != nil {
				return err
			}
		}
		path := outPath(cfg, fmt.Sprintf("%s-%s-%02d", cfg.Projection, target, i), f)
		if err := batch.Save(path, img, cfg.WebPQuality); err != nil {
			return err
		}
		label := "settled"
		if fr.Transitioning {
			label = fmt.Sprintf("%s %.0f%%", fr.Strategy, fr.Progress*100)
		}
		fmt.Printf("  [%d/%d] %s: %s\n", i+1, n, label, path)
	}
	return nil
}

func gallery(ctx context.Context, cfg config.Config, scenes *scene.Cache, opts []engine.Option, f batch.Format, thumbs int) error {
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return err
	}
	// Sessions share the CPU budget: one raster worker each.
	opts = append(opts, engine.WithWorkers(1))
	results := batch.Run(ctx, batch.Config{
		SceneFile:   cfg.Scene,
		Scenes:      scenes,
		OutputDir:   cfg.OutputDir,
		Parameters:  cfg.Parameters(),
		Options:     opts,
		Format:      f,
		Quality:     cfg.WebPQuality,
		Supersample: cfg.Supersample,
		Thumbnail:   thumbs,
		Background:  bg,
		Workers:     cfg.Workers,
		Report: func(done, total int, elapsed time.Duration) {
			if done > 0 {
				fmt.Printf("  [%d/%d] %.1f projections/sec\n", done, total, float64(done)/elapsed.Seconds())
			}
		},
	})

	success := 0
	var failed []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed = append(failed, r)
		}
		for _, w := range r.Warnings {
			fmt.Printf("  %s: warning: %s\n", r.Projection, w)
		}
	}
	fmt.Printf("Rendered: %d/%d\n", success, len(results))
	for _, r := range failed {
		fmt.Printf("  %s: %s\n", r.Projection, r.Error)
	}

	s, err := engine.New(opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}
	if err := batch.WriteManifest(manifestPath, s.Catalog(), results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d projections failed", len(failed))
	}
	return nil
}

func printWarning(err error) {
	fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
}
