package batch

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"projwarp/internal/engine"
	"projwarp/internal/postprocess"
	"projwarp/internal/scene"
	"projwarp/internal/view"
)

// Config holds the shared inputs of a gallery run.
type Config struct {
	Scene scene.Scene
	// SceneFile is loaded through Scenes when Scene is nil. Workers share
	// the cache so the file is decoded once.
	SceneFile  string
	Scenes     *scene.Cache
	OutputDir  string
	Parameters view.Parameters
	// Projections to render; empty means every catalog entry.
	Projections []string
	// Options are applied to every session before the per-projection
	// parameters.
	Options     []engine.Option
	Format      Format
	Quality     int
	Supersample int
	// Thumbnail is the thumbnail edge in pixels; 0 disables thumbnails.
	Thumbnail  int
	Background color.NRGBA
	Workers    int
	// Report, if set, is called every ReportEvery with the number of
	// finished projections.
	Report      func(done, total int, elapsed time.Duration)
	ReportEvery time.Duration
}

// Result holds the outcome of rendering one projection.
type Result struct {
	Projection string
	Image      string
	Thumbnail  string
	Success    bool
	Warnings   []string
	Error      string
}

// Run renders the scene under every requested projection using a worker
// pool. Results are in projection order.
func Run(ctx context.Context, cfg Config) []Result {
	ids := cfg.Projections
	if len(ids) == 0 {
		s, err := engine.New(cfg.Options...)
		if err != nil {
			return []Result{{Error: err.Error()}}
		}
		ids = s.Catalog().IDs()
		s.Close()
	}
	total := len(ids)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := max(1, cfg.Workers)

	start := time.Now()

	done := make(chan struct{})
	if cfg.Report != nil {
		every := cfg.ReportEvery
		if every <= 0 {
			every = 2 * time.Second
		}
		go func() {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					cfg.Report(int(processed.Load()), total, time.Since(start))
				}
			}
		}()
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = renderProjection(ctx, cfg, ids[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range ids {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func renderProjection(ctx context.Context, cfg Config, id string) Result {
	res := Result{Projection: id}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	p := cfg.Parameters
	p.ProjectionID = id
	opts := append(append([]engine.Option{}, cfg.Options...),
		engine.WithParameters(p),
		engine.WithWarningHandler(func(err error) { res.Warnings = append(res.Warnings, err.Error()) }))
	s, err := engine.New(opts...)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer s.Close()
	sc, err := cfg.scene()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if err := s.LoadScene(sc); err != nil {
		res.Error = err.Error()
		return res
	}

	img, err := s.ExportStill(ctx, cfg.Supersample)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	format := cfg.Format
	if format == "" {
		format = WebP
	}
	res.Image = fmt.Sprintf("%s.%s", id, extension(format))
	if err := Save(filepath.Join(cfg.OutputDir, res.Image), img, cfg.Quality); err != nil {
		res.Error = err.Error()
		return res
	}

	if cfg.Thumbnail > 0 {
		res.Thumbnail = filepath.ToSlash(filepath.Join("thumbs", res.Image))
		th := postprocess.Thumbnail(img, cfg.Thumbnail, cfg.Background)
		if err := Save(filepath.Join(cfg.OutputDir, res.Thumbnail), th, cfg.Quality); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.Success = true
	return res
}

func (cfg Config) scene() (scene.Scene, error) {
	if cfg.Scene != nil || cfg.SceneFile == "" {
		return cfg.Scene, nil
	}
	if cfg.Scenes == nil {
		return scene.Load(cfg.SceneFile)
	}
	return cfg.Scenes.Get(cfg.SceneFile)
}

func extension(f Format) string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}
