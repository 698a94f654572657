package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"projwarp/internal/logging"
	"projwarp/internal/projection"
)

// DefaultChunkRows is the number of destination rows processed per chunk.
const DefaultChunkRows = 50

// Forwarder maps a geographic coordinate to the destination plane.
type Forwarder interface {
	Project(lon, lat float64) (x, y float64, ok bool)
}

// Warper renders raster frames in row chunks fanned out over a bounded
// number of workers. Progress, if set, is called after every chunk with the
// completed fraction; calls are serialized and non-decreasing.
type Warper struct {
	Workers    int
	ChunkRows  int
	Background color.NRGBA
	Progress   func(fraction float64)
	// NoScatter disables the forward-scatter fallback for projections
	// without an inverse; such frames are left as background.
	NoScatter bool
}

func (w *Warper) workers() int {
	if w.Workers > 0 {
		return w.Workers
	}
	return runtime.NumCPU()
}

func (w *Warper) chunkRows() int {
	if w.ChunkRows > 0 {
		return w.ChunkRows
	}
	return DefaultChunkRows
}

func (w *Warper) bg() [4]float64 {
	c := w.Background
	return [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
}

// Warp renders src through p into a new width×height frame. Projections with
// an inverse are sampled per destination pixel; others are forward
// scattered. When scattering is disabled the frame is background and the
// error wraps ErrUnsupportedInverse. A cancelled context returns ctx.Err()
// and no frame.
func (w *Warper) Warp(ctx context.Context, src *image.NRGBA, p *projection.Configured, width, height int) (*FrameBuffer, error) {
	if p.HasInverse() {
		return w.Render(ctx, InverseLayer{Proj: p, Src: src}, width, height)
	}
	if w.NoScatter {
		fb := NewFrameBuffer(width, height)
		fb.Fill(w.Background)
		return fb, fmt.Errorf("raster: warp %s: %w", p.ID(), projection.ErrUnsupportedInverse)
	}
	logging.Logger().Debug("raster: no inverse, forward scattering", "projection", p.ID())
	return w.Scatter(ctx, src, p, width, height)
}

// Render fills a frame from a single layer over the background.
func (w *Warper) Render(ctx context.Context, l Layer, width, height int) (*FrameBuffer, error) {
	fb := NewFrameBuffer(width, height)
	fb.Fill(w.Background)
	err := w.rows(ctx, height, func(y int) {
		for x := 0; x < width; x++ {
			if c, ok := l.At(x, y); ok {
				fb.Set(x, y, c)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// Blend renders the transition frame between two layers at progress t.
func (w *Warper) Blend(ctx context.Context, prev, next Layer, t float64, width, height int) (*FrameBuffer, error) {
	bg := w.bg()
	fb := NewFrameBuffer(width, height)
	fb.Fill(w.Background)
	err := w.rows(ctx, height, func(y int) {
		for x := 0; x < width; x++ {
			pc, pok := prev.At(x, y)
			nc, nok := next.At(x, y)
			if c, ok := BlendColor(pc, pok, nc, nok, bg, t); ok {
				fb.Set(x, y, c)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// rows runs fn for every row in [0, height), one chunk per task.
func (w *Warper) rows(ctx context.Context, height int, fn func(y int)) error {
	chunk := w.chunkRows()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers())

	var mu sync.Mutex
	done := 0
	for y0 := 0; y0 < height; y0 += chunk {
		if gctx.Err() != nil {
			break
		}
		y0, y1 := y0, min(y0+chunk, height)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for y := y0; y < y1; y++ {
				fn(y)
			}
			w.report(&mu, &done, y1-y0, height)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.Logger().Debug("raster: pass complete", "rows", height, "chunk", chunk, "workers", w.workers())
	return nil
}

func (w *Warper) report(mu *sync.Mutex, done *int, n, total int) {
	if w.Progress == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	*done += n
	w.Progress(float64(*done) / float64(total))
}

// Scatter forward-projects every source pixel and splats it over the four
// nearest destination pixels with bilinear weights, compositing source-over
// in premultiplied space. Destination pixels no source pixel reaches keep
// the background. Writes overlap, so chunks run sequentially.
func (w *Warper) Scatter(ctx context.Context, src *image.NRGBA, p Forwarder, width, height int) (*FrameBuffer, error) {
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	bg := w.bg()
	acc := make([]float64, width*height*4)
	bga := bg[3] / 255
	for i := 0; i < len(acc); i += 4 {
		acc[i] = bg[0] * bga
		acc[i+1] = bg[1] * bga
		acc[i+2] = bg[2] * bga
		acc[i+3] = bga
	}
	touched := make([]bool, width*height)

	splat := func(px, py int, c [4]float64, weight float64) {
		if px < 0 || py < 0 || px >= width || py >= height || weight <= 0 {
			return
		}
		a := c[3] / 255 * weight
		i := py*width + px
		o := i * 4
		acc[o] = c[0]*a + acc[o]*(1-a)
		acc[o+1] = c[1]*a + acc[o+1]*(1-a)
		acc[o+2] = c[2]*a + acc[o+2]*(1-a)
		acc[o+3] = a + acc[o+3]*(1-a)
		touched[i] = true
	}

	chunk := w.chunkRows()
	for y0 := 0; y0 < sh; y0 += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y1 := min(y0+chunk, sh)
		for sy := y0; sy < y1; sy++ {
			for sx := 0; sx < sw; sx++ {
				lon, lat := projection.ImageToGeo(float64(sx), float64(sy), sw, sh)
				dx, dy, ok := p.Project(lon, lat)
				if !ok {
					continue
				}
				o := sy*src.Stride + sx*4
				c := [4]float64{float64(src.Pix[o]), float64(src.Pix[o+1]), float64(src.Pix[o+2]), float64(src.Pix[o+3])}
				fx0, fy0 := math.Floor(dx), math.Floor(dy)
				fx, fy := dx-fx0, dy-fy0
				ix, iy := int(fx0), int(fy0)
				splat(ix, iy, c, (1-fx)*(1-fy))
				splat(ix+1, iy, c, fx*(1-fy))
				splat(ix, iy+1, c, (1-fx)*fy)
				splat(ix+1, iy+1, c, fx*fy)
			}
		}
		if w.Progress != nil {
			w.Progress(float64(y1) / float64(sh))
		}
	}

	fb := NewFrameBuffer(width, height)
	fb.Fill(w.Background)
	for i, hit := range touched {
		if !hit {
			continue
		}
		o := i * 4
		a := acc[o+3]
		if a <= 0 {
			continue
		}
		fb.Set(i%width, i/width, [4]float64{acc[o] / a, acc[o+1] / a, acc[o+2] / a, a * 255})
	}
	logging.Logger().Debug("raster: scatter complete", "source", fmt.Sprintf("%dx%d", sw, sh), "target", fmt.Sprintf("%dx%d", width, height))
	return fb, nil
}
