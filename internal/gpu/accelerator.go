package gpu

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"projwarp/internal/logging"
	"projwarp/internal/projection"
	"projwarp/internal/raster"
)

// ErrFallbackToCPU indicates the accelerator cannot handle a dispatch.
// The caller falls back to the CPU warp.
var ErrFallbackToCPU = errors.New("gpu: falling back to CPU warp")

// Job is one dispatch of the warp shader.
type Job struct {
	Uniforms Uniforms
	Source   []uint32
}

// Accelerator runs the warp shader on some device.
//
// Dispatch writes one packed pixel per destination pixel into dst, which has
// DstSize[0]*DstSize[1] words. Returning ErrFallbackToCPU, or any other
// error, makes the Path redo the frame on the CPU.
type Accelerator interface {
	Name() string
	Init() error
	Close()
	Dispatch(ctx context.Context, job Job, dst []uint32) error
}

// Path routes raster warps to an accelerator when one is available and the
// projections are supported, and to the CPU warper otherwise.
type Path struct {
	mu    sync.RWMutex
	accel Accelerator
	cpu   *raster.Warper

	// OnFallback, if set, is told why a dispatch fell back to the CPU.
	OnFallback func(err error)
}

// NewPath initializes a. A nil accelerator, or one whose Init fails, leaves
// the path CPU-only.
func NewPath(a Accelerator, cpu *raster.Warper) *Path {
	p := &Path{cpu: cpu}
	if a == nil {
		return p
	}
	if err := a.Init(); err != nil {
		logging.Logger().Warn("gpu: accelerator unavailable, using CPU", "accelerator", a.Name(), "error", err)
		return p
	}
	p.accel = a
	logging.Logger().Debug("gpu: accelerator ready", "accelerator", a.Name())
	return p
}

// Name returns the active accelerator name, or "cpu".
func (p *Path) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.accel == nil {
		return "cpu"
	}
	return p.accel.Name()
}

// Close releases the accelerator. Later warps run on the CPU.
func (p *Path) Close() {
	p.mu.Lock()
	a := p.accel
	p.accel = nil
	p.mu.Unlock()
	if a != nil {
		a.Close()
	}
}

// Warp renders src through next.
func (p *Path) Warp(ctx context.Context, src *image.NRGBA, next *projection.Configured, width, height int) (*raster.FrameBuffer, error) {
	if fb, ok := p.dispatch(ctx, src, nil, next, 0, width, height); ok {
		return fb, nil
	}
	return p.cpu.Warp(ctx, src, next, width, height)
}

// Blend renders the transition frame between prev and next at progress t.
func (p *Path) Blend(ctx context.Context, src *image.NRGBA, prev, next *projection.Configured, t float64, width, height int) (*raster.FrameBuffer, error) {
	if fb, ok := p.dispatch(ctx, src, prev, next, t, width, height); ok {
		return fb, nil
	}
	return p.cpu.Blend(ctx,
		raster.InverseLayer{Proj: prev, Src: src},
		raster.InverseLayer{Proj: next, Src: src},
		t, width, height)
}

// dispatch tries the accelerator. ok is false when the CPU must render.
// Accelerated frames carry no validity mask and are marked fully valid.
func (p *Path) dispatch(ctx context.Context, src *image.NRGBA, prev, next *projection.Configured, t float64, width, height int) (*raster.FrameBuffer, bool) {
	p.mu.RLock()
	a := p.accel
	p.mu.RUnlock()
	if a == nil {
		return nil, false
	}
	job, err := newJob(src, prev, next, t, width, height, p.cpu.Background)
	if err != nil {
		p.fallback(a, err)
		return nil, false
	}
	dst := make([]uint32, width*height)
	if err := a.Dispatch(ctx, job, dst); err != nil {
		if ctx.Err() == nil {
			p.fallback(a, err)
		}
		return nil, false
	}
	return raster.FromImage(UnpackImage(dst, width, height)), true
}

func (p *Path) fallback(a Accelerator, err error) {
	if errors.Is(err, ErrFallbackToCPU) {
		logging.Logger().Debug("gpu: CPU fallback", "accelerator", a.Name(), "reason", err)
	} else {
		logging.Logger().Warn("gpu: dispatch failed, using CPU", "accelerator", a.Name(), "error", err)
	}
	if p.OnFallback != nil {
		p.OnFallback(err)
	}
}

func newJob(src *image.NRGBA, prev, next *projection.Configured, t float64, width, height int, bg color.NRGBA) (Job, error) {
	ns, ok := NewSide(next)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s not supported by the warp shader", ErrFallbackToCPU, next.ID())
	}
	u := Uniforms{
		Next:       ns,
		DstSize:    [2]uint32{uint32(width), uint32(height)},
		SrcSize:    [2]uint32{uint32(src.Rect.Dx()), uint32(src.Rect.Dy())},
		Background: bg,
	}
	if prev != nil {
		ps, ok := NewSide(prev)
		if !ok {
			return Job{}, fmt.Errorf("%w: %s not supported by the warp shader", ErrFallbackToCPU, prev.ID())
		}
		u.Prev = ps
		u.Blending = true
		u.Progress = float32(t)
	}
	return Job{Uniforms: u, Source: PackImage(src)}, nil
}
