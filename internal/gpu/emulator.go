package gpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"sync"

	"projwarp/internal/mathutil"
	"projwarp/internal/projection"
	"projwarp/internal/raster"
)

// Emulator is a host-side Accelerator. It decodes the packed uniform block
// exactly as the shader reads it and evaluates the same per-pixel program,
// which makes it the reference for the buffer layout.
//
// One Emulator may back many sessions at once. Init builds the index table
// once and Dispatch only reads it.
type Emulator struct {
	catalog *projection.Catalog
	once    sync.Once
	initErr error
	byIndex map[uint32]*projection.Definition
}

// NewEmulator returns an emulator over the built-in catalog.
func NewEmulator() *Emulator {
	return &Emulator{catalog: projection.Default()}
}

func (e *Emulator) Name() string { return "emulator" }

func (e *Emulator) Init() error {
	e.once.Do(func() {
		byIndex := make(map[uint32]*projection.Definition, len(shaderIndex))
		for id, i := range shaderIndex {
			d, err := e.catalog.Get(id)
			if err != nil {
				e.initErr = err
				return
			}
			byIndex[i] = d
		}
		e.byIndex = byIndex
	})
	return e.initErr
}

func (e *Emulator) Close() {}

func (e *Emulator) Dispatch(ctx context.Context, job Job, dst []uint32) error {
	u, err := DecodeUniforms(job.Uniforms.Bytes())
	if err != nil {
		return err
	}
	w, h := int(u.DstSize[0]), int(u.DstSize[1])
	sw, sh := int(u.SrcSize[0]), int(u.SrcSize[1])
	if len(dst) < w*h || len(job.Source) < sw*sh {
		return fmt.Errorf("gpu: buffer too small for %dx%d dispatch", w, h)
	}
	next, err := e.side(u.Next)
	if err != nil {
		return err
	}
	var prev *projection.Configured
	if u.Blending {
		if prev, err = e.side(u.Prev); err != nil {
			return err
		}
	}

	src := UnpackImage(job.Source, sw, sh)
	bgc := UnpackRGBA(PackRGBA(u.Background))
	bg := [4]float64{float64(bgc.R), float64(bgc.G), float64(bgc.B), float64(bgc.A)}
	t := float64(u.Progress)
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := 0; x < w; x++ {
			nc, nok := layer(next, src).At(x, y)
			if !u.Blending {
				if !nok {
					nc = bg
				}
				dst[y*w+x] = packFloat(nc)
				continue
			}
			pc, pok := layer(prev, src).At(x, y)
			c, _ := raster.BlendColor(pc, pok, nc, nok, bg, t)
			dst[y*w+x] = packFloat(c)
		}
	}
	return nil
}

func layer(c *projection.Configured, src *image.NRGBA) raster.InverseLayer {
	return raster.InverseLayer{Proj: c, Src: src}
}

// side rebuilds a configured projection from its packed form.
func (e *Emulator) side(s Side) (*projection.Configured, error) {
	d, ok := e.byIndex[s.Proj]
	if !ok || !s.Enabled {
		return nil, fmt.Errorf("%w: shader index %d", ErrFallbackToCPU, s.Proj)
	}
	var rot mathutil.Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rot[r*3+c] = float64(s.Rotation[r][c])
		}
	}
	p := projection.Params{
		Scale:     float64(s.Scale),
		Translate: [2]float64{float64(s.Translate[0]), float64(s.Translate[1])},
		ReflectX:  s.ReflectX,
		ReflectY:  s.ReflectY,
	}
	if s.CosClip >= -1 {
		p.ClipAngle = mathutil.Rad2Deg(math.Acos(float64(s.CosClip)))
	}
	return projection.NewConfigured(d.ID, d.Forward, d.Inverse, 0, p, rot), nil
}

func packFloat(c [4]float64) uint32 {
	var v uint32
	for i, ch := range c {
		q := uint32(math.Max(0, math.Min(255, ch)) + 0.5)
		v |= q << (8 * i)
	}
	return v
}

// DecodeUniforms parses a uniform block produced by Uniforms.Bytes.
func DecodeUniforms(b []byte) (Uniforms, error) {
	if len(b) != UniformsSize {
		return Uniforms{}, fmt.Errorf("gpu: uniform block is %d bytes, want %d", len(b), UniformsSize)
	}
	le := binary.LittleEndian
	f32 := func(off int) float32 { return math.Float32frombits(le.Uint32(b[off:])) }
	side := func(b []byte) Side {
		var s Side
		for r := 0; r < 3; r++ {
			for c := 0; c < 4; c++ {
				s.Rotation[r][c] = math.Float32frombits(le.Uint32(b[(r*4+c)*4:]))
			}
		}
		s.Translate = [2]float32{math.Float32frombits(le.Uint32(b[48:])), math.Float32frombits(le.Uint32(b[52:]))}
		s.Scale = math.Float32frombits(le.Uint32(b[56:]))
		s.CosClip = math.Float32frombits(le.Uint32(b[60:]))
		s.Proj = le.Uint32(b[64:])
		s.ReflectX = le.Uint32(b[68:]) != 0
		s.ReflectY = le.Uint32(b[72:]) != 0
		s.Enabled = le.Uint32(b[76:]) != 0
		return s
	}
	off := 2 * SideSize
	return Uniforms{
		Prev:       side(b[0:SideSize]),
		Next:       side(b[SideSize : 2*SideSize]),
		DstSize:    [2]uint32{le.Uint32(b[off:]), le.Uint32(b[off+4:])},
		SrcSize:    [2]uint32{le.Uint32(b[off+8:]), le.Uint32(b[off+12:])},
		Progress:   f32(off + 16),
		Blending:   le.Uint32(b[off+20:]) != 0,
		Background: UnpackRGBA(le.Uint32(b[off+24:])),
	}, nil
}
