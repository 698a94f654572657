package gpu

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"projwarp/internal/projection"
)

// Byte sizes of the uniform blocks in shaders/warp.wgsl.
const (
	SideSize     = 80
	UniformsSize = 2*SideSize + 32
)

// shaderIndex maps projection IDs to the switch arms of raw_invert.
var shaderIndex = map[string]uint32{
	"mercator":             0,
	"stereographic":        1,
	"equalEarth":           2,
	"mollweide":            3,
	"azimuthalEquidistant": 4,
	"orthographic":         5,
	"gnomonic":             6,
	"naturalEarth1":        7,
	"equirectangular":      8,
}

// ShaderIndex returns the shader's index for a projection ID.
func ShaderIndex(id string) (uint32, bool) {
	i, ok := shaderIndex[id]
	return i, ok
}

// Supported reports whether c can be inverted by the warp shader.
func Supported(c *projection.Configured) bool {
	if c == nil || !c.HasInverse() || c.Params().ClipExtent != nil {
		return false
	}
	_, ok := shaderIndex[c.ID()]
	return ok
}

// Side mirrors the WGSL Side struct.
type Side struct {
	Rotation  [3][4]float32 // rows of the view rotation matrix, w unused
	Translate [2]float32
	Scale     float32
	CosClip   float32 // -2 when unclipped
	Proj      uint32
	ReflectX  bool
	ReflectY  bool
	Enabled   bool
}

// NewSide packs a configured projection. It returns false for projections
// the shader cannot invert.
func NewSide(c *projection.Configured) (Side, bool) {
	if !Supported(c) {
		return Side{}, false
	}
	p := c.Params()
	rot := c.Rotation()
	s := Side{
		Translate: [2]float32{float32(p.Translate[0]), float32(p.Translate[1])},
		Scale:     float32(p.Scale),
		CosClip:   -2,
		Proj:      shaderIndex[c.ID()],
		ReflectX:  p.ReflectX,
		ReflectY:  p.ReflectY,
		Enabled:   true,
	}
	for r := 0; r < 3; r++ {
		row := rot.Row(r)
		s.Rotation[r] = [4]float32{float32(row[0]), float32(row[1]), float32(row[2])}
	}
	if p.ClipAngle > 0 {
		s.CosClip = float32(math.Cos(p.ClipAngle * math.Pi / 180))
	}
	return s, true
}

func (s Side) put(b []byte) {
	le := binary.LittleEndian
	off := 0
	for r := 0; r < 3; r++ {
		for col := 0; col < 4; col++ {
			le.PutUint32(b[off:], math.Float32bits(s.Rotation[r][col]))
			off += 4
		}
	}
	le.PutUint32(b[48:], math.Float32bits(s.Translate[0]))
	le.PutUint32(b[52:], math.Float32bits(s.Translate[1]))
	le.PutUint32(b[56:], math.Float32bits(s.Scale))
	le.PutUint32(b[60:], math.Float32bits(s.CosClip))
	le.PutUint32(b[64:], s.Proj)
	le.PutUint32(b[68:], boolWord(s.ReflectX))
	le.PutUint32(b[72:], boolWord(s.ReflectY))
	le.PutUint32(b[76:], boolWord(s.Enabled))
}

// Uniforms mirrors the WGSL Uniforms struct.
type Uniforms struct {
	Prev, Next Side
	DstSize    [2]uint32
	SrcSize    [2]uint32
	Progress   float32
	Blending   bool
	Background color.NRGBA
}

// Bytes encodes u in std140-compatible little-endian layout.
func (u Uniforms) Bytes() []byte {
	b := make([]byte, UniformsSize)
	u.Prev.put(b[0:SideSize])
	u.Next.put(b[SideSize : 2*SideSize])
	le := binary.LittleEndian
	off := 2 * SideSize
	le.PutUint32(b[off:], u.DstSize[0])
	le.PutUint32(b[off+4:], u.DstSize[1])
	le.PutUint32(b[off+8:], u.SrcSize[0])
	le.PutUint32(b[off+12:], u.SrcSize[1])
	le.PutUint32(b[off+16:], math.Float32bits(u.Progress))
	le.PutUint32(b[off+20:], boolWord(u.Blending))
	le.PutUint32(b[off+24:], PackRGBA(u.Background))
	return b
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// PackRGBA packs a colour with red in the low byte, matching the shader's
// unpack.
func PackRGBA(c color.NRGBA) uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
}

// UnpackRGBA is the inverse of PackRGBA.
func UnpackRGBA(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: uint8(v >> 24)}
}

// PackImage flattens img into one word per pixel for the source buffer.
func PackImage(img *image.NRGBA) []uint32 {
	b := img.Bounds()
	out := make([]uint32, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			out = append(out, binary.LittleEndian.Uint32(row[x*4:]))
		}
	}
	return out
}

// UnpackImage rebuilds a width×height image from the destination buffer.
func UnpackImage(words []uint32, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height && i < len(words); i++ {
		binary.LittleEndian.PutUint32(img.Pix[i*4:], words[i])
	}
	return img
}
