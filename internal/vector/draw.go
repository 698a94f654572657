package vector

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// Stroke is a line color, alpha and width.
type Stroke struct {
	Color color.NRGBA
	Alpha float64
	Width float64
}

// Style controls how Rasterize paints each path kind. A zero Fill alpha
// disables filling.
type Style struct {
	Background    color.NRGBA
	SphereFill    color.NRGBA
	Sphere        Stroke
	Graticule     Stroke
	Outline       Stroke
	FeatureFill   color.NRGBA
	FeatureStroke Stroke
}

// DefaultStyle is the still-export style for vector scenes.
func DefaultStyle(bg color.NRGBA) Style {
	return Style{
		Background:    bg,
		SphereFill:    color.NRGBA{0xe3, 0xf2, 0xfd, 0xff},
		Sphere:        Stroke{Color: color.NRGBA{0x54, 0x6e, 0x7a, 0xff}, Alpha: 1, Width: 1},
		Graticule:     Stroke{Color: color.NRGBA{0x90, 0xa4, 0xae, 0xff}, Alpha: 0.6, Width: 0.5},
		Outline:       Stroke{Color: color.NRGBA{0x78, 0x90, 0x9c, 0xff}, Alpha: 1, Width: 1},
		FeatureFill:   color.NRGBA{0x81, 0xc7, 0x84, 0xcc},
		FeatureStroke: Stroke{Color: color.NRGBA{0x2e, 0x7d, 0x32, 0xff}, Alpha: 1, Width: 0.75},
	}
}

// Scaled returns the style with every stroke k times wider, for rendering at
// k times the output size.
func (s Style) Scaled(k float64) Style {
	for _, st := range []*Stroke{&s.Sphere, &s.Graticule, &s.Outline, &s.FeatureStroke} {
		st.Width *= k
	}
	return s
}

// OverlayStyle draws a white graticule over raster frames.
func OverlayStyle() Style {
	white := color.NRGBA{0xff, 0xff, 0xff, 0xff}
	return Style{
		Graticule: Stroke{Color: white, Alpha: 0.7, Width: 1},
		Outline:   Stroke{Color: white, Alpha: 0.8, Width: 2},
	}
}

// Rasterize paints paths onto a new width×height image.
func Rasterize(paths []Path, width, height int, style Style) (*image.NRGBA, error) {
	dc := gg.NewContext(width, height)
	defer dc.Close()
	dc.ClearWithColor(gg.FromColor(style.Background))
	if err := paint(dc, paths, style); err != nil {
		return nil, err
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("vector: flush: %w", err)
	}
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Rect, dc.Image(), image.Point{}, draw.Src)
	return out, nil
}

// Overlay strokes the graticule and outline paths onto dst in place. dst is
// untouched when painting fails.
func Overlay(dst *image.NRGBA, paths []Path, style Style) error {
	var grid []Path
	for _, p := range paths {
		if p.Kind == KindGraticule || p.Kind == KindOutline {
			grid = append(grid, p)
		}
	}
	if len(grid) == 0 {
		return nil
	}
	dc := gg.NewContextForImage(dst)
	defer dc.Close()
	if err := paint(dc, grid, style); err != nil {
		return err
	}
	if err := dc.FlushGPU(); err != nil {
		return fmt.Errorf("vector: flush: %w", err)
	}
	draw.Draw(dst, dst.Rect, dc.Image(), image.Point{}, draw.Src)
	return nil
}

func paint(dc *gg.Context, paths []Path, style Style) error {
	for _, p := range paths {
		var fill color.NRGBA
		var stroke Stroke
		switch p.Kind {
		case KindSphere:
			fill, stroke = style.SphereFill, style.Sphere
		case KindGraticule:
			stroke = style.Graticule
		case KindOutline:
			stroke = style.Outline
		default:
			fill, stroke = style.FeatureFill, style.FeatureStroke
		}
		opacity := p.Opacity
		if fill.A > 0 && trace(dc, p, true) {
			setColor(dc, fill, float64(fill.A)/255*opacity)
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		if stroke.Width > 0 && stroke.Alpha > 0 && trace(dc, p, false) {
			setColor(dc, stroke.Color, stroke.Alpha*opacity)
			dc.SetLineWidth(stroke.Width)
			if err := dc.Stroke(); err != nil {
				return err
			}
		}
	}
	return nil
}

// trace loads p into the context path; closedOnly restricts it to closed
// rings and circles. It reports whether anything was traced.
func trace(dc *gg.Context, p Path, closedOnly bool) bool {
	dc.ClearPath()
	traced := false
	for _, l := range p.Lines {
		if closedOnly && !l.Closed {
			continue
		}
		for i, pt := range l.Points {
			if i == 0 {
				dc.MoveTo(pt.X, pt.Y)
			} else {
				dc.LineTo(pt.X, pt.Y)
			}
		}
		if l.Closed {
			dc.ClosePath()
		}
		traced = true
	}
	for _, c := range p.Circles {
		dc.DrawCircle(c.X, c.Y, p.Radius)
		traced = true
	}
	return traced
}

func setColor(dc *gg.Context, c color.NRGBA, alpha float64) {
	dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, alpha)
}
