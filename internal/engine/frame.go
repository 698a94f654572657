package engine

import (
	"image"

	"projwarp/internal/raster"
	"projwarp/internal/scene"
	"projwarp/internal/transition"
	"projwarp/internal/vector"
)

// Frame is one rendered target. Vector frames carry paths, raster frames a
// pixel buffer.
type Frame struct {
	Kind       scene.Kind
	Width      int
	Height     int
	Projection string

	Paths  []vector.Path
	Raster *raster.FrameBuffer

	// Transitioning is set for intermediate frames; Strategy and Progress
	// then describe the running transition.
	Transitioning bool
	Strategy      transition.Strategy
	Progress      float64

	// Warnings lists the conditions recovered while rendering this frame.
	Warnings []error
}

// Strings returns the SVG path data of a vector frame.
func (f *Frame) Strings() []string {
	return vector.Strings(f.Paths)
}

// Image returns the pixels of a raster frame, or nil for vector frames.
func (f *Frame) Image() *image.NRGBA {
	if f.Raster == nil {
		return nil
	}
	return f.Raster.Image()
}
