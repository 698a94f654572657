package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Load reads a scene file. .geojson and .json files are vector scenes; any
// other extension is decoded as a raster image (PNG, JPEG, TGA, BMP, WebP).
func Load(path string) (Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		v, err := ParseVector(raw)
		if err != nil {
			return nil, fmt.Errorf("scene: parse %s: %w", path, err)
		}
		return v, nil
	}
	r, err := DecodeRaster(raw)
	if err != nil {
		return nil, fmt.Errorf("scene: decode %s: %w", path, err)
	}
	return r, nil
}

// DecodeRaster decodes an encoded image into a Raster.
func DecodeRaster(data []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRaster, err)
	}
	return NewRaster(img)
}

// toNRGBA converts any image to NRGBA with a zero-origin rectangle.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
