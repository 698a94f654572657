package batch

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image encoding.
type Format string

const (
	WebP Format = "webp"
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// FormatFor picks the encoding from a file extension. Unknown extensions
// encode as WebP.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG
	case ".jpg", ".jpeg":
		return JPEG
	}
	return WebP
}

// Encode writes img in format f. quality applies to JPEG only; WebP output
// is lossless.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
	return nativewebp.Encode(w, img, nil)
}

// Save writes img to path, creating parent directories.
func Save(path string, img image.Image, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, FormatFor(path), quality); err != nil {
		f.Close()
		return fmt.Errorf("%s encode: %w", FormatFor(path), err)
	}
	return f.Close()
}
