package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
)

// Image formats.
const (
	FormatWebP = "webp"
	FormatPNG  = "png"
	FormatBMP  = "bmp"
)

// Encode writes img in the given format. WebP output is lossless.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("PNG encode: %w", err)
		}
	case FormatBMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("BMP encode: %w", err)
		}
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
	return nil
}

// SaveFile encodes img to path, creating parent directories.
func SaveFile(path string, img image.Image, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Encode(f, img, format); err != nil {
		return err
	}
	return f.Close()
}
