package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type encoder func(w io.Writer, img image.Image) error

var encoders = map[string]encoder{
	"":      png.Encode,
	".png":  png.Encode,
	".jpg":  jpegEncode,
	".jpeg": jpegEncode,
	".gif":  gifEncode,
	".bmp":  bmp.Encode,
	".tif":  tiffEncode,
	".tiff": tiffEncode,
}

func jpegEncode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
}

func gifEncode(w io.Writer, img image.Image) error {
	return gif.Encode(w, img, nil)
}

func tiffEncode(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// Flatten composites img onto an opaque white background so the written
// file carries no transparency.
func Flatten(img image.Image) image.Image {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	return dc.Image()
}

// WriteImage encodes img to path. The format is chosen from the file
// extension; a path without extension is written as PNG. The parent
// directory must already exist.
func WriteImage(path string, img image.Image) (err error) {
	enc, ok := encoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return fmt.Errorf("%w: unsupported image format %q", ErrWriteFailure, filepath.Ext(path))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWriteFailure, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := enc(file, img); err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrWriteFailure, path, err)
	}
	return nil
}
