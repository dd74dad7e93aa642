package capture

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// MaxScaledSize bounds each side of a scaled image.
const MaxScaledSize = 1 << 15

// Scale resizes img to the requested dimensions. A zero width or height means
// "absent": with both absent img is returned unchanged, with one absent the
// other dimension follows the aspect ratio. With both present the image is
// scaled to cover the target box and cropped from the top-left corner, so the
// result is always exactly width x height.
func Scale(img image.Image, width, height int) (image.Image, error) {
	if width < 0 || height < 0 || width > MaxScaledSize || height > MaxScaledSize {
		return nil, fmt.Errorf("target %dx%d: %w", width, height, ErrInvalidDimension)
	}
	if width == 0 && height == 0 {
		return img, nil
	}

	b := img.Bounds()
	src := Size{Width: b.Dx(), Height: b.Dy()}
	if src.Empty() {
		return nil, fmt.Errorf("source %s: %w", src, ErrInvalidDimension)
	}

	switch {
	case height == 0:
		h := math.Round(float64(src.Height) * float64(width) / float64(src.Width))
		return resize(img, b, width, int(math.Min(h, MaxScaledSize+1)))
	case width == 0:
		w := math.Round(float64(src.Width) * float64(height) / float64(src.Height))
		return resize(img, b, int(math.Min(w, MaxScaledSize+1)), height)
	}

	return resize(img, CropRect(b, width, height), width, height)
}

// CropRect returns the top-left part of bounds that covers a width x height
// box once scaled with the aspect ratio kept.
func CropRect(bounds image.Rectangle, width, height int) image.Rectangle {
	f := math.Max(float64(width)/float64(bounds.Dx()), float64(height)/float64(bounds.Dy()))
	w := min(bounds.Dx(), max(1, int(math.Ceil(float64(width)/f))))
	h := min(bounds.Dy(), max(1, int(math.Ceil(float64(height)/f))))
	return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+w, bounds.Min.Y+h)
}

// resize scales the sr part of img into a new width x height image.
func resize(img image.Image, sr image.Rectangle, width, height int) (*image.RGBA, error) {
	size := Size{Width: width, Height: height}
	if size.Empty() || width > MaxScaledSize || height > MaxScaledSize {
		return nil, fmt.Errorf("scaled size %s: %w", size, ErrInvalidDimension)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, sr, draw.Src, nil)
	return dst, nil
}
