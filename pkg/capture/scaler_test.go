package capture

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// split returns a w x h image whose first cut columns (or rows) are red and
// the rest blue.
func split(w, h, cut int, vertical bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pos := x
			if vertical {
				pos = y
			}
			if pos < cut {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	return img
}

func assertColor(t *testing.T, want color.RGBA, got color.Color) {
	t.Helper()
	r, g, b, _ := got.RGBA()
	assert.InDelta(t, want.R, r>>8, 8, "red channel")
	assert.InDelta(t, want.G, g>>8, 8, "green channel")
	assert.InDelta(t, want.B, b>>8, 8, "blue channel")
}

func TestScaleIdentity(t *testing.T) {
	src := split(30, 20, 10, false)

	out, err := Scale(src, 0, 0)

	require.NoError(t, err)
	assert.True(t, out == image.Image(src), "expected the input image back")
}

func TestScaleSingleDimension(t *testing.T) {
	tests := []struct {
		name          string
		src           Size
		width, height int
		want          Size
	}{
		{name: "width only", src: Size{200, 100}, width: 100, want: Size{100, 50}},
		{name: "height only", src: Size{200, 100}, height: 50, want: Size{100, 50}},
		{name: "upscale width", src: Size{100, 30}, width: 250, want: Size{250, 75}},
		{name: "rounding", src: Size{3, 2}, width: 4, want: Size{4, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tc.src.Width, tc.src.Height))

			out, err := Scale(src, tc.width, tc.height)

			require.NoError(t, err)
			assert.Equal(t, tc.want.Width, out.Bounds().Dx())
			assert.Equal(t, tc.want.Height, out.Bounds().Dy())
		})
	}
}

func TestCropRect(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 50, 50), CropRect(image.Rect(0, 0, 100, 50), 60, 60))
	assert.Equal(t, image.Rect(0, 0, 50, 50), CropRect(image.Rect(0, 0, 50, 100), 60, 60))
	assert.Equal(t, image.Rect(0, 0, 1024, 512), CropRect(image.Rect(0, 0, 1024, 512), 200, 100))
	assert.Equal(t, image.Rect(10, 20, 11, 21), CropRect(image.Rect(10, 20, 4106, 21), 1000, 1000))
}

func TestScaleWideSourceKeepsOutputSize(t *testing.T) {
	// covering 1000x1000 from one row needs a 1000x scale; only the
	// top-left pixel lands in the output.
	src := split(4096, 1, 4, false)

	out, err := Scale(src, 1000, 1000)

	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1000, 1000), out.Bounds())
	assertColor(t, red, out.At(500, 500))
}

func TestScaleOversized(t *testing.T) {
	tests := []struct {
		name          string
		src           Size
		width, height int
	}{
		{name: "tall source by width", src: Size{1, 4096}, width: 1000},
		{name: "wide source by height", src: Size{4096, 1}, height: 1000},
		{name: "target width", src: Size{10, 10}, width: MaxScaledSize + 1, height: 10},
		{name: "target height", src: Size{10, 10}, height: MaxScaledSize + 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tc.src.Width, tc.src.Height))

			_, err := Scale(src, tc.width, tc.height)

			assert.ErrorIs(t, err, ErrInvalidDimension)
		})
	}
}

func TestScaleAspectFillCropsTopLeft(t *testing.T) {
	// 100x50 with the left 50 columns red: only the red 50x50 square is
	// scaled into the 60x60 crop.
	out, err := Scale(split(100, 50, 50, false), 60, 60)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 60), out.Bounds())
	assertColor(t, red, out.At(5, 30))
	assertColor(t, red, out.At(50, 30))

	// 50x100 with the top 50 rows red: the bottom half is dropped.
	out, err = Scale(split(50, 100, 50, true), 60, 60)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 60), out.Bounds())
	assertColor(t, red, out.At(30, 5))
	assertColor(t, red, out.At(30, 50))
}

func TestScaleExactDimensions(t *testing.T) {
	sources := []Size{{1, 1}, {37, 91}, {640, 480}, {1024, 600}}
	targets := []Size{{1, 1}, {200, 100}, {13, 777}, {60, 60}}
	for _, src := range sources {
		for _, target := range targets {
			t.Run(fmt.Sprintf("%s_to_%s", src, target), func(t *testing.T) {
				img := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
				out, err := Scale(img, target.Width, target.Height)
				require.NoError(t, err)
				assert.Equal(t, image.Rect(0, 0, target.Width, target.Height), out.Bounds())
			})
		}
	}
}

func TestScaleDoesNotModifySource(t *testing.T) {
	src := split(40, 40, 20, false)
	before := append([]uint8(nil), src.Pix...)

	_, err := Scale(src, 10, 30)

	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
}

func TestScaleInvalidDimension(t *testing.T) {
	tests := []struct {
		name          string
		src           Size
		width, height int
	}{
		{name: "negative width", src: Size{10, 10}, width: -1},
		{name: "negative height", src: Size{10, 10}, width: 10, height: -5},
		{name: "empty source", src: Size{0, 0}, width: 10, height: 10},
		{name: "computed zero height", src: Size{1000, 1}, width: 10},
		{name: "computed zero width", src: Size{1, 1000}, height: 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tc.src.Width, tc.src.Height))
			_, err := Scale(src, tc.width, tc.height)
			assert.ErrorIs(t, err, ErrInvalidDimension)
		})
	}
}
