package capture

import (
	"fmt"
	"image"
	"image/color"
	"net/url"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	imprintPadding = 20
	imprintBorder  = 1
)

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

// Imprint returns a copy of img with a footer band below it showing the
// origin of rawURL. The band adds 2*imprintPadding+imprintBorder rows.
func Imprint(img image.Image, rawURL string) (image.Image, error) {
	origin, err := printableOrigin(rawURL)
	if err != nil {
		return nil, err
	}

	face, err := imprintFace()
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w := b.Dx()
	h := b.Dy() + imprintPadding*2 + imprintBorder
	dc := gg.NewContext(w, h)

	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	yLine := float64(b.Dy())
	dc.SetColor(color.Black)
	dc.SetLineWidth(float64(imprintBorder))
	dc.DrawLine(0, yLine, float64(w), yLine)
	dc.Stroke()
	dc.SetColor(color.White)
	dc.DrawRectangle(0, yLine+imprintBorder, float64(w), float64(imprintPadding*2))
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetFontFace(face)
	dc.DrawStringAnchored(origin, float64(w)/2, yLine+float64(imprintPadding), 0.5, 0.35)

	return dc.Image(), nil
}

// printableOrigin returns scheme://host without default ports.
func printableOrigin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	host := u.Host
	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		host = strings.TrimSuffix(host, ":"+port)
	}
	if u.Scheme == "" {
		return host, nil
	}
	return u.Scheme + "://" + host, nil
}

func imprintFace() (font.Face, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}
	return truetype.NewFace(fontTTF, &truetype.Options{Size: 14}), nil
}
