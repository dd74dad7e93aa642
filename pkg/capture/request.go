package capture

import (
	"fmt"
	"time"
)

const (
	DefaultOutputPath   = "out.png"
	DefaultWindowWidth  = 1024
	DefaultWindowHeight = 768
	DefaultMaxViewport  = 4096
)

// Size is a width/height pair in CSS pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether s has zero (or negative) area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Request describes a single capture. It is passed by value and never
// modified once built.
type Request struct {
	URL            string
	OutputPath     string
	TargetWidth    int           // 0 when absent
	TargetHeight   int           // 0 when absent
	WindowWidth    int           // initial layout width
	WindowHeight   int           // initial layout height
	Timeout        time.Duration // 0 disables the forced capture
	PluginsEnabled bool
	MaxViewport    Size // upper bound for the content-sized viewport
	Imprint        bool // append a footer band with the page origin
}

// NewRequest returns a Request for url with default sizes.
func NewRequest(url string) Request {
	return Request{
		URL:            url,
		OutputPath:     DefaultOutputPath,
		WindowWidth:    DefaultWindowWidth,
		WindowHeight:   DefaultWindowHeight,
		PluginsEnabled: true,
		MaxViewport:    Size{Width: DefaultMaxViewport, Height: DefaultMaxViewport},
	}
}

// Validate checks the request before anything is loaded.
func (r Request) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("missing url")
	}
	if r.OutputPath == "" {
		return fmt.Errorf("missing output path")
	}
	if r.WindowWidth <= 0 || r.WindowHeight <= 0 {
		return fmt.Errorf("window size %dx%d: %w", r.WindowWidth, r.WindowHeight, ErrInvalidDimension)
	}
	if r.TargetWidth < 0 || r.TargetHeight < 0 || r.TargetWidth > MaxScaledSize || r.TargetHeight > MaxScaledSize {
		return fmt.Errorf("target size %dx%d: %w", r.TargetWidth, r.TargetHeight, ErrInvalidDimension)
	}
	if r.MaxViewport.Empty() {
		return fmt.Errorf("max viewport %s: %w", r.MaxViewport, ErrInvalidDimension)
	}
	if r.Timeout < 0 {
		return fmt.Errorf("negative timeout %v", r.Timeout)
	}
	return nil
}

// Window returns the initial layout viewport.
func (r Request) Window() Size {
	return Size{Width: r.WindowWidth, Height: r.WindowHeight}
}
