// Package engine contains the headless browser backends used to load and
// paint pages for the capture controller.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/root4loot/thumbnailer/pkg/capture"
)

const (
	Chromedp = "chromedp"
	Rod      = "rod"
)

// Names lists the supported engines.
var Names = []string{Chromedp, Rod}

// Browser is a capture.Engine backed by a browser process that must be
// released with Close.
type Browser interface {
	capture.Engine
	capture.LoadErrorer
	Close() error
}

// Options configures the browser process. It is fixed at construction.
type Options struct {
	Headless                bool   // run without a window
	PluginsEnabled          bool   // allow plugin content
	IgnoreCertificateErrors bool   // treat invalid certificates as valid
	DisableHTTP2            bool   // force HTTP/1.1
	UserAgent               string // override the default user agent
	ExecPath                string // browser binary, looked up when empty
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		PluginsEnabled: true,
	}
}

// New starts the engine called name.
func New(ctx context.Context, name string, opts Options) (Browser, error) {
	switch strings.ToLower(name) {
	case "", Chromedp:
		return NewChromedp(ctx, opts)
	case Rod:
		return NewRod(ctx, opts)
	}
	return nil, fmt.Errorf("unknown engine %q (want one of %s)", name, strings.Join(Names, ", "))
}

type flag struct {
	name  string
	value string // empty for switches
}

// flags returns the browser command line switches for o, headless excluded.
func (o Options) flags() []flag {
	fl := []flag{{name: "hide-scrollbars"}}

	if !o.PluginsEnabled {
		fl = append(fl, flag{name: "disable-plugins"}, flag{name: "disable-plugins-discovery"})
	}

	if o.IgnoreCertificateErrors {
		fl = append(fl, flag{name: "ignore-certificate-errors"})
	}

	if o.DisableHTTP2 {
		fl = append(fl, flag{name: "disable-http2"})
	}

	if o.UserAgent != "" {
		fl = append(fl, flag{name: "user-agent", value: o.UserAgent})
	}

	return fl
}

// contentSizeJS measures the laid-out document. A document without any
// element or text in its body reports 0x0.
const contentSizeJS = `() => {
	const root = document.documentElement, body = document.body;
	if (!root || !body) return [0, 0];
	if (body.childElementCount === 0 && body.textContent.trim() === '') return [0, 0];
	return [
		Math.max(root.scrollWidth, body.scrollWidth),
		Math.max(root.scrollHeight, body.scrollHeight),
	];
}`

func sizeOf(dims []float64) (capture.Size, error) {
	if len(dims) != 2 {
		return capture.Size{}, fmt.Errorf("unexpected content size result %v", dims)
	}
	return capture.Size{
		Width:  int(math.Ceil(dims[0])),
		Height: int(math.Ceil(dims[1])),
	}, nil
}

// statusError describes an HTTP error status of the main document.
func statusError(status int) error {
	if status >= 400 {
		return fmt.Errorf("http status %d", status)
	}
	return nil
}
