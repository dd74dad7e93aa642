package thumbnailer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/root4loot/goutils/log"

	"github.com/root4loot/thumbnailer/pkg/capture"
	"github.com/root4loot/thumbnailer/pkg/engine"
)

const Version = "0.1.0"

type Runner struct {
	Options   *Options
	newEngine func(ctx context.Context, name string, opts engine.Options) (engine.Browser, error)
}

// Options contains options for the runner
type Options struct {
	OutputPath              string  `yaml:"out"`                       // Output image path
	Width                   int     `yaml:"width"`                     // Output width (0 keeps aspect)
	Height                  int     `yaml:"height"`                    // Output height (0 keeps aspect)
	WindowWidth             int     `yaml:"window_width"`              // Layout viewport width
	WindowHeight            int     `yaml:"window_height"`             // Layout viewport height
	MaxWidth                int     `yaml:"max_width"`                 // Capture viewport width bound
	MaxHeight               int     `yaml:"max_height"`                // Capture viewport height bound
	Timeout                 float64 `yaml:"timeout"`                   // Forced capture deadline (seconds, 0 = none)
	NoPlugins               bool    `yaml:"noplugin"`                  // Disable plugins
	Imprint                 bool    `yaml:"imprint"`                   // Add origin footer to the image
	Engine                  string  `yaml:"engine"`                    // chromedp or rod
	UserAgent               string  `yaml:"user_agent"`                // User agent to use
	IgnoreCertificateErrors bool    `yaml:"ignore_certificate_errors"` // Ignore certificate errors
	DisableHTTP2            bool    `yaml:"disable_http2"`             // Disable HTTP2
	Headless                bool    `yaml:"headless"`                  // Run in headless mode
	ChromePath              string  `yaml:"chrome_path"`               // Browser binary
	Debug                   bool    `yaml:"debug"`                     // Verbose logging
}

func init() {
	log.Init("thumbnailer")
}

// DefaultOptions returns default options
func DefaultOptions() *Options {
	return &Options{
		OutputPath:   capture.DefaultOutputPath,
		WindowWidth:  capture.DefaultWindowWidth,
		WindowHeight: capture.DefaultWindowHeight,
		MaxWidth:     capture.DefaultMaxViewport,
		MaxHeight:    capture.DefaultMaxViewport,
		Engine:       engine.Chromedp,
		Headless:     true,
	}
}

// NewRunner returns a new runner
func NewRunner() *Runner {
	return NewRunnerWithOptions(*DefaultOptions())
}

// NewRunnerWithOptions returns a new runner with the specified options
func NewRunnerWithOptions(options Options) *Runner {
	SetLogLevel(&options)
	log.Debug("Creating new runner with options...")

	return &Runner{
		Options:   &options,
		newEngine: engine.New,
	}
}

// Request builds the capture request for url.
func (r *Runner) Request(url string) (capture.Request, error) {
	req := capture.NewRequest(url)
	req.OutputPath = r.Options.OutputPath
	req.TargetWidth = r.Options.Width
	req.TargetHeight = r.Options.Height
	req.WindowWidth = r.Options.WindowWidth
	req.WindowHeight = r.Options.WindowHeight
	req.MaxViewport = capture.Size{Width: r.Options.MaxWidth, Height: r.Options.MaxHeight}
	req.PluginsEnabled = !r.Options.NoPlugins
	req.Imprint = r.Options.Imprint

	timeout, err := timeoutDuration(r.Options.Timeout)
	if err != nil {
		return req, err
	}
	req.Timeout = timeout
	return req, req.Validate()
}

// timeoutDuration converts seconds to a duration. Values too large for a
// time.Duration are clamped to the largest one.
func timeoutDuration(seconds float64) (time.Duration, error) {
	switch {
	case math.IsNaN(seconds):
		return 0, fmt.Errorf("invalid timeout %v", seconds)
	case seconds < 0:
		return 0, fmt.Errorf("negative timeout %vs", seconds)
	case seconds*float64(time.Second) >= math.MaxInt64:
		return math.MaxInt64, nil
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// EngineOptions returns the browser options.
func (r *Runner) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Headless = r.Options.Headless
	opts.PluginsEnabled = !r.Options.NoPlugins
	opts.IgnoreCertificateErrors = r.Options.IgnoreCertificateErrors
	opts.DisableHTTP2 = r.Options.DisableHTTP2
	opts.UserAgent = r.Options.UserAgent
	opts.ExecPath = r.Options.ChromePath
	return opts
}

// Run captures url and writes the image to the configured output path.
func (r *Runner) Run(ctx context.Context, url string) capture.Outcome {
	req, err := r.Request(url)
	if err != nil {
		return capture.Outcome{Path: req.OutputPath, Err: err}
	}

	log.Debugf("Starting %s engine", r.Options.Engine)
	browser, err := r.newEngine(ctx, r.Options.Engine, r.EngineOptions())
	if err != nil {
		return capture.Outcome{Path: req.OutputPath, Err: err}
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Debugf("Closing browser: %v", err)
		}
	}()

	return capture.NewController(browser, req).Run(ctx)
}

// SetLogLevel sets the log level based on the options
func SetLogLevel(options *Options) {
	if options.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
