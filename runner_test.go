package thumbnailer

import (
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/root4loot/thumbnailer/pkg/capture"
	"github.com/root4loot/thumbnailer/pkg/engine"
)

type stubBrowser struct {
	started  func()
	finished func(bool)
	viewport capture.Size
	closed   bool
}

func (s *stubBrowser) OnStarted(fn func())         { s.started = fn }
func (s *stubBrowser) OnFinished(fn func(ok bool)) { s.finished = fn }
func (s *stubBrowser) LoadError() error            { return nil }
func (s *stubBrowser) Close() error                { s.closed = true; return nil }

func (s *stubBrowser) Load(context.Context, string) error {
	s.started()
	s.finished(true)
	return nil
}

func (s *stubBrowser) ContentSize(context.Context) (capture.Size, error) {
	return capture.Size{Width: 1024, Height: 600}, nil
}

func (s *stubBrowser) SetViewport(_ context.Context, size capture.Size) error {
	s.viewport = size
	return nil
}

func (s *stubBrowser) RenderToImage(context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, s.viewport.Width, s.viewport.Height)), nil
}

func TestDefaultOptions(t *testing.T) {
	options := DefaultOptions()
	if options.OutputPath != "out.png" {
		t.Errorf("Expected default output out.png, got %s", options.OutputPath)
	}
	if options.WindowWidth != 1024 || options.WindowHeight != 768 {
		t.Errorf("Expected default window 1024x768, got %dx%d", options.WindowWidth, options.WindowHeight)
	}
	if options.Engine != engine.Chromedp {
		t.Errorf("Expected default engine %s, got %s", engine.Chromedp, options.Engine)
	}
}

func TestRequest(t *testing.T) {
	options := DefaultOptions()
	options.Width = 200
	options.Height = 100
	options.Timeout = 0.001
	options.NoPlugins = true
	runner := NewRunnerWithOptions(*options)

	req, err := runner.Request("http://example.com")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if req.TargetWidth != 200 || req.TargetHeight != 100 {
		t.Errorf("Expected target 200x100, got %dx%d", req.TargetWidth, req.TargetHeight)
	}
	if req.Timeout != time.Millisecond {
		t.Errorf("Expected timeout 1ms, got %v", req.Timeout)
	}
	if req.PluginsEnabled {
		t.Errorf("Expected plugins to be disabled")
	}
	if req.MaxViewport != (capture.Size{Width: 4096, Height: 4096}) {
		t.Errorf("Expected max viewport 4096x4096, got %v", req.MaxViewport)
	}

	if runner.EngineOptions().PluginsEnabled {
		t.Errorf("Expected engine plugins to be disabled")
	}
}

func TestTimeoutDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    time.Duration
		wantErr bool
	}{
		{seconds: 0, want: 0},
		{seconds: 2.5, want: 2500 * time.Millisecond},
		{seconds: 1e10, want: math.MaxInt64},
		{seconds: math.Inf(1), want: math.MaxInt64},
		{seconds: -1, wantErr: true},
		{seconds: math.NaN(), wantErr: true},
	}
	for _, tc := range tests {
		got, err := timeoutDuration(tc.seconds)
		if (err != nil) != tc.wantErr {
			t.Errorf("timeoutDuration(%v) error = %v, want error: %v", tc.seconds, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("timeoutDuration(%v) = %v, want %v", tc.seconds, got, tc.want)
		}
	}
}

func TestRequestLargeTimeout(t *testing.T) {
	options := DefaultOptions()
	options.Timeout = 1e10
	runner := NewRunnerWithOptions(*options)

	req, err := runner.Request("http://example.com")
	if err != nil {
		t.Fatalf("Expected a large timeout to be accepted, got %v", err)
	}
	if req.Timeout <= 0 {
		t.Errorf("Expected a positive timeout, got %v", req.Timeout)
	}
}

func TestRun(t *testing.T) {
	options := DefaultOptions()
	options.OutputPath = filepath.Join(t.TempDir(), "result.png")
	runner := NewRunnerWithOptions(*options)

	stub := &stubBrowser{}
	runner.newEngine = func(context.Context, string, engine.Options) (engine.Browser, error) {
		return stub, nil
	}

	outcome := runner.Run(context.Background(), "http://example.com")
	if outcome.Err != nil || outcome.ExitCode() != 0 {
		t.Fatalf("Expected success, got %+v", outcome)
	}
	if outcome.Size != (capture.Size{Width: 1024, Height: 600}) {
		t.Errorf("Expected 1024x600, got %v", outcome.Size)
	}
	if _, err := os.Stat(options.OutputPath); err != nil {
		t.Errorf("Expected output file: %v", err)
	}
	if !stub.closed {
		t.Errorf("Expected browser to be closed")
	}
}

func TestRunInvalidDimensionSkipsBrowser(t *testing.T) {
	options := DefaultOptions()
	options.Width = -10
	runner := NewRunnerWithOptions(*options)
	runner.newEngine = func(context.Context, string, engine.Options) (engine.Browser, error) {
		t.Fatalf("browser must not be started")
		return nil, nil
	}

	outcome := runner.Run(context.Background(), "http://example.com")
	if !errors.Is(outcome.Err, capture.ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", outcome.Err)
	}
	if outcome.ExitCode() != 1 {
		t.Errorf("Expected exit code 1, got %d", outcome.ExitCode())
	}
}

func TestRunEngineError(t *testing.T) {
	runner := NewRunner()
	runner.newEngine = func(context.Context, string, engine.Options) (engine.Browser, error) {
		return nil, errors.New("no browser")
	}

	outcome := runner.Run(context.Background(), "http://example.com")
	if outcome.Err == nil || outcome.ExitCode() != 1 {
		t.Errorf("Expected failure, got %+v", outcome)
	}
}
