package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/root4loot/goutils/log"
	"github.com/ysmood/gson"

	"github.com/root4loot/thumbnailer/pkg/capture"
)

// RodEngine drives a Chrome page through rod.
type RodEngine struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	mu         sync.Mutex
	onStarted  func()
	onFinished func(ok bool)
	status     int
	loadErr    error
}

// NewRod launches a browser and opens the page used for the capture.
func NewRod(ctx context.Context, opts Options) (*RodEngine, error) {
	path := opts.ExecPath
	if path == "" {
		path, _ = launcher.LookPath()
	}

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Bin(path).
		NoSandbox(true)

	for _, f := range opts.flags() {
		if f.value == "" {
			l.Set(flags.Flag(f.name))
		} else {
			l.Set(flags.Flag(f.name), f.value)
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("error connecting to browser: %w", err)
	}

	p, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("error opening page: %w", err)
	}

	e := &RodEngine{launcher: l, browser: browser, page: p}
	go p.EachEvent(e.listen)()
	return e, nil
}

func (e *RodEngine) listen(ev *proto.NetworkResponseReceived) {
	if ev.Type != proto.NetworkResourceTypeDocument || ev.Response == nil || ev.FrameID != e.page.FrameID {
		return
	}

	e.mu.Lock()
	e.status = ev.Response.Status
	e.mu.Unlock()
	log.Debugf("Main document %s returned %d", ev.Response.URL, ev.Response.Status)
}

// OnStarted registers the load start callback.
func (e *RodEngine) OnStarted(fn func()) {
	e.mu.Lock()
	e.onStarted = fn
	e.mu.Unlock()
}

// OnFinished registers the load completion callback.
func (e *RodEngine) OnFinished(fn func(ok bool)) {
	e.mu.Lock()
	e.onFinished = fn
	e.mu.Unlock()
}

// Load starts navigating to url and returns immediately.
func (e *RodEngine) Load(ctx context.Context, url string) error {
	e.mu.Lock()
	e.status = 0
	e.loadErr = nil
	started, finished := e.onStarted, e.onFinished
	e.mu.Unlock()

	p := e.page.Context(ctx)
	go func() {
		if started != nil {
			started()
		}
		err := p.Navigate(url)
		if err == nil {
			err = p.WaitLoad()
		}
		ok := e.finish(err)
		if finished != nil {
			finished(ok)
		}
	}()
	return nil
}

func (e *RodEngine) finish(err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.loadErr = err
	} else {
		e.loadErr = statusError(e.status)
	}
	return e.loadErr == nil
}

// LoadError returns the reason of the last unsuccessful load.
func (e *RodEngine) LoadError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// ContentSize measures the laid-out document.
func (e *RodEngine) ContentSize(ctx context.Context) (capture.Size, error) {
	res, err := e.page.Context(ctx).Eval(contentSizeJS)
	if err != nil {
		return capture.Size{}, fmt.Errorf("error measuring content: %w", err)
	}
	return sizeOfJSON(res.Value)
}

func sizeOfJSON(v gson.JSON) (capture.Size, error) {
	arr := v.Arr()
	dims := make([]float64, 0, len(arr))
	for _, d := range arr {
		dims = append(dims, d.Num())
	}
	return sizeOf(dims)
}

// SetViewport resizes the emulated viewport.
func (e *RodEngine) SetViewport(ctx context.Context, size capture.Size) error {
	return e.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             size.Width,
		Height:            size.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
}

// RenderToImage paints the current viewport.
func (e *RodEngine) RenderToImage(ctx context.Context) (image.Image, error) {
	buf, err := e.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("error capturing screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Close shuts the browser down and removes its profile directory.
func (e *RodEngine) Close() error {
	err := e.browser.Close()
	e.launcher.Kill()
	e.launcher.Cleanup()
	return err
}
