package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/root4loot/goutils/log"

	"github.com/root4loot/thumbnailer/pkg/capture"
)

// ChromedpEngine drives a Chrome tab through chromedp.
type ChromedpEngine struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	mu         sync.Mutex
	onStarted  func()
	onFinished func(ok bool)
	frameID    cdp.FrameID
	status     int64
	loadErr    error
}

// NewChromedp launches a browser and opens the tab used for the capture.
func NewChromedp(ctx context.Context, opts Options) (*ChromedpEngine, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedpFlags(opts)...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser now so launch errors surface before the load.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("error starting browser: %w", err)
	}

	e := &ChromedpEngine{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel}
	chromedp.ListenTarget(tabCtx, e.listen)
	return e, nil
}

// chromedpFlags returns custom chromedp.ExecAllocatorOptions for opts.
func chromedpFlags(opts Options) []chromedp.ExecAllocatorOption {
	var customFlags []chromedp.ExecAllocatorOption

	if !opts.Headless {
		customFlags = append(customFlags, chromedp.Flag("headless", false))
	}

	if opts.ExecPath != "" {
		customFlags = append(customFlags, chromedp.ExecPath(opts.ExecPath))
	}

	for _, f := range opts.flags() {
		if f.value == "" {
			customFlags = append(customFlags, chromedp.Flag(f.name, true))
		} else {
			customFlags = append(customFlags, chromedp.Flag(f.name, f.value))
		}
	}

	return customFlags
}

func (e *ChromedpEngine) listen(ev interface{}) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if resp.FrameID == e.frameID {
		e.status = resp.Response.Status
		log.Debugf("Main document %s returned %d", resp.Response.URL, resp.Response.Status)
	}
}

// OnStarted registers the load start callback.
func (e *ChromedpEngine) OnStarted(fn func()) {
	e.mu.Lock()
	e.onStarted = fn
	e.mu.Unlock()
}

// OnFinished registers the load completion callback.
func (e *ChromedpEngine) OnFinished(fn func(ok bool)) {
	e.mu.Lock()
	e.onFinished = fn
	e.mu.Unlock()
}

// Load starts navigating to url and returns immediately.
func (e *ChromedpEngine) Load(ctx context.Context, url string) error {
	var tree *page.FrameTree
	err := e.run(ctx, network.Enable(), chromedp.ActionFunc(func(ctx context.Context) (err error) {
		tree, err = page.GetFrameTree().Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("error reading frame tree: %w", err)
	}

	e.mu.Lock()
	e.frameID = tree.Frame.ID
	e.status = 0
	e.loadErr = nil
	started, finished := e.onStarted, e.onFinished
	e.mu.Unlock()

	go func() {
		if started != nil {
			started()
		}
		err := e.run(ctx, chromedp.Navigate(url))
		ok := e.finish(err)
		if finished != nil {
			finished(ok)
		}
	}()
	return nil
}

func (e *ChromedpEngine) finish(err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.loadErr = err
	} else {
		e.loadErr = statusError(int(e.status))
	}
	return e.loadErr == nil
}

// LoadError returns the reason of the last unsuccessful load.
func (e *ChromedpEngine) LoadError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// ContentSize measures the laid-out document.
func (e *ChromedpEngine) ContentSize(ctx context.Context) (capture.Size, error) {
	var dims []float64
	if err := e.run(ctx, chromedp.Evaluate("("+contentSizeJS+")()", &dims)); err != nil {
		return capture.Size{}, fmt.Errorf("error measuring content: %w", err)
	}
	return sizeOf(dims)
}

// SetViewport resizes the emulated viewport.
func (e *ChromedpEngine) SetViewport(ctx context.Context, size capture.Size) error {
	return e.run(ctx, chromedp.EmulateViewport(int64(size.Width), int64(size.Height)))
}

// RenderToImage paints the current viewport.
func (e *ChromedpEngine) RenderToImage(ctx context.Context) (image.Image, error) {
	var buf []byte
	if err := e.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("error capturing screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Close shuts the browser down.
func (e *ChromedpEngine) Close() error {
	err := chromedp.Cancel(e.ctx)
	e.cancel()
	e.allocCancel()
	return err
}

// run executes actions on the tab, canceling them when ctx is done.
func (e *ChromedpEngine) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(e.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}
