package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/root4loot/goutils/log"
)

// State is the controller state.
type State int

const (
	Idle State = iota
	Running
	Captured
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "loading"
	case Captured:
		return "captured"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the result of a capture run.
type Outcome struct {
	Success bool   // mirrors the load result; false when a triggered capture failed
	Written bool   // an output file was written
	Forced  bool   // the capture was triggered by the deadline
	Path    string // output path
	Size    Size   // dimensions of the written image
	Err     error
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	if o.Success {
		return 0
	}
	return 1
}

type eventKind int

const (
	eventStarted eventKind = iota
	eventFinished
)

type event struct {
	kind eventKind
	ok   bool
}

// Controller drives a single capture: it loads the page, waits for either
// load completion or the deadline, and saves exactly one image.
type Controller struct {
	engine    Engine
	req       Request
	sizer     Sizer
	lifecycle Lifecycle
	race      *Race
	viewport  Size
	state     State
	loadErr   error
	events    chan event
	done      chan struct{}
	write     func(path string, img image.Image) error
}

// NewController returns a controller for req. The engine must not be shared.
func NewController(engine Engine, req Request) *Controller {
	return &Controller{
		engine: engine,
		req:    req,
		sizer:  NewSizer(req),
		race:   NewRace(0),
		events: make(chan event, 16),
		done:   make(chan struct{}),
		write:  WriteImage,
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	return c.state
}

// Run performs the capture and blocks until it is done or ctx is canceled.
// It must be called once.
func (c *Controller) Run(ctx context.Context) Outcome {
	if err := c.req.Validate(); err != nil {
		c.state = Failed
		return Outcome{Path: c.req.OutputPath, Err: err}
	}
	defer close(c.done)

	c.engine.OnStarted(func() { c.post(event{kind: eventStarted}) })
	c.engine.OnFinished(func(ok bool) { c.post(event{kind: eventFinished, ok: ok}) })

	c.viewport = c.sizer.Initial()
	if err := c.engine.SetViewport(ctx, c.viewport); err != nil {
		c.state = Failed
		return Outcome{Path: c.req.OutputPath, Err: fmt.Errorf("setting viewport %s: %w", c.viewport, err)}
	}

	c.state = Running
	log.Debugf("Loading %s with viewport %s", c.req.URL, c.viewport)
	if err := c.engine.Load(ctx, c.req.URL); err != nil {
		log.Debugf("Load of %s could not start: %v", c.req.URL, err)
		c.loadErr = err
		c.post(event{kind: eventFinished, ok: false})
	}

	c.race = NewRace(c.req.Timeout)
	defer c.race.Disarm()
	if c.race.Armed() {
		log.Debugf("Forced capture armed for %v", c.req.Timeout)
	}

	for {
		select {
		case ev := <-c.events:
			switch ev.kind {
			case eventStarted:
				log.Debugf("Load started for %s", c.req.URL)
				c.lifecycle.OnStart()
			case eventFinished:
				if !c.lifecycle.OnFinish(ev.ok) {
					continue
				}
				log.Debugf("Load finished for %s (ok=%v)", c.req.URL, ev.ok)
				if out, ok := c.trigger(ctx, ev.ok, false); ok {
					return out
				}
			}
		case <-c.race.Expired():
			log.Debugf("Timeout of %v reached for %s (state=%s)", c.req.Timeout, c.req.URL, c.lifecycle.State())
			if out, ok := c.trigger(ctx, c.lifecycle.LastSuccess(), true); ok {
				return out
			}
		case <-ctx.Done():
			c.state = Failed
			return Outcome{Path: c.req.OutputPath, Err: ctx.Err()}
		}
	}
}

// post delivers an engine event to the loop. It never blocks once Run has
// returned.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// trigger claims the capture and performs it. The second and later calls
// return false and do nothing.
func (c *Controller) trigger(ctx context.Context, loadOK, forced bool) (Outcome, bool) {
	if !c.race.Trigger() {
		return Outcome{}, false
	}
	c.race.Disarm()

	out := c.capture(ctx, loadOK, forced)
	if out.Success {
		c.state = Captured
	} else {
		c.state = Failed
	}
	return out, true
}

func (c *Controller) capture(ctx context.Context, loadOK, forced bool) Outcome {
	out := Outcome{Forced: forced, Path: c.req.OutputPath}
	if !loadOK {
		out.Err = c.loadError(forced)
	}

	content, err := c.engine.ContentSize(ctx)
	if err != nil {
		out.Err = fmt.Errorf("%w: measuring content: %w", ErrRender, err)
		return out
	}
	log.Debugf("Content size of %s is %s", c.req.URL, content)

	if vp, ok := c.sizer.Fit(content); ok {
		if vp != c.viewport {
			if err := c.engine.SetViewport(ctx, vp); err != nil {
				out.Err = fmt.Errorf("%w: setting viewport %s: %w", ErrRender, vp, err)
				return out
			}
			c.viewport = vp
		}
	} else if !forced {
		log.Debugf("%s: %v, nothing to save", c.req.URL, ErrEmptyContent)
		out.Success = loadOK
		return out
	} else {
		log.Debugf("Forced capture of empty content, keeping viewport %s", c.viewport)
	}

	img, err := c.engine.RenderToImage(ctx)
	if err != nil {
		out.Err = fmt.Errorf("%w: %w", ErrRender, err)
		return out
	}
	if img == nil || img.Bounds().Empty() {
		out.Err = fmt.Errorf("%w: empty raster for viewport %s", ErrRender, c.viewport)
		return out
	}

	img, err = Scale(img, c.req.TargetWidth, c.req.TargetHeight)
	if err != nil {
		out.Err = err
		return out
	}

	if c.req.Imprint {
		img, err = Imprint(img, c.req.URL)
		if err != nil {
			out.Err = fmt.Errorf("%w: %w", ErrRender, err)
			return out
		}
	}

	if err := c.write(c.req.OutputPath, Flatten(img)); err != nil {
		out.Err = err
		return out
	}

	b := img.Bounds()
	out.Written = true
	out.Size = Size{Width: b.Dx(), Height: b.Dy()}
	out.Success = loadOK
	log.Debugf("Saved %s (%s) to %s", c.req.URL, out.Size, c.req.OutputPath)
	return out
}

func (c *Controller) loadError(forced bool) error {
	if forced && c.lifecycle.State() != Completed {
		return fmt.Errorf("%w: page did not finish loading within %v", ErrLoadFailure, c.req.Timeout)
	}
	if le, ok := c.engine.(LoadErrorer); ok {
		if err := le.LoadError(); err != nil {
			return fmt.Errorf("%w: %w", ErrLoadFailure, err)
		}
	}
	if c.loadErr != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailure, c.loadErr)
	}
	return ErrLoadFailure
}
