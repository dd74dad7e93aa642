package capture

import (
	"context"
	"image"
)

// Engine is the rendering collaborator driven by the Controller. Load must
// return without waiting for the page; progress is reported through the
// callbacks registered with OnStarted and OnFinished, which may be invoked
// from any goroutine.
type Engine interface {
	Load(ctx context.Context, url string) error
	OnStarted(fn func())
	OnFinished(fn func(ok bool))
	ContentSize(ctx context.Context) (Size, error)
	SetViewport(ctx context.Context, size Size) error
	RenderToImage(ctx context.Context) (image.Image, error)
}

// LoadErrorer is implemented by engines that can explain an unsuccessful
// load, e.g. with the navigation error text or the HTTP status.
type LoadErrorer interface {
	LoadError() error
}
