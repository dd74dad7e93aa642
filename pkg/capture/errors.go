package capture

import "errors"

var (
	// ErrLoadFailure is reported when the engine signals an unsuccessful load.
	ErrLoadFailure = errors.New("page load failed")
	// ErrEmptyContent is reported when the laid-out document has zero area.
	ErrEmptyContent = errors.New("page content is empty")
	// ErrInvalidDimension is returned for non-positive target or computed dimensions.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrRender is returned when the engine produces no usable raster.
	ErrRender = errors.New("render failed")
	// ErrWriteFailure is returned when the output file cannot be written.
	ErrWriteFailure = errors.New("write failed")
)
