package capture

// Sizer computes the capture viewport.
type Sizer struct {
	Window Size // layout viewport applied before the load starts
	Max    Size // bound for content-sized viewports
}

// NewSizer returns the sizer for r.
func NewSizer(r Request) Sizer {
	return Sizer{Window: r.Window(), Max: r.MaxViewport}
}

// Initial returns the viewport used for layout before any content is measured.
func (s Sizer) Initial() Size {
	return s.Window
}

// Fit returns the viewport covering the measured content, clamped to Max.
// It returns false when the content has zero area.
func (s Sizer) Fit(content Size) (Size, bool) {
	if content.Empty() {
		return Size{}, false
	}
	return Size{
		Width:  min(content.Width, s.Max.Width),
		Height: min(content.Height, s.Max.Height),
	}, true
}
