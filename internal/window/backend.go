package window

import "context"

// Geometry is a window's absolute desktop position and size
type Geometry struct {
	X int32  `json:"x" yaml:"x"`
	Y int32  `json:"y" yaml:"y"`
	W uint32 `json:"w" yaml:"w"`
	H uint32 `json:"h" yaml:"h"`
}

// Window is one entry of the window listing
type Window struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Geometry Geometry `json:"geometry" yaml:"geometry"`
}

// Enumerator lists the current top-level windows.
// Failures yield an empty list; they are logged, never returned.
type Enumerator interface {
	ListWindows(ctx context.Context) []Window
}

// FocusController reads and sets the input focus
type FocusController interface {
	// Focused returns the focused window id, or "" when it cannot be determined
	Focused(ctx context.Context) string

	// Focus gives id the input focus and returns once the window manager has
	// applied it. It reports false on failure.
	Focus(ctx context.Context, id string) bool
}

// DesktopSizer reports the desktop canvas size as [width, height]
type DesktopSizer interface {
	DesktopSize(ctx context.Context) ([2]uint32, error)
}

// SizerChain tries each sizer in order and returns the first success
type SizerChain []DesktopSizer

// DesktopSize implements DesktopSizer
func (c SizerChain) DesktopSize(ctx context.Context) ([2]uint32, error) {
	var lastErr error
	for _, s := range c {
		if s == nil {
			continue
		}
		size, err := s.DesktopSize(ctx)
		if err == nil {
			return size, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errNoSizer
	}
	return [2]uint32{}, lastErr
}
