package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/deskinspect/internal/runner"
	"github.com/pkg/errors"
)

// DefaultDir holds one overwritable image per window id
const DefaultDir = "/shared/screenshots"

// Capturer defines the interface for window capture backends
type Capturer interface {
	// Capture writes an image of the focused window id and returns its path.
	// The path depends only on the id, so every run overwrites the previous
	// capture. The caller must focus the window first.
	Capture(ctx context.Context, windowID string) (string, error)

	// Name returns a human-readable name for this capturer
	Name() string
}

// PathFor returns the capture path for id inside dir
func PathFor(dir, id, ext string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", errors.Errorf("invalid window id %q", id)
	}
	return filepath.Join(dir, id+"."+ext), nil
}

// ensureDir creates the screenshot directory if absent
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(runner.ErrIO, "create screenshot dir %s: %v", dir, err)
	}
	return nil
}
