package capture

import (
	"context"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/runner"
)

// ScrotCapturer captures the focused window with scrot
type ScrotCapturer struct {
	dir     string
	command string
	run     runner.RunFunc
}

var _ Capturer = (*ScrotCapturer)(nil)

// NewScrotCapturer creates a capturer that runs the real executable
func NewScrotCapturer(dir, command string) *ScrotCapturer {
	return NewScrotCapturerWithRunner(dir, command, runner.Exec)
}

// NewScrotCapturerWithRunner creates a capturer with a custom process runner
func NewScrotCapturerWithRunner(dir, command string, run runner.RunFunc) *ScrotCapturer {
	if dir == "" {
		dir = DefaultDir
	}
	if command == "" {
		command = "scrot"
	}
	return &ScrotCapturer{dir: dir, command: command, run: run}
}

// Name returns the capturer name
func (c *ScrotCapturer) Name() string {
	return "scrot"
}

// Capture implements Capturer. -u grabs the focused window, -z keeps it
// silent and -o overwrites the previous image.
func (c *ScrotCapturer) Capture(ctx context.Context, windowID string) (string, error) {
	path, err := PathFor(c.dir, windowID, "png")
	if err != nil {
		return "", err
	}
	if err := ensureDir(c.dir); err != nil {
		return "", err
	}

	_, stderr, err := c.run(ctx, c.command, "-u", "-z", "-o", path)
	if err != nil {
		return "", runner.Describe(err, stderr)
	}

	logger.WithComponent("capture").Debug().
		Str("window_id", windowID).
		Str("path", path).
		Msg("Captured window")
	return path, nil
}
