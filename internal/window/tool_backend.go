package window

import (
	"context"
	"strconv"
	"strings"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/runner"
	"github.com/pkg/errors"
)

var errNoSizer = errors.New("no desktop size source configured")

// minListingColumns is id, desktop, x, y, w, h, host and at least one title word
const minListingColumns = 8

// Tools names the executables used by ToolBackend
type Tools struct {
	Wmctrl  string
	Xdotool string
	Xprop   string
}

// DefaultTools returns the stock executable names
func DefaultTools() Tools {
	return Tools{Wmctrl: "wmctrl", Xdotool: "xdotool", Xprop: "xprop"}
}

// Fallback is an in-process source consulted when the tools fail
type Fallback interface {
	ActiveWindow() (string, error)
	ListWindows() ([]Window, error)
}

// ToolBackend implements Enumerator, FocusController and DesktopSizer on top of
// wmctrl, xdotool and xprop.
type ToolBackend struct {
	tools    Tools
	run      runner.RunFunc
	fallback Fallback
}

var (
	_ Enumerator      = (*ToolBackend)(nil)
	_ FocusController = (*ToolBackend)(nil)
	_ DesktopSizer    = (*ToolBackend)(nil)
)

// NewToolBackend creates a backend that runs the real executables
func NewToolBackend(tools Tools) *ToolBackend {
	return NewToolBackendWithRunner(tools, runner.Exec)
}

// NewToolBackendWithRunner creates a backend with a custom process runner
func NewToolBackendWithRunner(tools Tools, run runner.RunFunc) *ToolBackend {
	def := DefaultTools()
	if tools.Wmctrl == "" {
		tools.Wmctrl = def.Wmctrl
	}
	if tools.Xdotool == "" {
		tools.Xdotool = def.Xdotool
	}
	if tools.Xprop == "" {
		tools.Xprop = def.Xprop
	}
	return &ToolBackend{tools: tools, run: run}
}

// SetFallback installs a source consulted when wmctrl or xdotool cannot
// answer.
func (b *ToolBackend) SetFallback(f Fallback) {
	b.fallback = f
}

// Name returns the backend name
func (b *ToolBackend) Name() string {
	return "tools"
}

// ListWindows returns every window reported by wmctrl -lG, in listing order
func (b *ToolBackend) ListWindows(ctx context.Context) []Window {
	log := logger.WithComponent("window")

	stdout, stderr, err := b.run(ctx, b.tools.Wmctrl, "-lG")
	if err != nil && b.fallback != nil {
		if windows, ferr := b.fallback.ListWindows(); ferr == nil {
			log.Debug().Err(err).Int("count", len(windows)).Msg("Listed windows over X11")
			return windows
		}
	}
	if err != nil {
		log.Warn().Err(runner.Describe(err, stderr)).Msg("Window listing failed, continuing with no windows")
		return []Window{}
	}

	windows := ParseWindowList(stdout)
	log.Debug().Int("count", len(windows)).Msg("Listed windows")
	return windows
}

// ParseWindowList parses `wmctrl -lG` output:
//
//	ID DESKTOP X Y W H HOST TITLE...
//
// Lines with too few columns are dropped and unparseable numbers become zero.
func ParseWindowList(out string) []Window {
	windows := make([]Window, 0)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < minListingColumns {
			continue
		}

		windows = append(windows, Window{
			ID:    fields[0],
			Title: strings.Join(fields[7:], " "),
			Geometry: Geometry{
				X: parseInt32(fields[2]),
				Y: parseInt32(fields[3]),
				W: parseUint32(fields[4]),
				H: parseUint32(fields[5]),
			},
		})
	}
	return windows
}

// Focused returns the id of the active window
func (b *ToolBackend) Focused(ctx context.Context) string {
	log := logger.WithComponent("window")

	stdout, stderr, err := b.run(ctx, b.tools.Xdotool, "getactivewindow")
	if err == nil {
		if id := strings.TrimSpace(stdout); id != "" {
			return id
		}
		err = errors.Wrap(runner.ErrParse, "xdotool getactivewindow printed nothing")
	}

	if b.fallback != nil {
		id, ferr := b.fallback.ActiveWindow()
		if ferr == nil && id != "" {
			log.Debug().Err(err).Str("window_id", id).Msg("Focused window read over X11")
			return id
		}
	}

	log.Warn().Err(runner.Describe(err, stderr)).Msg("Could not determine focused window")
	return ""
}

// Focus focuses id synchronously
func (b *ToolBackend) Focus(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}

	_, stderr, err := b.run(ctx, b.tools.Xdotool, "windowfocus", "--sync", id)
	if err != nil {
		logger.WithComponent("window").Warn().
			Err(runner.Describe(err, stderr)).
			Str("window_id", id).
			Msg("Failed to focus window")
		return false
	}
	return true
}

// DesktopSize reads _NET_DESKTOP_GEOMETRY from the root window
func (b *ToolBackend) DesktopSize(ctx context.Context) ([2]uint32, error) {
	stdout, stderr, err := b.run(ctx, b.tools.Xprop, "-root", "_NET_DESKTOP_GEOMETRY")
	if err != nil {
		return [2]uint32{}, runner.Describe(err, stderr)
	}
	return ParseDesktopGeometry(stdout)
}

// ParseDesktopGeometry parses "_NET_DESKTOP_GEOMETRY(CARDINAL) = 1920, 1080"
func ParseDesktopGeometry(out string) ([2]uint32, error) {
	eq := strings.Index(out, "=")
	if eq < 0 {
		return [2]uint32{}, errors.Wrapf(runner.ErrParse, "no '=' in %q", strings.TrimSpace(out))
	}

	values := make([]uint32, 0, 2)
	for _, part := range strings.Split(out[eq+1:], ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		values = append(values, uint32(v))
	}

	if len(values) != 2 {
		return [2]uint32{}, errors.Wrapf(runner.ErrParse, "expected two sizes in %q", strings.TrimSpace(out))
	}
	return [2]uint32{values[0], values[1]}, nil
}

func parseInt32(s string) int32 {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

func parseUint32(s string) uint32 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}
