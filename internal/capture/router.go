package capture

import (
	"context"
	"fmt"
	"io"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
)

// Backend names accepted by New
const (
	BackendScrot = "scrot"
	BackendX11   = "x11"
)

// Options selects and configures a capture backend
type Options struct {
	Backend string
	Dir     string
	// Command overrides the scrot executable
	Command string
}

// New returns the capturer for opts.Backend. The returned closer releases
// backend resources and is never nil. An x11 backend without a reachable X
// server is not an error: every Capture then fails with
// runner.ErrToolUnavailable and the run reports each window as changed.
func New(opts Options) (Capturer, io.Closer, error) {
	log := logger.WithComponent("capture-router")

	switch opts.Backend {
	case "", BackendScrot:
		log.Debug().Str("dir", opts.Dir).Msg("Using scrot capturer")
		return NewScrotCapturer(opts.Dir, opts.Command), nopCloser{}, nil
	case BackendX11:
		c, err := NewX11Capturer(opts.Dir)
		if err != nil {
			log.Warn().Err(err).Msg("X11 capture unavailable, windows will be reported without fingerprints")
			return unavailableCapturer{name: BackendX11, err: err}, nopCloser{}, nil
		}
		log.Debug().Str("dir", opts.Dir).Bool("composite", c.compositeEnabled).Msg("Using X11 capturer")
		return c, c, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("unknown capture backend %q (use %q or %q)", opts.Backend, BackendScrot, BackendX11)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// unavailableCapturer stands in for a backend that failed to start
type unavailableCapturer struct {
	name string
	err  error
}

func (u unavailableCapturer) Name() string { return u.name }

func (u unavailableCapturer) Capture(ctx context.Context, windowID string) (string, error) {
	return "", u.err
}
