package commands

import (
	"io"

	"github.com/bryanchriswhite/deskinspect/internal/capture"
	"github.com/bryanchriswhite/deskinspect/internal/config"
	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/ocr"
	"github.com/bryanchriswhite/deskinspect/internal/snapshot"
	"github.com/bryanchriswhite/deskinspect/internal/state"
	"github.com/bryanchriswhite/deskinspect/internal/window"
)

// pipeline holds the wired collaborators for one process
type pipeline struct {
	windows   *window.ToolBackend
	store     *state.Store
	assembler *snapshot.Assembler
	closers   []io.Closer
}

// newPipeline wires the desktop tools, the capturer and the recognizer. An
// unreachable X server only disables the in-process fallbacks.
func newPipeline(cfg *config.Config) (*pipeline, error) {
	log := logger.WithComponent("cli")
	p := &pipeline{}

	tools := window.NewToolBackend(window.Tools{
		Wmctrl:  cfg.Tools.Wmctrl,
		Xdotool: cfg.Tools.Xdotool,
		Xprop:   cfg.Tools.Xprop,
	})
	sizer := window.SizerChain{tools}

	x11, err := window.NewX11Backend()
	if err != nil {
		log.Debug().Err(err).Msg("X11 fallback unavailable")
	} else {
		tools.SetFallback(x11)
		sizer = append(sizer, x11)
		p.closers = append(p.closers, x11)
	}
	p.windows = tools

	capturer, closer, err := capture.New(capture.Options{
		Backend: cfg.Capture.Backend,
		Dir:     cfg.ScreenshotDir,
		Command: cfg.Tools.Scrot,
	})
	if err != nil {
		p.Close()
		return nil, err
	}
	p.closers = append(p.closers, closer)

	extractor := ocr.NewTesseract(ocr.Options{
		Command:       cfg.Tools.Tesseract,
		Languages:     cfg.OCR.Languages,
		MinConfidence: cfg.OCR.MinConfidence,
	})

	p.store = state.NewStore(cfg.StatePath)
	p.assembler = snapshot.NewAssembler(snapshot.Deps{
		Sizer:     sizer,
		Focus:     tools,
		Windows:   tools,
		Capturer:  capturer,
		Extractor: extractor,
		Store:     p.store,
	})

	return p, nil
}

// Close releases X connections
func (p *pipeline) Close() {
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			logger.WithComponent("cli").Debug().Err(err).Msg("Close failed")
		}
	}
}
