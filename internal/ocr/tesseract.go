package ocr

import (
	"context"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/runner"
	"github.com/bryanchriswhite/deskinspect/internal/window"
)

// Extractor recognizes text in a captured window image
type Extractor interface {
	// Extract returns the reconstructed text and the word elements of the
	// image, with element boxes in absolute desktop coordinates. Failures
	// yield empty results.
	Extract(ctx context.Context, imagePath string, geom window.Geometry) (string, []Element)
}

// Options configures Tesseract
type Options struct {
	Command       string
	Languages     string
	MinConfidence float64
}

// DefaultOptions returns the stock recognizer settings
func DefaultOptions() Options {
	return Options{
		Command:       "tesseract",
		Languages:     "eng+jpn",
		MinConfidence: DefaultMinConfidence,
	}
}

// Tesseract runs the tesseract CLI in TSV mode
type Tesseract struct {
	opts Options
	run  runner.RunFunc
}

var _ Extractor = (*Tesseract)(nil)

// NewTesseract creates an extractor that runs the real executable
func NewTesseract(opts Options) *Tesseract {
	return NewTesseractWithRunner(opts, runner.Exec)
}

// NewTesseractWithRunner creates an extractor with a custom process runner
func NewTesseractWithRunner(opts Options, run runner.RunFunc) *Tesseract {
	if opts.Command == "" {
		opts.Command = DefaultOptions().Command
	}
	return &Tesseract{opts: opts, run: run}
}

// Extract implements Extractor
func (t *Tesseract) Extract(ctx context.Context, imagePath string, geom window.Geometry) (string, []Element) {
	log := logger.WithComponent("ocr")

	args := []string{imagePath, "stdout"}
	if t.opts.Languages != "" {
		args = append(args, "-l", t.opts.Languages)
	}
	args = append(args, "tsv")

	stdout, stderr, err := t.run(ctx, t.opts.Command, args...)
	if err != nil {
		log.Warn().
			Err(runner.Describe(err, stderr)).
			Str("image", imagePath).
			Msg("Text recognition failed")
		return "", []Element{}
	}

	text, elements := ParseTSV(stdout, geom, t.opts.MinConfidence)
	log.Debug().
		Str("image", imagePath).
		Int("elements", len(elements)).
		Msg("Text recognized")
	return text, elements
}
