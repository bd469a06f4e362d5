// Package snapshot runs the inspection pipeline: enumerate windows, capture
// and fingerprint each one, recognize text in the changed ones and persist
// the fingerprints for the next run.
package snapshot

import (
	"context"
	"time"

	"github.com/bryanchriswhite/deskinspect/internal/capture"
	"github.com/bryanchriswhite/deskinspect/internal/fingerprint"
	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/ocr"
	"github.com/bryanchriswhite/deskinspect/internal/state"
	"github.com/bryanchriswhite/deskinspect/internal/window"
)

// StateStore loads and replaces the persisted fingerprints
type StateStore interface {
	Load() state.State
	Save(state.State) error
}

// Deps are the collaborators of an Assembler
type Deps struct {
	Sizer     window.DesktopSizer
	Focus     window.FocusController
	Windows   window.Enumerator
	Capturer  capture.Capturer
	Extractor ocr.Extractor
	Store     StateStore

	// Fingerprint defaults to fingerprint.File
	Fingerprint func(path string) string
	// Now defaults to time.Now
	Now func() time.Time
}

// Options tunes a single run
type Options struct {
	// ChangesOnly drops unchanged windows from Result.Windows
	ChangesOnly bool
}

// Assembler runs the pipeline. Runs must not overlap: focus and capture
// act on the one shared desktop.
type Assembler struct {
	deps Deps
}

// NewAssembler creates an assembler
func NewAssembler(deps Deps) *Assembler {
	if deps.Fingerprint == nil {
		deps.Fingerprint = fingerprint.File
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Assembler{deps: deps}
}

// Run performs one inspection. Every collaborator failure degrades to a
// default value, so Run always returns a result.
func (a *Assembler) Run(ctx context.Context, opts Options) *Result {
	log := logger.WithComponent("snapshot")

	timestamp := FormatTimestamp(a.deps.Now().Unix())

	size, err := a.deps.Sizer.DesktopSize(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not determine desktop size")
		size = [2]uint32{}
	}

	focused := a.deps.Focus.Focused(ctx)
	windows := a.deps.Windows.ListWindows(ctx)
	previous := a.deps.Store.Load()

	next := state.New()
	records := make([]WindowRecord, 0, len(windows))
	changes := make([]string, 0)

	for _, w := range windows {
		p := a.inspectWindow(ctx, w, previous)

		next.Record(w.ID, p.digest)
		if p.changed {
			changes = append(changes, w.ID)
		}
		records = append(records, p.record())
	}

	if focused != "" {
		if !a.deps.Focus.Focus(ctx, focused) {
			log.Warn().Str("window_id", focused).Msg("Could not restore original focus")
		}
	}

	if err := a.deps.Store.Save(next); err != nil {
		log.Warn().Err(err).Msg("Failed to save state, next run will over-report changes")
	}

	if opts.ChangesOnly {
		records = changedOnly(records)
	}

	log.Info().
		Int("windows", len(windows)).
		Int("changed", len(changes)).
		Bool("changes_only", opts.ChangesOnly).
		Msg("Snapshot assembled")

	return &Result{
		Timestamp:        timestamp,
		DesktopSize:      size,
		FocusedWindow:    focused,
		Windows:          records,
		ChangesSinceLast: changes,
	}
}

// visit carries one window through the per-window steps. Each step reads
// what the earlier steps produced and leaves its own output at the zero
// value when it cannot run.
type visit struct {
	win      window.Window
	previous state.State

	focused  bool
	shot     string
	digest   string
	changed  bool
	text     string
	elements []ocr.Element
}

type step func(ctx context.Context, p *visit)

func (a *Assembler) inspectWindow(ctx context.Context, w window.Window, previous state.State) *visit {
	p := &visit{win: w, previous: previous}
	for _, s := range []step{a.focusStep, a.captureStep, a.fingerprintStep, a.compareStep, a.extractStep} {
		s(ctx, p)
	}
	return p
}

// focusStep makes the window the capture target
func (a *Assembler) focusStep(ctx context.Context, p *visit) {
	p.focused = a.deps.Focus.Focus(ctx, p.win.ID)
}

func (a *Assembler) captureStep(ctx context.Context, p *visit) {
	if !p.focused {
		return
	}
	path, err := a.deps.Capturer.Capture(ctx, p.win.ID)
	if err != nil {
		logger.WithComponent("snapshot").Warn().
			Err(err).
			Str("window_id", p.win.ID).
			Str("capturer", a.deps.Capturer.Name()).
			Msg("Capture failed, treating window as changed")
		return
	}
	p.shot = path
}

func (a *Assembler) fingerprintStep(ctx context.Context, p *visit) {
	if p.shot == "" {
		return
	}
	p.digest = a.deps.Fingerprint(p.shot)
}

// compareStep classifies the window. Without a digest the content is
// unknown, which counts as changed.
func (a *Assembler) compareStep(ctx context.Context, p *visit) {
	previous, ok := p.previous.Fingerprint(p.win.ID)
	p.changed = p.digest == "" || !ok || previous != p.digest
}

// extractStep runs recognition, the expensive part, for changed windows only
func (a *Assembler) extractStep(ctx context.Context, p *visit) {
	if !p.changed || p.shot == "" {
		return
	}
	p.text, p.elements = a.deps.Extractor.Extract(ctx, p.shot, p.win.Geometry)
}

func (p *visit) record() WindowRecord {
	elements := p.elements
	if !p.changed {
		elements = nil
	}
	return WindowRecord{
		ID:       p.win.ID,
		Title:    p.win.Title,
		Geometry: p.win.Geometry,
		OCRText:  p.text,
		Elements: elements,
		Changed:  p.changed,
	}
}

func changedOnly(records []WindowRecord) []WindowRecord {
	filtered := make([]WindowRecord, 0, len(records))
	for _, r := range records {
		if r.Changed {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
