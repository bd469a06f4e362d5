package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bryanchriswhite/deskinspect/internal/ocr"
	"github.com/bryanchriswhite/deskinspect/internal/window"
	"gopkg.in/yaml.v3"
)

// WindowRecord is one window of a snapshot. Elements is only populated when
// Changed is true, since recognition only runs for changed windows.
type WindowRecord struct {
	ID       string          `json:"id" yaml:"id"`
	Title    string          `json:"title" yaml:"title"`
	Geometry window.Geometry `json:"geometry" yaml:"geometry"`
	OCRText  string          `json:"ocr_text" yaml:"ocr_text"`
	Elements []ocr.Element   `json:"elements,omitempty" yaml:"elements,omitempty"`
	Changed  bool            `json:"changed" yaml:"changed"`
}

// Result is the document emitted by one pipeline run
type Result struct {
	Timestamp     string         `json:"timestamp" yaml:"timestamp"`
	DesktopSize   [2]uint32      `json:"desktop_size" yaml:"desktop_size,flow"`
	FocusedWindow string         `json:"focused_window" yaml:"focused_window"`
	Windows       []WindowRecord `json:"windows" yaml:"windows"`
	// ChangesSinceLast lists changed ids in enumeration order. It always
	// covers every window, even when Windows was filtered.
	ChangesSinceLast []string `json:"changes_since_last" yaml:"changes_since_last"`
}

// Output formats accepted by Encode
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode writes r to w as pretty-printed JSON or YAML
func Encode(w io.Writer, r *Result, format string) error {
	switch format {
	case "", FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		// titles and OCR text are emitted verbatim
		encoder.SetEscapeHTML(false)
		return encoder.Encode(r)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s (use 'json' or 'yaml')", format)
	}
}
