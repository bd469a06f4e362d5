package snapshot

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/bryanchriswhite/deskinspect/internal/ocr"
	"github.com/bryanchriswhite/deskinspect/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() *Result {
	return &Result{
		Timestamp:     "2024-01-01T00:00:00Z",
		DesktopSize:   [2]uint32{1920, 1080},
		FocusedWindow: "0x02",
		Windows: []WindowRecord{
			{
				ID:       "0x01",
				Title:    "Terminal",
				Geometry: window.Geometry{X: 10, Y: 20, W: 800, H: 600},
				OCRText:  "Hello World",
				Elements: []ocr.Element{{Text: "Hello", X: 11, Y: 21, W: 40, H: 12, Confidence: 96.5}},
				Changed:  true,
			},
			{ID: "0x02", Title: "Editor", Changed: false},
		},
		ChangesSinceLast: []string{"0x01"},
	}
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleResult(), FormatJSON))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, []any{1920.0, 1080.0}, doc["desktop_size"])
	assert.Equal(t, "0x02", doc["focused_window"])
	assert.Equal(t, []any{"0x01"}, doc["changes_since_last"])

	windows := doc["windows"].([]any)
	require.Len(t, windows, 2)
	first := windows[0].(map[string]any)
	assert.Equal(t, map[string]any{"x": 10.0, "y": 20.0, "w": 800.0, "h": 600.0}, first["geometry"])
	assert.Contains(t, first, "elements")

	second := windows[1].(map[string]any)
	assert.NotContains(t, second, "elements")
	assert.Equal(t, "", second["ocr_text"])
	assert.Equal(t, false, second["changed"])

	assert.Contains(t, buf.String(), "\n  \"timestamp\"")
}

func TestEncodeJSONKeepsMarkupCharacters(t *testing.T) {
	t.Parallel()

	r := sampleResult()
	r.Windows[0].Title = "<a & b> - Editor"
	r.Windows[0].OCRText = "if x < 1 && y > 2"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatJSON))

	out := buf.String()
	assert.Contains(t, out, `"title": "<a & b> - Editor"`)
	assert.Contains(t, out, `"ocr_text": "if x < 1 && y > 2"`)
	assert.NotContains(t, out, `\u003c`)
	assert.NotContains(t, out, `\u0026`)
}

func TestEncodeYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleResult(), FormatYAML))

	assert.Contains(t, buf.String(), "desktop_size: [1920, 1080]")

	var decoded Result
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *sampleResult(), decoded)
}

func TestEncodeUnknownFormat(t *testing.T) {
	t.Parallel()

	err := Encode(&bytes.Buffer{}, sampleResult(), "xml")
	assert.ErrorContains(t, err, "unsupported format")
}
