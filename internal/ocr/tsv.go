package ocr

import (
	"strconv"
	"strings"

	"github.com/bryanchriswhite/deskinspect/internal/window"
)

// DefaultMinConfidence separates real UI text (usually above 80) from
// recognition noise (usually below 30).
const DefaultMinConfidence = 40.0

// TSV column layout:
//
//	level page_num block_num par_num line_num word_num left top width height conf text
const (
	colLevel = iota
	colPage
	colBlock
	colPar
	colLine
	colWord
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns
)

const wordLevel = 5

// Element is a recognized word with its box in absolute desktop coordinates.
// To click it, aim at (X + W/2, Y + H/2).
type Element struct {
	Text       string  `json:"text" yaml:"text"`
	X          int32   `json:"x" yaml:"x"`
	Y          int32   `json:"y" yaml:"y"`
	W          uint32  `json:"w" yaml:"w"`
	H          uint32  `json:"h" yaml:"h"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ParseTSV turns recognizer TSV output into the full text and word elements.
// Word boxes are shifted by the window origin; the image origin is assumed to
// be the window's top-left. When the capture includes the title bar but the
// geometry does not, Y is off by the title bar height (~30px on XFCE). That
// offset is left uncorrected.
func ParseTSV(out string, geom window.Geometry, minConfidence float64) (string, []Element) {
	elements := make([]Element, 0)
	lines := make([][]string, 0)

	// consecutive words with the same line_num form one line
	current := -1
	var words []string

	rows := strings.Split(out, "\n")
	if len(rows) > 0 {
		rows = rows[1:] // header
	}

	for _, row := range rows {
		row = strings.TrimRight(row, "\r")
		cols := strings.SplitN(row, "\t", tsvColumns)
		if len(cols) < tsvColumns {
			continue
		}
		if atoi(cols[colLevel]) != wordLevel {
			continue
		}

		text := strings.TrimSpace(cols[colText])
		conf, err := strconv.ParseFloat(strings.TrimSpace(cols[colConf]), 64)
		if err != nil {
			conf = -1
		}
		if text == "" || conf < minConfidence {
			continue
		}

		elements = append(elements, Element{
			Text:       text,
			X:          geom.X + int32(atoi(cols[colLeft])),
			Y:          geom.Y + int32(atoi(cols[colTop])),
			W:          uint32(atoi(cols[colWidth])),
			H:          uint32(atoi(cols[colHeight])),
			Confidence: conf,
		})

		line := atoi(cols[colLine])
		if len(words) > 0 && line != current {
			lines = append(lines, words)
			words = nil
		}
		current = line
		words = append(words, text)
	}
	if len(words) > 0 {
		lines = append(lines, words)
	}

	joined := make([]string, len(lines))
	for i, w := range lines {
		joined[i] = strings.Join(w, " ")
	}
	return strings.Join(joined, "\n"), elements
}

// atoi parses a TSV integer column, yielding 0 for anything malformed or negative
func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
