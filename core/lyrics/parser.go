// Package lyrics parses LRC/plain lyric text and tracks the active line
// against a playback clock.
package lyrics

import (
	"regexp"
	"strconv"
	"strings"

	"GeminiStream/model"
)

// Kind tells whether a document can be synchronized.
type Kind int

const (
	Untimed Kind = iota
	Timed
)

func (k Kind) String() string {
	if k == Timed {
		return "timed"
	}
	return "untimed"
}

// Document is a parsed lyric set. A Timed document can be synchronized; an
// Untimed one is displayed as-is and every line has Time == model.Untimed.
type Document struct {
	Kind  Kind              `json:"kind"`
	Lines []model.LyricLine `json:"lines"`
}

// IsTimed reports whether the document can track playback.
func (d Document) IsTimed() bool {
	return d.Kind == Timed
}

// Empty reports whether there is nothing to display.
func (d Document) Empty() bool {
	return len(d.Lines) == 0
}

// timeTag matches a leading [mm:ss] or [mm:ss.ff] / [mm:ss.fff] tag.
var timeTag = regexp.MustCompile(`^\s*\[(\d{2}):(\d{2})(\.\d{2,3})?\]`)

// parseTag returns the offset in seconds and the text after the tag.
func parseTag(line string) (float64, string, bool) {
	m := timeTag.FindStringSubmatchIndex(line)
	if m == nil {
		return 0, "", false
	}
	minutes, err := strconv.Atoi(line[m[2]:m[3]])
	if err != nil {
		return 0, "", false
	}
	seconds, err := strconv.Atoi(line[m[4]:m[5]])
	if err != nil {
		return 0, "", false
	}
	var fraction float64
	if m[6] >= 0 {
		fraction, err = strconv.ParseFloat(line[m[6]:m[7]], 64)
		if err != nil {
			return 0, "", false
		}
	}
	return float64(minutes*60+seconds) + fraction, line[m[1]:], true
}

// Parse turns raw lyric content into a Document.
//
// Tagged lines become timed lines; tagged lines without text are dropped.
// Untagged non-blank lines are kept with Time == model.Untimed.
// When no line carries a tag, the whole original text is returned as
// Untimed, blank lines and spacing included. When tags exist but the first
// emitted line is untagged, the first line decides: the document is Untimed.
func Parse(raw string) Document {
	if raw == "" {
		return Document{Kind: Untimed}
	}

	physical := strings.Split(raw, "\n")
	parsed := make([]model.LyricLine, 0, len(physical))
	hasTimestamps := false

	for _, line := range physical {
		if at, rest, ok := parseTag(line); ok {
			hasTimestamps = true
			if text := strings.TrimSpace(rest); text != "" {
				parsed = append(parsed, model.LyricLine{Time: at, Text: text})
			}
			continue
		}
		if text := strings.TrimSpace(line); text != "" {
			parsed = append(parsed, model.LyricLine{Time: model.Untimed, Text: text})
		}
	}

	if !hasTimestamps {
		plain := make([]model.LyricLine, 0, len(physical))
		for _, line := range physical {
			plain = append(plain, model.LyricLine{Time: model.Untimed, Text: strings.TrimSuffix(line, "\r")})
		}
		return Document{Kind: Untimed, Lines: plain}
	}

	if len(parsed) > 0 && parsed[0].Time == model.Untimed {
		for i := range parsed {
			parsed[i].Time = model.Untimed
		}
		return Document{Kind: Untimed, Lines: parsed}
	}

	return Document{Kind: Timed, Lines: parsed}
}

// ActiveLineIndex returns the latest line whose time has been reached, or
// -1 when none has or the document is untimed.
func ActiveLineIndex(doc Document, position float64) int {
	if doc.Kind != Timed || len(doc.Lines) == 0 {
		return -1
	}
	for i := len(doc.Lines) - 1; i >= 0; i-- {
		if doc.Lines[i].Time <= position {
			return i
		}
	}
	return -1
}
