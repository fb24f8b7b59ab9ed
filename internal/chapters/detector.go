package chapters

import (
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"

	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/language"
)

// startPattern extracts the start timestamp from an SRT-style range line:
// "00:10:00,000 --> 00:10:05,000".
var startPattern = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2},\d+)\s*-->`)

// firstStart is the forced start of the first detected boundary. Any lead-in
// audio before the first marker belongs to the first chapter.
const firstStart = "00:00:00.000"

// Detector scans transcript lines for chapter-type transitions.
type Detector struct {
	table  language.Table
	logger *slog.Logger
}

// NewDetector creates a detector for the given marker table.
func NewDetector(table language.Table, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{table: table, logger: logger}
}

// Detect consumes a finite ordered sequence of transcript lines and returns
// the chapter boundaries it finds, with ends unset. The sequence is read
// once, two lines at a time (current plus one line of lookahead).
//
// A boundary is recognized when the lookahead line contains at least one
// marker and none of the excluded phrases; its start comes from the range
// timestamp on the current line. A marker line whose timestamp line cannot
// be parsed is skipped with a warning and does not consume a chapter number.
// An empty result is an error: the downstream steps require at least one
// chapter.
func (d *Detector) Detect(lines iter.Seq[string]) ([]Boundary, error) {
	var boundaries []Boundary
	counter := 1

	next, stop := iter.Pull(lines)
	defer stop()

	current, ok := next()
	if !ok {
		return nil, errors.NoChapters("transcript is empty")
	}

	for {
		lookahead, ok := next()
		if !ok {
			break
		}

		if d.matches(lookahead) {
			if m := startPattern.FindStringSubmatch(current); m != nil {
				start := strings.Replace(m[1], ",", ".", 1)
				if len(boundaries) == 0 {
					start = firstStart
				}
				boundaries = append(boundaries, Boundary{
					Start: start,
					Label: d.label(lookahead, &counter),
				})
			} else {
				d.logger.Warn("skipping chapter candidate: no parsable start timestamp",
					"line", current,
					"matched", lookahead,
				)
			}
		}

		current = lookahead
	}

	if len(boundaries) == 0 {
		return nil, errors.NoChapters("no chapter markers matched the transcript")
	}
	return boundaries, nil
}

// matches reports whether a content line contains at least one marker and
// none of the excluded phrases. Markers are stored lowercase; lines are
// folded to lowercase before the substring test so a narrated "Chapter Two"
// matches the "chapter" marker.
func (d *Detector) matches(line string) bool {
	folded := strings.ToLower(line)

	for _, phrase := range d.table.Excluded {
		if strings.Contains(folded, phrase) {
			return false
		}
	}
	for _, m := range d.table.Markers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

// label classifies a matched line. Prologue synonyms win over the chapter
// literal, which wins over the epilogue. The chapter counter advances only
// on chapter matches, sequentially across the whole scan. A marker line that
// fits none of the three kinds yields an empty label (unclassified).
func (d *Detector) label(line string, counter *int) string {
	folded := strings.ToLower(line)
	markers := d.table.Markers

	switch {
	case strings.Contains(folded, markers[language.MarkerPrologue]),
		strings.Contains(folded, markers[language.MarkerPrologueAlt]):
		return d.table.Title(markers[language.MarkerPrologue])
	case strings.Contains(folded, markers[language.MarkerChapter]):
		label := fmt.Sprintf("%s %s", d.table.Title(markers[language.MarkerChapter]), padCounter(*counter))
		*counter++
		return label
	case strings.Contains(folded, markers[language.MarkerEpilogue]):
		return d.table.Title(markers[language.MarkerEpilogue])
	default:
		return ""
	}
}

// padCounter zero-pads single-digit chapter numbers for sort-friendly labels.
// Three-digit counters render without padding.
func padCounter(n int) string {
	if n < 10 {
		return fmt.Sprintf("0%d", n)
	}
	return fmt.Sprintf("%d", n)
}
