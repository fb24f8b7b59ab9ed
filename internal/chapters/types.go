// Package chapters provides chapter boundary detection over time-stamped
// transcripts and finalization of start/end pairs.
package chapters

import (
	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/timecode"
)

// Boundary is a detected chapter start (and, after finalization, end) plus
// its label.
//
// Start and End are kept textual in HH:MM:SS.mmm form. The decrement
// arithmetic that derives ends from starts is defined on the text itself
// (field widths and millisecond suffixes survive verbatim), and the sidecar
// round-trip contract requires reproducing hand-edited timestamps exactly.
type Boundary struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"` // empty until finalized
	Label string `json:"label"`
}

// StartTime parses the textual start into a timecode.Duration.
func (b Boundary) StartTime() (timecode.Duration, error) {
	return timecode.Parse(b.Start)
}

// EndTime parses the textual end into a timecode.Duration.
func (b Boundary) EndTime() (timecode.Duration, error) {
	return timecode.Parse(b.End)
}

// Validate checks the structural invariants of a finalized boundary list:
// non-empty, strictly increasing starts, and every end after its start.
// The detector does not enforce a minimum spacing between markers, so two
// markers on adjacent transcript lines can produce a zero-length chapter
// once the decrement runs; this is where that surfaces.
func Validate(boundaries []Boundary) error {
	if len(boundaries) == 0 {
		return errors.NoChapters("boundary list is empty")
	}

	var prev timecode.Duration
	for i, b := range boundaries {
		start, err := b.StartTime()
		if err != nil {
			return err
		}
		if i > 0 && !prev.Before(start) {
			return errors.Validationf("boundary %d start %s is not after previous start", i+1, b.Start)
		}
		if b.End != "" {
			end, err := b.EndTime()
			if err != nil {
				return err
			}
			if !start.Before(end) {
				return errors.Validationf("boundary %d (%s) has end %s at or before start %s", i+1, b.Label, b.End, b.Start)
			}
		}
		prev = start
	}
	return nil
}
