package chapters

import (
	"github.com/chapterdapp/chapterd/internal/timecode"
)

// Finalize fills in the end time of every boundary in place. Each boundary
// ends exactly one second before the next one starts, so consecutive chapter
// markers never overlap; the last boundary ends at the recording's total
// duration.
//
// Decrement failures (malformed start, underflow at 00:00:00) propagate
// unchanged and are fatal to the run.
func Finalize(boundaries []Boundary, total timecode.Duration) error {
	for i := range boundaries {
		if i == len(boundaries)-1 {
			boundaries[i].End = total.Cue()
			continue
		}
		end, err := timecode.MinusSecond(boundaries[i+1].Start)
		if err != nil {
			return err
		}
		boundaries[i].End = end
	}
	return nil
}
