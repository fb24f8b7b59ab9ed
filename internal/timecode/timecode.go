// Package timecode provides exact sexagesimal timestamp parsing, formatting,
// and arithmetic for chapter boundary computation.
//
// Timestamps carry millisecond resolution. Hours are unbounded (a 30 hour
// audiobook is a valid input), so values never wrap at 24.
package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/chapterdapp/chapterd/internal/errors"
)

// timestampPattern matches HH:MM:SS with an optional fractional second.
// Field widths are not fixed here; width preservation is handled by the
// formatting side.
var timestampPattern = regexp.MustCompile(`^(\d+):(\d+):(\d+)(?:\.(\d+))?$`)

// Duration is an exact, non-negative elapsed time with millisecond resolution.
// Equality and ordering are defined on total milliseconds.
type Duration struct {
	millis int64
}

// FromMillis builds a Duration from a total millisecond count.
func FromMillis(ms int64) Duration {
	return Duration{millis: ms}
}

// FromSeconds builds a Duration from a floating point seconds value, as
// returned by the duration measurement collaborator. The value is rounded to
// the nearest millisecond.
func FromSeconds(seconds float64) Duration {
	return Duration{millis: int64(math.Round(seconds * 1000))}
}

// Parse parses "HH:MM:SS[.fff]" into a Duration. A missing fractional part
// means zero milliseconds. The fraction is decimal, so ".5" is 500ms.
func Parse(text string) (Duration, error) {
	m := timestampPattern.FindStringSubmatch(text)
	if m == nil {
		return Duration{}, errors.MalformedTimestampf("not a valid timestamp: %q", text)
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if minutes > 59 || seconds > 59 {
		return Duration{}, errors.MalformedTimestampf("minutes and seconds must be below 60: %q", text)
	}

	millis := 0
	if m[4] != "" {
		millis = fractionMillis(m[4])
	}

	total := int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + int64(millis)
	return Duration{millis: total}, nil
}

// fractionMillis converts a decimal fraction's digits to milliseconds.
// "5" -> 500, "50" -> 500, "500" -> 500, "5004" -> 500 (truncated).
func fractionMillis(digits string) int {
	for len(digits) < 3 {
		digits += "0"
	}
	ms, _ := strconv.Atoi(digits[:3])
	return ms
}

// TotalMillis returns the duration as total milliseconds.
func (d Duration) TotalMillis() int64 {
	return d.millis
}

// Hours returns the whole hours component.
func (d Duration) Hours() int {
	return int(d.millis / 3600000)
}

// Minutes returns the minutes component (0-59).
func (d Duration) Minutes() int {
	return int(d.millis / 60000 % 60)
}

// Seconds returns the seconds component (0-59).
func (d Duration) Seconds() int {
	return int(d.millis / 1000 % 60)
}

// Millis returns the millisecond component (0-999).
func (d Duration) Millis() int {
	return int(d.millis % 1000)
}

// Before reports whether d is strictly earlier than other.
func (d Duration) Before(other Duration) bool {
	return d.millis < other.millis
}

// Cue renders the duration in sidecar/chapter-marker form: HH:MM:SS.mmm.
func (d Duration) Cue() string {
	return d.format('.')
}

// SRT renders the duration in transcript form: HH:MM:SS,mmm.
func (d Duration) SRT() string {
	return d.format(',')
}

// String implements fmt.Stringer using the sidecar form.
func (d Duration) String() string {
	return d.Cue()
}

// MarshalText implements encoding.TextMarshaler using the sidecar form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Cue()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Duration) format(sep byte) string {
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", d.Hours(), d.Minutes(), d.Seconds(), sep, d.Millis())
}
