package timecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chapterdapp/chapterd/internal/errors"
)

// MinusSecond returns the timestamp exactly one second earlier than text,
// borrowing across seconds, minutes, and hours as needed. The operation is
// textual: the millisecond suffix is carried over verbatim, minutes and
// seconds keep their two-digit padding, and the hours field keeps the digit
// count it had on input.
//
// Decrementing below 00:00:00 is invalid and returns ErrTimeUnderflow.
func MinusSecond(text string) (string, error) {
	hoursText, minutesText, secondsText, fraction, err := splitFields(text)
	if err != nil {
		return "", err
	}

	hours, _ := strconv.Atoi(hoursText)
	minutes, _ := strconv.Atoi(minutesText)
	seconds, _ := strconv.Atoi(secondsText)
	if minutes > 59 || seconds > 59 {
		return "", errors.MalformedTimestampf("minutes and seconds must be below 60: %q", text)
	}

	switch {
	case seconds > 0:
		seconds--
	case minutes > 0:
		seconds = 59
		minutes--
	case hours > 0:
		seconds = 59
		minutes = 59
		hours--
	default:
		return "", errors.TimeUnderflow("cannot decrement below 00:00:00")
	}

	// The hours field keeps its input width so a decrement never changes the
	// timestamp's shape; minutes and seconds are always two digits.
	out := fmt.Sprintf("%0*d:%02d:%02d", len(hoursText), hours, minutes, seconds)
	if fraction != "" {
		out += "." + fraction
	}
	return out, nil
}

// splitFields tears a textual timestamp into its H/M/S fields and the raw
// fraction digits (possibly empty), validating the overall shape.
func splitFields(text string) (hours, minutes, seconds, fraction string, err error) {
	base := text
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		base = text[:dot]
		fraction = text[dot+1:]
		if fraction == "" || !allDigits(fraction) {
			return "", "", "", "", errors.MalformedTimestampf("not a valid timestamp: %q", text)
		}
	}

	parts := strings.Split(base, ":")
	if len(parts) != 3 {
		return "", "", "", "", errors.MalformedTimestampf("not a valid timestamp: %q", text)
	}
	for _, p := range parts {
		if p == "" || !allDigits(p) {
			return "", "", "", "", errors.MalformedTimestampf("not a valid timestamp: %q", text)
		}
	}
	return parts[0], parts[1], parts[2], fraction, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
