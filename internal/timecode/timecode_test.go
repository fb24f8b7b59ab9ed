package timecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterdapp/chapterd/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		wantMs  int64
		wantErr bool
	}{
		{"00:00:00.000", 0, false},
		{"00:00:01.000", 1000, false},
		{"01:02:03.500", 3723500, false},
		{"00:10:00", 600000, false},       // fraction optional
		{"00:00:00.5", 500, false},        // short fraction is decimal
		{"25:00:00.000", 90000000, false}, // hours beyond 24 are valid
		{"100:00:00.000", 360000000, false},
		{"0:0:1", 1000, false},
		{"", 0, true},
		{"12:00", 0, true},
		{"12:00:00:00", 0, true},
		{"ab:cd:ef", 0, true},
		{"00:61:00", 0, true},
		{"00:00:61", 0, true},
		{"00:00:01.", 0, true},
		{"-1:00:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrMalformedTimestamp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMs, d.TotalMillis())
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	// Round-trip identity: format(parse(T)) == T for canonical timestamps.
	for _, text := range []string{
		"00:00:00.000",
		"00:00:01.000",
		"01:02:03.500",
		"23:59:59.999",
		"99:59:59.001",
	} {
		t.Run(text, func(t *testing.T) {
			d, err := Parse(text)
			require.NoError(t, err)
			assert.Equal(t, text, d.Cue())
		})
	}
}

func TestSRTAndCueSeparators(t *testing.T) {
	d := FromMillis(3723500)
	assert.Equal(t, "01:02:03.500", d.Cue())
	assert.Equal(t, "01:02:03,500", d.SRT())
}

func TestFromSeconds(t *testing.T) {
	// 3723.5 seconds is 01:02:03.500.
	d := FromSeconds(3723.5)
	assert.Equal(t, "01:02:03.500", d.Cue())

	assert.Equal(t, int64(0), FromSeconds(0).TotalMillis())
	assert.Equal(t, int64(100), FromSeconds(0.1).TotalMillis())
}

func TestComponents(t *testing.T) {
	d, err := Parse("26:03:09.042")
	require.NoError(t, err)
	assert.Equal(t, 26, d.Hours())
	assert.Equal(t, 3, d.Minutes())
	assert.Equal(t, 9, d.Seconds())
	assert.Equal(t, 42, d.Millis())
}

func TestBefore(t *testing.T) {
	a := FromMillis(1000)
	b := FromMillis(2000)
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
}

func TestMinusSecond(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// Plain decrement leaves hours and minutes alone.
		{"00:05:10.000", "00:05:09.000"},
		{"00:05:05.123", "00:05:04.123"},
		// Leading zero must survive when the result drops below 10.
		{"00:01:10.000", "00:01:09.000"},
		// Borrow from minutes.
		{"02:03:00.000", "02:02:59.000"},
		{"00:01:00.500", "00:00:59.500"},
		// Borrow from hours.
		{"01:00:00.000", "00:59:59.000"},
		{"10:00:00.250", "09:59:59.250"},
		// Hours field keeps its input width.
		{"100:00:00.000", "099:59:59.000"},
		{"1:00:00.000", "0:59:59.000"},
		// Millisecond suffix is carried over verbatim.
		{"00:00:05.5", "00:00:04.5"},
		{"00:00:05", "00:00:04"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := MinusSecond(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinusSecondUnderflow(t *testing.T) {
	_, err := MinusSecond("00:00:00.000")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTimeUnderflow)

	_, err = MinusSecond("0:0:0")
	assert.ErrorIs(t, err, errors.ErrTimeUnderflow)
}

func TestMinusSecondMalformed(t *testing.T) {
	for _, input := range []string{"", "bogus", "00:00", "00:00:00.", "aa:bb:cc.ddd", "00:61:00.000"} {
		t.Run(input, func(t *testing.T) {
			_, err := MinusSecond(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrMalformedTimestamp)
		})
	}
}
