package cue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/errors"
)

func testBoundaries() []chapters.Boundary {
	return []chapters.Boundary{
		{Start: "00:00:00.000", End: "00:11:59.250", Label: "Prologue"},
		{Start: "00:12:00.250", End: "00:59:59.000", Label: "Chapter 01"},
		{Start: "01:00:00.000", End: "01:02:03.500", Label: "Chapter 02"},
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cue")
	want := testBoundaries()

	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].Label, got[i].Label)
		assert.Equal(t, want[i].Start, got[i].Start)
		if i != len(want)-1 {
			assert.Equal(t, want[i].End, got[i].End)
		}
	}
	// The last end is never persisted; it gets recomputed from the total
	// duration on the way back in.
	assert.Empty(t, got[len(got)-1].End)
}

func TestRoundTripQuotedLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cue")
	want := []chapters.Boundary{
		{Start: "00:00:00.000", End: "00:09:59.000", Label: `The "Storm"`},
		{Start: "00:10:00.000", End: "00:30:00.000", Label: "Chapter 01"},
	}

	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, `The "Storm"`, got[0].Label)
}

func TestWriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cue")
	require.NoError(t, Write(path, testBoundaries()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `FILE "book.mp3" MP3
TRACK 1 AUDIO
  TITLE	"Prologue"
  START	00:00:00.000
  END		00:11:59.250
TRACK 2 AUDIO
  TITLE	"Chapter 01"
  START	00:12:00.250
  END		00:59:59.000
TRACK 3 AUDIO
  TITLE	"Chapter 02"
  START	01:00:00.000
`
	assert.Equal(t, want, string(data))
}

func TestWriteRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cue")
	require.NoError(t, os.WriteFile(path, []byte("hand edited\n"), 0o644))

	err := Write(path, testBoundaries())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSidecarWrite)

	// The existing file is untouched.
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "hand edited\n", string(data))
}

func TestWriteEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cue")
	err := Write(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoChapters)
	assert.NoFileExists(t, path)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSidecarParse)
}

func TestReadMalformedField(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unquoted title", "FILE \"b.mp3\" MP3\nTRACK 1 AUDIO\n  TITLE\tChapter 01\n  START\t00:00:00.000\n"},
		{"empty start", "FILE \"b.mp3\" MP3\nTRACK 1 AUDIO\n  TITLE\t\"Chapter 01\"\n  START\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "book.cue")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := Read(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrSidecarParse)
		})
	}
}

func TestReadNoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.cue")
	require.NoError(t, os.WriteFile(path, []byte("FILE \"b.mp3\" MP3\n"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSidecarParse)
}

func TestReadPreservesHandEdits(t *testing.T) {
	// A user-renamed chapter and a hand-tweaked start come back verbatim.
	body := "FILE \"b.mp3\" MP3\n" +
		"TRACK 1 AUDIO\n" +
		"  TITLE\t\"Introduction (fixed)\"\n" +
		"  START\t00:00:00.000\n" +
		"  END\t\t00:09:59.123\n" +
		"TRACK 2 AUDIO\n" +
		"  TITLE\t\"Chapter 01\"\n" +
		"  START\t00:10:00.123\n"

	path := filepath.Join(t.TempDir(), "book.cue")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Introduction (fixed)", got[0].Label)
	assert.Equal(t, "00:09:59.123", got[0].End)
	assert.Equal(t, "00:10:00.123", got[1].Start)
}
