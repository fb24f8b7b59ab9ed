package media

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/timecode"
)

const probeFixture = `{
	"format": {
		"format_name": "mp3,mp2",
		"duration": "3723.500000",
		"bit_rate": "128000",
		"tags": {
			"album": "A Test Book",
			"album_artist": "Some Author",
			"genre": "Audiobook",
			"encoder": "LAME"
		}
	},
	"streams": [
		{"codec_type": "video", "codec_name": "mjpeg"},
		{"codec_type": "audio", "codec_name": "mp3", "sample_rate": "44100", "channels": 2}
	],
	"chapters": [
		{"tags": {"title": "Chapter 01"}, "start_time": "0.000000", "end_time": "600.000000"}
	]
}`

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput([]byte(probeFixture))
	require.NoError(t, err)

	assert.Equal(t, "mp3", info.Format)
	assert.Equal(t, "mp3", info.Codec)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 128000, info.Bitrate)
	assert.Equal(t, 3723.5, info.Seconds)
	assert.Equal(t, timecode.FromSeconds(3723.5), info.Duration)

	// Only recognized tags survive; "encoder" is dropped.
	assert.Equal(t, Metadata{
		"album":        "A Test Book",
		"album_artist": "Some Author",
		"genre":        "Audiobook",
	}, info.Tags)

	require.Len(t, info.Chapters, 1)
	assert.Equal(t, "Chapter 01", info.Chapters[0].Title)
	assert.Equal(t, timecode.FromSeconds(600), info.Chapters[0].End)
}

func TestParseProbeOutputGarbage(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	require.Error(t, err)
}

func TestMergeUserWins(t *testing.T) {
	extracted := Metadata{"album": "Extracted Title", "genre": "Speech"}
	user := Metadata{"album": "User Title", "narrator": "A Narrator"}

	merged := Merge(extracted, user)

	assert.Equal(t, Metadata{
		"album":    "User Title",
		"genre":    "Speech",
		"narrator": "A Narrator",
	}, merged)
}

func TestMergeEmptySides(t *testing.T) {
	assert.Nil(t, Merge(nil, nil))
	assert.Equal(t, Metadata{"genre": "Audiobook"}, Merge(Metadata{"genre": "Audiobook"}, nil))
	assert.Equal(t, Metadata{"genre": "Audiobook"}, Merge(nil, Metadata{"genre": "Audiobook"}))
}

func TestWriteFFMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FFMETADATAFILE")
	meta := Metadata{
		"album_artist": "Some Author",
		"album":        "A Test Book",
		"genre":        "Audiobook",
		"narrator":     "A Narrator",
	}
	boundaries := []chapters.Boundary{
		{Start: "00:00:00.000", End: "00:09:59.000", Label: "Chapter 01"},
		{Start: "00:10:00.000", End: "01:02:03.500", Label: "Chapter 02"},
	}

	require.NoError(t, WriteFFMetadata(path, meta, boundaries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := ";FFMETADATA1\n" +
		"album_artist=Some Author\n" +
		"artist=Some Author\n" +
		"genre=Audiobook\n" +
		"album=A Test Book\n" +
		"composer=A Narrator\n" +
		"[CHAPTER]\n" +
		"TIMEBASE=1/1000\n" +
		"START=0\n" +
		"END=599000\n" +
		"TITLE=Chapter 01\n" +
		"\n" +
		"[CHAPTER]\n" +
		"TIMEBASE=1/1000\n" +
		"START=600000\n" +
		"END=3723500\n" +
		"TITLE=Chapter 02\n" +
		"\n"
	assert.Equal(t, want, string(data))
}

func TestWriteFFMetadataEscapesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FFMETADATAFILE")
	meta := Metadata{"album": "Signs; Portents = Omens #1"}
	boundaries := []chapters.Boundary{
		{Start: "00:00:00.000", End: "00:01:00.000", Label: "Chapter 01"},
	}

	require.NoError(t, WriteFFMetadata(path, meta, boundaries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `album=Signs\; Portents \= Omens \#1`)
}

func TestWriteFFMetadataRejectsUnfinalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FFMETADATAFILE")
	boundaries := []chapters.Boundary{{Start: "00:00:00.000", Label: "Chapter 01"}}

	err := WriteFFMetadata(path, nil, boundaries)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestMuxArgs(t *testing.T) {
	withCover := muxArgs("in.mp3", "FFMETADATAFILE", "cover.jpg", "out.mp3")
	assert.Equal(t, []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", "in.mp3",
		"-i", "FFMETADATAFILE",
		"-i", "cover.jpg",
		"-map_metadata", "1",
		"-map", "0", "-map", "2",
		"-c", "copy",
		"-id3v2_version", "3",
		"-metadata:s:v", "comment=Cover (front)",
		"out.mp3",
	}, withCover)

	withoutCover := muxArgs("in.mp3", "FFMETADATAFILE", "", "out.mp3")
	assert.Equal(t, []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", "in.mp3",
		"-i", "FFMETADATAFILE",
		"-map_metadata", "1",
		"-c", "copy",
		"out.mp3",
	}, withoutCover)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/library", "Book - Chapters.mp3"), OutputPath(filepath.Join("/library", "Book.mp3")))
}

func TestCoverPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	hash, err := CoverPlaceholder(path)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestCoverPlaceholderBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := CoverPlaceholder(path)
	require.Error(t, err)
}
