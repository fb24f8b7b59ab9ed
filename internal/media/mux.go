package media

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/errors"
)

// Muxer drives ffmpeg to stamp chapters, tags, and cover art into a copy of
// the input recording. The audio stream is never re-encoded.
type Muxer struct {
	binary string
	logger *slog.Logger
}

// NewMuxer creates a muxer using the given ffmpeg binary, or the one on PATH
// when empty.
func NewMuxer(binary string, logger *slog.Logger) *Muxer {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Muxer{binary: binary, logger: logger}
}

// OutputPath returns where Chapterize writes its result for a given input.
func OutputPath(input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), stem+" - Chapters.mp3")
}

// Chapterize writes the chapterized copy of input. The ffmetadata file is
// written next to the input and removed afterwards; coverPath may be empty.
func (m *Muxer) Chapterize(ctx context.Context, input string, meta Metadata, boundaries []chapters.Boundary, coverPath string) (string, error) {
	metaPath := filepath.Join(filepath.Dir(input), "FFMETADATAFILE")
	if err := WriteFFMetadata(metaPath, meta, boundaries); err != nil {
		return "", err
	}
	defer os.Remove(metaPath)

	output := OutputPath(input)
	args := muxArgs(input, metaPath, coverPath, output)

	m.logger.Debug("running ffmpeg", "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, m.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(output)
		return "", errors.Wrapf(err, "ffmpeg mux failed: %s", tail(out))
	}

	m.logger.Info("chapterized output written", "output", output, "chapters", len(boundaries))
	return output, nil
}

func muxArgs(input, metaPath, coverPath, output string) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-i", metaPath,
	}
	if coverPath != "" {
		args = append(args,
			"-i", coverPath,
			"-map_metadata", "1",
			"-map", "0", "-map", "2",
			"-c", "copy",
			"-id3v2_version", "3",
			"-metadata:s:v", "comment=Cover (front)",
		)
	} else {
		args = append(args, "-map_metadata", "1", "-c", "copy")
	}
	return append(args, output)
}

// ExtractCover pulls embedded cover art out of the input as a JPEG next to
// it. Returns an empty path, without error, when the input carries no art.
func (m *Muxer) ExtractCover(ctx context.Context, input string) (string, error) {
	cover := strings.TrimSuffix(input, filepath.Ext(input)) + ".jpg"

	cmd := exec.CommandContext(ctx, m.binary,
		"-y", "-loglevel", "quiet",
		"-i", input,
		"-an", "-c:v", "copy",
		cover,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(cover)
		return "", nil
	}

	// ffmpeg happily writes an empty file when there is no video stream.
	if fi, err := os.Stat(cover); err != nil || fi.Size() < 10 {
		os.Remove(cover)
		return "", nil
	}
	return cover, nil
}

func tail(out []byte) string {
	const max = 300
	s := strings.TrimSpace(string(out))
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
