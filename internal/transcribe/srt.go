package transcribe

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/chapterdapp/chapterd/internal/errors"
)

// Lines renders the transcript as SRT-shaped lines: sequence number, a
// "start --> end" range with comma millisecond separators, the spoken text,
// and a blank separator. This is the form the boundary detector consumes, so
// a freshly produced transcript and a re-read .srt file look identical to it.
func Lines(t *Transcript) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, seg := range t.Segments {
			if !yield(fmt.Sprintf("%d", i+1)) {
				return
			}
			if !yield(fmt.Sprintf("%s --> %s", seg.Start.SRT(), seg.End.SRT())) {
				return
			}
			if !yield(seg.Text) {
				return
			}
			if !yield("") {
				return
			}
		}
	}
}

// WriteSRT persists the transcript next to the recording so later runs skip
// transcription entirely. The write is atomic (temp file plus rename); a
// crashed run never leaves a truncated .srt behind.
func WriteSRT(path string, t *Transcript) error {
	var b strings.Builder
	for line := range Lines(t) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".srt-*")
	if err != nil {
		return errors.Wrap(err, "create transcript temp file")
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.WriteString(b.String()); err != nil {
		return errors.Wrap(err, "write transcript")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync transcript")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close transcript")
	}
	tmp = nil

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "rename transcript into place")
	}
	return nil
}

// ReadLines loads an existing .srt file as detector input lines.
func ReadLines(path string) (iter.Seq[string], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read transcript")
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(strings.TrimSuffix(line, "\r")) {
				return
			}
		}
	}, nil
}
