// Package cue reads and writes the cue sidecar: a human-editable, line-oriented
// encoding of a finalized boundary list. Users fix detector mistakes by editing
// the sidecar, then later runs read it back instead of re-detecting.
package cue

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/errors"
)

var (
	titlePattern = regexp.MustCompile(`TITLE\t(".*")`)
	startPattern = regexp.MustCompile(`START\t(.+)`)
	endPattern   = regexp.MustCompile(`END\t+(.+)`)
)

// Write serializes a finalized boundary list to path.
//
// The file is created exclusively; an existing sidecar is never overwritten
// because it may carry hand edits. On any write failure the partial file is
// removed so a later run cannot parse a truncated sidecar.
//
// The last boundary's END line is omitted: the final end equals the total
// recording duration and is recomputed at read time, so a hand-edited sidecar
// stays valid if the recording is re-encoded.
func Write(path string, boundaries []chapters.Boundary) error {
	if len(boundaries) == 0 {
		return errors.NoChapters("nothing to write to sidecar")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.SidecarWrite("create sidecar").WithCause(err)
	}

	w := bufio.NewWriter(f)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fmt.Fprintf(w, "FILE %q MP3\n", stem+".mp3")
	for i, b := range boundaries {
		fmt.Fprintf(w, "TRACK %d AUDIO\n", i+1)
		fmt.Fprintf(w, "  TITLE\t%q\n", b.Label)
		fmt.Fprintf(w, "  START\t%s\n", b.Start)
		if i != len(boundaries)-1 {
			fmt.Fprintf(w, "  END\t\t%s\n", b.End)
		}
	}

	if err := w.Flush(); err == nil {
		err = f.Close()
		if err == nil {
			return nil
		}
	} else {
		f.Close()
	}
	os.Remove(path)
	return errors.SidecarWrite("write sidecar").WithCause(err)
}

// Read parses a sidecar back into an ordered boundary list.
//
// Fields accumulate until the next TRACK line or end of file, at which point
// the accumulated record is appended. A field line that fails its expected
// shape aborts the parse; a sidecar yielding zero records is an error, and the
// caller falls back to normal detection.
//
// The last boundary comes back with an empty End (never written, see Write);
// the caller re-finalizes against the total duration if it needs one.
func Read(path string) ([]chapters.Boundary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.SidecarParse("open sidecar").WithCause(err)
	}
	defer f.Close()

	var (
		boundaries []chapters.Boundary
		current    chapters.Boundary
		dirty      bool
	)
	flush := func() {
		if dirty {
			boundaries = append(boundaries, current)
			current = chapters.Boundary{}
			dirty = false
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "FILE"):
			// Header names the recording; nothing to extract.
		case strings.HasPrefix(line, "TRACK"):
			flush()
		case strings.Contains(line, "TITLE"):
			m := titlePattern.FindStringSubmatch(line)
			if m == nil {
				return nil, errors.SidecarParsef("malformed TITLE line: %q", line)
			}
			// Labels are written with %q, so quotes inside a label arrive
			// escaped; unquote to get the original text back.
			label, err := strconv.Unquote(m[1])
			if err != nil {
				return nil, errors.SidecarParsef("malformed TITLE line: %q", line)
			}
			current.Label = label
			dirty = true
		case strings.Contains(line, "START"):
			m := startPattern.FindStringSubmatch(line)
			if m == nil {
				return nil, errors.SidecarParsef("malformed START line: %q", line)
			}
			current.Start = m[1]
			dirty = true
		case strings.Contains(line, "END"):
			m := endPattern.FindStringSubmatch(line)
			if m == nil {
				return nil, errors.SidecarParsef("malformed END line: %q", line)
			}
			current.End = m[1]
			dirty = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.SidecarParse("read sidecar").WithCause(err)
	}
	flush()

	if len(boundaries) == 0 {
		return nil, errors.SidecarParse("sidecar contains no chapter records")
	}
	return boundaries, nil
}
