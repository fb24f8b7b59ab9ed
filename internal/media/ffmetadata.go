package media

import (
	"fmt"
	"os"
	"strings"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/timecode"
)

// WriteFFMetadata renders tags and finalized boundaries as an ffmetadata file
// for the muxer. Chapter times use TIMEBASE=1/1000, so START and END are
// whole milliseconds.
func WriteFFMetadata(path string, meta Metadata, boundaries []chapters.Boundary) error {
	if err := chapters.Validate(boundaries); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")

	writeTag := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s=%s\n", key, escapeMetaValue(value))
		}
	}
	// album_artist doubles as artist; narrator rides in composer.
	writeTag("album_artist", meta["album_artist"])
	writeTag("artist", meta["album_artist"])
	writeTag("genre", meta["genre"])
	writeTag("album", meta["album"])
	writeTag("title", meta["title"])
	writeTag("date", meta["date"])
	writeTag("comment", meta["comment"])
	writeTag("description", meta["description"])
	writeTag("composer", meta["narrator"])

	for _, boundary := range boundaries {
		start, err := timecode.Parse(boundary.Start)
		if err != nil {
			return err
		}
		end, err := timecode.Parse(boundary.End)
		if err != nil {
			return err
		}
		b.WriteString("[CHAPTER]\n")
		b.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\n", start.TotalMillis())
		fmt.Fprintf(&b, "END=%d\n", end.TotalMillis())
		fmt.Fprintf(&b, "TITLE=%s\n", escapeMetaValue(boundary.Label))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, "write ffmetadata file")
	}
	return nil
}

// escapeMetaValue backslash-escapes the characters the ffmetadata format
// treats specially.
func escapeMetaValue(v string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"=", `\=`,
		";", `\;`,
		"#", `\#`,
		"\n", `\`+"\n",
	)
	return r.Replace(v)
}
