package media

import (
	"maps"
	"strconv"

	"github.com/simonhull/audiometa"
)

// Metadata is the free-text tag set stamped into the chapterized output.
// Keys follow ffmetadata naming ("album_artist", "date", ...).
type Metadata map[string]string

// recognizedTags are the container tags carried through to the output.
// Everything else the input file declares is dropped.
var recognizedTags = []string{
	"title", "album", "artist", "album_artist",
	"genre", "date", "comment", "description", "narrator",
}

// tagsFromMap filters a raw tag map down to the recognized set.
func tagsFromMap(raw map[string]string) Metadata {
	if raw == nil {
		return nil
	}
	meta := Metadata{}
	for _, key := range recognizedTags {
		if v := raw[key]; v != "" {
			meta[key] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// Merge combines extracted tags with user-supplied ones. User values are
// authoritative: a key present on both sides takes the user's value.
func Merge(extracted, user Metadata) Metadata {
	merged := Metadata{}
	maps.Copy(merged, extracted)
	maps.Copy(merged, user)
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// NativeTags reads tags without ffprobe, via the pure-Go parser. Used as a
// fallback when the ffprobe binary is missing or fails on an input.
func NativeTags(path string) (Metadata, error) {
	f, err := audiometa.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta := Metadata{}
	set := func(key, value string) {
		if value != "" {
			meta[key] = value
		}
	}
	set("title", f.Tags.Title)
	set("album", f.Tags.Album)
	set("comment", f.Tags.Comment)
	if len(f.Tags.Artists) > 0 {
		set("artist", f.Tags.Artists[0])
		set("album_artist", f.Tags.Artists[0])
	}
	set("album_artist", f.Tags.AlbumArtist)
	if len(f.Tags.Genres) > 0 {
		set("genre", f.Tags.Genres[0])
	}
	if f.Tags.Year > 0 {
		set("date", strconv.Itoa(f.Tags.Year))
	}
	if len(f.Tags.Composers) > 0 {
		// Narrators conventionally ride in the composer tag.
		set("narrator", f.Tags.Composers[0])
	}

	if len(meta) == 0 {
		return nil, nil
	}
	return meta, nil
}
