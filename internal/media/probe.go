// Package media wraps the external audio collaborators: ffprobe for duration
// and tag measurement, ffmpeg for chapter muxing and cover extraction, and a
// native tag reader used when ffprobe is unavailable.
package media

import (
	"context"
	"encoding/json/v2"
	"os/exec"
	"strconv"
	"strings"

	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/timecode"
)

// EmbeddedChapter is a chapter marker already present in the input container.
type EmbeddedChapter struct {
	Title string            `json:"title"`
	Start timecode.Duration `json:"start"`
	End   timecode.Duration `json:"end"`
}

// Info is what ffprobe reports about a recording.
type Info struct {
	Format     string            `json:"format"`
	Codec      string            `json:"codec"`
	SampleRate int               `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Bitrate    int               `json:"bitrate"`
	Seconds    float64           `json:"seconds"`
	Duration   timecode.Duration `json:"duration"`
	Tags       Metadata          `json:"tags,omitempty"`
	Chapters   []EmbeddedChapter `json:"chapters,omitempty"`
}

// Prober measures recordings with ffprobe.
type Prober struct {
	binary string
}

// NewProber creates a prober using the given ffprobe binary, or the one on
// PATH when empty.
func NewProber(binary string) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary}
}

// Probe runs ffprobe against path and parses the result.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_chapters",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "ffprobe failed")
	}
	return parseProbeOutput(output)
}

// TotalDuration returns the recording's length as reported by ffprobe. The
// finalizer uses this for the last chapter's end marker.
func (p *Prober) TotalDuration(ctx context.Context, path string) (timecode.Duration, error) {
	info, err := p.Probe(ctx, path)
	if err != nil {
		return timecode.Duration{}, err
	}
	return info.Duration, nil
}

type probeOutput struct {
	Format struct {
		Tags       map[string]string `json:"tags"`
		FormatName string            `json:"format_name"`
		Duration   string            `json:"duration"`
		BitRate    string            `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Chapters []struct {
		Tags      map[string]string `json:"tags"`
		StartTime string            `json:"start_time"`
		EndTime   string            `json:"end_time"`
	} `json:"chapters"`
}

func parseProbeOutput(data []byte) (*Info, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse ffprobe output")
	}

	info := &Info{}

	if raw.Format.FormatName != "" {
		// "mp3,mp2" style lists; the first entry is the detected one.
		info.Format = strings.Split(raw.Format.FormatName, ",")[0]
	}
	if raw.Format.Duration != "" {
		seconds, err := strconv.ParseFloat(raw.Format.Duration, 64)
		if err != nil {
			return nil, errors.MalformedTimestampf("ffprobe duration %q", raw.Format.Duration)
		}
		info.Seconds = seconds
		info.Duration = timecode.FromSeconds(seconds)
	}
	if raw.Format.BitRate != "" {
		if br, err := strconv.Atoi(raw.Format.BitRate); err == nil {
			info.Bitrate = br
		}
	}

	for _, stream := range raw.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		info.Codec = stream.CodecName
		info.Channels = stream.Channels
		if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
			info.SampleRate = sr
		}
		break
	}

	info.Tags = tagsFromMap(raw.Format.Tags)

	for _, ch := range raw.Chapters {
		chapter := EmbeddedChapter{}
		if ch.Tags != nil {
			chapter.Title = ch.Tags["title"]
		}
		if start, err := strconv.ParseFloat(ch.StartTime, 64); err == nil {
			chapter.Start = timecode.FromSeconds(start)
		}
		if end, err := strconv.ParseFloat(ch.EndTime, 64); err == nil {
			chapter.End = timecode.FromSeconds(end)
		}
		info.Chapters = append(info.Chapters, chapter)
	}

	return info, nil
}
