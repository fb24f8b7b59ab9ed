// Package transcribe produces time-stamped transcript text for an audio
// input. The detection engine treats transcription as an opaque producer of
// lines; this package holds the segment model, the SRT rendering those lines
// come from, and the remote whisper backend.
package transcribe

import (
	"context"

	"github.com/chapterdapp/chapterd/internal/timecode"
)

// Segment is one transcribed utterance with its timing.
type Segment struct {
	Start timecode.Duration `json:"start"`
	End   timecode.Duration `json:"end"`
	Text  string            `json:"text"`
}

// Transcript is a complete transcription result for one recording.
type Transcript struct {
	Segments []Segment         `json:"segments"`
	Language string            `json:"language"`
	Duration timecode.Duration `json:"duration"`
	Model    string            `json:"model"`
}

// Transcriber turns an audio file into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, path, lang string) (*Transcript, error)
	Healthy(ctx context.Context) error
}
