package store

import (
	"time"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/media"
)

// Status is a job's position in its lifecycle.
type Status string

// Job lifecycle states. A job moves pending -> running -> succeeded or
// failed; there are no other transitions.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Job is one chapterization run over a single recording.
type Job struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Input    string `json:"input"`
	Language string `json:"language"`

	// User-supplied tags, authoritative over extracted ones.
	Metadata media.Metadata `json:"metadata,omitempty"`
	// UseSidecar makes the run write a cue sidecar (or read an existing one
	// instead of detecting).
	UseSidecar bool `json:"use_sidecar,omitempty"`

	// Results, populated as the run progresses.
	Duration    string              `json:"duration,omitempty"` // probed total, HH:MM:SS.mmm
	Boundaries  []chapters.Boundary `json:"boundaries,omitempty"`
	Output      string              `json:"output,omitempty"`
	CoverPath   string              `json:"cover_path,omitempty"`
	Placeholder string              `json:"placeholder,omitempty"` // blurhash of the cover
	Error       string              `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
