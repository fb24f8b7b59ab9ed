// Package search provides full-text search over transcript segments using
// Bleve. Users search for a phrase they remember hearing and get back the
// segment timings, which makes hand-correcting chapter boundaries practical
// on long recordings.
package search

import (
	"fmt"

	"github.com/chapterdapp/chapterd/internal/transcribe"
)

// SegmentDocument is one transcript segment as stored in the Bleve index.
//
// Design note: we index individual segments rather than whole transcripts so
// a hit carries its own start/end timing. The trade-off is more documents per
// recording, which batching during indexing absorbs.
type SegmentDocument struct {
	// Identity
	ID    string `json:"id"`     // "<job_id>:<seq>", deterministic so reindexing overwrites
	JobID string `json:"job_id"` // Owning chapterization job
	Seq   int    `json:"seq"`    // Position within the transcript

	// Searchable text
	Text string `json:"text"`

	// Segment timing in milliseconds, for display and range queries
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// DocumentID returns the deterministic index key for a segment.
func DocumentID(jobID string, seq int) string {
	return fmt.Sprintf("%s:%06d", jobID, seq)
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SegmentDocument) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":     d.ID,
		"job_id": d.JobID,
		"seq":    d.Seq,
		"text":   d.Text,
		"start":  d.Start,
		"end":    d.End,
	}
}

// SegmentsToDocuments converts a transcript into index documents for a job.
func SegmentsToDocuments(jobID string, t *transcribe.Transcript) []*SegmentDocument {
	docs := make([]*SegmentDocument, 0, len(t.Segments))
	for i, seg := range t.Segments {
		docs = append(docs, &SegmentDocument{
			ID:    DocumentID(jobID, i),
			JobID: jobID,
			Seq:   i,
			Text:  seg.Text,
			Start: seg.Start.TotalMillis(),
			End:   seg.End.TotalMillis(),
		})
	}
	return docs
}
