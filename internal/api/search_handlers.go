package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chapterdapp/chapterd/internal/search"
	"github.com/chapterdapp/chapterd/internal/timecode"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchSegments",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search transcripts",
		Description: "Full-text search over transcribed segments, for locating a remembered phrase in a recording",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching transcript segments.
type SearchInput struct {
	Query    string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	JobID    string `query:"job" validate:"omitempty,max=64" doc:"Restrict to one job's transcript"`
	MinStart string `query:"min_start" validate:"omitempty,timecode" doc:"Earliest segment start, HH:MM:SS.mmm"`
	MaxStart string `query:"max_start" validate:"omitempty,timecode" doc:"Latest segment start, HH:MM:SS.mmm"`
	Limit    int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset   int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
}

// SegmentHitResult is a single matching transcript segment.
type SegmentHitResult struct {
	ID        string  `json:"id" doc:"Segment document ID"`
	JobID     string  `json:"job_id" doc:"Owning job"`
	Seq       int     `json:"seq" doc:"Segment sequence number within the transcript"`
	Score     float64 `json:"score" doc:"Search relevance score"`
	Text      string  `json:"text" doc:"Segment text"`
	Start     string  `json:"start" doc:"Segment start, HH:MM:SS.mmm"`
	End       string  `json:"end" doc:"Segment end, HH:MM:SS.mmm"`
	Highlight string  `json:"highlight,omitempty" doc:"Highlighted match"`
}

// SearchResponse contains segment search results.
type SearchResponse struct {
	Query  string             `json:"query" doc:"Original search query"`
	Total  int64              `json:"total" doc:"Total matches"`
	TookMs int64              `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SegmentHitResult `json:"hits" doc:"Matching segments"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.JobID = input.JobID
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	if input.MinStart != "" {
		d, err := timecode.Parse(input.MinStart)
		if err != nil {
			return nil, err
		}
		params.MinStart = d.TotalMillis()
	}
	if input.MaxStart != "" {
		d, err := timecode.Parse(input.MaxStart)
		if err != nil {
			return nil, err
		}
		params.MaxStart = d.TotalMillis()
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.Error("segment search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchResponse{
		Query:  result.Query,
		Total:  int64(result.Total), //nolint:gosec // Safe: total count won't exceed int64
		TookMs: result.TookMs,
		Hits:   make([]SegmentHitResult, 0, len(result.Hits)),
	}
	for i := range result.Hits {
		hit := &result.Hits[i]
		resp.Hits = append(resp.Hits, SegmentHitResult{
			ID:        hit.ID,
			JobID:     hit.JobID,
			Seq:       hit.Seq,
			Score:     hit.Score,
			Text:      hit.Text,
			Start:     hit.Start.Cue(),
			End:       hit.End.Cue(),
			Highlight: hit.Highlight,
		})
	}

	return &SearchOutput{Body: resp}, nil
}
