package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/chapterdapp/chapterd/internal/timecode"
)

// SearchParams configures a segment search.
type SearchParams struct {
	Query string // Phrase or words the user remembers hearing
	JobID string // Restrict to one job's transcript (empty = all)

	// Timing filters in milliseconds, for narrowing to a region of the
	// recording. Zero means unbounded.
	MinStart int64
	MaxStart int64

	// Pagination
	Limit  int
	Offset int

	// Options
	Highlight bool // Include match highlighting on segment text
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Offset:    0,
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single matching transcript segment with its timing, so a
// user can jump straight to the spot in the recording.
type SearchHit struct {
	ID        string            `json:"id"`
	JobID     string            `json:"job_id"`
	Seq       int               `json:"seq"`
	Score     float64           `json:"score"`
	Text      string            `json:"text"`
	Start     timecode.Duration `json:"start"`
	End       timecode.Duration `json:"end"`
	Highlight string            `json:"highlight,omitempty"`
}

// Search executes a segment search.
func (s *SegmentIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score", "start"})

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("text")
	}

	searchRequest.Fields = []string{"job_id", "seq", "text", "start", "end"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if j, ok := hit.Fields["job_id"].(string); ok {
			searchHit.JobID = j
		}
		if seq, ok := hit.Fields["seq"].(float64); ok {
			searchHit.Seq = int(seq)
		}
		if text, ok := hit.Fields["text"].(string); ok {
			searchHit.Text = text
		}
		if start, ok := hit.Fields["start"].(float64); ok {
			searchHit.Start = timecode.FromMillis(int64(start))
		}
		if end, ok := hit.Fields["end"].(float64); ok {
			searchHit.End = timecode.FromMillis(int64(end))
		}

		if fragments, ok := hit.Fragments["text"]; ok && len(fragments) > 0 {
			searchHit.Highlight = fragments[0]
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Main text query: stemmed match with a phrase boost, plus fuzzy and
	// prefix fallbacks for typo tolerance and partial recall.
	if params.Query != "" {
		textQueries := []query.Query{}

		phraseMatch := bleve.NewMatchPhraseQuery(params.Query)
		phraseMatch.SetField("text")
		phraseMatch.SetBoost(3.0)
		textQueries = append(textQueries, phraseMatch)

		textMatch := bleve.NewMatchQuery(params.Query)
		textMatch.SetField("text")
		textMatch.SetBoost(1.5)
		textQueries = append(textQueries, textMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("text")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("text")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Job filter
	if params.JobID != "" {
		jobQuery := bleve.NewTermQuery(params.JobID)
		jobQuery.SetField("job_id")
		queries = append(queries, jobQuery)
	}

	// Timing range filter
	if params.MinStart > 0 || params.MaxStart > 0 {
		min := float64(params.MinStart)
		max := float64(params.MaxStart)
		if params.MaxStart == 0 {
			max = math.MaxFloat64
		}
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("start")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
