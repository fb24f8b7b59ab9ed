package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for segment documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on segment text with English stemming
//  2. Exact keyword matching on job_id for per-recording filtering
//  3. Numeric range queries on segment timing
//  4. Term vectors on text for highlighting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Segment text - the only full-text field
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName
	textFieldMapping.Store = true
	textFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	// --- Keyword fields (exact match) ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	jobFieldMapping := bleve.NewTextFieldMapping()
	jobFieldMapping.Analyzer = keyword.Name
	jobFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("job_id", jobFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	seqFieldMapping := bleve.NewNumericFieldMapping()
	seqFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("seq", seqFieldMapping)

	startFieldMapping := bleve.NewNumericFieldMapping()
	startFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("start", startFieldMapping)

	endFieldMapping := bleve.NewNumericFieldMapping()
	endFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("end", endFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
