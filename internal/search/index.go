package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/chapterdapp/chapterd/internal/transcribe"
)

// SegmentIndex wraps a Bleve index with transcript-specific operations.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type SegmentIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild
}

// Options configures the segment index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// NewSegmentIndex creates or opens a segment index.
// If an existing index is found, it opens it. Otherwise, creates a new one.
// If the existing index is corrupted or has an outdated mapping, it's removed and recreated.
func NewSegmentIndex(opts Options) (*SegmentIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "segments.bleve")
	versionPath := filepath.Join(opts.DataPath, "segments.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			// Version file missing but index exists - this is an old index
			logger.Info("segment index has no version file, will rebuild with current mapping",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("segment index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		indexMapping := buildIndexMapping()
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); writeErr != nil {
			logger.Warn("failed to write segment index version file", "error", writeErr)
		}
		logger.Info("created new segment index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing segment index", "path", indexPath)
	}

	return &SegmentIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *SegmentIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexTranscript indexes every segment of a job's transcript in batches.
// Document IDs are deterministic, so indexing the same job again overwrites
// the previous segments rather than duplicating them.
func (s *SegmentIndex) IndexTranscript(jobID string, t *transcribe.Transcript) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := SegmentsToDocuments(jobID, t)

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		chunk := docs[i:end]

		batch := s.index.NewBatch()
		for _, doc := range chunk {
			// Convert to map to ensure field names match the mapping (lowercase)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteJob removes all of a job's segments from the index.
// Bleve has no delete-by-query, so this pages through matches.
func (s *SegmentIndex) DeleteJob(jobID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const pageSize = 500

	for {
		jobQuery := bleve.NewTermQuery(jobID)
		jobQuery.SetField("job_id")
		req := bleve.NewSearchRequestOptions(jobQuery, pageSize, 0, false)

		result, err := s.index.Search(req)
		if err != nil {
			return fmt.Errorf("find job segments: %w", err)
		}
		if len(result.Hits) == 0 {
			return nil
		}

		batch := s.index.NewBatch()
		for _, hit := range result.Hits {
			batch.Delete(hit.ID)
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("delete job segments: %w", err)
		}
	}
}

// DocumentCount returns the total number of indexed segments.
func (s *SegmentIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the existing index and creates a new one.
// Used for full reindex operations when schema changes or corruption occurs.
//
// IMPORTANT: This acquires an exclusive lock and blocks all other operations.
func (s *SegmentIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	indexMapping := buildIndexMapping()
	index, err := bleve.New(s.path, indexMapping)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt segment index", "path", s.path)

	return nil
}
