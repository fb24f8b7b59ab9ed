// Package store persists chapterization jobs in a Badger database.
package store

import (
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/chapterdapp/chapterd/internal/errors"
)

// Store wraps a Badger instance and exposes the typed entities stored in it.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Jobs *Entity[Job]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true // a crashed run must not corrupt job state
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger db")
	}

	s := &Store{db: db, logger: logger}
	s.initJobs()

	logger.Info("job database opened", "path", path)
	return s, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing job database")
	return s.db.Close()
}

// initJobs wires the Jobs entity. The "input" index holds one entry per
// active job, keyed by input path: creating a second job for a recording that
// is still pending or running fails with an already-exists conflict, and the
// entry disappears once the job reaches a terminal status.
func (s *Store) initJobs() {
	s.Jobs = NewEntity[Job](s, "job:").
		WithIndex("input", func(j *Job) []string {
			if j.Status.Terminal() {
				return nil
			}
			return []string{j.Input}
		})
}
