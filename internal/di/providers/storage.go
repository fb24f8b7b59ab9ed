package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/chapterdapp/chapterd/internal/config"
	"github.com/chapterdapp/chapterd/internal/logger"
	"github.com/chapterdapp/chapterd/internal/search"
	"github.com/chapterdapp/chapterd/internal/store"
)

// StoreHandle wraps the job store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore provides the Badger-backed job store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.StorePath(), 0o755); err != nil {
		return nil, err
	}

	st, err := store.New(cfg.StorePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Store: st}, nil
}

// SearchIndexHandle wraps the segment index with shutdown capability.
type SearchIndexHandle struct {
	*search.SegmentIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.SegmentIndex.Close()
}

// ProvideSearchIndex provides the Bleve transcript segment index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.SearchPath(), 0o755); err != nil {
		return nil, err
	}

	index, err := search.NewSegmentIndex(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{SegmentIndex: index}, nil
}
