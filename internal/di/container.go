// Package di provides dependency injection configuration for the chapterd server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/chapterdapp/chapterd/internal/config"
	"github.com/chapterdapp/chapterd/internal/di/providers"
	"github.com/chapterdapp/chapterd/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Transcription backend
	do.Provide(injector, providers.ProvideTranscriber)

	// Chapterization workers
	do.Provide(injector, providers.ProvideChapterService)
	do.Provide(injector, providers.ProvideInboxWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.TranscriberHandle](injector)
	_ = do.MustInvoke[*providers.ChapterServiceHandle](injector)
	_ = do.MustInvoke[*providers.InboxWatcherHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
