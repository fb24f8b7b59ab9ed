package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/chapterdapp/chapterd/internal/config"
	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/logger"
	"github.com/chapterdapp/chapterd/internal/service"
	"github.com/chapterdapp/chapterd/internal/transcribe"
	"github.com/chapterdapp/chapterd/internal/watcher"
)

// TranscriberHandle wraps the whisper client for injection.
type TranscriberHandle struct {
	transcribe.Transcriber
}

// ProvideTranscriber provides the remote whisper transcription client.
func ProvideTranscriber(i do.Injector) (*TranscriberHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := transcribe.NewWhisperClient(transcribe.WhisperConfig{
		BaseURL: cfg.Transcribe.BaseURL,
		Token:   cfg.Transcribe.Token,
		Model:   cfg.Transcribe.Model,
		Timeout: cfg.Transcribe.Timeout,
		Retries: cfg.Transcribe.Retries,
	}, log.Logger)

	return &TranscriberHandle{Transcriber: client}, nil
}

// ChapterServiceHandle wraps the chapter service with shutdown capability.
type ChapterServiceHandle struct {
	*service.ChapterService
}

// Shutdown implements do.Shutdownable.
func (h *ChapterServiceHandle) Shutdown() error {
	h.ChapterService.Stop()
	return nil
}

// ProvideChapterService provides the chapterization service and starts its
// worker pool.
func ProvideChapterService(i do.Injector) (*ChapterServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	transcriberHandle := do.MustInvoke[*TranscriberHandle](i)

	svc, err := service.NewChapterService(
		storeHandle.Store,
		indexHandle.SegmentIndex,
		transcriberHandle.Transcriber,
		cfg.Pipeline,
		log.Logger,
	)
	if err != nil {
		return nil, err
	}

	svc.Start()
	log.Info("chapter service started", "workers", cfg.Pipeline.Workers)

	return &ChapterServiceHandle{ChapterService: svc}, nil
}

// InboxWatcherHandle wraps the inbox watcher with shutdown capability.
type InboxWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *InboxWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideInboxWatcher provides the inbox directory watcher. Settled recordings
// become chapterization jobs automatically.
func ProvideInboxWatcher(i do.Injector) (*InboxWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	serviceHandle := do.MustInvoke[*ChapterServiceHandle](i)

	if cfg.Library.InboxPath == "" || !cfg.Library.Watch {
		log.Info("inbox watching disabled")
		return &InboxWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Logger, watcher.Options{})
	if err != nil {
		return nil, err
	}

	if err := w.Watch(cfg.Library.InboxPath); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("inbox watcher error", "error", err)
		}
	}()

	go func() {
		for {
			select {
			case event, ok := <-w.Events():
				if !ok {
					return
				}
				_, err := serviceHandle.CreateJob(ctx, service.JobParams{Input: event.Path})
				if err != nil {
					// A job already queued for this recording is fine; the
					// watcher fires again when a file is replaced in place.
					if errors.Is(err, errors.ErrAlreadyExists) {
						continue
					}
					log.Warn("failed to queue inbox recording",
						"path", event.Path,
						"error", err,
					)
				}
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				log.Warn("inbox watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("inbox watcher started", "path", cfg.Library.InboxPath)

	return &InboxWatcherHandle{Watcher: w, cancel: cancel}, nil
}
