// Package service orchestrates chapterization runs: transcription, marker
// detection, boundary finalization, sidecar handling, and the final mux.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/config"
	"github.com/chapterdapp/chapterd/internal/cue"
	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/id"
	"github.com/chapterdapp/chapterd/internal/language"
	"github.com/chapterdapp/chapterd/internal/media"
	"github.com/chapterdapp/chapterd/internal/search"
	"github.com/chapterdapp/chapterd/internal/store"
	"github.com/chapterdapp/chapterd/internal/timecode"
	"github.com/chapterdapp/chapterd/internal/transcribe"
)

// ChapterService manages chapterization jobs and the worker pool that runs
// them.
type ChapterService struct {
	store       *store.Store
	index       *search.SegmentIndex
	transcriber transcribe.Transcriber
	prober      *media.Prober
	muxer       *media.Muxer
	logger      *slog.Logger
	config      config.PipelineConfig

	// Worker management
	ctx       context.Context //nolint:containedctx // Context needed for worker lifecycle management
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	claimMu   sync.Mutex    // serializes job claims across workers
	jobNotify chan struct{} // Signal that new jobs are available
}

// NewChapterService creates a new chapter service.
func NewChapterService(
	st *store.Store,
	index *search.SegmentIndex,
	transcriber transcribe.Transcriber,
	cfg config.PipelineConfig,
	logger *slog.Logger,
) (*ChapterService, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}
		ffmpegPath = path
	}

	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		path, err := exec.LookPath("ffprobe")
		if err != nil {
			return nil, fmt.Errorf("ffprobe not found: %w", err)
		}
		ffprobePath = path
	}

	logger.Info("using ffmpeg", slog.String("ffmpeg", ffmpegPath), slog.String("ffprobe", ffprobePath))

	ctx, cancel := context.WithCancel(context.Background())

	return &ChapterService{
		store:       st,
		index:       index,
		transcriber: transcriber,
		prober:      media.NewProber(ffprobePath),
		muxer:       media.NewMuxer(ffmpegPath, logger),
		logger:      logger,
		config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
		jobNotify:   make(chan struct{}, 1),
	}, nil
}

// Start begins the chapterization worker pool.
func (s *ChapterService) Start() {
	s.logger.Info("starting chapterization workers",
		slog.Int("workers", s.config.Workers),
	)

	// Reset any jobs left running by a previous process
	s.recoverStalledJobs()

	for i := range s.config.Workers {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop gracefully shuts down the service.
func (s *ChapterService) Stop() {
	s.logger.Info("stopping chapter service")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("chapter service stopped")
}

// NotifyNewJob signals workers that a new job is available.
func (s *ChapterService) NotifyNewJob() {
	select {
	case s.jobNotify <- struct{}{}:
	default:
		// Already notified
	}
}

// JobParams describes a chapterization request.
type JobParams struct {
	Input      string
	Language   string // empty uses the configured default
	Metadata   media.Metadata
	UseSidecar bool
}

// CreateJob queues a chapterization run for a recording. At most one active
// job may exist per input path; a second submission while one is pending or
// running fails with ErrAlreadyExists.
func (s *ChapterService) CreateJob(ctx context.Context, params JobParams) (*store.Job, error) {
	lang := params.Language
	if lang == "" {
		lang = s.config.DefaultLanguage
	}
	if _, err := language.Lookup(lang); err != nil {
		return nil, err
	}

	if info, err := os.Stat(params.Input); err != nil {
		return nil, errors.NotFoundf("recording %q not found", params.Input)
	} else if info.IsDir() {
		return nil, errors.Validationf("recording %q is a directory", params.Input)
	}

	now := time.Now().UTC()
	job := &store.Job{
		ID:         id.MustGenerate("job"),
		Status:     store.StatusPending,
		Input:      params.Input,
		Language:   lang,
		Metadata:   params.Metadata,
		UseSidecar: params.UseSidecar || s.config.WriteSidecar,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Jobs.Create(ctx, job.ID, job); err != nil {
		return nil, err
	}

	s.logger.Info("created chapterization job",
		slog.String("job_id", job.ID),
		slog.String("input", job.Input),
		slog.String("language", job.Language),
	)

	s.NotifyNewJob()

	return job, nil
}

// GetJob retrieves a job by ID.
func (s *ChapterService) GetJob(ctx context.Context, jobID string) (*store.Job, error) {
	return s.store.Jobs.Get(ctx, jobID)
}

// ListJobs returns all jobs.
func (s *ChapterService) ListJobs(ctx context.Context) ([]*store.Job, error) {
	var jobs []*store.Job
	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// DeleteJob removes a job and its indexed transcript segments. The recording
// and any produced output stay on disk.
func (s *ChapterService) DeleteJob(ctx context.Context, jobID string) error {
	if err := s.store.Jobs.Delete(ctx, jobID); err != nil {
		return err
	}
	if err := s.index.DeleteJob(jobID); err != nil {
		s.logger.Warn("failed to remove job segments from search index",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
	}
	return nil
}

// UpdateBoundaries replaces a job's chapter boundaries with hand-corrected
// ones. The new list must be fully finalized and strictly ordered.
func (s *ChapterService) UpdateBoundaries(ctx context.Context, jobID string, boundaries []chapters.Boundary) (*store.Job, error) {
	if err := chapters.Validate(boundaries); err != nil {
		return nil, err
	}

	job, err := s.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.Terminal() {
		return nil, errors.Conflict("job is still running; boundaries can be edited once it finishes")
	}

	job.Boundaries = boundaries
	job.UpdatedAt = time.Now().UTC()
	if err := s.store.Jobs.Update(ctx, jobID, job); err != nil {
		return nil, err
	}
	return job, nil
}

// SidecarPath returns the cue sidecar location for a recording.
func SidecarPath(input string) string {
	return stem(input) + ".cue"
}

// TranscriptPath returns the .srt transcript location for a recording.
func TranscriptPath(input string) string {
	return stem(input) + ".srt"
}

func stem(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// ReadSidecar loads the cue sidecar for a job's recording. Ends are
// recomputed from the starts and the recording's total duration, so a stale
// last end in a hand-edited sidecar never surfaces.
func (s *ChapterService) ReadSidecar(ctx context.Context, jobID string) ([]chapters.Boundary, error) {
	job, err := s.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	boundaries, err := cue.Read(SidecarPath(job.Input))
	if err != nil {
		return nil, err
	}

	total, err := s.totalDuration(ctx, job)
	if err != nil {
		return nil, err
	}
	if err := chapters.Finalize(boundaries, total); err != nil {
		return nil, err
	}
	return boundaries, nil
}

// totalDuration returns the recording's total duration, re-probing only when
// the job predates a completed run.
func (s *ChapterService) totalDuration(ctx context.Context, job *store.Job) (timecode.Duration, error) {
	if job.Duration != "" {
		return timecode.Parse(job.Duration)
	}
	info, err := s.prober.Probe(ctx, job.Input)
	if err != nil {
		return timecode.Duration{}, err
	}
	return info.Duration, nil
}

// WriteSidecar persists a job's boundaries as a cue sidecar. It refuses to
// overwrite an existing sidecar, matching the pipeline's behavior.
func (s *ChapterService) WriteSidecar(ctx context.Context, jobID string) (string, error) {
	job, err := s.store.Jobs.Get(ctx, jobID)
	if err != nil {
		return "", err
	}
	if len(job.Boundaries) == 0 {
		return "", errors.NoChapters("job has no boundaries to persist")
	}

	path := SidecarPath(job.Input)
	if err := cue.Write(path, job.Boundaries); err != nil {
		return "", err
	}
	return path, nil
}

// worker processes chapterization jobs.
func (s *ChapterService) worker(workerID int) {
	defer s.wg.Done()

	s.logger.Debug("chapterization worker started", slog.Int("worker_id", workerID))

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("chapterization worker stopping", slog.Int("worker_id", workerID))
			return
		case <-s.jobNotify:
			s.processNextJob(workerID)
		case <-time.After(5 * time.Second):
			// Periodic check for jobs (in case notification was missed)
			s.processNextJob(workerID)
		}
	}
}

// processNextJob claims and runs the oldest pending job.
func (s *ChapterService) processNextJob(workerID int) {
	ctx := s.ctx

	job := s.claimPendingJob(ctx)
	if job == nil {
		return
	}

	s.logger.Info("starting chapterization",
		slog.Int("worker_id", workerID),
		slog.String("job_id", job.ID),
		slog.String("input", job.Input),
	)

	if err := s.run(ctx, job); err != nil {
		s.handleJobError(ctx, job, err)
		return
	}

	job.Status = store.StatusSucceeded
	job.UpdatedAt = time.Now().UTC()
	if err := s.store.Jobs.Update(ctx, job.ID, job); err != nil {
		s.logger.Error("failed to update completed job", slog.Any("error", err))
		return
	}

	s.logger.Info("chapterization completed",
		slog.String("job_id", job.ID),
		slog.String("output", job.Output),
		slog.Int("chapters", len(job.Boundaries)),
	)
}

// claimPendingJob marks the first pending job as running and returns it.
// Claims are serialized so two workers never pick up the same job; the store
// is only written by this process.
func (s *ChapterService) claimPendingJob(ctx context.Context) *store.Job {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			s.logger.Error("failed to list jobs", slog.Any("error", err))
			return nil
		}
		if job.Status != store.StatusPending {
			continue
		}

		job.Status = store.StatusRunning
		job.UpdatedAt = time.Now().UTC()
		if err := s.store.Jobs.Update(ctx, job.ID, job); err != nil {
			s.logger.Error("failed to claim job", slog.String("job_id", job.ID), slog.Any("error", err))
			continue
		}
		return job
	}
	return nil
}

// handleJobError marks a job as failed.
func (s *ChapterService) handleJobError(ctx context.Context, job *store.Job, err error) {
	s.logger.Error("chapterization failed",
		slog.String("job_id", job.ID),
		slog.String("input", job.Input),
		slog.Any("error", err),
	)

	job.Status = store.StatusFailed
	job.Error = err.Error()
	job.UpdatedAt = time.Now().UTC()
	if updateErr := s.store.Jobs.Update(ctx, job.ID, job); updateErr != nil {
		s.logger.Error("failed to update failed job", slog.Any("error", updateErr))
	}
}

// recoverStalledJobs resets any jobs that were running when the server stopped.
func (s *ChapterService) recoverStalledJobs() {
	ctx := context.Background()

	recovered := 0
	for job, err := range s.store.Jobs.List(ctx) {
		if err != nil {
			s.logger.Error("failed to list jobs for recovery", slog.Any("error", err))
			return
		}
		if job.Status != store.StatusRunning {
			continue
		}

		s.logger.Info("recovering stalled job", slog.String("job_id", job.ID))

		job.Status = store.StatusPending
		job.UpdatedAt = time.Now().UTC()
		if err := s.store.Jobs.Update(ctx, job.ID, job); err != nil {
			s.logger.Error("failed to reset stalled job", slog.Any("error", err))
			continue
		}
		recovered++
	}

	if recovered > 0 {
		s.logger.Info("recovered stalled jobs", slog.Int("count", recovered))
		s.NotifyNewJob()
	}
}
