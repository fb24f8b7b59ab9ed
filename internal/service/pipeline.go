package service

import (
	"context"
	"iter"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/cue"
	"github.com/chapterdapp/chapterd/internal/language"
	"github.com/chapterdapp/chapterd/internal/media"
	"github.com/chapterdapp/chapterd/internal/store"
	"github.com/chapterdapp/chapterd/internal/timecode"
	"github.com/chapterdapp/chapterd/internal/transcribe"
)

// run executes the full chapterization pipeline for one job and fills in its
// result fields. Any stage error is fatal to the run; the caller records it
// on the job.
func (s *ChapterService) run(ctx context.Context, job *store.Job) error {
	table, err := language.Lookup(job.Language)
	if err != nil {
		return err
	}

	info, err := s.prober.Probe(ctx, job.Input)
	if err != nil {
		return err
	}
	job.Duration = info.Duration.Cue()

	boundaries, err := s.resolveBoundaries(ctx, job, table, info.Duration)
	if err != nil {
		return err
	}

	// Metadata extraction and cover art run independently of each other.
	var meta media.Metadata
	var coverPath, placeholder string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meta = s.collectMetadata(job, info)
		return nil
	})
	g.Go(func() error {
		path, err := s.muxer.ExtractCover(gctx, job.Input)
		if err != nil {
			return err
		}
		coverPath = path
		if path == "" {
			return nil
		}
		ph, err := media.CoverPlaceholder(path)
		if err != nil {
			s.logger.Warn("failed to compute cover placeholder",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
			return nil
		}
		placeholder = ph
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	output, err := s.muxer.Chapterize(ctx, job.Input, meta, boundaries, coverPath)
	if err != nil {
		return err
	}

	job.Boundaries = boundaries
	job.Output = output
	job.CoverPath = coverPath
	job.Placeholder = placeholder
	return nil
}

// resolveBoundaries produces the finalized chapter list. An existing cue
// sidecar wins over detection when the job opts in; the transcript is only
// produced when detection actually runs. Ends are always recomputed from the
// starts and the total duration, so a stale last end in a hand-edited sidecar
// never survives.
func (s *ChapterService) resolveBoundaries(ctx context.Context, job *store.Job, table language.Table, total timecode.Duration) ([]chapters.Boundary, error) {
	sidecar := SidecarPath(job.Input)

	if job.UseSidecar {
		if _, err := os.Stat(sidecar); err == nil {
			boundaries, err := cue.Read(sidecar)
			if err != nil {
				return nil, err
			}
			if err := chapters.Finalize(boundaries, total); err != nil {
				return nil, err
			}
			s.logger.Info("using existing sidecar",
				slog.String("job_id", job.ID),
				slog.String("sidecar", sidecar),
				slog.Int("chapters", len(boundaries)),
			)
			return boundaries, nil
		}
	}

	lines, transcript, err := s.transcript(ctx, job)
	if err != nil {
		return nil, err
	}

	detector := chapters.NewDetector(table, s.logger)
	boundaries, err := detector.Detect(lines)
	if err != nil {
		return nil, err
	}
	if err := chapters.Finalize(boundaries, total); err != nil {
		return nil, err
	}

	if job.UseSidecar {
		if err := cue.Write(sidecar, boundaries); err != nil {
			return nil, err
		}
		s.logger.Info("wrote sidecar",
			slog.String("job_id", job.ID),
			slog.String("sidecar", sidecar),
		)
	}

	// A freshly produced transcript feeds the segment search index. A re-read
	// .srt gives only raw lines, so those runs skip indexing.
	if transcript != nil {
		if err := s.index.IndexTranscript(job.ID, transcript); err != nil {
			s.logger.Warn("failed to index transcript segments",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
		}
	}

	return boundaries, nil
}

// transcript returns detector input lines for the job's recording, reusing a
// .srt file from a previous run when one exists.
func (s *ChapterService) transcript(ctx context.Context, job *store.Job) (iter.Seq[string], *transcribe.Transcript, error) {
	srtPath := TranscriptPath(job.Input)

	if _, err := os.Stat(srtPath); err == nil {
		s.logger.Info("reusing existing transcript",
			slog.String("job_id", job.ID),
			slog.String("transcript", srtPath),
		)
		lines, err := transcribe.ReadLines(srtPath)
		if err != nil {
			return nil, nil, err
		}
		return lines, nil, nil
	}

	t, err := s.transcriber.Transcribe(ctx, job.Input, job.Language)
	if err != nil {
		return nil, nil, err
	}

	if err := transcribe.WriteSRT(srtPath, t); err != nil {
		// Not fatal: the run proceeds, the next one just transcribes again.
		s.logger.Warn("failed to persist transcript",
			slog.String("job_id", job.ID),
			slog.String("transcript", srtPath),
			slog.Any("error", err),
		)
	}

	return transcribe.Lines(t), t, nil
}

// collectMetadata merges tags from the container probe, the native tag
// reader, and the job request. Later sources win: user-supplied tags are
// authoritative over anything extracted from the file.
func (s *ChapterService) collectMetadata(job *store.Job, info *media.Info) media.Metadata {
	extracted := info.Tags

	if native, err := media.NativeTags(job.Input); err == nil {
		extracted = media.Merge(extracted, native)
	} else {
		s.logger.Debug("native tag read failed",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
	}

	return media.Merge(extracted, job.Metadata)
}
