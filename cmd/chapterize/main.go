// Package main provides a one-shot chapterization CLI: transcribe a
// recording, detect its chapters, and write the chapterized output without
// running the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chapterdapp/chapterd/internal/config"
	"github.com/chapterdapp/chapterd/internal/logger"
	"github.com/chapterdapp/chapterd/internal/search"
	"github.com/chapterdapp/chapterd/internal/service"
	"github.com/chapterdapp/chapterd/internal/store"
	"github.com/chapterdapp/chapterd/internal/transcribe"
)

func main() {
	// Per-run flags; LoadConfig defines the shared ones (including -language)
	// and calls flag.Parse.
	title := flag.String("title", "", "Title tag stamped into the output")
	author := flag.String("author", "", "Author, stamped as the artist tag")
	narrator := flag.String("narrator", "", "Narrator tag stamped into the output")
	year := flag.String("year", "", "Release year, stamped as the date tag")
	comment := flag.String("comment", "", "Comment tag stamped into the output")
	sidecar := flag.Bool("sidecar", false, "Read an existing cue sidecar instead of detecting, or write one after detection")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: chapterize [flags] <recording>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	params := service.JobParams{
		Input:      flag.Arg(0),
		UseSidecar: *sidecar,
		Metadata: tagOverrides(map[string]string{
			"title":    *title,
			"artist":   *author,
			"narrator": *narrator,
			"date":     *year,
			"comment":  *comment,
		}),
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := run(cfg, log, params); err != nil {
		log.Fatal("chapterization failed", "error", err)
	}
}

// tagOverrides drops empty values so unset flags don't shadow extracted tags.
func tagOverrides(raw map[string]string) map[string]string {
	tags := map[string]string{}
	for key, value := range raw {
		if value != "" {
			tags[key] = value
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func run(cfg *config.Config, log *logger.Logger, params service.JobParams) error {
	if err := os.MkdirAll(cfg.StorePath(), 0o755); err != nil {
		return err
	}
	st, err := store.New(cfg.StorePath(), log.Logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := os.MkdirAll(cfg.SearchPath(), 0o755); err != nil {
		return err
	}
	index, err := search.NewSegmentIndex(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return err
	}
	defer index.Close()

	transcriber := transcribe.NewWhisperClient(transcribe.WhisperConfig{
		BaseURL: cfg.Transcribe.BaseURL,
		Token:   cfg.Transcribe.Token,
		Model:   cfg.Transcribe.Model,
		Timeout: cfg.Transcribe.Timeout,
		Retries: cfg.Transcribe.Retries,
	}, log.Logger)

	svc, err := service.NewChapterService(st, index, transcriber, cfg.Pipeline, log.Logger)
	if err != nil {
		return err
	}
	svc.Start()
	defer svc.Stop()

	ctx := context.Background()
	job, err := svc.CreateJob(ctx, params)
	if err != nil {
		return err
	}

	// The worker pool picks the job up; poll until it lands in a terminal
	// state.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for !job.Status.Terminal() {
		<-ticker.C
		job, err = svc.GetJob(ctx, job.ID)
		if err != nil {
			return err
		}
	}

	if job.Status == store.StatusFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}

	fmt.Printf("Chapterized: %s\n\n", job.Output)
	for i, b := range job.Boundaries {
		fmt.Printf("  [%d] %s  %s - %s\n", i+1, b.Label, b.Start, b.End)
	}
	return nil
}
