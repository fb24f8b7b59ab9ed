package transcribe

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/ratelimit"
	"github.com/chapterdapp/chapterd/internal/timecode"
)

// WhisperConfig configures the remote whisper backend.
type WhisperConfig struct {
	BaseURL string
	Token   string // optional, sent as Bearer
	Model   string // default "small"
	Timeout time.Duration
	Retries int
	RPS     float64 // outbound request rate toward the backend
	Burst   int
}

// WhisperClient is a Transcriber backed by a whisper HTTP server. Requests
// are rate limited per backend host and retried on transient failures.
type WhisperClient struct {
	cfg         WhisperConfig
	client      *http.Client
	limiter     *ratelimit.Keyed
	logger      *slog.Logger
	backoffBase time.Duration
}

// NewWhisperClient builds a client with config defaults applied.
func NewWhisperClient(cfg WhisperConfig, logger *slog.Logger) *WhisperClient {
	if cfg.Model == "" {
		cfg.Model = "small"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WhisperClient{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     ratelimit.New(cfg.RPS, cfg.Burst),
		logger:      logger,
		backoffBase: time.Second,
	}
}

// whisperResponse mirrors the JSON shape returned by the backend.
type whisperResponse struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Model    string  `json:"model"`
}

// Transcribe uploads the audio file and returns the parsed transcript.
// Transient failures (5xx, network) are retried with exponential backoff;
// anything else fails immediately.
func (c *WhisperClient) Transcribe(ctx context.Context, path, lang string) (*Transcript, error) {
	requestID := uuid.NewString()
	log := c.logger.With("request_id", requestID, "file", filepath.Base(path))

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			log.Warn("retrying transcription", "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx, c.cfg.BaseURL); err != nil {
			return nil, err
		}

		result, err := c.transcribeOnce(ctx, path, lang, requestID)
		if err == nil {
			log.Info("transcription complete",
				"segments", len(result.Segments),
				"language", result.Language,
			)
			return result, nil
		}
		if !isTransient(err) {
			return nil, errors.Wrapf(err, "transcribe %s", filepath.Base(path))
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "transcribe %s: %d retries exhausted", filepath.Base(path), c.cfg.Retries)
}

func (c *WhisperClient) transcribeOnce(ctx context.Context, path, lang, requestID string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open audio file")
	}
	defer f.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		part, err := writer.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			errCh <- err
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			errCh <- err
			return
		}
		writer.WriteField("model", c.cfg.Model)
		writer.WriteField("language", lang)
		writer.WriteField("timestamps", "true")
		errCh <- writer.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/transcribe", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: err}
	}

	// Status first: when the upload breaks mid-stream the backend's response
	// body usually says why, which beats a bare pipe error.
	if resp.StatusCode >= 500 {
		return nil, &transientError{err: fmt.Errorf("backend error %d: %s", resp.StatusCode, clip(body))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend rejected request: %d: %s", resp.StatusCode, clip(body))
	}
	if writeErr := <-errCh; writeErr != nil {
		return nil, errors.Wrap(writeErr, "build multipart body")
	}

	var parsed whisperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode transcription response")
	}

	segments := make([]Segment, len(parsed.Segments))
	for i, s := range parsed.Segments {
		segments[i] = Segment{
			Start: timecode.FromSeconds(s.Start),
			End:   timecode.FromSeconds(s.End),
			Text:  s.Text,
		}
	}
	return &Transcript{
		Segments: segments,
		Language: parsed.Language,
		Duration: timecode.FromSeconds(parsed.Duration),
		Model:    parsed.Model,
	}, nil
}

// Healthy probes the backend health endpoint.
func (c *WhisperClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/health", nil)
	if err != nil {
		return err
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "transcription backend unreachable")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transcription backend unhealthy: http %d", resp.StatusCode)
	}
	return nil
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// backoff returns base * 2^(attempt-1) plus up to 25% jitter.
func (c *WhisperClient) backoff(attempt int) time.Duration {
	delay := c.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay + rand.N(delay/4+1)
}

func clip(body []byte) string {
	const max = 200
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
