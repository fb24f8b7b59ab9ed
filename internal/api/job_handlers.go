package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/service"
	"github.com/chapterdapp/chapterd/internal/store"
)

func (s *Server) registerJobRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createJob",
		Method:      http.MethodPost,
		Path:        "/api/v1/jobs",
		Summary:     "Create chapterization job",
		Description: "Queues a chapterization run for a recording on the server's filesystem",
		Tags:        []string{"Jobs"},
	}, s.handleCreateJob)

	huma.Register(s.api, huma.Operation{
		OperationID: "listJobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List jobs",
		Tags:        []string{"Jobs"},
	}, s.handleListJobs)

	huma.Register(s.api, huma.Operation{
		OperationID: "getJob",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{id}",
		Summary:     "Get job",
		Tags:        []string{"Jobs"},
	}, s.handleGetJob)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteJob",
		Method:      http.MethodDelete,
		Path:        "/api/v1/jobs/{id}",
		Summary:     "Delete job",
		Description: "Removes a job and its indexed transcript segments. Files on disk are untouched.",
		Tags:        []string{"Jobs"},
	}, s.handleDeleteJob)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBoundaries",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{id}/boundaries",
		Summary:     "Get chapter boundaries",
		Tags:        []string{"Jobs"},
	}, s.handleGetBoundaries)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBoundaries",
		Method:      http.MethodPut,
		Path:        "/api/v1/jobs/{id}/boundaries",
		Summary:     "Replace chapter boundaries",
		Description: "Replaces a finished job's boundaries with hand-corrected ones",
		Tags:        []string{"Jobs"},
	}, s.handleUpdateBoundaries)

	huma.Register(s.api, huma.Operation{
		OperationID: "writeSidecar",
		Method:      http.MethodPost,
		Path:        "/api/v1/jobs/{id}/sidecar",
		Summary:     "Write cue sidecar",
		Description: "Persists the job's boundaries as a cue sheet next to the recording",
		Tags:        []string{"Jobs"},
	}, s.handleWriteSidecar)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSidecar",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{id}/sidecar",
		Summary:     "Read cue sidecar",
		Tags:        []string{"Jobs"},
	}, s.handleGetSidecar)
}

// === DTOs ===

// CreateJobRequest describes a chapterization request.
type CreateJobRequest struct {
	Input      string            `json:"input" validate:"required" doc:"Path to the recording on the server's filesystem"`
	Language   string            `json:"language,omitempty" validate:"omitempty,max=40" doc:"Language code or English name (default from server config)"`
	Metadata   map[string]string `json:"metadata,omitempty" doc:"Tags stamped into the output, authoritative over extracted ones"`
	UseSidecar bool              `json:"use_sidecar,omitempty" doc:"Read an existing cue sidecar instead of detecting, or write one after detection"`
}

// CreateJobInput wraps the create request for Huma.
type CreateJobInput struct {
	Body CreateJobRequest
}

// BoundaryDTO is one chapter boundary in API form.
type BoundaryDTO struct {
	Start string `json:"start" validate:"required,timecode" doc:"Chapter start, HH:MM:SS.mmm"`
	End   string `json:"end,omitempty" validate:"omitempty,timecode" doc:"Chapter end, HH:MM:SS.mmm"`
	Label string `json:"label" validate:"required,max=200" doc:"Chapter label"`
}

// JobResponse contains job data in API responses.
type JobResponse struct {
	ID          string            `json:"id" doc:"Job ID"`
	Status      string            `json:"status" doc:"Lifecycle state: pending, running, succeeded, or failed"`
	Input       string            `json:"input" doc:"Recording path"`
	Language    string            `json:"language" doc:"Resolved language code"`
	Metadata    map[string]string `json:"metadata,omitempty" doc:"User-supplied tags"`
	UseSidecar  bool              `json:"use_sidecar,omitempty" doc:"Whether this run reads or writes a cue sidecar"`
	Duration    string            `json:"duration,omitempty" doc:"Probed total duration, HH:MM:SS.mmm"`
	Boundaries  []BoundaryDTO     `json:"boundaries,omitempty" doc:"Finalized chapter boundaries"`
	Output      string            `json:"output,omitempty" doc:"Chapterized output path"`
	CoverPath   string            `json:"cover_path,omitempty" doc:"Extracted cover art path"`
	Placeholder string            `json:"placeholder,omitempty" doc:"Blurhash of the cover"`
	Error       string            `json:"error,omitempty" doc:"Failure detail for failed jobs"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// JobOutput wraps a single job for Huma.
type JobOutput struct {
	Body JobResponse
}

// ListJobsOutput wraps the job list for Huma.
type ListJobsOutput struct {
	Body struct {
		Jobs []JobResponse `json:"jobs" doc:"All jobs, newest last"`
	}
}

// JobIDInput identifies a job by path parameter.
type JobIDInput struct {
	ID string `path:"id" doc:"Job ID"`
}

// MessageOutput wraps a simple confirmation message for Huma.
type MessageOutput struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}

// BoundariesResponse contains a job's boundary list.
type BoundariesResponse struct {
	JobID      string        `json:"job_id" doc:"Job ID"`
	Boundaries []BoundaryDTO `json:"boundaries" doc:"Chapter boundaries"`
}

// BoundariesOutput wraps a boundary list for Huma.
type BoundariesOutput struct {
	Body BoundariesResponse
}

// UpdateBoundariesInput carries a replacement boundary list.
type UpdateBoundariesInput struct {
	ID   string `path:"id" doc:"Job ID"`
	Body struct {
		Boundaries []BoundaryDTO `json:"boundaries" doc:"Replacement boundaries, strictly ordered"`
	}
}

// SidecarResponse describes a cue sidecar on disk.
type SidecarResponse struct {
	Path       string        `json:"path" doc:"Sidecar path next to the recording"`
	Boundaries []BoundaryDTO `json:"boundaries,omitempty" doc:"Boundaries read from the sidecar"`
}

// SidecarOutput wraps a sidecar response for Huma.
type SidecarOutput struct {
	Body SidecarResponse
}

func toBoundaryDTOs(boundaries []chapters.Boundary) []BoundaryDTO {
	if len(boundaries) == 0 {
		return nil
	}
	dtos := make([]BoundaryDTO, len(boundaries))
	for i, b := range boundaries {
		dtos[i] = BoundaryDTO{Start: b.Start, End: b.End, Label: b.Label}
	}
	return dtos
}

func fromBoundaryDTOs(dtos []BoundaryDTO) []chapters.Boundary {
	boundaries := make([]chapters.Boundary, len(dtos))
	for i, d := range dtos {
		boundaries[i] = chapters.Boundary{Start: d.Start, End: d.End, Label: d.Label}
	}
	return boundaries
}

func toJobResponse(job *store.Job) JobResponse {
	return JobResponse{
		ID:          job.ID,
		Status:      string(job.Status),
		Input:       job.Input,
		Language:    job.Language,
		Metadata:    job.Metadata,
		UseSidecar:  job.UseSidecar,
		Duration:    job.Duration,
		Boundaries:  toBoundaryDTOs(job.Boundaries),
		Output:      job.Output,
		CoverPath:   job.CoverPath,
		Placeholder: job.Placeholder,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleCreateJob(ctx context.Context, input *CreateJobInput) (*JobOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	job, err := s.service.CreateJob(ctx, service.JobParams{
		Input:      input.Body.Input,
		Language:   input.Body.Language,
		Metadata:   input.Body.Metadata,
		UseSidecar: input.Body.UseSidecar,
	})
	if err != nil {
		return nil, err
	}

	return &JobOutput{Body: toJobResponse(job)}, nil
}

func (s *Server) handleListJobs(ctx context.Context, _ *struct{}) (*ListJobsOutput, error) {
	jobs, err := s.service.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListJobsOutput{}
	out.Body.Jobs = make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out.Body.Jobs = append(out.Body.Jobs, toJobResponse(job))
	}
	return out, nil
}

func (s *Server) handleGetJob(ctx context.Context, input *JobIDInput) (*JobOutput, error) {
	job, err := s.service.GetJob(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &JobOutput{Body: toJobResponse(job)}, nil
}

func (s *Server) handleDeleteJob(ctx context.Context, input *JobIDInput) (*MessageOutput, error) {
	// Get first so a missing ID reports 404 rather than silently succeeding.
	if _, err := s.service.GetJob(ctx, input.ID); err != nil {
		return nil, err
	}
	if err := s.service.DeleteJob(ctx, input.ID); err != nil {
		return nil, err
	}

	out := &MessageOutput{}
	out.Body.Message = "job deleted"
	return out, nil
}

func (s *Server) handleGetBoundaries(ctx context.Context, input *JobIDInput) (*BoundariesOutput, error) {
	job, err := s.service.GetJob(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BoundariesOutput{Body: BoundariesResponse{
		JobID:      job.ID,
		Boundaries: toBoundaryDTOs(job.Boundaries),
	}}, nil
}

func (s *Server) handleUpdateBoundaries(ctx context.Context, input *UpdateBoundariesInput) (*BoundariesOutput, error) {
	for _, dto := range input.Body.Boundaries {
		if err := s.validator.Validate(dto); err != nil {
			return nil, err
		}
	}

	job, err := s.service.UpdateBoundaries(ctx, input.ID, fromBoundaryDTOs(input.Body.Boundaries))
	if err != nil {
		return nil, err
	}

	return &BoundariesOutput{Body: BoundariesResponse{
		JobID:      job.ID,
		Boundaries: toBoundaryDTOs(job.Boundaries),
	}}, nil
}

func (s *Server) handleWriteSidecar(ctx context.Context, input *JobIDInput) (*SidecarOutput, error) {
	path, err := s.service.WriteSidecar(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SidecarOutput{Body: SidecarResponse{Path: path}}, nil
}

func (s *Server) handleGetSidecar(ctx context.Context, input *JobIDInput) (*SidecarOutput, error) {
	job, err := s.service.GetJob(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(service.SidecarPath(job.Input)); err != nil {
		return nil, errors.NotFoundf("no sidecar for recording %q", job.Input)
	}

	boundaries, err := s.service.ReadSidecar(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &SidecarOutput{Body: SidecarResponse{
		Path:       service.SidecarPath(job.Input),
		Boundaries: toBoundaryDTOs(boundaries),
	}}, nil
}
