package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chapterdapp/chapterd/internal/chapters"
	"github.com/chapterdapp/chapterd/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testJob(id, input string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		Status:    StatusPending,
		Input:     input,
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestJobCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("job-1", "/library/book.mp3")
	require.NoError(t, s.Jobs.Create(ctx, job.ID, job))

	got, err := s.Jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "/library/book.mp3", got.Input)

	got.Status = StatusSucceeded
	got.Boundaries = []chapters.Boundary{
		{Start: "00:00:00.000", End: "01:00:00.000", Label: "Chapter 01"},
	}
	require.NoError(t, s.Jobs.Update(ctx, got.ID, got))

	got, err = s.Jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	require.Len(t, got.Boundaries, 1)
	assert.Equal(t, "Chapter 01", got.Boundaries[0].Label)

	require.NoError(t, s.Jobs.Delete(ctx, "job-1"))
	_, err = s.Jobs.Get(ctx, "job-1")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestGetMissingJob(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Jobs.Get(context.Background(), "job-missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCreateDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Jobs.Create(ctx, "job-1", testJob("job-1", "/library/a.mp3")))
	err := s.Jobs.Create(ctx, "job-1", testJob("job-1", "/library/b.mp3"))
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestActiveInputIsExclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Jobs.Create(ctx, "job-1", testJob("job-1", "/library/book.mp3")))

	// A second active job for the same recording conflicts.
	err := s.Jobs.Create(ctx, "job-2", testJob("job-2", "/library/book.mp3"))
	require.ErrorIs(t, err, errors.ErrAlreadyExists)

	// Once the first job finishes, the recording can be processed again.
	done, err := s.Jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	done.Status = StatusFailed
	require.NoError(t, s.Jobs.Update(ctx, "job-1", done))

	require.NoError(t, s.Jobs.Create(ctx, "job-2", testJob("job-2", "/library/book.mp3")))
}

func TestGetByInputIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Jobs.Create(ctx, "job-1", testJob("job-1", "/library/book.mp3")))

	got, err := s.Jobs.GetByIndex(ctx, "input", "/library/book.mp3")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.ID)

	_, err = s.Jobs.GetByIndex(ctx, "input", "/library/other.mp3")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Jobs.Create(ctx, "job-1", testJob("job-1", "/library/a.mp3")))
	require.NoError(t, s.Jobs.Create(ctx, "job-2", testJob("job-2", "/library/b.mp3")))

	var ids []string
	for job, err := range s.Jobs.List(ctx) {
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, ids)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Jobs.Delete(context.Background(), "job-never-existed"))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
