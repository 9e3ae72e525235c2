package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/findoc_server/internal/extractor"
	"github.com/qs3c/findoc_server/internal/model"
	"github.com/qs3c/findoc_server/internal/pkg/queue"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/service"
	"github.com/qs3c/findoc_server/internal/testutil"
)

type fakeExecutor struct {
	mu    sync.Mutex
	err   error
	tasks []*service.Task
}

func (e *fakeExecutor) Execute(ctx context.Context, task *service.Task) *service.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)

	out := &service.Outcome{JobID: task.JobID, Status: model.StatusCompleted}
	if e.err != nil {
		out.Status = model.StatusFailed
		out.Extraction.Err = e.err
	}
	return out
}

func (e *fakeExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

func setupRegistry(t *testing.T) (*redis.Client, *queue.Registry) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, queue.NewRegistry(rdb, time.Hour)
}

func TestProcessor_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	_, registry := setupRegistry(t)

	job := testutil.TestJob(t, db)
	exec := &fakeExecutor{}
	p := NewProcessor(exec, repository.NewJobRepository(db), registry)

	msg := &queue.JobMessage{JobID: job.JobID, Query: "q", DocumentRef: job.DocumentPath, DocumentName: "report.pdf", UserRef: "1"}
	require.NoError(t, p.Process(context.Background(), msg))

	require.Len(t, exec.tasks, 1)
	assert.Equal(t, job.JobID, exec.tasks[0].JobID)
	assert.Equal(t, job.DocumentPath, exec.tasks[0].DocumentRef)

	rec, err := registry.Get(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateSuccess, rec.State)
}

func TestProcessor_Failure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	_, registry := setupRegistry(t)

	job := testutil.TestJob(t, db)
	exec := &fakeExecutor{err: extractor.ErrNoContent}
	p := NewProcessor(exec, repository.NewJobRepository(db), registry)

	err := p.Process(context.Background(), &queue.JobMessage{JobID: job.JobID})
	assert.ErrorIs(t, err, extractor.ErrNoContent)

	rec, err := registry.Get(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateFailure, rec.State)
	assert.Equal(t, extractor.ErrNoContent.Error(), rec.Error)
}

func TestProcessor_SkipsFinishedJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	for _, status := range []model.JobStatus{model.StatusCompleted, model.StatusFailed} {
		job := testutil.TestJob(t, db, testutil.WithStatus(status))
		exec := &fakeExecutor{}
		p := NewProcessor(exec, repository.NewJobRepository(db), nil)

		require.NoError(t, p.Process(context.Background(), &queue.JobMessage{JobID: job.JobID}))
		assert.Zero(t, exec.count(), status)
	}
}

func TestProcessor_UnknownJobStillRuns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	exec := &fakeExecutor{}
	p := NewProcessor(exec, repository.NewJobRepository(db), nil)

	require.NoError(t, p.Process(context.Background(), &queue.JobMessage{JobID: "not-in-store"}))
	assert.Equal(t, 1, exec.count())
}

func TestProcessor_ReturnsExecutionError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	boom := errors.New("boom")
	p := NewProcessor(&fakeExecutor{err: boom}, repository.NewJobRepository(db), nil)

	assert.ErrorIs(t, p.Process(context.Background(), &queue.JobMessage{JobID: "x"}), boom)
}
