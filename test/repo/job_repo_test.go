package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshmind/meshmind/internal/model"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
	"github.com/meshmind/meshmind/internal/pkg/timeutil"
	"github.com/meshmind/meshmind/internal/repo"
	"github.com/meshmind/meshmind/test/testutil"
)

func TestJobRepoLifecycle(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	jobs := repo.NewJobRepo(db)
	now := timeutil.NowUnix()
	job := &model.Job{
		ID:         uniqueID("job"),
		DocumentID: uniqueID("doc"),
		UserID:     uniqueID("user"),
		Status:     model.JobStatusQueued,
		Step:       model.JobStepQueued,
		Ctime:      now,
		Mtime:      now,
	}
	require.NoError(t, jobs.Create(context.Background(), job))

	_, err := jobs.Get(context.Background(), "someone-else", job.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, jobs.UpdateStep(context.Background(), job.ID, model.JobStatusProcessing, model.JobStepEmbedding, timeutil.NowUnix()))
	require.NoError(t, jobs.UpdateProgress(context.Background(), job.ID, 10, 40, timeutil.NowUnix()))

	fetched, err := jobs.Get(context.Background(), job.UserID, job.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusProcessing, fetched.Status)
	require.Equal(t, model.JobStepEmbedding, fetched.Step)
	require.Equal(t, 10, fetched.ChunksDone)
	require.Equal(t, 40, fetched.ChunksTotal)

	require.NoError(t, jobs.MarkCompleted(context.Background(), job.ID, timeutil.NowUnix()))
	fetched, err = jobs.Get(context.Background(), job.UserID, job.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusCompleted, fetched.Status)
	require.Equal(t, model.JobStepDone, fetched.Step)
}

func TestJobRepoFailStale(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	jobs := repo.NewJobRepo(db)
	docs := repo.NewDocumentRepo(db)
	now := timeutil.NowUnix()
	userID := uniqueID("user")
	staleDoc := &model.Document{
		ID:       uniqueID("doc-stale"),
		UserID:   userID,
		Filename: "stale.txt",
		Status:   model.DocumentStatusProcessing,
		Ctime:    now - 7200,
		Mtime:    now - 7200,
	}
	freshDoc := &model.Document{
		ID:       uniqueID("doc-fresh"),
		UserID:   userID,
		Filename: "fresh.txt",
		Status:   model.DocumentStatusProcessing,
		Ctime:    now,
		Mtime:    now,
	}
	require.NoError(t, docs.Create(context.Background(), staleDoc))
	require.NoError(t, docs.Create(context.Background(), freshDoc))
	stale := &model.Job{
		ID:         uniqueID("job-stale"),
		DocumentID: staleDoc.ID,
		UserID:     userID,
		Status:     model.JobStatusProcessing,
		Step:       model.JobStepEmbedding,
		Ctime:      now - 7200,
		Mtime:      now - 7200,
	}
	fresh := &model.Job{
		ID:         uniqueID("job-fresh"),
		DocumentID: freshDoc.ID,
		UserID:     userID,
		Status:     model.JobStatusProcessing,
		Step:       model.JobStepParsing,
		Ctime:      now,
		Mtime:      now,
	}
	require.NoError(t, jobs.Create(context.Background(), stale))
	require.NoError(t, jobs.Create(context.Background(), fresh))

	reaped, err := jobs.FailStale(context.Background(), now-3600, now)
	require.NoError(t, err)
	require.GreaterOrEqual(t, reaped, int64(1))

	fetched, err := jobs.Get(context.Background(), stale.UserID, stale.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusFailed, fetched.Status)
	require.Equal(t, "stale job reaped", fetched.Error)

	fetched, err = jobs.Get(context.Background(), fresh.UserID, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusProcessing, fetched.Status)

	// The owning document transitions together with its job.
	fetchedDoc, err := docs.Get(context.Background(), userID, staleDoc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusFailed, fetchedDoc.Status)
	require.Equal(t, "stale job reaped", fetchedDoc.Error)

	fetchedDoc, err = docs.Get(context.Background(), userID, freshDoc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusProcessing, fetchedDoc.Status)
}
