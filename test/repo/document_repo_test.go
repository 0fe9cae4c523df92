package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshmind/meshmind/internal/model"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
	"github.com/meshmind/meshmind/internal/pkg/timeutil"
	"github.com/meshmind/meshmind/internal/repo"
	"github.com/meshmind/meshmind/test/testutil"
)

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestDocumentRepoLifecycle(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:          uniqueID("doc-lifecycle"),
		UserID:      uniqueID("user"),
		Filename:    "paper.pdf",
		StorageKey:  "doc-lifecycle.pdf",
		ContentHash: "abc123",
		Status:      model.DocumentStatusQueued,
		Meta:        map[string]string{"origin": "upload"},
		Ctime:       now,
		Mtime:       now,
	}
	require.NoError(t, docs.Create(context.Background(), doc))

	fetched, err := docs.Get(context.Background(), doc.UserID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "paper.pdf", fetched.Filename)
	require.Equal(t, model.DocumentStatusQueued, fetched.Status)
	require.Equal(t, "upload", fetched.Meta["origin"])

	_, err = docs.Get(context.Background(), "someone-else", doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, docs.UpdateStatus(context.Background(), doc.ID, model.DocumentStatusProcessing, timeutil.NowUnix()))
	require.NoError(t, docs.MarkProcessed(context.Background(), doc.ID, 12, 5, 7, timeutil.NowUnix()))

	fetched, err = docs.Get(context.Background(), doc.UserID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusProcessed, fetched.Status)
	require.Equal(t, 12, fetched.ChunkCount)
	require.Equal(t, 5, fetched.EntityCount)
	require.Equal(t, 7, fetched.RelationCount)
	require.Empty(t, fetched.Error)
}

func TestDocumentRepoMarkFailed(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:       uniqueID("doc-failed"),
		UserID:   uniqueID("user"),
		Filename: "bad.pdf",
		Status:   model.DocumentStatusQueued,
		Ctime:    now,
		Mtime:    now,
	}
	require.NoError(t, docs.Create(context.Background(), doc))
	require.NoError(t, docs.MarkFailed(context.Background(), doc.ID, "no text content extracted", timeutil.NowUnix()))

	fetched, err := docs.Get(context.Background(), doc.UserID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, model.DocumentStatusFailed, fetched.Status)
	require.Equal(t, "no text content extracted", fetched.Error)
}

func TestDocumentRepoListByUser(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docs := repo.NewDocumentRepo(db)
	userID := uniqueID("user-list")
	now := timeutil.NowUnix()
	first := uniqueID("doc-list-a")
	second := uniqueID("doc-list-b")
	require.NoError(t, docs.Create(context.Background(), &model.Document{
		ID: first, UserID: userID, Filename: "a.txt",
		Status: model.DocumentStatusQueued, Ctime: now, Mtime: now,
	}))
	require.NoError(t, docs.Create(context.Background(), &model.Document{
		ID: second, UserID: userID, Filename: "b.txt",
		Status: model.DocumentStatusQueued, Ctime: now + 1, Mtime: now + 1,
	}))

	listed, err := docs.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	// Newest first.
	require.Equal(t, second, listed[0].ID)

	other, err := docs.ListByUser(context.Background(), uniqueID("user-none"))
	require.NoError(t, err)
	require.Empty(t, other)
}
