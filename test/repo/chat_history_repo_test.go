package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshmind/meshmind/internal/model"
	"github.com/meshmind/meshmind/internal/pkg/timeutil"
	"github.com/meshmind/meshmind/internal/repo"
	"github.com/meshmind/meshmind/test/testutil"
)

func TestChatHistoryRepoListByDocument(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	history := repo.NewChatHistoryRepo(db)
	userID := uniqueID("user")
	docID := uniqueID("doc")
	now := timeutil.NowUnix()

	for i, q := range []string{"first question", "second question"} {
		require.NoError(t, history.Insert(context.Background(), &model.ChatRecord{
			ID:         uniqueID("chat"),
			UserID:     userID,
			DocumentID: docID,
			SessionID:  "session-1",
			Query:      q,
			Answer:     "answer",
			UsedGraph:  i == 1,
			Ctime:      now + int64(i),
		}))
	}
	require.NoError(t, history.Insert(context.Background(), &model.ChatRecord{
		ID:         uniqueID("chat"),
		UserID:     userID,
		DocumentID: docID,
		SessionID:  "session-2",
		Query:      "other session",
		Answer:     "answer",
		Ctime:      now + 5,
	}))

	all, err := history.ListByDocument(context.Background(), userID, docID, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "other session", all[0].Query)

	scoped, err := history.ListByDocument(context.Background(), userID, docID, "session-1", 10)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	require.Equal(t, "second question", scoped[0].Query)
	require.True(t, scoped[0].UsedGraph)
}

func TestChatHistoryRepoDeleteBefore(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	history := repo.NewChatHistoryRepo(db)
	userID := uniqueID("user")
	docID := uniqueID("doc")
	now := timeutil.NowUnix()

	require.NoError(t, history.Insert(context.Background(), &model.ChatRecord{
		ID: uniqueID("chat-old"), UserID: userID, DocumentID: docID,
		SessionID: "s", Query: "old", Answer: "a", Ctime: now - 1000,
	}))
	require.NoError(t, history.Insert(context.Background(), &model.ChatRecord{
		ID: uniqueID("chat-new"), UserID: userID, DocumentID: docID,
		SessionID: "s", Query: "new", Answer: "a", Ctime: now,
	}))

	deleted, err := history.DeleteBefore(context.Background(), now-500)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(1))

	remaining, err := history.ListByDocument(context.Background(), userID, docID, "", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "new", remaining[0].Query)
}
