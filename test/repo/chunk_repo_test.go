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

func insertChunk(t *testing.T, chunks *repo.ChunkRepo, docID, userID string, position int, text string, embedding []float32) {
	t.Helper()
	require.NoError(t, chunks.Insert(context.Background(), &model.Chunk{
		ID:         uniqueID("chunk"),
		DocumentID: docID,
		UserID:     userID,
		Position:   position,
		Text:       text,
		Embedding:  embedding,
		Meta:       model.ChunkMeta{Filename: "f.txt", Size: len(text)},
		Ctime:      timeutil.NowUnix(),
	}))
}

func TestChunkRepoKeywordSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	userID := uniqueID("user")
	docID := uniqueID("doc")
	insertChunk(t, chunks, docID, userID, 0, "the quick brown fox", nil)
	insertChunk(t, chunks, docID, userID, 1, "jumps over the lazy dog", nil)
	insertChunk(t, chunks, docID, userID, 2, "QUICK decisions matter", nil)

	found, err := chunks.SearchKeyword(context.Background(), userID, docID, "quick", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	// Ordered by position.
	require.Equal(t, 0, found[0].Position)
	require.Equal(t, 2, found[1].Position)

	none, err := chunks.SearchKeyword(context.Background(), uniqueID("other"), docID, "quick", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestChunkRepoKeywordSearchAcrossDocuments(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	userID := uniqueID("user")
	docA := uniqueID("doc-a")
	docB := uniqueID("doc-b")
	insertChunk(t, chunks, docA, userID, 0, "shared keyword alpha", nil)
	insertChunk(t, chunks, docB, userID, 0, "shared keyword beta", nil)

	all, err := chunks.SearchKeyword(context.Background(), userID, "", "shared keyword", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := chunks.SearchKeyword(context.Background(), userID, docA, "shared keyword", 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, docA, scoped[0].DocumentID)
}

func TestChunkRepoKeywordSearchTreatsWildcardsAsLiterals(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	userID := uniqueID("user")
	docID := uniqueID("doc")
	insertChunk(t, chunks, docID, userID, 0, "coverage is at 100% now", nil)
	insertChunk(t, chunks, docID, userID, 1, "coverage is at 100 percent now", nil)
	insertChunk(t, chunks, docID, userID, 2, "uses snake_case naming", nil)
	insertChunk(t, chunks, docID, userID, 3, "uses snakeXcase naming", nil)

	found, err := chunks.SearchKeyword(context.Background(), userID, docID, "100%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, 0, found[0].Position)

	found, err = chunks.SearchKeyword(context.Background(), userID, docID, "snake_case", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, 2, found[0].Position)
}

func TestChunkRepoVectorSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	userID := uniqueID("user")
	docID := uniqueID("doc")
	insertChunk(t, chunks, docID, userID, 0, "close match", []float32{1, 0, 0})
	insertChunk(t, chunks, docID, userID, 1, "far match", []float32{0, 1, 0})
	insertChunk(t, chunks, docID, userID, 2, "no embedding", nil)

	found, err := chunks.SearchVector(context.Background(), userID, docID, []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "close match", found[0].Text)
}

func TestChunkRepoDeleteByDocument(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	userID := uniqueID("user")
	docID := uniqueID("doc")
	insertChunk(t, chunks, docID, userID, 0, "to be removed", nil)

	require.NoError(t, chunks.DeleteByDocument(context.Background(), docID))
	listed, err := chunks.ListByDocument(context.Background(), userID, docID, 10)
	require.NoError(t, err)
	require.Empty(t, listed)
}
