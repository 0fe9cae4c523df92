package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshmind/meshmind/internal/ai"
	"github.com/meshmind/meshmind/internal/model"
)

func TestPreviewTextShortUnchanged(t *testing.T) {
	require.Equal(t, "short text", previewText("short text"))
}

func TestPreviewTextTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	preview := previewText(long)
	require.Equal(t, sourcePreviewChars+3, len(preview))
	require.True(t, strings.HasSuffix(preview, "..."))
}

func TestBuildContextRespectsBudget(t *testing.T) {
	aim := ai.NewManager(nil, nil, ai.ManagerConfig{MaxInputChars: 25})
	chat := NewChatService(nil, nil, nil, aim)
	results := []model.ChunkSearchResult{
		{Text: strings.Repeat("a", 20)},
		{Text: strings.Repeat("b", 20)},
	}
	contextText := chat.buildContext(results)
	require.Equal(t, strings.Repeat("a", 20), contextText)
}

func TestBuildContextJoinsChunks(t *testing.T) {
	aim := ai.NewManager(nil, nil, ai.ManagerConfig{MaxInputChars: 1000})
	chat := NewChatService(nil, nil, nil, aim)
	results := []model.ChunkSearchResult{
		{Text: "first"},
		{Text: "second"},
	}
	require.Equal(t, "first\n\nsecond", chat.buildContext(results))
}

func TestBuildContextTruncatesOversizedFirstChunk(t *testing.T) {
	aim := ai.NewManager(nil, nil, ai.ManagerConfig{MaxInputChars: 10})
	chat := NewChatService(nil, nil, nil, aim)
	results := []model.ChunkSearchResult{
		{Text: strings.Repeat("a", 50)},
		{Text: strings.Repeat("b", 50)},
	}
	// The first chunk still contributes, cut to the budget.
	require.Equal(t, strings.Repeat("a", 10), chat.buildContext(results))
}

func TestCutToBudgetRuneBoundary(t *testing.T) {
	require.Equal(t, "日", cutToBudget("日本語", 5))
	require.Equal(t, "日本語", cutToBudget("日本語", 9))
	require.Equal(t, "ab", cutToBudget("abc", 2))
}

func TestBuildContextEmptyResults(t *testing.T) {
	aim := ai.NewManager(nil, nil, ai.ManagerConfig{})
	chat := NewChatService(nil, nil, nil, aim)
	require.Equal(t, "No relevant context found.", chat.buildContext(nil))
}

func TestAnswerCacheKeyCaseInsensitive(t *testing.T) {
	require.Equal(t,
		answerCacheKey("u", "d", "What Is This?"),
		answerCacheKey("u", "d", "what is this?"),
	)
	require.NotEqual(t,
		answerCacheKey("u", "d", "question one"),
		answerCacheKey("u", "d", "question two"),
	)
}
