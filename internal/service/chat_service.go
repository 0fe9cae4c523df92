package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshmind/meshmind/internal/ai"
	"github.com/meshmind/meshmind/internal/model"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
	"github.com/meshmind/meshmind/internal/pkg/timeutil"
	"github.com/meshmind/meshmind/internal/repo"
)

const (
	sourcePreviewChars = 200
	answerCacheSize    = 256
	answerCacheTTL     = 10 * time.Minute
	defaultHistorySize = 50
)

type ChatService struct {
	docs    *repo.DocumentRepo
	history *repo.ChatHistoryRepo
	search  *SearchService
	aim     *ai.Manager
	answers *expirable.LRU[string, *QueryResult]
}

type QuerySource struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Preview    string  `json:"preview"`
	Score      float32 `json:"score"`
	SourceType string  `json:"source_type"`
	Page       int     `json:"page,omitempty"`
}

type QueryResult struct {
	Answer    string        `json:"answer"`
	Sources   []QuerySource `json:"sources"`
	UsedGraph bool          `json:"used_graph"`
}

func NewChatService(docs *repo.DocumentRepo, history *repo.ChatHistoryRepo, search *SearchService, aim *ai.Manager) *ChatService {
	return &ChatService{
		docs:    docs,
		history: history,
		search:  search,
		aim:     aim,
		answers: expirable.NewLRU[string, *QueryResult](answerCacheSize, nil, answerCacheTTL),
	}
}

// Query answers a question over one processed document: retrieve context
// chunks, prompt the model, record the exchange when a session is given.
func (s *ChatService) Query(ctx context.Context, userID, docID, sessionID, question string) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	doc, err := s.docs.Get(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.DocumentStatusProcessed {
		return nil, fmt.Errorf("%w: status %s", appErr.ErrNotReady, doc.Status)
	}

	cacheKey := answerCacheKey(userID, docID, question)
	if cached, ok := s.answers.Get(cacheKey); ok {
		s.record(ctx, userID, docID, sessionID, question, cached)
		return cached, nil
	}

	results, usedGraph, err := s.search.Retrieve(ctx, userID, docID, question)
	if err != nil {
		return nil, err
	}
	answer, err := s.aim.Answer(ctx, question, s.buildContext(results))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrInternal, err)
	}

	result := &QueryResult{
		Answer:    answer,
		Sources:   toSources(results),
		UsedGraph: usedGraph,
	}
	s.answers.Add(cacheKey, result)
	s.record(ctx, userID, docID, sessionID, question, result)
	return result, nil
}

func (s *ChatService) History(ctx context.Context, userID, docID, sessionID string, limit int) ([]model.ChatRecord, error) {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return s.history.ListByDocument(ctx, userID, docID, sessionID, limit)
}

// buildContext joins chunk texts into the prompt context, trimmed to the
// model input budget. An oversized first chunk is included truncated rather
// than dropped, keeping the prompt consistent with the reported sources.
func (s *ChatService) buildContext(results []model.ChunkSearchResult) string {
	var sb strings.Builder
	budget := s.aim.MaxInputChars()
	for _, item := range results {
		if budget > 0 && sb.Len()+len(item.Text) > budget {
			if sb.Len() == 0 {
				sb.WriteString(cutToBudget(item.Text, budget))
			}
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(item.Text)
	}
	if sb.Len() == 0 {
		return "No relevant context found."
	}
	return sb.String()
}

// cutToBudget truncates text to at most max bytes on a rune boundary.
func cutToBudget(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// record persists the exchange in chat history. History writes never fail
// the query itself.
func (s *ChatService) record(ctx context.Context, userID, docID, sessionID, question string, result *QueryResult) {
	if sessionID == "" {
		return
	}
	rec := &model.ChatRecord{
		ID:         newID(),
		UserID:     userID,
		DocumentID: docID,
		SessionID:  sessionID,
		Query:      question,
		Answer:     result.Answer,
		UsedGraph:  result.UsedGraph,
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.history.Insert(ctx, rec); err != nil {
		logutil.GetLogger(ctx).Warn("save chat history", zap.String("document_id", docID), zap.Error(err))
	}
}

func toSources(results []model.ChunkSearchResult) []QuerySource {
	sources := make([]QuerySource, 0, len(results))
	for _, item := range results {
		sources = append(sources, QuerySource{
			ChunkID:    item.ChunkID,
			DocumentID: item.DocumentID,
			Preview:    previewText(item.Text),
			Score:      item.Score,
			SourceType: item.SourceType,
			Page:       item.Meta.Page,
		})
	}
	return sources
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= sourcePreviewChars {
		return text
	}
	return string(runes[:sourcePreviewChars]) + "..."
}

func answerCacheKey(userID, docID, question string) string {
	sum := sha256.Sum256([]byte(userID + "|" + docID + "|" + strings.ToLower(question)))
	return hex.EncodeToString(sum[:])
}
