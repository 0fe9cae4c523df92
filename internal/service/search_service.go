package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshmind/meshmind/internal/ai"
	"github.com/meshmind/meshmind/internal/config"
	"github.com/meshmind/meshmind/internal/model"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
)

// ChunkSearcher is the chunk access retrieval needs; *repo.ChunkRepo
// satisfies it.
type ChunkSearcher interface {
	SearchKeyword(ctx context.Context, userID, docID, query string, limit int) ([]model.Chunk, error)
	SearchVector(ctx context.Context, userID, docID string, embedding []float32, limit int) ([]model.Chunk, error)
	ListByDocument(ctx context.Context, userID, docID string, limit int) ([]model.Chunk, error)
}

type SearchService struct {
	chunks ChunkSearcher
	aim    *ai.Manager
	cfg    config.RetrievalConfig
}

func NewSearchService(chunks ChunkSearcher, aim *ai.Manager, cfg config.RetrievalConfig) *SearchService {
	return &SearchService{chunks: chunks, aim: aim, cfg: cfg}
}

// scoreAt ranks results by position within their source list. The first
// hit gets 0.9, each following one 0.05 less.
func scoreAt(i int) float32 {
	score := 0.9 - 0.05*float32(i)
	if score < 0 {
		score = 0
	}
	return score
}

// SearchKeyword runs a plain substring search over the user's chunks,
// optionally scoped to one document.
func (s *SearchService) SearchKeyword(ctx context.Context, userID, docID, query string, limit int) ([]model.ChunkSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErr.ErrInvalid
	}
	if limit <= 0 {
		limit = s.cfg.KeywordLimit
	}
	chunks, err := s.chunks.SearchKeyword(ctx, userID, docID, query, limit)
	if err != nil {
		return nil, err
	}
	return toResults(chunks, model.SourceKeyword), nil
}

// Retrieve gathers context chunks for a question: graph entity lookup
// first, then keyword search, then vector ranking when enabled. Results
// are deduplicated by chunk id, keeping the first source that found them.
func (s *SearchService) Retrieve(ctx context.Context, userID, docID, question string) ([]model.ChunkSearchResult, bool, error) {
	var results []model.ChunkSearchResult
	seen := make(map[string]bool)
	usedGraph := false

	add := func(items []model.ChunkSearchResult) {
		for _, item := range items {
			if seen[item.ChunkID] {
				continue
			}
			seen[item.ChunkID] = true
			results = append(results, item)
		}
	}

	graphResults, err := s.searchGraph(ctx, userID, docID, question)
	if err != nil {
		logutil.GetLogger(ctx).Warn("graph retrieval failed", zap.Error(err))
	} else if len(graphResults) > 0 {
		usedGraph = true
		add(graphResults)
	}

	keywordResults, err := s.chunks.SearchKeyword(ctx, userID, docID, question, s.cfg.KeywordLimit)
	if err != nil {
		return nil, false, err
	}
	add(toResults(keywordResults, model.SourceKeyword))

	if s.cfg.EnableVector {
		vectorResults, err := s.searchVector(ctx, userID, docID, question)
		if err != nil {
			logutil.GetLogger(ctx).Warn("vector retrieval failed", zap.Error(err))
		} else {
			add(vectorResults)
		}
	}

	if len(results) == 0 && docID != "" {
		chunks, err := s.chunks.ListByDocument(ctx, userID, docID, s.cfg.FallbackLimit)
		if err != nil {
			return nil, false, err
		}
		add(toResults(chunks, model.SourceKeyword))
	}
	return results, usedGraph, nil
}

// searchGraph asks the LLM for the entities in the question and pulls
// chunks mentioning each of them.
func (s *SearchService) searchGraph(ctx context.Context, userID, docID, question string) ([]model.ChunkSearchResult, error) {
	entities, err := s.aim.ExtractQueryEntities(ctx, question)
	if err != nil {
		return nil, err
	}
	if len(entities) > s.cfg.GraphLimit {
		entities = entities[:s.cfg.GraphLimit]
	}
	var results []model.ChunkSearchResult
	for _, entity := range entities {
		chunks, err := s.chunks.SearchKeyword(ctx, userID, docID, entity, s.cfg.ChunksPerEntity)
		if err != nil {
			return nil, err
		}
		results = append(results, toResults(chunks, model.SourceGraph)...)
	}
	return results, nil
}

func (s *SearchService) searchVector(ctx context.Context, userID, docID, question string) ([]model.ChunkSearchResult, error) {
	embedding, err := s.aim.Embed(ctx, question, ai.TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunks.SearchVector(ctx, userID, docID, embedding, s.cfg.VectorLimit)
	if err != nil {
		return nil, err
	}
	return toResults(chunks, model.SourceVector), nil
}

func toResults(chunks []model.Chunk, sourceType string) []model.ChunkSearchResult {
	results := make([]model.ChunkSearchResult, 0, len(chunks))
	for i, chunk := range chunks {
		results = append(results, model.ChunkSearchResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Score:      scoreAt(i),
			SourceType: sourceType,
			Meta:       chunk.Meta,
		})
	}
	return results
}
