package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshmind/meshmind/internal/ai"
	"github.com/meshmind/meshmind/internal/config"
	"github.com/meshmind/meshmind/internal/filestore"
	"github.com/meshmind/meshmind/internal/model"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
	"github.com/meshmind/meshmind/internal/pkg/timeutil"
	"github.com/meshmind/meshmind/internal/queue"
)

const progressEvery = 10

// The stores below are the repo surface ingestion touches; the *repo types
// satisfy them.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, userID, docID string) (*model.Document, error)
	ListByUser(ctx context.Context, userID string) ([]model.Document, error)
	UpdateStatus(ctx context.Context, docID, status string, mtime int64) error
	MarkFailed(ctx context.Context, docID, errText string, mtime int64) error
	MarkProcessed(ctx context.Context, docID string, chunkCount, entityCount, relationCount int, mtime int64) error
}

type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, userID, jobID string) (*model.Job, error)
	UpdateStep(ctx context.Context, jobID, status, step string, mtime int64) error
	UpdateProgress(ctx context.Context, jobID string, done, total int, mtime int64) error
	MarkCompleted(ctx context.Context, jobID string, mtime int64) error
	MarkFailed(ctx context.Context, jobID, errText string, mtime int64) error
}

type ChunkWriter interface {
	Insert(ctx context.Context, chunk *model.Chunk) error
	DeleteByDocument(ctx context.Context, docID string) error
}

type GraphStore interface {
	ReplaceForDocument(ctx context.Context, docID, userID string, entities []model.Entity, relations []model.Relation) error
}

type IngestService struct {
	docs    DocumentStore
	jobs    JobStore
	chunks  ChunkWriter
	graph   GraphStore
	store   filestore.Store
	q       queue.Queue
	aim     *ai.Manager
	chunker *ai.Chunker
	cfg     config.IngestConfig
}

func NewIngestService(docs DocumentStore, jobs JobStore, chunks ChunkWriter,
	graph GraphStore, store filestore.Store, q queue.Queue, aim *ai.Manager, cfg config.IngestConfig) *IngestService {
	return &IngestService{
		docs:    docs,
		jobs:    jobs,
		chunks:  chunks,
		graph:   graph,
		store:   store,
		q:       q,
		aim:     aim,
		chunker: ai.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		cfg:     cfg,
	}
}

// RegisterUpload stores the uploaded file, creates the document and job
// records and enqueues processing.
func (s *IngestService) RegisterUpload(ctx context.Context, userID, filename string, r io.Reader, size int64) (*model.Document, *model.Job, error) {
	docID := uuid.NewString()
	key := docID + strings.ToLower(filepath.Ext(filename))
	hasher := sha256.New()
	if err := s.store.Save(ctx, key, io.TeeReader(r, hasher), size); err != nil {
		return nil, nil, fmt.Errorf("save upload: %w", err)
	}
	return s.register(ctx, &model.Document{
		ID:          docID,
		UserID:      userID,
		Filename:    filename,
		StorageKey:  key,
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
		Meta:        map[string]string{"origin": "upload"},
	})
}

// RegisterExternal enqueues processing for an object that already exists
// in the store.
func (s *IngestService) RegisterExternal(ctx context.Context, userID, filename, storageKey, contentHash string) (*model.Document, *model.Job, error) {
	if storageKey == "" {
		return nil, nil, fmt.Errorf("%w: storage_key is required", appErr.ErrInvalid)
	}
	return s.register(ctx, &model.Document{
		ID:          uuid.NewString(),
		UserID:      userID,
		Filename:    filename,
		StorageKey:  storageKey,
		ContentHash: contentHash,
		Meta:        map[string]string{"origin": "register"},
	})
}

func (s *IngestService) register(ctx context.Context, doc *model.Document) (*model.Document, *model.Job, error) {
	now := timeutil.NowUnix()
	doc.Status = model.DocumentStatusQueued
	doc.Ctime, doc.Mtime = now, now
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, nil, err
	}
	job := &model.Job{
		ID:         newID(),
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		Status:     model.JobStatusQueued,
		Step:       model.JobStepQueued,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, err
	}
	msg := queue.Message{JobID: job.ID, DocumentID: doc.ID, UserID: doc.UserID}
	if err := s.q.Enqueue(ctx, msg); err != nil {
		errText := fmt.Sprintf("enqueue: %v", err)
		s.failJob(ctx, doc.ID, job.ID, errText)
		return nil, nil, fmt.Errorf("enqueue ingest job: %w", err)
	}
	return doc, job, nil
}

func (s *IngestService) GetDocument(ctx context.Context, userID, docID string) (*model.Document, error) {
	return s.docs.Get(ctx, userID, docID)
}

func (s *IngestService) ListDocuments(ctx context.Context, userID string) ([]model.Document, error) {
	return s.docs.ListByUser(ctx, userID)
}

func (s *IngestService) GetJob(ctx context.Context, userID, jobID string) (*model.Job, error) {
	return s.jobs.Get(ctx, userID, jobID)
}

// Process runs the full ingestion pipeline for one queued job. Any error
// marks both the document and the job failed; there is no retry.
func (s *IngestService) Process(ctx context.Context, msg queue.Message) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job_id", msg.JobID),
		zap.String("document_id", msg.DocumentID),
	)
	doc, err := s.docs.Get(ctx, msg.UserID, msg.DocumentID)
	if err != nil {
		s.failJob(ctx, msg.DocumentID, msg.JobID, err.Error())
		return fmt.Errorf("load document: %w", err)
	}
	if err := s.process(ctx, doc, msg.JobID, logger); err != nil {
		logger.Error("ingest failed", zap.Error(err))
		s.failJob(ctx, doc.ID, msg.JobID, err.Error())
		return err
	}
	return nil
}

func (s *IngestService) process(ctx context.Context, doc *model.Document, jobID string, logger *zap.Logger) error {
	now := timeutil.NowUnix()
	if err := s.docs.UpdateStatus(ctx, doc.ID, model.DocumentStatusProcessing, now); err != nil {
		return err
	}
	if err := s.jobs.UpdateStep(ctx, jobID, model.JobStatusProcessing, model.JobStepParsing, now); err != nil {
		return err
	}

	reader, err := s.store.Open(ctx, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("open stored document: %w", err)
	}
	parsed, err := ParseDocument(doc.Filename, reader)
	_ = reader.Close()
	if err != nil {
		return err
	}

	_ = s.jobs.UpdateStep(ctx, jobID, model.JobStatusProcessing, model.JobStepChunking, timeutil.NowUnix())
	var parts []string
	if parsed.Markdown {
		parts = s.chunker.ChunkMarkdown(parsed.Text)
	} else {
		parts = s.chunker.ChunkText(parsed.Text)
	}
	if len(parts) == 0 {
		return appErr.ErrEmptyContent
	}

	// Reprocessing replaces previous chunks rather than appending.
	if err := s.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("clear old chunks: %w", err)
	}

	_ = s.jobs.UpdateStep(ctx, jobID, model.JobStatusProcessing, model.JobStepEmbedding, timeutil.NowUnix())
	if err := s.embedAndStore(ctx, doc, jobID, parts, logger); err != nil {
		return err
	}

	_ = s.docs.UpdateStatus(ctx, doc.ID, model.DocumentStatusBuildingGraph, timeutil.NowUnix())
	_ = s.jobs.UpdateStep(ctx, jobID, model.JobStatusProcessing, model.JobStepGraph, timeutil.NowUnix())
	entities, relations := s.extractGraph(ctx, doc, parsed.Text, logger)
	if err := s.graph.ReplaceForDocument(ctx, doc.ID, doc.UserID, entities, relations); err != nil {
		return fmt.Errorf("store graph: %w", err)
	}

	now = timeutil.NowUnix()
	if err := s.docs.MarkProcessed(ctx, doc.ID, len(parts), len(entities), len(relations), now); err != nil {
		return err
	}
	if err := s.jobs.MarkCompleted(ctx, jobID, now); err != nil {
		return err
	}
	logger.Info("document processed",
		zap.Int("chunks", len(parts)),
		zap.Int("entities", len(entities)),
		zap.Int("relations", len(relations)),
	)
	return nil
}

var pageMarkerRe = regexp.MustCompile(`--- Page (\d+) ---`)

func (s *IngestService) embedAndStore(ctx context.Context, doc *model.Document, jobID string, parts []string, logger *zap.Logger) error {
	currentPage := 0
	for i, text := range parts {
		if markers := pageMarkerRe.FindAllStringSubmatch(text, -1); len(markers) > 0 {
			currentPage, _ = strconv.Atoi(markers[len(markers)-1][1])
		}
		embedding, err := s.aim.Embed(ctx, text, ai.TaskTypeDocument)
		if err != nil {
			// A chunk without an embedding is still searchable by keyword.
			logger.Warn("embed chunk failed", zap.Int("position", i), zap.Error(err))
			embedding = nil
		}
		chunk := &model.Chunk{
			ID:         newID(),
			DocumentID: doc.ID,
			UserID:     doc.UserID,
			Position:   i,
			Text:       text,
			Embedding:  embedding,
			Meta: model.ChunkMeta{
				Filename: doc.Filename,
				Page:     currentPage,
				Size:     len(text),
			},
			Ctime: timeutil.NowUnix(),
		}
		if err := s.chunks.Insert(ctx, chunk); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
		if (i+1)%progressEvery == 0 || i+1 == len(parts) {
			_ = s.jobs.UpdateProgress(ctx, jobID, i+1, len(parts), timeutil.NowUnix())
		}
	}
	return nil
}

// extractGraph runs entity extraction over fixed windows of the document
// text and merges results by normalized entity id. Extraction failures on
// individual windows are logged and skipped; the graph is best effort.
func (s *IngestService) extractGraph(ctx context.Context, doc *model.Document, text string, logger *zap.Logger) ([]model.Entity, []model.Relation) {
	window := s.cfg.ExtractWindow
	runes := []rune(text)
	merged := make(map[string]*model.Entity)
	order := make([]string, 0)
	var relations []model.Relation

	addEntity := func(name, entityType string, windowIdx int) string {
		id := entityID(doc.ID, name)
		if id == "" {
			return ""
		}
		entity, ok := merged[id]
		if !ok {
			entity = &model.Entity{
				ID:         id,
				DocumentID: doc.ID,
				UserID:     doc.UserID,
				Name:       name,
				Type:       normalizeEntityType(entityType),
				Ctime:      timeutil.NowUnix(),
			}
			merged[id] = entity
			order = append(order, id)
		}
		if len(entity.Mentions) == 0 || entity.Mentions[len(entity.Mentions)-1] != windowIdx {
			entity.Mentions = append(entity.Mentions, windowIdx)
		}
		return id
	}

	windowIdx := 0
	for start := 0; start < len(runes); start += window {
		end := start + window
		if end > len(runes) {
			end = len(runes)
		}
		windowIdx++
		result, err := s.aim.ExtractGraph(ctx, string(runes[start:end]))
		if err != nil {
			logger.Warn("graph extraction failed", zap.Int("window", windowIdx), zap.Error(err))
			continue
		}
		for _, item := range result.Entities {
			addEntity(item.Name, item.Type, windowIdx)
		}
		for _, rel := range result.Relationships {
			sourceID := addEntity(rel.Source, "CONCEPT", windowIdx)
			targetID := addEntity(rel.Target, "CONCEPT", windowIdx)
			if sourceID == "" || targetID == "" || sourceID == targetID {
				continue
			}
			relations = append(relations, model.Relation{
				ID:         newID(),
				DocumentID: doc.ID,
				UserID:     doc.UserID,
				SourceID:   sourceID,
				TargetID:   targetID,
				Type:       strings.TrimSpace(rel.Type),
				Context:    strings.TrimSpace(rel.Context),
				Ctime:      timeutil.NowUnix(),
			})
		}
	}

	entities := make([]model.Entity, 0, len(order))
	for _, id := range order {
		entities = append(entities, *merged[id])
	}
	return entities, relations
}

func (s *IngestService) failJob(ctx context.Context, docID, jobID, errText string) {
	now := timeutil.NowUnix()
	if err := s.docs.MarkFailed(ctx, docID, errText, now); err != nil {
		logutil.GetLogger(ctx).Error("mark document failed", zap.String("document_id", docID), zap.Error(err))
	}
	if err := s.jobs.MarkFailed(ctx, jobID, errText, now); err != nil {
		logutil.GetLogger(ctx).Error("mark job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

// Matches any run of characters outside letters and digits, unicode aware
// so non-Latin entity names keep their identity.
var nonAlnumRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// entityID builds a stable per-document id from the entity name so the
// same entity found in different windows merges into one row.
func entityID(docID, name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonAlnumRe.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return ""
	}
	return docID + "_" + slug
}

func normalizeEntityType(entityType string) string {
	upper := strings.ToUpper(strings.TrimSpace(entityType))
	for _, known := range model.EntityTypes {
		if upper == known {
			return upper
		}
	}
	return "CONCEPT"
}
