package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/meshmind/meshmind/internal/pkg/errcode"
	"github.com/meshmind/meshmind/internal/pkg/response"
	"github.com/meshmind/meshmind/internal/service"
)

type DocumentHandler struct {
	ingest        *service.IngestService
	maxUploadSize int64
}

func NewDocumentHandler(ingest *service.IngestService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, maxUploadSize: maxUploadSize}
}

type ingestResponse struct {
	DocumentID string `json:"document_id"`
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	doc, job, err := h.ingest.RegisterUpload(c.Request.Context(), getUserID(c), file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ingestResponse{DocumentID: doc.ID, JobID: job.ID, Status: doc.Status})
}

type registerRequest struct {
	Filename    string `json:"filename" binding:"required"`
	StorageKey  string `json:"storage_key" binding:"required"`
	ContentHash string `json:"content_hash"`
}

func (h *DocumentHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "filename and storage_key are required")
		return
	}
	doc, job, err := h.ingest.RegisterExternal(c.Request.Context(), getUserID(c), req.Filename, req.StorageKey, req.ContentHash)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ingestResponse{DocumentID: doc.ID, JobID: job.ID, Status: doc.Status})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.ingest.ListDocuments(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs, "total": len(docs)})
}

type documentStatusResponse struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	ChunkCount    int    `json:"chunk_count"`
	EntityCount   int    `json:"entity_count"`
	RelationCount int    `json:"relation_count"`
	Mtime         int64  `json:"mtime"`
}

func (h *DocumentHandler) Status(c *gin.Context) {
	doc, err := h.ingest.GetDocument(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, documentStatusResponse{
		DocumentID:    doc.ID,
		Filename:      doc.Filename,
		Status:        doc.Status,
		Error:         doc.Error,
		ChunkCount:    doc.ChunkCount,
		EntityCount:   doc.EntityCount,
		RelationCount: doc.RelationCount,
		Mtime:         doc.Mtime,
	})
}

func (h *DocumentHandler) Job(c *gin.Context) {
	job, err := h.ingest.GetJob(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, job)
}
