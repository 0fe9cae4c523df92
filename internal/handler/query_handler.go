package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meshmind/meshmind/internal/pkg/errcode"
	"github.com/meshmind/meshmind/internal/pkg/response"
	"github.com/meshmind/meshmind/internal/service"
)

type QueryHandler struct {
	search *service.SearchService
	chat   *service.ChatService
}

func NewQueryHandler(search *service.SearchService, chat *service.ChatService) *QueryHandler {
	return &QueryHandler{search: search, chat: chat}
}

type searchRequest struct {
	Query      string `json:"query" binding:"required"`
	DocumentID string `json:"document_id"`
	Limit      int    `json:"limit"`
}

func (h *QueryHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	results, err := h.search.SearchKeyword(c.Request.Context(), getUserID(c), req.DocumentID, req.Query, req.Limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results, "total": len(results)})
}

type queryRequest struct {
	Question   string `json:"question" binding:"required"`
	DocumentID string `json:"document_id" binding:"required"`
	SessionID  string `json:"session_id"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "question and document_id are required")
		return
	}
	result, err := h.chat.Query(c.Request.Context(), getUserID(c), req.DocumentID, req.SessionID, req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *QueryHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := h.chat.History(c.Request.Context(), getUserID(c), c.Param("document_id"), c.Query("session_id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"history": records, "total": len(records)})
}
