package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/meshmind/meshmind/internal/pkg/response"
	"github.com/meshmind/meshmind/internal/service"
)

type GraphHandler struct {
	graph *service.GraphService
}

func NewGraphHandler(graph *service.GraphService) *GraphHandler {
	return &GraphHandler{graph: graph}
}

func (h *GraphHandler) Get(c *gin.Context) {
	view, err := h.graph.Get(c.Request.Context(), getUserID(c), c.Param("document_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, view)
}
