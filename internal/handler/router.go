package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meshmind/meshmind/internal/middleware"
)

type RouterDeps struct {
	Documents  *DocumentHandler
	Query      *QueryHandler
	Graph      *GraphHandler
	Health     *HealthHandler
	JWTSecret  []byte
	RateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Get)

	authGroup := api.Group("")
	authGroup.Use(middleware.Auth(deps.JWTSecret))

	authGroup.POST("/documents/upload", middleware.RateLimit(deps.RateWindow), deps.Documents.Upload)
	authGroup.POST("/documents/register", deps.Documents.Register)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id/status", deps.Documents.Status)
	authGroup.GET("/jobs/:id", deps.Documents.Job)

	authGroup.POST("/search", deps.Query.Search)
	authGroup.POST("/query", deps.Query.Query)
	authGroup.GET("/chat/history/:document_id", deps.Query.History)

	authGroup.GET("/graph/:document_id", deps.Graph.Get)
}
