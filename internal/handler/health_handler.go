package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meshmind/meshmind/internal/filestore"
	"github.com/meshmind/meshmind/internal/pkg/response"
	"github.com/meshmind/meshmind/internal/queue"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	db    *sql.DB
	queue queue.Queue
	store filestore.Store
}

func NewHealthHandler(db *sql.DB, q queue.Queue, store filestore.Store) *HealthHandler {
	return &HealthHandler{db: db, queue: q, store: store}
}

// Get pings each dependency and reports it as ok or down; any down
// component degrades the overall status.
func (h *HealthHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	components := gin.H{}
	check := func(name string, err error) {
		if err != nil {
			components[name] = "down"
			status = "degraded"
			return
		}
		components[name] = "ok"
	}
	check("database", h.db.PingContext(ctx))
	check("queue", h.queue.Ping(ctx))
	check("store", h.store.Ping(ctx))

	response.Success(c, gin.H{
		"status":     status,
		"components": components,
	})
}
