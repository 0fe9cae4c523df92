package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/meshmind/meshmind/internal/config"
	"github.com/meshmind/meshmind/internal/filestore"
	"github.com/meshmind/meshmind/internal/queue"
)

func TestHealthReportsPerComponentStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Nothing listens on port 1, so the database check fails while the
	// in-process queue and local store stay healthy.
	dbConn, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	defer dbConn.Close()

	q, err := queue.New(config.QueueConfig{Type: "memory"})
	require.NoError(t, err)
	defer q.Close()

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)

	NewHealthHandler(dbConn, q, store).Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `"status":"degraded"`)
	require.Contains(t, body, `"database":"down"`)
	require.Contains(t, body, `"queue":"ok"`)
	require.Contains(t, body, `"store":"ok"`)
}
