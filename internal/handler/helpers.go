package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshmind/meshmind/internal/ai"
	"github.com/meshmind/meshmind/internal/middleware"
	"github.com/meshmind/meshmind/internal/pkg/errcode"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
	"github.com/meshmind/meshmind/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrNotReady):
		response.Error(c, errcode.ErrDocumentNotReady, err.Error())
	case errors.Is(err, appErr.ErrInvalidFile):
		response.Error(c, errcode.ErrInvalidFile, err.Error())
	case errors.Is(err, appErr.ErrEmptyContent):
		response.Error(c, errcode.ErrInvalidFile, err.Error())
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
