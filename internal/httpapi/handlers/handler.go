package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/common"
	"github.com/suPer8Hu/image-creator/internal/config"
	"github.com/suPer8Hu/image-creator/internal/creator"
	"github.com/suPer8Hu/image-creator/internal/logging"
)

type Handler struct {
	WS   *creator.Workspace
	Auth config.AuthConfig
	Log  *zap.Logger
}

func NewHandler(ws *creator.Workspace, auth config.AuthConfig, log *zap.Logger) *Handler {
	return &Handler{WS: ws, Auth: auth, Log: logging.OrNop(log)}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// fail maps domain errors onto the response envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, creator.ErrNoSuchCreation):
		common.Fail(c, http.StatusNotFound, 40401, "creation not found")
	case errors.Is(err, creator.ErrBusy):
		common.Fail(c, http.StatusConflict, 40901, "generation already in progress")
	case errors.Is(err, creator.ErrViewClosed):
		common.Fail(c, http.StatusConflict, 40902, "creation is closed")
	case errors.Is(err, creator.ErrEmptyPrompt):
		common.Fail(c, http.StatusBadRequest, 10010, "prompt is empty")
	case errors.Is(err, creator.ErrNoBackend):
		common.Fail(c, http.StatusBadRequest, 10011, "no image generation backend selected")
	case errors.Is(err, ai.ErrCapability):
		common.Fail(c, http.StatusBadRequest, 10012, "backend cannot generate images")
	default:
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
