package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/image-creator/internal/common"
)

// GetPreview serves a staged file's bytes while its preview is live.
func (h *Handler) GetPreview(c *gin.Context) {
	data, mime, found := h.WS.Previews().Open(c.Param("token"))
	if !found {
		common.Fail(c, http.StatusNotFound, 40404, "preview not found")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mime, data)
}
