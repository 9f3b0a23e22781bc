package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/image-creator/internal/common"
)

func (h *Handler) ListBrains(c *gin.Context) {
	common.OK(c, gin.H{"brains": h.WS.Brains()})
}

type selectBrainReq struct {
	BrainID string `json:"brain_id" binding:"required"`
}

func (h *Handler) SelectBrain(c *gin.Context) {
	var req selectBrainReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	brain, found := h.WS.Brain(req.BrainID)
	if !found {
		common.Fail(c, http.StatusNotFound, 40403, "backend not found")
		return
	}

	v, err := h.WS.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := v.SelectBrain(c.Request.Context(), brain); err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"selected_brain": brain})
}
