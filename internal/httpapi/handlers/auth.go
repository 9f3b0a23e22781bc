package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/auth"
	"github.com/suPer8Hu/image-creator/internal/common"
)

// tokenSubject is the only principal; the host serves a single owner.
const tokenSubject = "owner"

type loginReq struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	if !h.Auth.Enabled() {
		common.Fail(c, http.StatusNotFound, 40400, "auth is disabled")
		return
	}

	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := auth.CheckPassword(h.Auth.PassphraseHash, req.Passphrase); err != nil {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid passphrase")
		return
	}

	token, err := auth.SignJWT(tokenSubject, h.Auth.JWTSecret, h.Auth.TokenTTL)
	if err != nil {
		h.Log.Error("sign token failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	common.OK(c, gin.H{"token": token, "expires_in": int64(h.Auth.TokenTTL.Seconds())})
}
