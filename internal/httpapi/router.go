package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/common"
	"github.com/suPer8Hu/image-creator/internal/config"
	"github.com/suPer8Hu/image-creator/internal/creator"
	"github.com/suPer8Hu/image-creator/internal/httpapi/handlers"
	"github.com/suPer8Hu/image-creator/internal/httpapi/middleware"
	"github.com/suPer8Hu/image-creator/internal/logging"
)

// NewRouter wires the host API. When cfg.Auth is not enabled every route is
// public.
func NewRouter(ws *creator.Workspace, cfg config.Config, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	log = logging.OrNop(log)
	authCfg := cfg.Auth

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(ws, authCfg, log)

	r.GET("/ping", h.Ping)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	loginRate := cfg.LoginRatePerMinute
	if loginRate <= 0 {
		loginRate = 10
	}
	r.POST("/login", middleware.RateLimit(float64(loginRate)/60, loginRate), h.Login)

	api := r.Group("/")
	if authCfg.Enabled() {
		api.Use(middleware.AuthRequired(authCfg.JWTSecret))
	}

	api.GET("/brains", h.ListBrains)
	api.GET("/previews/:token", h.GetPreview)

	api.GET("/creations", h.ListCreations)
	api.POST("/creations", h.CreateCreation)
	api.PATCH("/creations/:id", h.RenameCreation)
	api.DELETE("/creations/:id", h.RemoveCreation)

	api.POST("/creations/:id/open", h.OpenCreation)
	api.POST("/creations/:id/close", h.CloseCreation)
	api.GET("/creations/:id/state", h.GetState)
	api.GET("/creations/:id/events", h.Events)
	api.PUT("/creations/:id/prompt", h.SetPrompt)
	api.PUT("/creations/:id/brain", h.SelectBrain)
	api.POST("/creations/:id/attachments", h.Attach)
	api.DELETE("/creations/:id/attachments", h.ClearStaged)
	api.DELETE("/creations/:id/attachments/:staged_id", h.RemoveStaged)
	api.POST("/creations/:id/submit", h.Submit)
	return r
}
