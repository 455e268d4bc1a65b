package api

import (
	authUsecase "healthsync-backend/internal/auth/usecase"
	syncUsecase "healthsync-backend/internal/sync/usecase"
	"healthsync-backend/pkg/config"
	"healthsync-backend/pkg/garmin"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase  authUsecase.AuthUsecase
	syncUsecase  syncUsecase.SyncUsecase
	garminClient *garmin.Client
	config       *config.Config
}

func NewHandler(authUc authUsecase.AuthUsecase, syncUc syncUsecase.SyncUsecase, garminClient *garmin.Client, cfg *config.Config) *Handler {
	// Initialize runtime config for settings API
	InitRuntimeConfig(cfg.SyncDays)

	return &Handler{
		authUsecase:  authUc,
		syncUsecase:  syncUc,
		garminClient: garminClient,
		config:       cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, apikey, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.syncUsecase, h.garminClient)

	return r.Run(addr)
}
