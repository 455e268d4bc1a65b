package api

import (
	"net/http"

	"healthsync-backend/internal/auth/delivery"
	authUsecase "healthsync-backend/internal/auth/usecase"
	syncDelivery "healthsync-backend/internal/sync/delivery"
	syncUsecase "healthsync-backend/internal/sync/usecase"
	"healthsync-backend/pkg/garmin"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, syncUc syncUsecase.SyncUsecase, garminClient *garmin.Client) {
	authHandler := delivery.NewAuthHandler(authUc)
	syncHandler := syncDelivery.NewSyncHandler(syncUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
		}

		// Sync trigger. Authenticates itself: user token in the body or the
		// service role key in the headers.
		api.POST("/sync", syncHandler.Sync)
		api.GET("/sync/latest", delivery.AuthMiddleware(authUc), syncHandler.GetLastSync)

		// Dashboard reads (protected)
		api.GET("/weight", delivery.AuthMiddleware(authUc), syncHandler.GetWeightEntries)
		api.GET("/sleep", delivery.AuthMiddleware(authUc), syncHandler.GetSleepEntries)

		// Settings routes - runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/sync", GetSyncSettings)
			settings.PUT("/sync", UpdateSyncSettings)
			settings.POST("/sync/test", TestGarminConnection(garminClient))
		}
	}
}
