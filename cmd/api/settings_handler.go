package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"healthsync-backend/pkg/garmin"

	"github.com/gin-gonic/gin"
)

// RuntimeConfig holds runtime-configurable settings
type RuntimeConfig struct {
	SyncDays int `json:"sync_days"`
}

var (
	runtimeConfig     RuntimeConfig
	runtimeConfigLock sync.RWMutex
)

// InitRuntimeConfig initializes runtime config from static config
func InitRuntimeConfig(syncDays int) {
	runtimeConfigLock.Lock()
	defer runtimeConfigLock.Unlock()
	runtimeConfig = RuntimeConfig{
		SyncDays: syncDays,
	}
}

// GetRuntimeSyncDays returns the current sync window in days
func GetRuntimeSyncDays() int {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()
	return runtimeConfig.SyncDays
}

// UpdateSyncSettingsRequest represents the request body for updating sync settings
type UpdateSyncSettingsRequest struct {
	SyncDays int `json:"sync_days" binding:"required,min=1,max=365"`
}

// GetSyncSettings returns current sync configuration
// GET /api/settings/sync
func GetSyncSettings(c *gin.Context) {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"sync_days": runtimeConfig.SyncDays,
	})
}

// UpdateSyncSettings updates sync configuration at runtime
// PUT /api/settings/sync
func UpdateSyncSettings(c *gin.Context) {
	var req UpdateSyncSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runtimeConfigLock.Lock()
	runtimeConfig.SyncDays = req.SyncDays
	runtimeConfigLock.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":   "sync settings updated successfully",
		"sync_days": req.SyncDays,
	})
}

// TestGarminConnection runs a full vendor login to verify the configured
// credentials. This performs real SSO and token-exchange traffic.
// POST /api/settings/sync/test
func TestGarminConnection(client *garmin.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
		defer cancel()

		if _, err := client.Authenticate(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"connected": false,
				"error":     err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"connected": true})
	}
}
