package delivery

import (
	"errors"
	"net/http"
	"strconv"

	syncdto "healthsync-backend/internal/sync/dto"
	"healthsync-backend/internal/sync/usecase"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	syncUsecase usecase.SyncUsecase
}

func NewSyncHandler(syncUsecase usecase.SyncUsecase) *SyncHandler {
	return &SyncHandler{
		syncUsecase: syncUsecase,
	}
}

// Sync triggers one pipeline run. The endpoint authenticates itself: either
// the body carries a user token, or the request headers carry the service
// role key of a scheduled trigger.
func (h *SyncHandler) Sync(c *gin.Context) {
	var req syncdto.SyncRequest
	// Body is optional; a scheduled trigger may send none.
	_ = c.ShouldBindJSON(&req)
	req.AuthHeader = c.GetHeader("Authorization")
	req.APIKeyHeader = c.GetHeader("apikey")

	resp, err := h.syncUsecase.Sync(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrNoUserResolved) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SyncHandler) GetWeightEntries(c *gin.Context) {
	entries, err := h.syncUsecase.WeightEntries(c.GetString("userID"), daysParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *SyncHandler) GetSleepEntries(c *gin.Context) {
	entries, err := h.syncUsecase.SleepEntries(c.GetString("userID"), daysParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *SyncHandler) GetLastSync(c *gin.Context) {
	entry, err := h.syncUsecase.LastSync(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync run recorded"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// daysParam parses the optional days query parameter; 0 means no cutoff.
func daysParam(c *gin.Context) int {
	if daysStr := c.Query("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}
