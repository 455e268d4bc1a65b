package scheduler

import (
	"context"
	"log"
	"time"

	syncdto "healthsync-backend/internal/sync/dto"
	"healthsync-backend/internal/sync/usecase"
)

// AutoSyncScheduler periodically runs the sync pipeline as the service
// principal, replacing the cron trigger of the hosted deployment. Re-running
// after failures is its only retry mechanism; the pipeline itself never
// retries within a run.
type AutoSyncScheduler struct {
	syncUsecase usecase.SyncUsecase
	serviceKey  string
	interval    time.Duration
	stopChan    chan struct{}
}

// NewAutoSyncScheduler creates a new scheduler.
func NewAutoSyncScheduler(syncUsecase usecase.SyncUsecase, serviceKey string, interval time.Duration) *AutoSyncScheduler {
	return &AutoSyncScheduler{
		syncUsecase: syncUsecase,
		serviceKey:  serviceKey,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *AutoSyncScheduler) Start() {
	if s.interval <= 0 {
		log.Println("[AutoSync] interval not configured, scheduler disabled")
		return
	}
	if s.serviceKey == "" {
		log.Println("[AutoSync] no service role key configured, scheduler disabled")
		return
	}

	log.Printf("[AutoSync] starting auto-sync scheduler (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stopChan:
				log.Println("[AutoSync] scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *AutoSyncScheduler) Stop() {
	close(s.stopChan)
}

func (s *AutoSyncScheduler) runOnce() {
	// Days is left unset so the pipeline applies the current runtime window.
	req := &syncdto.SyncRequest{
		AuthHeader: "Bearer " + s.serviceKey,
	}
	resp, err := s.syncUsecase.Sync(context.Background(), req)
	if err != nil {
		log.Printf("[AutoSync] scheduled sync failed: %v", err)
		return
	}
	log.Printf("[AutoSync] scheduled sync done: %d weight + %d sleep entries", resp.EntriesSynced, resp.SleepSynced)
}
