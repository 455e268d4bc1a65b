package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"healthsync-backend/internal/sync/domain"
	syncdto "healthsync-backend/internal/sync/dto"
)

// ErrNoUserResolved means neither a caller token nor a privileged scheduled
// trigger identified a sync target. Raised before any vendor call.
var ErrNoUserResolved = errors.New("authentication required: no user resolved")

// Vendor is the slice of the Garmin client the orchestrator consumes.
// Authenticate runs the full login and token exchange chain and returns the
// bearer access token; the fetch calls return raw vendor entries.
type Vendor interface {
	Authenticate(ctx context.Context) (string, error)
	FetchWeight(ctx context.Context, accessToken, startDate, endDate string) ([]json.RawMessage, error)
	FetchSleep(ctx context.Context, accessToken, startDate, endDate string) ([]json.RawMessage, error)
}

// SyncUsecase defines the sync pipeline and the reads the dashboard uses.
type SyncUsecase interface {
	Sync(ctx context.Context, req *syncdto.SyncRequest) (*syncdto.SyncResponse, error)
	WeightEntries(userID string, days int) ([]domain.WeightEntry, error)
	SleepEntries(userID string, days int) ([]domain.SleepEntry, error)
	LastSync(userID string) (*domain.SyncLog, error)
}
