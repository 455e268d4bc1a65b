package usecase

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	authrepo "healthsync-backend/internal/auth/repository"
	"healthsync-backend/internal/sync/domain"
	syncdto "healthsync-backend/internal/sync/dto"
	"healthsync-backend/internal/sync/repository"
	"healthsync-backend/pkg/config"
	"healthsync-backend/pkg/garmin"

	"github.com/golang-jwt/jwt/v5"
)

const dateLayout = "2006-01-02"

// Weight is required: a run without weight data is a failed run. Sleep is
// best-effort: its failures are logged and surfaced only as a zero count.
type sourcePolicy int

const (
	policyRequired sourcePolicy = iota
	policyBestEffort
)

// dataSource pairs a fetch with its normalize-and-persist step so one
// routine can run every source under its own criticality policy.
type dataSource struct {
	name   string
	policy sourcePolicy
	fetch  func(ctx context.Context, accessToken, startDate, endDate string) ([]json.RawMessage, error)
	store  func(userID string, raws []json.RawMessage) (int, error)
}

// syncUsecase implements SyncUsecase interface
type syncUsecase struct {
	vendor      Vendor
	userRepo    authrepo.UserRepository
	weightRepo  repository.WeightRepository
	sleepRepo   repository.SleepRepository
	syncLogRepo repository.SyncLogRepository
	config      *config.Config
	daysFunc    func() int
}

// NewSyncUsecase creates a new instance of syncUsecase. daysFunc supplies the
// current sync window for requests that don't name one, so runtime settings
// changes apply to manual and scheduled runs alike; nil falls back to the
// static config value.
func NewSyncUsecase(
	vendor Vendor,
	userRepo authrepo.UserRepository,
	weightRepo repository.WeightRepository,
	sleepRepo repository.SleepRepository,
	syncLogRepo repository.SyncLogRepository,
	cfg *config.Config,
	daysFunc func() int,
) SyncUsecase {
	return &syncUsecase{
		vendor:      vendor,
		userRepo:    userRepo,
		weightRepo:  weightRepo,
		sleepRepo:   sleepRepo,
		syncLogRepo: syncLogRepo,
		config:      cfg,
		daysFunc:    daysFunc,
	}
}

// Sync runs one full pipeline invocation: resolve the user, log in to the
// vendor, fetch and normalize both sources, persist, and append a run record.
// Every run performs a fresh login; nothing is cached across invocations.
func (u *syncUsecase) Sync(ctx context.Context, req *syncdto.SyncRequest) (*syncdto.SyncResponse, error) {
	started := time.Now()

	userID, err := u.resolveUser(req)
	if err != nil {
		// No user means no run record either; nothing to attribute it to.
		return nil, err
	}

	if u.config.GarminEmail == "" || u.config.GarminPassword == "" {
		return nil, u.failRun(userID, started, garmin.ErrMissingCredentials)
	}

	days := req.Days
	if days <= 0 && u.daysFunc != nil {
		days = u.daysFunc()
	}
	if days <= 0 {
		days = u.config.SyncDays
	}
	end := time.Now().UTC()
	endDate := end.Format(dateLayout)
	startDate := end.AddDate(0, 0, -days).Format(dateLayout)

	accessToken, err := u.vendor.Authenticate(ctx)
	if err != nil {
		return nil, u.failRun(userID, started, err)
	}

	weightSource := dataSource{
		name:   "weight",
		policy: policyRequired,
		fetch:  u.vendor.FetchWeight,
		store: func(userID string, raws []json.RawMessage) (int, error) {
			entries := garmin.NormalizeWeight(userID, raws)
			if err := u.weightRepo.UpsertBatch(entries); err != nil {
				return 0, err
			}
			return len(entries), nil
		},
	}
	sleepSource := dataSource{
		name:   "sleep",
		policy: policyBestEffort,
		fetch:  u.vendor.FetchSleep,
		store: func(userID string, raws []json.RawMessage) (int, error) {
			entries := garmin.NormalizeSleep(userID, raws)
			if err := u.sleepRepo.UpsertBatch(entries); err != nil {
				return 0, err
			}
			return len(entries), nil
		},
	}

	entriesSynced, err := u.runSource(ctx, weightSource, accessToken, userID, startDate, endDate)
	if err != nil {
		return nil, u.failRun(userID, started, err)
	}
	sleepSynced, _ := u.runSource(ctx, sleepSource, accessToken, userID, startDate, endDate)

	durationMs := time.Since(started).Milliseconds()
	runLog := &domain.SyncLog{
		UserID:        userID,
		Status:        domain.SyncStatusSuccess,
		EntriesSynced: entriesSynced + sleepSynced,
		DurationMs:    durationMs,
	}
	if err := u.syncLogRepo.Append(runLog); err != nil {
		log.Printf("[Sync] failed to append run log: %v", err)
	}

	log.Printf("[Sync] user %s: %d weight + %d sleep entries in %dms", userID, entriesSynced, sleepSynced, durationMs)
	return &syncdto.SyncResponse{
		Success:       true,
		EntriesSynced: entriesSynced,
		SleepSynced:   sleepSynced,
		DurationMs:    durationMs,
	}, nil
}

// runSource executes one fetch-normalize-persist pass under the source's
// policy: required failures abort the run, best-effort failures degrade to a
// zero count.
func (u *syncUsecase) runSource(ctx context.Context, src dataSource, accessToken, userID, startDate, endDate string) (int, error) {
	raws, err := src.fetch(ctx, accessToken, startDate, endDate)
	var count int
	if err == nil {
		count, err = src.store(userID, raws)
	}
	if err != nil {
		if src.policy == policyRequired {
			return 0, err
		}
		log.Printf("[Sync] %s sync failed (non-fatal): %v", src.name, err)
		return 0, nil
	}
	return count, nil
}

// failRun appends an error run record so failed runs stay visible in the log,
// then passes the error through.
func (u *syncUsecase) failRun(userID string, started time.Time, err error) error {
	runLog := &domain.SyncLog{
		UserID:     userID,
		Status:     domain.SyncStatusError,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if aerr := u.syncLogRepo.Append(runLog); aerr != nil {
		log.Printf("[Sync] failed to append error run log: %v", aerr)
	}
	return err
}

// resolveUser determines the sync target. A caller token wins; its payload is
// decoded without signature verification, which is the caller platform's
// concern. A privileged scheduled trigger with no token falls back to the
// single known user profile.
func (u *syncUsecase) resolveUser(req *syncdto.SyncRequest) (string, error) {
	if req.UserToken != "" {
		if sub := subjectFromToken(req.UserToken); sub != "" {
			return sub, nil
		}
	}
	if u.isServiceTrigger(req) {
		user, err := u.userRepo.FindFirst()
		if err != nil {
			return "", err
		}
		if user != nil {
			log.Printf("[Sync] scheduled trigger: resolved user %s", user.ID)
			return user.ID, nil
		}
		log.Printf("[Sync] scheduled trigger but no user profile exists, aborting")
	}
	return "", ErrNoUserResolved
}

func (u *syncUsecase) isServiceTrigger(req *syncdto.SyncRequest) bool {
	key := u.config.ServiceRoleKey
	if key == "" {
		return false
	}
	return strings.Contains(req.AuthHeader, key) || req.APIKeyHeader == key
}

// subjectFromToken extracts the subject claim from a JWT without verifying
// the signature.
func subjectFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

func (u *syncUsecase) WeightEntries(userID string, days int) ([]domain.WeightEntry, error) {
	return u.weightRepo.ListSince(userID, cutoffDate(days))
}

func (u *syncUsecase) SleepEntries(userID string, days int) ([]domain.SleepEntry, error) {
	return u.sleepRepo.ListSince(userID, cutoffDate(days))
}

func (u *syncUsecase) LastSync(userID string) (*domain.SyncLog, error) {
	return u.syncLogRepo.Latest(userID)
}

func cutoffDate(days int) string {
	if days <= 0 {
		return ""
	}
	return time.Now().UTC().AddDate(0, 0, -days).Format(dateLayout)
}
