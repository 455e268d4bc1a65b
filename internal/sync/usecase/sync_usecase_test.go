package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	authdomain "healthsync-backend/internal/auth/domain"
	"healthsync-backend/internal/sync/domain"
	syncdto "healthsync-backend/internal/sync/dto"
	"healthsync-backend/pkg/config"
	"healthsync-backend/pkg/garmin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVendor serves canned raw payloads and records whether it was called.
type fakeVendor struct {
	authErr      error
	weightRaws   []json.RawMessage
	weightErr    error
	sleepRaws    []json.RawMessage
	sleepErr     error
	authCalls    int
	weightRanges [][2]string
}

func (v *fakeVendor) Authenticate(ctx context.Context) (string, error) {
	v.authCalls++
	if v.authErr != nil {
		return "", v.authErr
	}
	return "at-fake", nil
}

func (v *fakeVendor) FetchWeight(ctx context.Context, accessToken, startDate, endDate string) ([]json.RawMessage, error) {
	v.weightRanges = append(v.weightRanges, [2]string{startDate, endDate})
	return v.weightRaws, v.weightErr
}

func (v *fakeVendor) FetchSleep(ctx context.Context, accessToken, startDate, endDate string) ([]json.RawMessage, error) {
	return v.sleepRaws, v.sleepErr
}

// memWeightRepo stores entries keyed the way the real upsert does, so reruns
// converge in the fake too.
type memWeightRepo struct {
	rows map[string]domain.WeightEntry
	err  error
}

func newMemWeightRepo() *memWeightRepo { return &memWeightRepo{rows: map[string]domain.WeightEntry{}} }

func (r *memWeightRepo) UpsertBatch(entries []domain.WeightEntry) error {
	if r.err != nil {
		return r.err
	}
	for _, e := range entries {
		r.rows[e.UserID+"|"+e.MeasuredAt] = e
	}
	return nil
}

func (r *memWeightRepo) ListSince(userID, cutoff string) ([]domain.WeightEntry, error) {
	var out []domain.WeightEntry
	for _, e := range r.rows {
		if e.UserID == userID && (cutoff == "" || e.MeasuredAt >= cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

type memSleepRepo struct {
	rows map[string]domain.SleepEntry
	err  error
}

func newMemSleepRepo() *memSleepRepo { return &memSleepRepo{rows: map[string]domain.SleepEntry{}} }

func (r *memSleepRepo) UpsertBatch(entries []domain.SleepEntry) error {
	if r.err != nil {
		return r.err
	}
	for _, e := range entries {
		r.rows[e.UserID+"|"+e.CalendarDate] = e
	}
	return nil
}

func (r *memSleepRepo) ListSince(userID, cutoff string) ([]domain.SleepEntry, error) {
	var out []domain.SleepEntry
	for _, e := range r.rows {
		if e.UserID == userID && (cutoff == "" || e.CalendarDate >= cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

type memSyncLogRepo struct {
	entries []domain.SyncLog
}

func (r *memSyncLogRepo) Append(entry *domain.SyncLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memSyncLogRepo) Latest(userID string) (*domain.SyncLog, error) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// stubUserRepo implements only what resolveUser touches.
type stubUserRepo struct {
	first *authdomain.User
}

func (r *stubUserRepo) Create(*authdomain.User) error                { return nil }
func (r *stubUserRepo) FindByEmail(string) (*authdomain.User, error) { return nil, nil }
func (r *stubUserRepo) FindByID(string) (*authdomain.User, error)    { return nil, nil }
func (r *stubUserRepo) FindFirst() (*authdomain.User, error)         { return r.first, nil }

func (r *stubUserRepo) SaveRefreshToken(*authdomain.RefreshToken) error { return nil }
func (r *stubUserRepo) FindRefreshToken(string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (r *stubUserRepo) DeleteRefreshToken(string) error { return nil }

type syncFixture struct {
	vendor      *fakeVendor
	weights     *memWeightRepo
	sleeps      *memSleepRepo
	logs        *memSyncLogRepo
	users       *stubUserRepo
	runtimeDays int
	uc          SyncUsecase
}

func newSyncFixture(vendor *fakeVendor) *syncFixture {
	fx := &syncFixture{
		vendor:      vendor,
		weights:     newMemWeightRepo(),
		sleeps:      newMemSleepRepo(),
		logs:        &memSyncLogRepo{},
		users:       &stubUserRepo{first: &authdomain.User{ID: "first-user", Email: "first@example.com"}},
		runtimeDays: 90,
	}
	cfg := &config.Config{
		GarminEmail:    "user@example.com",
		GarminPassword: "secret",
		ServiceRoleKey: "service-key",
		SyncDays:       90,
	}
	fx.uc = NewSyncUsecase(vendor, fx.users, fx.weights, fx.sleeps, fx.logs, cfg, func() int { return fx.runtimeDays })
	return fx
}

// unsignedToken builds a JWT-shaped token with no signature, the form the
// caller platform hands over for payload-only decoding.
func unsignedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "."
}

func TestSyncEndToEnd(t *testing.T) {
	vendor := &fakeVendor{
		weightRaws: []json.RawMessage{
			json.RawMessage(`{"calendarDate":"2024-01-01","weight":85000}`),
			json.RawMessage(`{"calendarDate":"2024-01-02","weight":84800}`),
		},
		sleepRaws: []json.RawMessage{
			json.RawMessage(`{"calendarDate":"2024-01-01","sleepTimeSeconds":28800}`),
		},
	}
	fx := newSyncFixture(vendor)

	res, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		Days:      30,
		UserToken: unsignedToken(t, map[string]any{"sub": "user-42"}),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.EntriesSynced)
	assert.Equal(t, 1, res.SleepSynced)

	assert.Len(t, fx.weights.rows, 2)
	assert.Equal(t, 85.00, fx.weights.rows["user-42|2024-01-01"].Weight)
	assert.Equal(t, 84.80, fx.weights.rows["user-42|2024-01-02"].Weight)
	assert.Len(t, fx.sleeps.rows, 1)

	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, domain.SyncStatusSuccess, fx.logs.entries[0].Status)
	assert.Equal(t, 3, fx.logs.entries[0].EntriesSynced)
	assert.Equal(t, "user-42", fx.logs.entries[0].UserID)
}

func TestSyncRerunIsIdempotent(t *testing.T) {
	vendor := &fakeVendor{
		weightRaws: []json.RawMessage{
			json.RawMessage(`{"calendarDate":"2024-01-01","weight":85000}`),
		},
	}
	fx := newSyncFixture(vendor)
	req := &syncdto.SyncRequest{UserToken: unsignedToken(t, map[string]any{"sub": "user-42"})}

	_, err := fx.uc.Sync(context.Background(), req)
	require.NoError(t, err)
	_, err = fx.uc.Sync(context.Background(), req)
	require.NoError(t, err)

	// Two runs, one stored row, two run log records.
	assert.Len(t, fx.weights.rows, 1)
	assert.Len(t, fx.logs.entries, 2)
	assert.Equal(t, 2, vendor.authCalls, "every run performs a fresh login")
}

// windowDays parses a recorded fetch range and returns its width in days.
func windowDays(t *testing.T, r [2]string) int {
	t.Helper()
	start, err := time.Parse("2006-01-02", r[0])
	require.NoError(t, err)
	end, err := time.Parse("2006-01-02", r[1])
	require.NoError(t, err)
	return int(end.Sub(start).Hours() / 24)
}

// A request without an explicit day count uses the runtime window, and
// settings changes apply to the next run.
func TestSyncDaysFollowsRuntimeSetting(t *testing.T) {
	vendor := &fakeVendor{}
	fx := newSyncFixture(vendor)
	fx.runtimeDays = 10
	req := &syncdto.SyncRequest{UserToken: unsignedToken(t, map[string]any{"sub": "user-42"})}

	_, err := fx.uc.Sync(context.Background(), req)
	require.NoError(t, err)

	fx.runtimeDays = 20
	_, err = fx.uc.Sync(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, vendor.weightRanges, 2)
	assert.Equal(t, 10, windowDays(t, vendor.weightRanges[0]))
	assert.Equal(t, 20, windowDays(t, vendor.weightRanges[1]))
}

func TestSyncExplicitDaysWinsOverRuntime(t *testing.T) {
	vendor := &fakeVendor{}
	fx := newSyncFixture(vendor)
	fx.runtimeDays = 10

	_, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		Days:      30,
		UserToken: unsignedToken(t, map[string]any{"sub": "user-42"}),
	})
	require.NoError(t, err)
	require.Len(t, vendor.weightRanges, 1)
	assert.Equal(t, 30, windowDays(t, vendor.weightRanges[0]))
}

func TestSyncWeightFailureIsFatal(t *testing.T) {
	boom := errors.New("vendor down")
	vendor := &fakeVendor{weightErr: boom}
	fx := newSyncFixture(vendor)

	_, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		UserToken: unsignedToken(t, map[string]any{"sub": "user-42"}),
	})
	require.ErrorIs(t, err, boom)

	// Failed runs stay visible in the run log.
	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, domain.SyncStatusError, fx.logs.entries[0].Status)
	assert.Equal(t, "user-42", fx.logs.entries[0].UserID)
}

func TestSyncSleepFailureIsNonFatal(t *testing.T) {
	vendor := &fakeVendor{
		weightRaws: []json.RawMessage{
			json.RawMessage(`{"calendarDate":"2024-01-01","weight":85000}`),
		},
		sleepErr: errors.New("sleep endpoint down"),
	}
	fx := newSyncFixture(vendor)

	res, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		UserToken: unsignedToken(t, map[string]any{"sub": "user-42"}),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.EntriesSynced)
	assert.Equal(t, 0, res.SleepSynced)
	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, domain.SyncStatusSuccess, fx.logs.entries[0].Status)
}

func TestSyncAuthenticateFailureLogsErrorRun(t *testing.T) {
	vendor := &fakeVendor{authErr: garmin.ErrLoginRejected}
	fx := newSyncFixture(vendor)

	_, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		UserToken: unsignedToken(t, map[string]any{"sub": "user-42"}),
	})
	require.ErrorIs(t, err, garmin.ErrLoginRejected)
	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, domain.SyncStatusError, fx.logs.entries[0].Status)
}

func TestSyncNoIdentityRejectedBeforeVendor(t *testing.T) {
	vendor := &fakeVendor{}
	fx := newSyncFixture(vendor)

	_, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{})
	require.ErrorIs(t, err, ErrNoUserResolved)
	assert.Zero(t, vendor.authCalls, "vendor must not be called without a resolved user")
	assert.Empty(t, fx.logs.entries, "no user means no run record")
}

func TestSyncServiceTriggerResolvesFirstUser(t *testing.T) {
	vendor := &fakeVendor{}
	fx := newSyncFixture(vendor)

	res, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		AuthHeader: "Bearer service-key",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, "first-user", fx.logs.entries[0].UserID)
}

func TestSyncServiceTriggerViaAPIKeyHeader(t *testing.T) {
	vendor := &fakeVendor{}
	fx := newSyncFixture(vendor)

	_, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		APIKeyHeader: "service-key",
	})
	require.NoError(t, err)
	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, "first-user", fx.logs.entries[0].UserID)
}

func TestSyncServiceTriggerNoUserProfile(t *testing.T) {
	vendor := &fakeVendor{}
	fx := newSyncFixture(vendor)
	fx.users.first = nil

	_, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		AuthHeader: "Bearer service-key",
	})
	require.ErrorIs(t, err, ErrNoUserResolved)
	assert.Zero(t, vendor.authCalls)
}

func TestSyncUserTokenWinsOverServiceKey(t *testing.T) {
	vendor := &fakeVendor{}
	fx := newSyncFixture(vendor)

	_, err := fx.uc.Sync(context.Background(), &syncdto.SyncRequest{
		UserToken:  unsignedToken(t, map[string]any{"sub": "user-42"}),
		AuthHeader: "Bearer service-key",
	})
	require.NoError(t, err)
	require.Len(t, fx.logs.entries, 1)
	assert.Equal(t, "user-42", fx.logs.entries[0].UserID)
}

func TestSubjectFromTokenMalformed(t *testing.T) {
	assert.Empty(t, subjectFromToken("not-a-jwt"))
	assert.Empty(t, subjectFromToken(unsignedToken(t, map[string]any{"email": "x@y.z"})))
}
