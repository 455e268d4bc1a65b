package dto

// SyncRequest is the body of a sync invocation. Header values are captured
// by the handler so the usecase can recognize privileged scheduled triggers.
type SyncRequest struct {
	Days      int    `json:"days"`
	UserToken string `json:"user_token"`

	AuthHeader   string `json:"-"`
	APIKeyHeader string `json:"-"`
}

type SyncResponse struct {
	Success       bool  `json:"success"`
	EntriesSynced int   `json:"entriesSynced"`
	SleepSynced   int   `json:"sleepSynced"`
	DurationMs    int64 `json:"durationMs"`
}
