package domain

import (
	"encoding/json"
	"time"
)

// SleepEntry is one normalized night of sleep, keyed by (user_id,
// calendar_date). Stage durations are zero when the vendor omitted them; a
// missing stage and a recorded zero are indistinguishable.
type SleepEntry struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"user_id" gorm:"not null;uniqueIndex:idx_sleep_user_date"`
	CalendarDate string     `json:"calendar_date" gorm:"not null;uniqueIndex:idx_sleep_user_date"` // YYYY-MM-DD
	SleepStart   *time.Time `json:"sleep_start,omitempty"`
	SleepEnd     *time.Time `json:"sleep_end,omitempty"`

	DurationSeconds   *int64 `json:"duration_seconds,omitempty"`
	DeepSleepSeconds  int64  `json:"deep_sleep_seconds"`
	LightSleepSeconds int64  `json:"light_sleep_seconds"`
	RemSleepSeconds   int64  `json:"rem_sleep_seconds"`
	AwakeSeconds      int64  `json:"awake_seconds"`

	SleepScore       *float64 `json:"sleep_score,omitempty"`
	QualityScore     *float64 `json:"quality_score,omitempty"`
	DurationScore    *float64 `json:"duration_score,omitempty"`
	RecoveryScore    *float64 `json:"recovery_score,omitempty"`
	RestfulnessScore *float64 `json:"restfulness_score,omitempty"`

	SleepNeedSeconds  *int64   `json:"sleep_need_seconds,omitempty"`
	SleepDebtSeconds  *int64   `json:"sleep_debt_seconds,omitempty"`
	BodyBatteryChange *float64 `json:"body_battery_change,omitempty"`
	AvgSpO2           *float64 `json:"avg_spo2,omitempty"`
	AvgRespiration    *float64 `json:"avg_respiration,omitempty"`
	AvgHeartRate      *float64 `json:"avg_heart_rate,omitempty"`
	LowestHeartRate   *float64 `json:"lowest_heart_rate,omitempty"`
	AvgStress         *float64 `json:"avg_stress,omitempty"`

	Source    string          `json:"source"`
	RawData   json.RawMessage `json:"raw_data,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
