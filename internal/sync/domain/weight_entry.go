package domain

import (
	"encoding/json"
	"time"
)

// WeightEntry is one normalized body-composition measurement. At most one row
// exists per (user_id, measured_at); reruns replace rather than duplicate.
type WeightEntry struct {
	ID         string          `json:"id" gorm:"primaryKey"`
	UserID     string          `json:"user_id" gorm:"not null;uniqueIndex:idx_weight_user_date"`
	MeasuredAt string          `json:"measured_at" gorm:"not null;uniqueIndex:idx_weight_user_date"` // calendar date, YYYY-MM-DD
	Weight     float64         `json:"weight"`                                                       // kilograms
	BMI        *float64        `json:"bmi,omitempty"`
	BodyFat    *float64        `json:"body_fat,omitempty"`     // percent
	MuscleMass *float64        `json:"muscle_mass,omitempty"`  // kilograms
	BoneMass   *float64        `json:"bone_mass,omitempty"`    // kilograms
	BodyWater  *float64        `json:"body_water,omitempty"`   // percent
	Source     string          `json:"source"`
	RawData    json.RawMessage `json:"raw_data,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
