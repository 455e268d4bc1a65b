package garmin

import (
	"encoding/json"
	"math"
	"time"

	"healthsync-backend/internal/sync/domain"
)

// weightMetric is the raw shape of one weight entry. Mass fields arrive in
// grams; bodyFatPercentage vs bodyFat varies across Garmin API versions.
type weightMetric struct {
	CalendarDate      string   `json:"calendarDate"`
	Weight            *float64 `json:"weight"`
	BMI               *float64 `json:"bmi"`
	BodyFatPercentage *float64 `json:"bodyFatPercentage"`
	BodyFat           *float64 `json:"bodyFat"`
	MuscleMass        *float64 `json:"muscleMass"`
	BoneMass          *float64 `json:"boneMass"`
	BodyWater         *float64 `json:"bodyWater"`
	SourceType        string   `json:"sourceType"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func gramsToKg(v *float64) *float64 {
	if v == nil {
		return nil
	}
	kg := round2(*v / 1000)
	return &kg
}

func roundPct(v *float64) *float64 {
	if v == nil {
		return nil
	}
	pct := round1(*v)
	return &pct
}

// firstFloat returns the first non-nil candidate, probing vendor field-name
// variants in priority order.
func firstFloat(candidates ...*float64) *float64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstInt(candidates ...*int64) *int64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func intOrZero(candidates ...*int64) int64 {
	if v := firstInt(candidates...); v != nil {
		return *v
	}
	return 0
}

// NormalizeWeight converts raw weight entries into canonical records.
// Entries missing a weight or a calendar date are dropped; duplicate dates
// keep the last-seen entry (explicit last-write-wins). Output preserves
// first-seen date order so reruns are deterministic.
func NormalizeWeight(userID string, raws []json.RawMessage) []domain.WeightEntry {
	byDate := map[string]domain.WeightEntry{}
	var order []string

	for _, raw := range raws {
		var m weightMetric
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if m.Weight == nil || m.CalendarDate == "" {
			continue
		}

		source := m.SourceType
		if source == "" {
			source = "GARMIN_INDEX"
		}

		if _, seen := byDate[m.CalendarDate]; !seen {
			order = append(order, m.CalendarDate)
		}
		byDate[m.CalendarDate] = domain.WeightEntry{
			UserID:     userID,
			MeasuredAt: m.CalendarDate,
			Weight:     *gramsToKg(m.Weight),
			BMI:        m.BMI,
			BodyFat:    roundPct(firstFloat(m.BodyFatPercentage, m.BodyFat)),
			MuscleMass: gramsToKg(m.MuscleMass),
			BoneMass:   gramsToKg(m.BoneMass),
			BodyWater:  roundPct(m.BodyWater),
			Source:     source,
			RawData:    raw,
		}
	}

	entries := make([]domain.WeightEntry, 0, len(order))
	for _, date := range order {
		entries = append(entries, byDate[date])
	}
	return entries
}

// sleepScoreValue is one scored dimension inside sleepScores.
type sleepScoreValue struct {
	Value        *float64 `json:"value"`
	QualifierKey string   `json:"qualifierKey"`
}

type sleepScores struct {
	Overall             *sleepScoreValue `json:"overall"`
	TotalScore          *float64         `json:"totalScore"`
	QualityOfSleep      *sleepScoreValue `json:"qualityOfSleep"`
	SleepDuration       *sleepScoreValue `json:"sleepDuration"`
	RecoveryScore       *sleepScoreValue `json:"recoveryScore"`
	RevitalizationScore *sleepScoreValue `json:"revitalizationScore"`
	SleepRestfulness    *sleepScoreValue `json:"sleepRestfulness"`
	RestlessSleepScore  *sleepScoreValue `json:"restlessSleepScore"`
}

func (s *sleepScores) scoreValue(pick func(*sleepScores) *sleepScoreValue) *float64 {
	if s == nil {
		return nil
	}
	if v := pick(s); v != nil {
		return v.Value
	}
	return nil
}

// sleepPayload covers the field-name variants Garmin has used for daily
// sleep summaries. Wellness entries sometimes nest the summary under
// dailySleepDTO.
type sleepPayload struct {
	CalendarDate           string        `json:"calendarDate"`
	SleepStartTimestampGMT *int64        `json:"sleepStartTimestampGMT"` // epoch millis
	SleepEndTimestampGMT   *int64        `json:"sleepEndTimestampGMT"`
	SleepTimeSeconds       *int64        `json:"sleepTimeSeconds"`
	DurationInSeconds      *int64        `json:"durationInSeconds"`
	DeepSleepSeconds       *int64        `json:"deepSleepSeconds"`
	DeepSleepDuration      *int64        `json:"deepSleepDuration"`
	LightSleepSeconds      *int64        `json:"lightSleepSeconds"`
	LightSleepDuration     *int64        `json:"lightSleepDuration"`
	RemSleepSeconds        *int64        `json:"remSleepSeconds"`
	RemSleepDuration       *int64        `json:"remSleepDuration"`
	AwakeSleepSeconds      *int64        `json:"awakeSleepSeconds"`
	AwakeDuration          *int64        `json:"awakeDuration"`
	SleepScores            *sleepScores  `json:"sleepScores"`
	OverallScore           *float64      `json:"overallScore"`
	SleepNeed              *int64        `json:"sleepNeed"`
	SleepNeedInSeconds     *int64        `json:"sleepNeedInSeconds"`
	SleepDebt              *int64        `json:"sleepDebt"`
	SleepDebtInSeconds     *int64        `json:"sleepDebtInSeconds"`
	BodyBatteryChange      *float64      `json:"bodyBatteryChange"`
	AverageSpO2Value       *float64      `json:"averageSpO2Value"`
	AverageSPO2            *float64      `json:"averageSPO2"`
	AverageRespiration     *float64      `json:"averageRespirationValue"`
	AvgRespirationRate     *float64      `json:"avgRespirationRate"`
	RestingHeartRate       *float64      `json:"restingHeartRate"`
	AverageHeartRate       *float64      `json:"averageHeartRate"`
	LowestHeartRate        *float64      `json:"lowestHeartRate"`
	AverageStress          *float64      `json:"averageStress"`
	DailySleepDTO          *sleepPayload `json:"dailySleepDTO"`
}

func millisToTime(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.UnixMilli(*v).UTC()
	return &t
}

// NormalizeSleep converts raw sleep entries into canonical records. Entries
// without a calendar date are dropped. Wellness payloads that carry the whole
// summary nested under dailySleepDTO are promoted to the top level before
// field probing, so a nested-shape entry normalizes as richly as a flat one.
// Each scored and biometric field probes its known name variants in fixed
// priority order; stage durations default to zero when absent.
func NormalizeSleep(userID string, raws []json.RawMessage) []domain.SleepEntry {
	entries := make([]domain.SleepEntry, 0, len(raws))
	for _, raw := range raws {
		var payload sleepPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			continue
		}

		p := &payload
		if p.CalendarDate == "" && p.DailySleepDTO != nil {
			p = p.DailySleepDTO
		}
		if p.CalendarDate == "" {
			continue
		}

		// qualityOfSleep entries carrying a qualifier key hold no numeric score.
		var quality *float64
		if p.SleepScores != nil && p.SleepScores.QualityOfSleep != nil && p.SleepScores.QualityOfSleep.QualifierKey == "" {
			quality = p.SleepScores.QualityOfSleep.Value
		}

		var nestedNeed *int64
		if p.DailySleepDTO != nil {
			nestedNeed = p.DailySleepDTO.SleepNeed
		}

		entries = append(entries, domain.SleepEntry{
			UserID:            userID,
			CalendarDate:      p.CalendarDate,
			SleepStart:        millisToTime(p.SleepStartTimestampGMT),
			SleepEnd:          millisToTime(p.SleepEndTimestampGMT),
			DurationSeconds:   firstInt(p.SleepTimeSeconds, p.DurationInSeconds),
			DeepSleepSeconds:  intOrZero(p.DeepSleepSeconds, p.DeepSleepDuration),
			LightSleepSeconds: intOrZero(p.LightSleepSeconds, p.LightSleepDuration),
			RemSleepSeconds:   intOrZero(p.RemSleepSeconds, p.RemSleepDuration),
			AwakeSeconds:      intOrZero(p.AwakeSleepSeconds, p.AwakeDuration),
			SleepScore: firstFloat(
				p.SleepScores.scoreValue(func(s *sleepScores) *sleepScoreValue { return s.Overall }),
				scoresTotal(p.SleepScores),
				p.OverallScore,
			),
			QualityScore:  quality,
			DurationScore: p.SleepScores.scoreValue(func(s *sleepScores) *sleepScoreValue { return s.SleepDuration }),
			RecoveryScore: firstFloat(
				p.SleepScores.scoreValue(func(s *sleepScores) *sleepScoreValue { return s.RecoveryScore }),
				p.SleepScores.scoreValue(func(s *sleepScores) *sleepScoreValue { return s.RevitalizationScore }),
			),
			RestfulnessScore: firstFloat(
				p.SleepScores.scoreValue(func(s *sleepScores) *sleepScoreValue { return s.SleepRestfulness }),
				p.SleepScores.scoreValue(func(s *sleepScores) *sleepScoreValue { return s.RestlessSleepScore }),
			),
			SleepNeedSeconds:  firstInt(p.SleepNeed, p.SleepNeedInSeconds, nestedNeed),
			SleepDebtSeconds:  firstInt(p.SleepDebt, p.SleepDebtInSeconds),
			BodyBatteryChange: p.BodyBatteryChange,
			AvgSpO2:           firstFloat(p.AverageSpO2Value, p.AverageSPO2),
			AvgRespiration:    firstFloat(p.AverageRespiration, p.AvgRespirationRate),
			AvgHeartRate:      firstFloat(p.RestingHeartRate, p.AverageHeartRate),
			LowestHeartRate:   p.LowestHeartRate,
			AvgStress:         p.AverageStress,
			Source:            "GARMIN",
			RawData:           raw,
		})
	}
	return entries
}

func scoresTotal(s *sleepScores) *float64 {
	if s == nil {
		return nil
	}
	return s.TotalScore
}
