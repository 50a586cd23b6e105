package services

import (
	"time"

	"flaretracker/internal/dates"
	"flaretracker/internal/models"
)

// DefaultLookbackDays is the window medication usage and adherence are
// evaluated over.
const DefaultLookbackDays = 30

// UsageLimitAlert fires when an active, scheduled medication was taken on
// more distinct days in the lookback window than its configured limit.
type UsageLimitAlert struct {
	MedicationID   string `json:"medication_id"`
	MedicationName string `json:"medication_name"`
	MaxUsageDays   int    `json:"max_usage_days"`
	DaysTaken      int    `json:"days_taken"`
	Overage        int    `json:"overage"`
	WindowDays     int    `json:"window_days"`
}

// EvaluateMedicationAlerts scans active medications against recent
// check-ins. Medications that are inactive, "As required", or have no usage
// limit are skipped.
func EvaluateMedicationAlerts(medications []models.Medication, checkIns []models.CheckIn, now time.Time, lookbackDays int) []UsageLimitAlert {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	alerts := []UsageLimitAlert{}
	for _, m := range medications {
		if !m.IsActive || !m.TracksAdherence() || m.MaxUsageDays == nil {
			continue
		}

		taken := distinctDaysTaken(m.ID, checkIns, now, lookbackDays)
		if taken > *m.MaxUsageDays {
			alerts = append(alerts, UsageLimitAlert{
				MedicationID:   m.ID,
				MedicationName: m.Name,
				MaxUsageDays:   *m.MaxUsageDays,
				DaysTaken:      taken,
				Overage:        taken - *m.MaxUsageDays,
				WindowDays:     lookbackDays,
			})
		}
	}
	return alerts
}

// AdherenceSummary reports how consistently a medication was taken across
// the days it was logged in the lookback window.
type AdherenceSummary struct {
	MedicationID   string  `json:"medication_id"`
	MedicationName string  `json:"medication_name"`
	DaysTaken      int     `json:"days_taken"`
	DaysLogged     int     `json:"days_logged"`
	Rate           float64 `json:"rate"`
}

// BuildAdherenceSummaries computes per-medication adherence over recent
// check-ins. "As required" medications are exempt from adherence tracking.
func BuildAdherenceSummaries(medications []models.Medication, checkIns []models.CheckIn, now time.Time, lookbackDays int) []AdherenceSummary {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	summaries := []AdherenceSummary{}
	for _, m := range medications {
		if !m.IsActive || !m.TracksAdherence() {
			continue
		}

		summary := AdherenceSummary{MedicationID: m.ID, MedicationName: m.Name}
		for _, ci := range checkIns {
			if !inWindow(ci.Date, now, lookbackDays) {
				continue
			}
			entry := ci.MedicationEntryFor(m.ID)
			if entry == nil {
				continue
			}
			summary.DaysLogged++
			if entry.Taken {
				summary.DaysTaken++
			}
		}
		if summary.DaysLogged > 0 {
			summary.Rate = float64(summary.DaysTaken) / float64(summary.DaysLogged)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// distinctDaysTaken counts the calendar days in the window on which the
// medication was marked taken. Days are distinct by construction since at
// most one check-in exists per day.
func distinctDaysTaken(medicationID string, checkIns []models.CheckIn, now time.Time, lookbackDays int) int {
	seen := make(map[string]bool)
	for _, ci := range checkIns {
		if !inWindow(ci.Date, now, lookbackDays) {
			continue
		}
		entry := ci.MedicationEntryFor(medicationID)
		if entry == nil || !entry.Taken {
			continue
		}
		seen[ci.DayKey()] = true
	}
	return len(seen)
}

func inWindow(day, now time.Time, lookbackDays int) bool {
	end := dates.NoonUTC(now)
	start := end.AddDate(0, 0, -(lookbackDays - 1))
	d := dates.NoonUTC(day)
	return !d.Before(start) && !d.After(end)
}
