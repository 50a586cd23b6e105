package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity scale for condition entries: 0 = unrated, 1-5 = rated.
const (
	SeverityUnrated = 0
	SeverityMin     = 1
	SeverityMax     = 5
)

// Medication frequency values. FrequencyAsRequired is exempt from
// adherence tracking and usage-limit alerts.
const (
	FrequencyOnceDaily       = "Once daily"
	FrequencyTwiceDaily      = "Twice daily"
	FrequencyThreeTimesDaily = "Three times daily"
	FrequencyOnceWeekly      = "Once weekly"
	FrequencyAsRequired      = "As required"
)

// Weather values for the lifestyle factors record.
const (
	WeatherUnknown = ""
	WeatherSunny   = "sunny"
	WeatherCloudy  = "cloudy"
	WeatherRainy   = "rainy"
	WeatherSnowy   = "snowy"
	WeatherHot     = "hot"
	WeatherCold    = "cold"
	WeatherHumid   = "humid"
)

// User is the single tracked user. It owns all conditions, medications
// and check-ins; resetting the store deletes everything with it.
type User struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"password_hash,omitempty"`
	Reminders    ReminderSettings `json:"reminders"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ReminderSettings configures the daily check-in reminder.
type ReminderSettings struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"` // HH:MM
}

// Condition is a tracked skin ailment.
type Condition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// Medication is a treatment the user logs adherence for. ConditionIDs is a
// non-owning back-reference to the conditions it treats. MaxUsageDays, when
// set, caps how many days in the lookback window the medication should be
// taken before a usage alert fires.
type Medication struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage,omitempty"`
	Frequency    string    `json:"frequency"`
	IsActive     bool      `json:"is_active"`
	ConditionIDs []string  `json:"condition_ids"`
	MaxUsageDays *int      `json:"max_usage_days,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TracksAdherence reports whether this medication participates in adherence
// tracking and usage-limit alerts.
func (m *Medication) TracksAdherence() bool {
	return m.Frequency != FrequencyAsRequired
}

// TreatsCondition reports whether the medication is associated with the
// given condition.
func (m *Medication) TreatsCondition(conditionID string) bool {
	for _, id := range m.ConditionIDs {
		if id == conditionID {
			return true
		}
	}
	return false
}

// CheckIn is one day's record of condition severities, medication status,
// lifestyle factors and notes. Date is normalized to noon UTC so the
// calendar day survives timezone-boundary drift. At most one check-in
// exists per calendar day; the store enforces this at write time.
type CheckIn struct {
	ID                string            `json:"id"`
	Date              time.Time         `json:"date"`
	ConditionEntries  []ConditionEntry  `json:"condition_entries"`
	MedicationEntries []MedicationEntry `json:"medication_entries"`
	Factors           Factors           `json:"factors"`
	Notes             string            `json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// DayKey returns the calendar-day key for this check-in.
func (c *CheckIn) DayKey() string {
	return c.Date.Format("2006-01-02")
}

// Entry returns the condition entry for the given condition, or nil.
func (c *CheckIn) Entry(conditionID string) *ConditionEntry {
	for i := range c.ConditionEntries {
		if c.ConditionEntries[i].ConditionID == conditionID {
			return &c.ConditionEntries[i]
		}
	}
	return nil
}

// MedicationEntryFor returns the medication entry for the given medication,
// or nil.
func (c *CheckIn) MedicationEntryFor(medicationID string) *MedicationEntry {
	for i := range c.MedicationEntries {
		if c.MedicationEntries[i].MedicationID == medicationID {
			return &c.MedicationEntries[i]
		}
	}
	return nil
}

// ConditionEntry records one condition's state for a day. Severity 0 means
// the condition was left unrated that day.
type ConditionEntry struct {
	ConditionID string   `json:"condition_id"`
	Severity    int      `json:"severity"`
	Symptoms    []string `json:"symptoms,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Rated reports whether the entry carries a real severity rating.
func (e *ConditionEntry) Rated() bool {
	return e.Severity >= SeverityMin && e.Severity <= SeverityMax
}

// MedicationEntry records whether a medication was taken on a day.
// TimesTaken is only meaningful when Taken; SkippedReason only when the
// medication was scheduled (not "As required") and skipped.
type MedicationEntry struct {
	MedicationID  string `json:"medication_id"`
	Taken         bool   `json:"taken"`
	TimesTaken    int    `json:"times_taken,omitempty"`
	SkippedReason string `json:"skipped_reason,omitempty"`
}

// Factors are the auxiliary daily metrics logged alongside conditions.
// The integer factors use the same 0-5 scale as severities (0 = not logged).
type Factors struct {
	Stress  int    `json:"stress"`
	Sleep   int    `json:"sleep"`
	Water   int    `json:"water"`
	Diet    int    `json:"diet"`
	Weather string `json:"weather,omitempty"`
}

// Document is the full persisted record graph for the user. It is read
// wholly at startup and rewritten wholly on every mutation; there is no
// field-level merge and no schema-version field.
type Document struct {
	User        User         `json:"user"`
	Conditions  []Condition  `json:"conditions"`
	Medications []Medication `json:"medications"`
	CheckIns    []CheckIn    `json:"check_ins"`
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}
