// Package wizard implements the multi-step check-in form controller: one
// step per condition in list order, then lifestyle factors, then notes.
// The wizard composes a full day's check-in; the store upserts the result.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flaretracker/internal/dates"
	"flaretracker/internal/models"
)

// Step kinds, in the order they appear.
const (
	StepCondition = "condition"
	StepFactors   = "factors"
	StepNotes     = "notes"
)

var (
	ErrAtFirstStep       = errors.New("already at the first step")
	ErrAtLastStep        = errors.New("already at the last step")
	ErrSeverityRequired  = errors.New("rate this condition before continuing")
	ErrUnknownCondition  = errors.New("unknown condition")
	ErrUnknownMedication = errors.New("unknown medication")
)

// SubmitError is returned when submission is rejected; the draft stays
// editable and nothing is persisted.
type SubmitError struct {
	UnratedConditions []string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("unrated conditions: %s", strings.Join(e.UnratedConditions, ", "))
}

// Step is one wizard state. ConditionID is set only for condition steps.
type Step struct {
	Kind        string `json:"kind"`
	ConditionID string `json:"condition_id,omitempty"`
}

// Wizard drives a single day's check-in draft through its steps.
type Wizard struct {
	conditions  []models.Condition
	medications []models.Medication
	steps       []Step
	index       int
	draft       models.CheckIn
}

// New builds a wizard for the given date. If existing is non-nil its values
// seed the draft; conditions or medications added since it was recorded are
// padded in with default (unrated / not taken) entries.
func New(conditions []models.Condition, medications []models.Medication, existing *models.CheckIn, date time.Time) *Wizard {
	w := &Wizard{
		conditions:  conditions,
		medications: medications,
	}

	steps := make([]Step, 0, len(conditions)+2)
	for _, c := range conditions {
		steps = append(steps, Step{Kind: StepCondition, ConditionID: c.ID})
	}
	steps = append(steps, Step{Kind: StepFactors}, Step{Kind: StepNotes})
	w.steps = steps

	w.LoadDate(date, existing)
	return w
}

// LoadDate rebuilds the draft from any existing check-in for the selected
// date and returns the wizard to its initial step. Previously recorded
// entries are preserved; entities added since are padded with defaults.
func (w *Wizard) LoadDate(date time.Time, existing *models.CheckIn) {
	draft := models.CheckIn{
		Date:              dates.NoonUTC(date),
		ConditionEntries:  make([]models.ConditionEntry, 0, len(w.conditions)),
		MedicationEntries: make([]models.MedicationEntry, 0, len(w.medications)),
	}

	for _, c := range w.conditions {
		entry := models.ConditionEntry{ConditionID: c.ID, Severity: models.SeverityUnrated}
		if existing != nil {
			if prev := existing.Entry(c.ID); prev != nil {
				entry = *prev
				entry.Symptoms = append([]string(nil), prev.Symptoms...)
			}
		}
		draft.ConditionEntries = append(draft.ConditionEntries, entry)
	}

	for _, m := range w.medications {
		entry := models.MedicationEntry{MedicationID: m.ID}
		if existing != nil {
			if prev := existing.MedicationEntryFor(m.ID); prev != nil {
				entry = *prev
			}
		}
		draft.MedicationEntries = append(draft.MedicationEntries, entry)
	}

	if existing != nil {
		draft.ID = existing.ID
		draft.Factors = existing.Factors
		draft.Notes = existing.Notes
		draft.CreatedAt = existing.CreatedAt
	}

	w.draft = draft
	w.index = 0
}

// Current returns the active step.
func (w *Wizard) Current() Step {
	return w.steps[w.index]
}

// Steps returns the full step sequence.
func (w *Wizard) Steps() []Step {
	return w.steps
}

// Index returns the active step's position.
func (w *Wizard) Index() int {
	return w.index
}

// AtTerminal reports whether the wizard is on the notes step.
func (w *Wizard) AtTerminal() bool {
	return w.Current().Kind == StepNotes
}

// Draft returns a copy of the in-progress check-in.
func (w *Wizard) Draft() models.CheckIn {
	draft := w.draft
	draft.ConditionEntries = make([]models.ConditionEntry, len(w.draft.ConditionEntries))
	for i, e := range w.draft.ConditionEntries {
		e.Symptoms = append([]string(nil), e.Symptoms...)
		draft.ConditionEntries[i] = e
	}
	draft.MedicationEntries = append([]models.MedicationEntry(nil), w.draft.MedicationEntries...)
	return draft
}

// Next advances one step. Condition steps require a severity of 1-5 before
// moving on; the factors and notes steps have no guard.
func (w *Wizard) Next() error {
	if w.index == len(w.steps)-1 {
		return ErrAtLastStep
	}

	step := w.Current()
	if step.Kind == StepCondition {
		entry := w.entry(step.ConditionID)
		if entry == nil || !entry.Rated() {
			return ErrSeverityRequired
		}
	}

	w.index++
	return nil
}

// Previous steps back. Always allowed except from the initial step.
func (w *Wizard) Previous() error {
	if w.index == 0 {
		return ErrAtFirstStep
	}
	w.index--
	return nil
}

// SetSeverity rates a condition for the day. Severity 0 clears the rating.
func (w *Wizard) SetSeverity(conditionID string, severity int) error {
	if severity < models.SeverityUnrated || severity > models.SeverityMax {
		return fmt.Errorf("severity must be between %d and %d", models.SeverityUnrated, models.SeverityMax)
	}
	entry := w.entry(conditionID)
	if entry == nil {
		return ErrUnknownCondition
	}
	entry.Severity = severity
	return nil
}

// SetSymptoms replaces a condition's symptom set for the day.
func (w *Wizard) SetSymptoms(conditionID string, symptoms []string) error {
	entry := w.entry(conditionID)
	if entry == nil {
		return ErrUnknownCondition
	}
	entry.Symptoms = append([]string(nil), symptoms...)
	return nil
}

// SetConditionNotes sets per-condition notes for the day.
func (w *Wizard) SetConditionNotes(conditionID, notes string) error {
	entry := w.entry(conditionID)
	if entry == nil {
		return ErrUnknownCondition
	}
	entry.Notes = notes
	return nil
}

// SetMedication records whether a medication was taken. TimesTaken applies
// only when taken; a skipped reason applies only to scheduled medications
// that were not taken.
func (w *Wizard) SetMedication(medicationID string, taken bool, timesTaken int, skippedReason string) error {
	var med *models.Medication
	for i := range w.medications {
		if w.medications[i].ID == medicationID {
			med = &w.medications[i]
			break
		}
	}
	if med == nil {
		return ErrUnknownMedication
	}

	entry := w.draft.MedicationEntryFor(medicationID)
	if entry == nil {
		return ErrUnknownMedication
	}

	entry.Taken = taken
	entry.TimesTaken = 0
	entry.SkippedReason = ""

	if taken {
		if timesTaken < 1 {
			timesTaken = 1
		}
		entry.TimesTaken = timesTaken
	} else if med.TracksAdherence() {
		entry.SkippedReason = skippedReason
	}
	return nil
}

// SetFactors replaces the day's lifestyle factors.
func (w *Wizard) SetFactors(f models.Factors) error {
	for _, v := range []int{f.Stress, f.Sleep, f.Water, f.Diet} {
		if v < 0 || v > models.SeverityMax {
			return fmt.Errorf("factor values must be between 0 and %d", models.SeverityMax)
		}
	}
	w.draft.Factors = f
	return nil
}

// SetNotes sets the day-level notes.
func (w *Wizard) SetNotes(notes string) {
	w.draft.Notes = notes
}

// Submit validates the whole in-progress record, not just the current step:
// every condition must be rated 1-5. On failure a SubmitError names the
// offenders and the draft remains editable; nothing is saved partially.
func (w *Wizard) Submit() (models.CheckIn, error) {
	var unrated []string
	for _, e := range w.draft.ConditionEntries {
		if !e.Rated() {
			unrated = append(unrated, w.conditionName(e.ConditionID))
		}
	}
	if len(unrated) > 0 {
		return models.CheckIn{}, &SubmitError{UnratedConditions: unrated}
	}
	return w.Draft(), nil
}

func (w *Wizard) entry(conditionID string) *models.ConditionEntry {
	return w.draft.Entry(conditionID)
}

func (w *Wizard) conditionName(conditionID string) string {
	for _, c := range w.conditions {
		if c.ID == conditionID {
			return c.Name
		}
	}
	return conditionID
}
