package wizard

import (
	"errors"
	"testing"
	"time"

	"flaretracker/internal/dates"
	"flaretracker/internal/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.ParseDay(s)
	if err != nil {
		t.Fatalf("Failed to parse day %q: %v", s, err)
	}
	return d
}

func testConditions() []models.Condition {
	return []models.Condition{
		{ID: "cond-eczema", Name: "Eczema", Color: "#ef4444"},
		{ID: "cond-psoriasis", Name: "Psoriasis", Color: "#3b82f6"},
	}
}

func testMedications() []models.Medication {
	return []models.Medication{
		{ID: "med-scheduled", Name: "Steroid cream", Frequency: models.FrequencyOnceDaily, IsActive: true},
		{ID: "med-prn", Name: "Antihistamine", Frequency: models.FrequencyAsRequired, IsActive: true},
	}
}

func TestNewStepSequence(t *testing.T) {
	w := New(testConditions(), testMedications(), nil, day(t, "2024-03-10"))

	steps := w.Steps()
	want := []Step{
		{Kind: StepCondition, ConditionID: "cond-eczema"},
		{Kind: StepCondition, ConditionID: "cond-psoriasis"},
		{Kind: StepFactors},
		{Kind: StepNotes},
	}

	if len(steps) != len(want) {
		t.Fatalf("Expected %d steps, got %d", len(want), len(steps))
	}
	for i, s := range want {
		if steps[i] != s {
			t.Errorf("Step %d: expected %+v, got %+v", i, s, steps[i])
		}
	}
	if w.Index() != 0 {
		t.Errorf("Expected initial index 0, got %d", w.Index())
	}
}

func TestNewNoConditions(t *testing.T) {
	w := New(nil, nil, nil, day(t, "2024-03-10"))

	steps := w.Steps()
	if len(steps) != 2 || steps[0].Kind != StepFactors || steps[1].Kind != StepNotes {
		t.Errorf("Expected factors and notes steps only, got %+v", steps)
	}
}

func TestNextRequiresSeverity(t *testing.T) {
	w := New(testConditions(), nil, nil, day(t, "2024-03-10"))

	if err := w.Next(); !errors.Is(err, ErrSeverityRequired) {
		t.Errorf("Expected ErrSeverityRequired, got %v", err)
	}
	if w.Index() != 0 {
		t.Error("Expected index unchanged after blocked Next")
	}

	// Severity 0 clears the rating, so it does not unblock the step
	if err := w.SetSeverity("cond-eczema", 0); err != nil {
		t.Fatalf("Failed to set severity 0: %v", err)
	}
	if err := w.Next(); !errors.Is(err, ErrSeverityRequired) {
		t.Errorf("Expected ErrSeverityRequired for severity 0, got %v", err)
	}

	if err := w.SetSeverity("cond-eczema", 3); err != nil {
		t.Fatalf("Failed to set severity: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Failed to advance: %v", err)
	}
	if w.Current().ConditionID != "cond-psoriasis" {
		t.Errorf("Expected psoriasis step, got %+v", w.Current())
	}
}

func TestNextAndPreviousBounds(t *testing.T) {
	w := New(nil, nil, nil, day(t, "2024-03-10"))

	if err := w.Previous(); !errors.Is(err, ErrAtFirstStep) {
		t.Errorf("Expected ErrAtFirstStep, got %v", err)
	}

	if err := w.Next(); err != nil {
		t.Fatalf("Failed to advance to notes: %v", err)
	}
	if !w.AtTerminal() {
		t.Error("Expected terminal step")
	}
	if err := w.Next(); !errors.Is(err, ErrAtLastStep) {
		t.Errorf("Expected ErrAtLastStep, got %v", err)
	}

	if err := w.Previous(); err != nil {
		t.Fatalf("Failed to step back: %v", err)
	}
	if w.Index() != 0 {
		t.Errorf("Expected index 0, got %d", w.Index())
	}
}

func TestSetSeverityValidation(t *testing.T) {
	w := New(testConditions(), nil, nil, day(t, "2024-03-10"))

	if err := w.SetSeverity("cond-eczema", 6); err == nil {
		t.Error("Expected error for severity above range")
	}
	if err := w.SetSeverity("cond-eczema", -1); err == nil {
		t.Error("Expected error for negative severity")
	}
	if err := w.SetSeverity("unknown", 3); !errors.Is(err, ErrUnknownCondition) {
		t.Errorf("Expected ErrUnknownCondition, got %v", err)
	}
}

func TestSetMedication(t *testing.T) {
	w := New(nil, testMedications(), nil, day(t, "2024-03-10"))

	// Taken with an explicit count
	if err := w.SetMedication("med-scheduled", true, 2, ""); err != nil {
		t.Fatalf("Failed to set medication: %v", err)
	}
	draft := w.Draft()
	entry := draft.MedicationEntryFor("med-scheduled")
	if !entry.Taken || entry.TimesTaken != 2 || entry.SkippedReason != "" {
		t.Errorf("Unexpected entry: %+v", entry)
	}

	// Taken defaults to at least once
	if err := w.SetMedication("med-scheduled", true, 0, ""); err != nil {
		t.Fatalf("Failed to set medication: %v", err)
	}
	d := w.Draft()
	if e := d.MedicationEntryFor("med-scheduled"); e.TimesTaken != 1 {
		t.Errorf("Expected times taken 1, got %d", e.TimesTaken)
	}

	// Scheduled medication skipped: reason recorded
	if err := w.SetMedication("med-scheduled", false, 0, "ran out"); err != nil {
		t.Fatalf("Failed to set medication: %v", err)
	}
	d = w.Draft()
	e := d.MedicationEntryFor("med-scheduled")
	if e.Taken || e.TimesTaken != 0 || e.SkippedReason != "ran out" {
		t.Errorf("Unexpected skipped entry: %+v", e)
	}

	// As-required medication skipped: no reason tracked
	if err := w.SetMedication("med-prn", false, 0, "ran out"); err != nil {
		t.Fatalf("Failed to set medication: %v", err)
	}
	d = w.Draft()
	if e := d.MedicationEntryFor("med-prn"); e.SkippedReason != "" {
		t.Errorf("Expected no skipped reason for as-required, got %q", e.SkippedReason)
	}

	if err := w.SetMedication("unknown", true, 1, ""); !errors.Is(err, ErrUnknownMedication) {
		t.Errorf("Expected ErrUnknownMedication, got %v", err)
	}
}

func TestSetFactorsValidation(t *testing.T) {
	w := New(nil, nil, nil, day(t, "2024-03-10"))

	if err := w.SetFactors(models.Factors{Stress: 6}); err == nil {
		t.Error("Expected error for factor above range")
	}
	if err := w.SetFactors(models.Factors{Sleep: -1}); err == nil {
		t.Error("Expected error for negative factor")
	}
	if err := w.SetFactors(models.Factors{Stress: 3, Sleep: 4, Water: 0, Diet: 5, Weather: models.WeatherRainy}); err != nil {
		t.Errorf("Failed to set valid factors: %v", err)
	}
}

func TestSubmitRejectsUnratedConditions(t *testing.T) {
	w := New(testConditions(), nil, nil, day(t, "2024-03-10"))

	if err := w.SetSeverity("cond-eczema", 3); err != nil {
		t.Fatalf("Failed to set severity: %v", err)
	}

	_, err := w.Submit()
	var serr *SubmitError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected SubmitError, got %v", err)
	}
	if len(serr.UnratedConditions) != 1 || serr.UnratedConditions[0] != "Psoriasis" {
		t.Errorf("Expected Psoriasis named, got %v", serr.UnratedConditions)
	}

	// The draft stays editable after a rejected submit
	if err := w.SetSeverity("cond-psoriasis", 1); err != nil {
		t.Fatalf("Failed to set severity after rejection: %v", err)
	}
	ci, err := w.Submit()
	if err != nil {
		t.Fatalf("Failed to submit: %v", err)
	}
	if len(ci.ConditionEntries) != 2 {
		t.Errorf("Expected 2 condition entries, got %d", len(ci.ConditionEntries))
	}
	if ci.DayKey() != "2024-03-10" {
		t.Errorf("Expected day 2024-03-10, got %s", ci.DayKey())
	}
}

func TestLoadDatePreservesAndPads(t *testing.T) {
	conditions := testConditions()
	medications := testMedications()

	existing := &models.CheckIn{
		ID:   "ci-1",
		Date: day(t, "2024-03-10"),
		ConditionEntries: []models.ConditionEntry{
			{ConditionID: "cond-eczema", Severity: 4, Symptoms: []string{"itching"}, Notes: "worse at night"},
		},
		MedicationEntries: []models.MedicationEntry{
			{MedicationID: "med-scheduled", Taken: true, TimesTaken: 1},
		},
		Factors:   models.Factors{Stress: 3, Weather: models.WeatherCold},
		Notes:     "long day",
		CreatedAt: day(t, "2024-03-10"),
	}

	// Psoriasis and the as-required medication were added after the
	// check-in was recorded; reopening pads them with defaults.
	w := New(conditions, medications, existing, day(t, "2024-03-10"))
	draft := w.Draft()

	if draft.ID != "ci-1" {
		t.Errorf("Expected existing id preserved, got %s", draft.ID)
	}
	if draft.Notes != "long day" || draft.Factors.Stress != 3 {
		t.Error("Expected notes and factors preserved")
	}

	eczema := draft.Entry("cond-eczema")
	if eczema == nil || eczema.Severity != 4 || len(eczema.Symptoms) != 1 {
		t.Errorf("Expected eczema entry preserved, got %+v", eczema)
	}

	psoriasis := draft.Entry("cond-psoriasis")
	if psoriasis == nil || psoriasis.Severity != models.SeverityUnrated {
		t.Errorf("Expected padded unrated psoriasis entry, got %+v", psoriasis)
	}

	prn := draft.MedicationEntryFor("med-prn")
	if prn == nil || prn.Taken {
		t.Errorf("Expected padded not-taken entry, got %+v", prn)
	}

	if w.Index() != 0 {
		t.Error("Expected wizard reset to first step")
	}
}

func TestDraftIsDeepCopy(t *testing.T) {
	w := New(testConditions(), nil, nil, day(t, "2024-03-10"))

	if err := w.SetSymptoms("cond-eczema", []string{"itching"}); err != nil {
		t.Fatalf("Failed to set symptoms: %v", err)
	}

	draft := w.Draft()
	draft.ConditionEntries[0].Severity = 5
	draft.ConditionEntries[0].Symptoms[0] = "mutated"

	fresh := w.Draft()
	if fresh.ConditionEntries[0].Severity != 0 {
		t.Error("Draft mutation leaked into wizard state")
	}
	if fresh.ConditionEntries[0].Symptoms[0] != "itching" {
		t.Error("Draft symptom mutation leaked into wizard state")
	}
}
