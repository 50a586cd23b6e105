package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"flaretracker/internal/database"
	"flaretracker/internal/dates"
	"flaretracker/internal/models"
)

func setupTestStore(t *testing.T) (*Store, *database.DB) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st, err := Open(db)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return st, db
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	day, err := dates.ParseDay(s)
	if err != nil {
		t.Fatalf("Failed to parse day %q: %v", s, err)
	}
	return day
}

func TestOpenSeedsDefaultDocument(t *testing.T) {
	st, _ := setupTestStore(t)

	if !st.FirstRun() {
		t.Error("Expected first run before setup")
	}

	user := st.User()
	if user.ID == "" {
		t.Error("Expected seeded user to have an id")
	}
	if user.Reminders.Time != "19:00" {
		t.Errorf("Expected default reminder time 19:00, got %s", user.Reminders.Time)
	}
	if user.Reminders.Enabled {
		t.Error("Expected reminders disabled by default")
	}
}

func TestSetupUser(t *testing.T) {
	st, _ := setupTestStore(t)

	if err := st.SetupUser("Alex", "alex@example.com", "hash123"); err != nil {
		t.Fatalf("Failed to complete setup: %v", err)
	}

	if st.FirstRun() {
		t.Error("Expected setup to be complete")
	}

	// Second setup attempt must be rejected
	if err := st.SetupUser("Eve", "", "otherhash"); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	user := st.User()
	if user.Name != "Alex" || user.PasswordHash != "hash123" {
		t.Errorf("Unexpected user after setup: %+v", user)
	}
}

func TestDocumentSurvivesReload(t *testing.T) {
	st, db := setupTestStore(t)

	if err := st.SetupUser("Alex", "", "hash"); err != nil {
		t.Fatalf("Failed to complete setup: %v", err)
	}
	cond, err := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})
	if err != nil {
		t.Fatalf("Failed to add condition: %v", err)
	}
	_, err = st.PutCheckIn(models.CheckIn{
		Date: mustDay(t, "2024-03-10"),
		ConditionEntries: []models.ConditionEntry{
			{ConditionID: cond.ID, Severity: 3, Symptoms: []string{"itching"}},
		},
	})
	if err != nil {
		t.Fatalf("Failed to put check-in: %v", err)
	}

	// Re-open a fresh store over the same database
	reloaded, err := Open(db)
	if err != nil {
		t.Fatalf("Failed to reload store: %v", err)
	}

	doc := reloaded.Snapshot()
	if doc.User.Name != "Alex" {
		t.Errorf("Expected user Alex after reload, got %s", doc.User.Name)
	}
	if len(doc.Conditions) != 1 || doc.Conditions[0].Name != "Eczema" {
		t.Errorf("Expected one condition Eczema, got %+v", doc.Conditions)
	}
	if len(doc.CheckIns) != 1 || doc.CheckIns[0].DayKey() != "2024-03-10" {
		t.Errorf("Expected one check-in for 2024-03-10, got %+v", doc.CheckIns)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	st, _ := setupTestStore(t)

	cond, _ := st.AddCondition(models.Condition{Name: "Psoriasis", Color: "#111111"})
	_, err := st.PutCheckIn(models.CheckIn{
		Date: mustDay(t, "2024-03-10"),
		ConditionEntries: []models.ConditionEntry{
			{ConditionID: cond.ID, Severity: 2, Symptoms: []string{"flaking"}},
		},
	})
	if err != nil {
		t.Fatalf("Failed to put check-in: %v", err)
	}

	snap := st.Snapshot()
	snap.Conditions[0].Name = "mutated"
	snap.CheckIns[0].ConditionEntries[0].Severity = 5
	snap.CheckIns[0].ConditionEntries[0].Symptoms[0] = "mutated"

	fresh := st.Snapshot()
	if fresh.Conditions[0].Name != "Psoriasis" {
		t.Error("Snapshot mutation leaked into condition state")
	}
	if fresh.CheckIns[0].ConditionEntries[0].Severity != 2 {
		t.Error("Snapshot mutation leaked into check-in state")
	}
	if fresh.CheckIns[0].ConditionEntries[0].Symptoms[0] != "flaking" {
		t.Error("Snapshot mutation leaked into symptoms slice")
	}
}

func TestAddConditionValidation(t *testing.T) {
	st, _ := setupTestStore(t)

	_, err := st.AddCondition(models.Condition{Name: ""})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for empty name, got %v", err)
	}
}

func TestUpdateConditionPreservesCreatedAt(t *testing.T) {
	st, _ := setupTestStore(t)

	cond, _ := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})

	updated := models.Condition{ID: cond.ID, Name: "Atopic eczema", Color: "#dc2626"}
	if err := st.UpdateCondition(updated); err != nil {
		t.Fatalf("Failed to update condition: %v", err)
	}

	got, err := st.GetCondition(cond.ID)
	if err != nil {
		t.Fatalf("Failed to get condition: %v", err)
	}
	if got.Name != "Atopic eczema" {
		t.Errorf("Expected updated name, got %s", got.Name)
	}
	if !got.CreatedAt.Equal(cond.CreatedAt) {
		t.Errorf("Expected CreatedAt preserved, got %v (was %v)", got.CreatedAt, cond.CreatedAt)
	}
}

func TestDeleteConditionCascades(t *testing.T) {
	st, _ := setupTestStore(t)

	eczema, _ := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})
	psoriasis, _ := st.AddCondition(models.Condition{Name: "Psoriasis", Color: "#3b82f6"})

	med, err := st.AddMedication(models.Medication{
		Name:         "Hydrocortisone",
		Frequency:    models.FrequencyOnceDaily,
		IsActive:     true,
		ConditionIDs: []string{eczema.ID, psoriasis.ID},
	})
	if err != nil {
		t.Fatalf("Failed to add medication: %v", err)
	}

	_, err = st.PutCheckIn(models.CheckIn{
		Date: mustDay(t, "2024-03-10"),
		ConditionEntries: []models.ConditionEntry{
			{ConditionID: eczema.ID, Severity: 3},
			{ConditionID: psoriasis.ID, Severity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Failed to put check-in: %v", err)
	}

	if err := st.DeleteCondition(eczema.ID); err != nil {
		t.Fatalf("Failed to delete condition: %v", err)
	}

	if _, err := st.GetCondition(eczema.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for deleted condition, got %v", err)
	}

	// Back-reference stripped from the medication
	gotMed, _ := st.GetMedication(med.ID)
	if len(gotMed.ConditionIDs) != 1 || gotMed.ConditionIDs[0] != psoriasis.ID {
		t.Errorf("Expected medication to reference only psoriasis, got %v", gotMed.ConditionIDs)
	}

	// Entry stripped from the check-in, other entries intact
	ci, err := st.CheckInForDay(mustDay(t, "2024-03-10"))
	if err != nil {
		t.Fatalf("Failed to get check-in: %v", err)
	}
	if len(ci.ConditionEntries) != 1 || ci.ConditionEntries[0].ConditionID != psoriasis.ID {
		t.Errorf("Expected only psoriasis entry to remain, got %+v", ci.ConditionEntries)
	}
}

func TestDeleteMedicationCascades(t *testing.T) {
	st, _ := setupTestStore(t)

	cond, _ := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})
	med, _ := st.AddMedication(models.Medication{
		Name:         "Hydrocortisone",
		Frequency:    models.FrequencyOnceDaily,
		IsActive:     true,
		ConditionIDs: []string{cond.ID},
	})
	other, _ := st.AddMedication(models.Medication{
		Name:      "Antihistamine",
		Frequency: models.FrequencyAsRequired,
		IsActive:  true,
	})

	_, err := st.PutCheckIn(models.CheckIn{
		Date:             mustDay(t, "2024-03-10"),
		ConditionEntries: []models.ConditionEntry{{ConditionID: cond.ID, Severity: 3}},
		MedicationEntries: []models.MedicationEntry{
			{MedicationID: med.ID, Taken: true, TimesTaken: 1},
			{MedicationID: other.ID, Taken: true, TimesTaken: 2},
		},
	})
	if err != nil {
		t.Fatalf("Failed to put check-in: %v", err)
	}

	if err := st.DeleteMedication(med.ID); err != nil {
		t.Fatalf("Failed to delete medication: %v", err)
	}

	ci, _ := st.CheckInForDay(mustDay(t, "2024-03-10"))
	if len(ci.MedicationEntries) != 1 || ci.MedicationEntries[0].MedicationID != other.ID {
		t.Errorf("Expected only the other medication entry to remain, got %+v", ci.MedicationEntries)
	}
}

func TestAddMedicationRejectsUnknownCondition(t *testing.T) {
	st, _ := setupTestStore(t)

	_, err := st.AddMedication(models.Medication{
		Name:         "Hydrocortisone",
		Frequency:    models.FrequencyOnceDaily,
		ConditionIDs: []string{"missing-id"},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError for unknown condition reference, got %v", err)
	}
}

func TestPutCheckInUpsertsByDay(t *testing.T) {
	st, _ := setupTestStore(t)

	cond, _ := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})
	day := mustDay(t, "2024-03-10")

	first, err := st.PutCheckIn(models.CheckIn{
		Date:             day,
		ConditionEntries: []models.ConditionEntry{{ConditionID: cond.ID, Severity: 2}},
	})
	if err != nil {
		t.Fatalf("Failed to put first check-in: %v", err)
	}

	// Same calendar day, different clock time: replaces, never duplicates
	second, err := st.PutCheckIn(models.CheckIn{
		Date:             time.Date(2024, 3, 10, 23, 45, 0, 0, time.UTC),
		ConditionEntries: []models.ConditionEntry{{ConditionID: cond.ID, Severity: 5}},
		Notes:            "flare in the evening",
	})
	if err != nil {
		t.Fatalf("Failed to replace check-in: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Expected replacement to keep id %s, got %s", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("Expected replacement to preserve CreatedAt")
	}

	doc := st.Snapshot()
	if len(doc.CheckIns) != 1 {
		t.Fatalf("Expected exactly one check-in per day, got %d", len(doc.CheckIns))
	}
	if doc.CheckIns[0].ConditionEntries[0].Severity != 5 {
		t.Errorf("Expected replaced severity 5, got %d", doc.CheckIns[0].ConditionEntries[0].Severity)
	}
	if doc.CheckIns[0].Date.Hour() != 12 {
		t.Errorf("Expected stored date normalized to noon UTC, got %v", doc.CheckIns[0].Date)
	}
}

func TestPutCheckInValidation(t *testing.T) {
	st, _ := setupTestStore(t)

	cond, _ := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})

	tests := []struct {
		name    string
		checkIn models.CheckIn
	}{
		{
			name:    "Missing date",
			checkIn: models.CheckIn{ConditionEntries: []models.ConditionEntry{{ConditionID: cond.ID, Severity: 3}}},
		},
		{
			name: "Severity above range",
			checkIn: models.CheckIn{
				Date:             mustDay(t, "2024-03-10"),
				ConditionEntries: []models.ConditionEntry{{ConditionID: cond.ID, Severity: 6}},
			},
		},
		{
			name: "Unknown condition reference",
			checkIn: models.CheckIn{
				Date:             mustDay(t, "2024-03-10"),
				ConditionEntries: []models.ConditionEntry{{ConditionID: "missing", Severity: 3}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.PutCheckIn(tt.checkIn)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestDeleteCheckIn(t *testing.T) {
	st, _ := setupTestStore(t)

	cond, _ := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})
	ci, _ := st.PutCheckIn(models.CheckIn{
		Date:             mustDay(t, "2024-03-10"),
		ConditionEntries: []models.ConditionEntry{{ConditionID: cond.ID, Severity: 3}},
	})

	if err := st.DeleteCheckIn(ci.ID); err != nil {
		t.Fatalf("Failed to delete check-in: %v", err)
	}
	if _, err := st.CheckInForDay(mustDay(t, "2024-03-10")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeleteCheckIn(ci.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestReset(t *testing.T) {
	st, db := setupTestStore(t)

	if err := st.SetupUser("Alex", "", "hash"); err != nil {
		t.Fatalf("Failed to complete setup: %v", err)
	}
	cond, _ := st.AddCondition(models.Condition{Name: "Eczema", Color: "#ef4444"})
	_, err := st.PutCheckIn(models.CheckIn{
		Date:             mustDay(t, "2024-03-10"),
		ConditionEntries: []models.ConditionEntry{{ConditionID: cond.ID, Severity: 3}},
	})
	if err != nil {
		t.Fatalf("Failed to put check-in: %v", err)
	}

	oldID := st.User().ID
	if err := st.Reset(); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}

	if !st.FirstRun() {
		t.Error("Expected first run after reset")
	}
	doc := st.Snapshot()
	if len(doc.Conditions) != 0 || len(doc.CheckIns) != 0 {
		t.Error("Expected empty document after reset")
	}
	if doc.User.ID == oldID {
		t.Error("Expected a fresh user id after reset")
	}

	// The reset state is persisted, not just in memory
	reloaded, err := Open(db)
	if err != nil {
		t.Fatalf("Failed to reload store: %v", err)
	}
	if !reloaded.FirstRun() {
		t.Error("Expected reset to persist across reload")
	}
}

func TestUpdateProfileAndReminders(t *testing.T) {
	st, _ := setupTestStore(t)

	if err := st.UpdateProfile("", ""); err == nil {
		t.Error("Expected error for empty name")
	}

	if err := st.UpdateProfile("Alex", "alex@example.com"); err != nil {
		t.Fatalf("Failed to update profile: %v", err)
	}
	if err := st.UpdateReminders(models.ReminderSettings{Enabled: true, Time: "08:30"}); err != nil {
		t.Fatalf("Failed to update reminders: %v", err)
	}

	user := st.User()
	if user.Name != "Alex" || user.Email != "alex@example.com" {
		t.Errorf("Unexpected profile: %+v", user)
	}
	if !user.Reminders.Enabled || user.Reminders.Time != "08:30" {
		t.Errorf("Unexpected reminders: %+v", user.Reminders)
	}
}
