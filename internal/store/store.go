// Package store owns the persisted user record. The full record graph is
// kept in memory and written back to the database as a single JSON document
// on every mutation; the mutation methods here are the only write surface.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"flaretracker/internal/database"
	"flaretracker/internal/dates"
	"flaretracker/internal/models"
)

// documentKey is the fixed key the user record is stored under.
const documentKey = "flaretracker:user-record"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError carries a user-facing message for a rejected write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Store is the application-state container backing all pages. Reads go
// through Snapshot; writes go through the mutation methods, each of which
// rewrites the whole document.
type Store struct {
	db  *database.DB
	mu  sync.RWMutex
	doc models.Document
}

// Open bootstraps the schema and loads the document, seeding a default
// record on first run.
func Open(db *database.DB) (*Store, error) {
	if err := db.Bootstrap(); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the persisted document wholesale, or seeds a default one.
func (s *Store) load() error {
	var body []byte
	err := s.db.QueryRow("SELECT body FROM documents WHERE key = ?", documentKey).Scan(&body)
	if err == sql.ErrNoRows {
		return s.commit(defaultDocument())
	}
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	s.doc = doc
	return nil
}

// commit persists the document wholesale and adopts it as current state.
// Callers must hold the write lock (or be in single-threaded startup).
func (s *Store) commit(doc models.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, documentKey, body); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	s.doc = doc
	return nil
}

func defaultDocument() models.Document {
	return models.Document{
		User: models.User{
			ID:        models.NewID(),
			Reminders: models.ReminderSettings{Enabled: false, Time: "19:00"},
			CreatedAt: time.Now().UTC(),
		},
	}
}

// Snapshot returns a deep copy of the current document for the read path.
func (s *Store) Snapshot() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDocument(s.doc)
}

// FirstRun reports whether the user has not completed setup yet.
func (s *Store) FirstRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.User.PasswordHash == ""
}

// SetupUser completes first-run setup. Rejected once a password exists.
func (s *Store) SetupUser(name, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.User.PasswordHash != "" {
		return ErrConflict
	}

	doc := copyDocument(s.doc)
	doc.User.Name = name
	doc.User.Email = email
	doc.User.PasswordHash = passwordHash
	return s.commit(doc)
}

// User returns a copy of the user profile.
func (s *Store) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.User
}

// UpdateProfile replaces the user's name and email.
func (s *Store) UpdateProfile(name, email string) error {
	if name == "" {
		return validationErrorf("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDocument(s.doc)
	doc.User.Name = name
	doc.User.Email = email
	return s.commit(doc)
}

// UpdateReminders replaces the reminder settings.
func (s *Store) UpdateReminders(r models.ReminderSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDocument(s.doc)
	doc.User.Reminders = r
	return s.commit(doc)
}

// SetPasswordHash replaces the stored password hash.
func (s *Store) SetPasswordHash(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDocument(s.doc)
	doc.User.PasswordHash = hash
	return s.commit(doc)
}

// AddCondition creates a new condition.
func (s *Store) AddCondition(c models.Condition) (models.Condition, error) {
	if c.Name == "" {
		return models.Condition{}, validationErrorf("condition name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = models.NewID()
	c.CreatedAt = time.Now().UTC()

	doc := copyDocument(s.doc)
	doc.Conditions = append(doc.Conditions, c)
	if err := s.commit(doc); err != nil {
		return models.Condition{}, err
	}
	return c, nil
}

// GetCondition looks up a condition by id.
func (s *Store) GetCondition(id string) (models.Condition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.doc.Conditions {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Condition{}, ErrNotFound
}

// UpdateCondition replaces a condition by id (full replace, no merge).
func (s *Store) UpdateCondition(c models.Condition) error {
	if c.Name == "" {
		return validationErrorf("condition name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDocument(s.doc)
	for i := range doc.Conditions {
		if doc.Conditions[i].ID == c.ID {
			c.CreatedAt = doc.Conditions[i].CreatedAt
			doc.Conditions[i] = c
			return s.commit(doc)
		}
	}
	return ErrNotFound
}

// DeleteCondition removes a condition and strips its id from every
// check-in's condition entries and every medication's condition list.
func (s *Store) DeleteCondition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDocument(s.doc)

	found := false
	conditions := doc.Conditions[:0]
	for _, c := range doc.Conditions {
		if c.ID == id {
			found = true
			continue
		}
		conditions = append(conditions, c)
	}
	if !found {
		return ErrNotFound
	}
	doc.Conditions = conditions

	for i := range doc.Medications {
		ids := doc.Medications[i].ConditionIDs[:0]
		for _, cid := range doc.Medications[i].ConditionIDs {
			if cid != id {
				ids = append(ids, cid)
			}
		}
		doc.Medications[i].ConditionIDs = ids
	}

	for i := range doc.CheckIns {
		entries := doc.CheckIns[i].ConditionEntries[:0]
		for _, e := range doc.CheckIns[i].ConditionEntries {
			if e.ConditionID != id {
				entries = append(entries, e)
			}
		}
		doc.CheckIns[i].ConditionEntries = entries
	}

	return s.commit(doc)
}

// AddMedication creates a new medication. Condition references must exist.
func (s *Store) AddMedication(m models.Medication) (models.Medication, error) {
	if m.Name == "" {
		return models.Medication{}, validationErrorf("medication name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkConditionRefs(m.ConditionIDs); err != nil {
		return models.Medication{}, err
	}

	m.ID = models.NewID()
	m.CreatedAt = time.Now().UTC()

	doc := copyDocument(s.doc)
	doc.Medications = append(doc.Medications, m)
	if err := s.commit(doc); err != nil {
		return models.Medication{}, err
	}
	return m, nil
}

// GetMedication looks up a medication by id.
func (s *Store) GetMedication(id string) (models.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.doc.Medications {
		if m.ID == id {
			return copyMedication(m), nil
		}
	}
	return models.Medication{}, ErrNotFound
}

// UpdateMedication replaces a medication by id (full replace, no merge).
func (s *Store) UpdateMedication(m models.Medication) error {
	if m.Name == "" {
		return validationErrorf("medication name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkConditionRefs(m.ConditionIDs); err != nil {
		return err
	}

	doc := copyDocument(s.doc)
	for i := range doc.Medications {
		if doc.Medications[i].ID == m.ID {
			m.CreatedAt = doc.Medications[i].CreatedAt
			doc.Medications[i] = copyMedication(m)
			return s.commit(doc)
		}
	}
	return ErrNotFound
}

// DeleteMedication removes a medication and its entries from every check-in.
func (s *Store) DeleteMedication(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDocument(s.doc)

	found := false
	medications := doc.Medications[:0]
	for _, m := range doc.Medications {
		if m.ID == id {
			found = true
			continue
		}
		medications = append(medications, m)
	}
	if !found {
		return ErrNotFound
	}
	doc.Medications = medications

	for i := range doc.CheckIns {
		entries := doc.CheckIns[i].MedicationEntries[:0]
		for _, e := range doc.CheckIns[i].MedicationEntries {
			if e.MedicationID != id {
				entries = append(entries, e)
			}
		}
		doc.CheckIns[i].MedicationEntries = entries
	}

	return s.commit(doc)
}

// CheckInForDay returns the check-in recorded for the given calendar day.
func (s *Store) CheckInForDay(day time.Time) (models.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := dates.DayKey(day)
	for i := range s.doc.CheckIns {
		if s.doc.CheckIns[i].DayKey() == key {
			return copyCheckIn(s.doc.CheckIns[i]), nil
		}
	}
	return models.CheckIn{}, ErrNotFound
}

// PutCheckIn upserts a check-in by calendar day: if a record already exists
// for the day it is replaced in full, otherwise a new one is created. This
// is where the one-check-in-per-day invariant is enforced.
func (s *Store) PutCheckIn(ci models.CheckIn) (models.CheckIn, error) {
	if ci.Date.IsZero() {
		return models.CheckIn{}, validationErrorf("check-in date is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range ci.ConditionEntries {
		if err := s.checkConditionRefs([]string{e.ConditionID}); err != nil {
			return models.CheckIn{}, err
		}
		if e.Severity < models.SeverityUnrated || e.Severity > models.SeverityMax {
			return models.CheckIn{}, validationErrorf("severity must be between 0 and 5")
		}
	}

	now := time.Now().UTC()
	ci.Date = dates.NoonUTC(ci.Date)
	ci.UpdatedAt = now

	doc := copyDocument(s.doc)
	for i := range doc.CheckIns {
		if doc.CheckIns[i].DayKey() == ci.DayKey() {
			ci.ID = doc.CheckIns[i].ID
			ci.CreatedAt = doc.CheckIns[i].CreatedAt
			doc.CheckIns[i] = copyCheckIn(ci)
			if err := s.commit(doc); err != nil {
				return models.CheckIn{}, err
			}
			return ci, nil
		}
	}

	ci.ID = models.NewID()
	ci.CreatedAt = now
	doc.CheckIns = append(doc.CheckIns, copyCheckIn(ci))
	if err := s.commit(doc); err != nil {
		return models.CheckIn{}, err
	}
	return ci, nil
}

// DeleteCheckIn removes a check-in by id.
func (s *Store) DeleteCheckIn(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDocument(s.doc)
	checkIns := doc.CheckIns[:0]
	found := false
	for _, ci := range doc.CheckIns {
		if ci.ID == id {
			found = true
			continue
		}
		checkIns = append(checkIns, ci)
	}
	if !found {
		return ErrNotFound
	}
	doc.CheckIns = checkIns
	return s.commit(doc)
}

// Reset irreversibly deletes the persisted document and re-seeds defaults.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM documents WHERE key = ?", documentKey); err != nil {
		return fmt.Errorf("failed to reset document: %w", err)
	}
	return s.commit(defaultDocument())
}

// checkConditionRefs verifies every id references an existing condition.
// Callers must hold a lock.
func (s *Store) checkConditionRefs(ids []string) error {
	for _, id := range ids {
		ok := false
		for _, c := range s.doc.Conditions {
			if c.ID == id {
				ok = true
				break
			}
		}
		if !ok {
			return validationErrorf("unknown condition id %q", id)
		}
	}
	return nil
}

func copyDocument(doc models.Document) models.Document {
	out := doc
	out.Conditions = append([]models.Condition(nil), doc.Conditions...)
	out.Medications = make([]models.Medication, len(doc.Medications))
	for i, m := range doc.Medications {
		out.Medications[i] = copyMedication(m)
	}
	out.CheckIns = make([]models.CheckIn, len(doc.CheckIns))
	for i, ci := range doc.CheckIns {
		out.CheckIns[i] = copyCheckIn(ci)
	}
	return out
}

func copyMedication(m models.Medication) models.Medication {
	out := m
	out.ConditionIDs = append([]string(nil), m.ConditionIDs...)
	if m.MaxUsageDays != nil {
		v := *m.MaxUsageDays
		out.MaxUsageDays = &v
	}
	return out
}

func copyCheckIn(ci models.CheckIn) models.CheckIn {
	out := ci
	out.ConditionEntries = make([]models.ConditionEntry, len(ci.ConditionEntries))
	for i, e := range ci.ConditionEntries {
		e.Symptoms = append([]string(nil), e.Symptoms...)
		out.ConditionEntries[i] = e
	}
	out.MedicationEntries = append([]models.MedicationEntry(nil), ci.MedicationEntries...)
	return out
}
