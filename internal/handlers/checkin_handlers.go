package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"flaretracker/internal/dates"
	"flaretracker/internal/models"
	"flaretracker/internal/store"
	"flaretracker/internal/wizard"
)

// CheckInRequest is the full draft the wizard submits for one calendar day.
type CheckInRequest struct {
	Date              string                   `json:"date"` // YYYY-MM-DD
	ConditionEntries  []ConditionEntryRequest  `json:"condition_entries"`
	MedicationEntries []MedicationEntryRequest `json:"medication_entries"`
	Factors           models.Factors           `json:"factors"`
	Notes             string                   `json:"notes,omitempty"`
}

type ConditionEntryRequest struct {
	ConditionID string   `json:"condition_id"`
	Severity    int      `json:"severity"`
	Symptoms    []string `json:"symptoms,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type MedicationEntryRequest struct {
	MedicationID  string `json:"medication_id"`
	Taken         bool   `json:"taken"`
	TimesTaken    int    `json:"times_taken,omitempty"`
	SkippedReason string `json:"skipped_reason,omitempty"`
}

// WizardDraftResponse carries the wizard's step sequence and the draft for
// a selected date, padded with default entries for conditions and
// medications added since the day was originally recorded.
type WizardDraftResponse struct {
	Date   string         `json:"date"`
	Steps  []wizard.Step  `json:"steps"`
	Exists bool           `json:"exists"`
	Draft  models.CheckIn `json:"draft"`
}

// HandleGetCheckIns returns check-ins, newest first, optionally limited to
// a date range.
func HandleGetCheckIns(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := st.Snapshot()
		checkIns := snapshot.CheckIns

		if startParam := r.URL.Query().Get("start_date"); startParam != "" {
			endParam := r.URL.Query().Get("end_date")
			start, err1 := dates.ParseDay(startParam)
			end, err2 := dates.ParseDay(endParam)
			if err1 != nil || err2 != nil {
				respondError(w, http.StatusBadRequest, "invalid date range, use YYYY-MM-DD")
				return
			}
			filtered := []models.CheckIn{}
			for _, ci := range checkIns {
				if !ci.Date.Before(start) && !ci.Date.After(end) {
					filtered = append(filtered, ci)
				}
			}
			checkIns = filtered
		}
		if checkIns == nil {
			checkIns = []models.CheckIn{}
		}

		sort.Slice(checkIns, func(i, j int) bool {
			return checkIns[i].Date.After(checkIns[j].Date)
		})
		respondJSON(w, http.StatusOK, checkIns)
	}
}

// HandleGetCheckInByDate returns the check-in for a calendar day.
func HandleGetCheckInByDate(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := dates.ParseDay(chi.URLParam(r, "date"))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		checkIn, err := st.CheckInForDay(day)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, checkIn)
	}
}

// HandleGetWizardDraft initializes (or reloads) the check-in wizard for a
// date. Reopening a recorded day preserves its entries and pads defaults
// for anything added since.
func HandleGetWizardDraft(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateParam := r.URL.Query().Get("date")
		if dateParam == "" {
			dateParam = dates.DayKey(dates.Today())
		}
		day, err := dates.ParseDay(dateParam)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		snapshot := st.Snapshot()
		var existing *models.CheckIn
		if ci, err := st.CheckInForDay(day); err == nil {
			existing = &ci
		}

		wz := wizard.New(snapshot.Conditions, snapshot.Medications, existing, day)
		respondJSON(w, http.StatusOK, WizardDraftResponse{
			Date:   dates.DayKey(day),
			Steps:  wz.Steps(),
			Exists: existing != nil,
			Draft:  wz.Draft(),
		})
	}
}

// HandlePutCheckIn submits a day's check-in through the wizard: the draft
// is validated as a whole (every condition rated), then either created or
// replaced in full. Rejected submissions persist nothing.
func HandlePutCheckIn(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckInRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		day, err := dates.ParseDay(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		snapshot := st.Snapshot()
		var existing *models.CheckIn
		if ci, err := st.CheckInForDay(day); err == nil {
			existing = &ci
		}

		wz := wizard.New(snapshot.Conditions, snapshot.Medications, existing, day)

		for _, e := range req.ConditionEntries {
			if err := wz.SetSeverity(e.ConditionID, e.Severity); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			if err := wz.SetSymptoms(e.ConditionID, e.Symptoms); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			if err := wz.SetConditionNotes(e.ConditionID, e.Notes); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		for _, e := range req.MedicationEntries {
			if err := wz.SetMedication(e.MedicationID, e.Taken, e.TimesTaken, e.SkippedReason); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		if err := wz.SetFactors(req.Factors); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		wz.SetNotes(req.Notes)

		draft, err := wz.Submit()
		if err != nil {
			var serr *wizard.SubmitError
			if errors.As(err, &serr) {
				respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
					"error":              "validation failed",
					"message":            "every condition must be rated before submitting",
					"unrated_conditions": serr.UnratedConditions,
				})
				return
			}
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		saved, err := st.PutCheckIn(draft)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		status := http.StatusCreated
		if existing != nil {
			status = http.StatusOK
		}
		respondJSON(w, status, saved)
	}
}

// HandleDeleteCheckIn removes a check-in by id.
func HandleDeleteCheckIn(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteCheckIn(chi.URLParam(r, "id")); err != nil {
			respondStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
