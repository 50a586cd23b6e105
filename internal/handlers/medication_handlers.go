package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"flaretracker/internal/models"
	"flaretracker/internal/services"
	"flaretracker/internal/store"
)

// MedicationRequest is the request body for creating or updating a
// medication.
type MedicationRequest struct {
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage,omitempty"`
	Frequency    string   `json:"frequency"`
	IsActive     *bool    `json:"is_active,omitempty"`
	ConditionIDs []string `json:"condition_ids"`
	MaxUsageDays *int     `json:"max_usage_days,omitempty"`
}

var validFrequencies = map[string]bool{
	models.FrequencyOnceDaily:       true,
	models.FrequencyTwiceDaily:      true,
	models.FrequencyThreeTimesDaily: true,
	models.FrequencyOnceWeekly:      true,
	models.FrequencyAsRequired:      true,
}

func (req *MedicationRequest) validate(w http.ResponseWriter) bool {
	if req.Frequency == "" {
		req.Frequency = models.FrequencyOnceDaily
	}
	if !validFrequencies[req.Frequency] {
		respondError(w, http.StatusBadRequest, "invalid frequency")
		return false
	}
	if req.MaxUsageDays != nil && *req.MaxUsageDays < 1 {
		respondError(w, http.StatusBadRequest, "max_usage_days must be at least 1")
		return false
	}
	return true
}

// HandleGetMedications returns a list of medications
func HandleGetMedications(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := st.Snapshot()

		medications := snapshot.Medications
		if r.URL.Query().Get("filter") == "active" {
			active := []models.Medication{}
			for _, m := range medications {
				if m.IsActive {
					active = append(active, m)
				}
			}
			medications = active
		}
		if medications == nil {
			medications = []models.Medication{}
		}

		respondJSON(w, http.StatusOK, medications)
	}
}

// HandleCreateMedication creates a new medication
func HandleCreateMedication(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MedicationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !req.validate(w) {
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		medication, err := st.AddMedication(models.Medication{
			Name:         req.Name,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			IsActive:     isActive,
			ConditionIDs: req.ConditionIDs,
			MaxUsageDays: req.MaxUsageDays,
		})
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, medication)
	}
}

// HandleGetMedication returns a single medication by ID
func HandleGetMedication(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medication, err := st.GetMedication(chi.URLParam(r, "id"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, medication)
	}
}

// HandleUpdateMedication replaces a medication by ID.
func HandleUpdateMedication(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existing, err := st.GetMedication(id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		var req MedicationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !req.validate(w) {
			return
		}

		isActive := existing.IsActive
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		updated := models.Medication{
			ID:           id,
			Name:         req.Name,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			IsActive:     isActive,
			ConditionIDs: req.ConditionIDs,
			MaxUsageDays: req.MaxUsageDays,
		}
		if err := st.UpdateMedication(updated); err != nil {
			respondStoreError(w, err)
			return
		}

		medication, err := st.GetMedication(id)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, medication)
	}
}

// HandleDeleteMedication deletes a medication and its entries from every
// check-in.
func HandleDeleteMedication(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteMedication(chi.URLParam(r, "id")); err != nil {
			respondStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetAdherence returns per-medication adherence summaries over a
// lookback window (default 30 days).
func HandleGetAdherence(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := services.DefaultLookbackDays
		if daysParam := r.URL.Query().Get("days"); daysParam != "" {
			if d, err := strconv.Atoi(daysParam); err == nil && d > 0 {
				days = d
			}
		}

		snapshot := st.Snapshot()
		summaries := services.BuildAdherenceSummaries(snapshot.Medications, snapshot.CheckIns, time.Now(), days)
		respondJSON(w, http.StatusOK, summaries)
	}
}
