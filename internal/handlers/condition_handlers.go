package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"flaretracker/internal/models"
	"flaretracker/internal/store"
)

// ConditionRequest is the request body for creating or updating a condition.
type ConditionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// HandleGetConditions returns the tracked conditions in list order.
func HandleGetConditions(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := st.Snapshot()
		if snapshot.Conditions == nil {
			snapshot.Conditions = []models.Condition{}
		}
		respondJSON(w, http.StatusOK, snapshot.Conditions)
	}
}

// HandleCreateCondition creates a new condition.
func HandleCreateCondition(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConditionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		color := req.Color
		if color == "" {
			color = "#6b7280"
		}

		condition, err := st.AddCondition(models.Condition{
			Name:        req.Name,
			Description: req.Description,
			Color:       color,
		})
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, condition)
	}
}

// HandleGetCondition returns a single condition by ID.
func HandleGetCondition(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condition, err := st.GetCondition(chi.URLParam(r, "id"))
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, condition)
	}
}

// HandleUpdateCondition replaces a condition by ID.
func HandleUpdateCondition(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existing, err := st.GetCondition(id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		var req ConditionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		color := req.Color
		if color == "" {
			color = existing.Color
		}

		updated := models.Condition{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Color:       color,
		}
		if err := st.UpdateCondition(updated); err != nil {
			respondStoreError(w, err)
			return
		}

		condition, err := st.GetCondition(id)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, condition)
	}
}

// HandleDeleteCondition deletes a condition; its id is stripped from every
// check-in entry and medication back-reference.
func HandleDeleteCondition(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteCondition(chi.URLParam(r, "id")); err != nil {
			respondStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
