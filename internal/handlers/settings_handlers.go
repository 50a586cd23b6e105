package handlers

import (
	"net/http"
	"time"

	"flaretracker/internal/auth"
	"flaretracker/internal/logger"
	"flaretracker/internal/models"
	"flaretracker/internal/store"
)

// ProfileRequest updates the user's display name and email.
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// RemindersRequest updates the daily check-in reminder settings.
type RemindersRequest struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"` // HH:MM
}

// ChangePasswordRequest changes the account password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ResetRequest confirms the irreversible data reset.
type ResetRequest struct {
	Confirm string `json:"confirm"`
}

// HandleUpdateProfile updates the user's name and email.
func HandleUpdateProfile(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "name is required")
			return
		}

		if err := st.UpdateProfile(req.Name, req.Email); err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, userResponse(st.User()))
	}
}

// HandleGetReminders returns the reminder settings.
func HandleGetReminders(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, st.User().Reminders)
	}
}

// HandleUpdateReminders updates the reminder settings. The time must be
// a 24-hour HH:MM value.
func HandleUpdateReminders(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RemindersRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Time == "" {
			req.Time = st.User().Reminders.Time
		}
		if _, err := time.Parse("15:04", req.Time); err != nil {
			respondError(w, http.StatusBadRequest, "time must be HH:MM")
			return
		}

		settings := models.ReminderSettings{Enabled: req.Enabled, Time: req.Time}
		if err := st.UpdateReminders(settings); err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, settings)
	}
}

// HandleChangePassword verifies the current password before replacing it.
func HandleChangePassword(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChangePasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user := st.User()
		if err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword); err != nil {
			respondError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}

		if err := st.SetPasswordHash(hash); err != nil {
			respondStoreError(w, err)
			return
		}

		logger.L().Infow("password changed", "user_id", user.ID)
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// HandleReset deletes the persisted document and re-seeds an empty one.
// The deletion is irreversible, so the request must carry the literal
// confirmation string.
func HandleReset(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Confirm != "DELETE" {
			respondError(w, http.StatusBadRequest, `reset requires confirm: "DELETE"`)
			return
		}

		if err := st.Reset(); err != nil {
			respondStoreError(w, err)
			return
		}

		logger.L().Warnw("all data reset")
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
