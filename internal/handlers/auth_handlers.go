package handlers

import (
	"net/http"
	"time"

	"flaretracker/internal/auth"
	"flaretracker/internal/logger"
	"flaretracker/internal/models"
	"flaretracker/internal/store"
)

// SetupRequest completes first-run setup for the single user.
type SetupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	User    *UserResponse `json:"user,omitempty"`
	Token   string        `json:"token,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Email     string                  `json:"email,omitempty"`
	Reminders models.ReminderSettings `json:"reminders"`
	CreatedAt string                  `json:"created_at"`
}

func userResponse(u models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Reminders: u.Reminders,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// HandleSetupStatus reports whether first-run setup is still pending.
func HandleSetupStatus(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"setup_required": st.FirstRun()})
	}
}

// HandleSetup creates the user's profile and password on first run.
func HandleSetup(st *store.Store, jwtManager *auth.JWTManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !st.FirstRun() {
			respondError(w, http.StatusConflict, "setup already completed")
			return
		}

		var req SetupRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "name is required")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}

		if err := st.SetupUser(req.Name, req.Email, hash); err != nil {
			respondStoreError(w, err)
			return
		}

		user := st.User()
		token, err := jwtManager.GenerateToken(user.ID, user.Name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "an error occurred")
			return
		}
		setAuthCookie(w, token, jwtManager.SessionDuration())

		logger.L().Infow("first-run setup completed", "user_id", user.ID)
		respondJSON(w, http.StatusCreated, AuthResponse{Success: true, User: userResponse(user), Token: token})
	}
}

// HandleLogin verifies the password and issues a session token.
func HandleLogin(st *store.Store, jwtManager *auth.JWTManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Password == "" {
			respondError(w, http.StatusBadRequest, "password is required")
			return
		}

		user := st.User()
		if user.PasswordHash == "" {
			respondError(w, http.StatusConflict, "setup required")
			return
		}

		if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
			logger.L().Warnw("failed login attempt")
			respondError(w, http.StatusUnauthorized, "invalid password")
			return
		}

		token, err := jwtManager.GenerateToken(user.ID, user.Name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "an error occurred")
			return
		}
		setAuthCookie(w, token, jwtManager.SessionDuration())

		respondJSON(w, http.StatusOK, AuthResponse{Success: true, User: userResponse(user), Token: token})
	}
}

// HandleLogout clears the session cookie.
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		respondJSON(w, http.StatusOK, AuthResponse{Success: true})
	}
}

// HandleGetCurrentUser returns the authenticated user's profile.
func HandleGetCurrentUser(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, userResponse(st.User()))
	}
}

// HandleRefreshToken extends the session.
func HandleRefreshToken(jwtManager *auth.JWTManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("auth_token")
		if err != nil {
			respondError(w, http.StatusUnauthorized, "no session")
			return
		}

		token, err := jwtManager.RefreshToken(cookie.Value)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid session")
			return
		}
		setAuthCookie(w, token, jwtManager.SessionDuration())

		respondJSON(w, http.StatusOK, AuthResponse{Success: true, Token: token})
	}
}

func setAuthCookie(w http.ResponseWriter, token string, duration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
