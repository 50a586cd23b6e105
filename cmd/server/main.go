package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"flaretracker/internal/auth"
	"flaretracker/internal/config"
	"flaretracker/internal/database"
	"flaretracker/internal/handlers"
	"flaretracker/internal/logger"
	"flaretracker/internal/middleware"
	"flaretracker/internal/store"
)

func main() {
	// Load environment variables; a missing .env is fine in production
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return
	}

	logger.Init(cfg.Development())
	defer logger.Sync()

	db, err := database.Open(cfg.Storage.Path)
	if err != nil {
		logger.L().Fatalw("failed to open database", "path", cfg.Storage.Path, "error", err)
	}
	defer db.Close()

	st, err := store.Open(db)
	if err != nil {
		logger.L().Fatalw("failed to load document store", "error", err)
	}

	// Security components
	jwtManager := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionDuration)
	csrfProtection := middleware.NewCSRFProtection(cfg.Security.CSRFSecret)
	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow)
	loginRateLimiter := middleware.NewRateLimiter(cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders(cfg.Security.CSPEnabled, cfg.Security.HSTSEnabled))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/api/setup/status", handlers.HandleSetupStatus(st))
		r.Post("/api/setup", handlers.HandleSetup(st, jwtManager))

		r.Route("/api/auth", func(r chi.Router) {
			r.With(loginRateLimiter.Middleware).Post("/login", handlers.HandleLogin(st, jwtManager))
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(rateLimiter.Middleware)
		r.Use(csrfProtection.Middleware)

		r.Route("/api", func(r chi.Router) {
			r.Get("/csrf-token", handleGetCSRFToken(csrfProtection))

			r.Get("/auth/me", handlers.HandleGetCurrentUser(st))
			r.Post("/auth/logout", handlers.HandleLogout())
			r.Post("/auth/refresh", handlers.HandleRefreshToken(jwtManager))

			r.Route("/conditions", func(r chi.Router) {
				r.Get("/", handlers.HandleGetConditions(st))
				r.Post("/", handlers.HandleCreateCondition(st))
				r.Get("/{id}", handlers.HandleGetCondition(st))
				r.Put("/{id}", handlers.HandleUpdateCondition(st))
				r.Delete("/{id}", handlers.HandleDeleteCondition(st))
			})

			r.Route("/medications", func(r chi.Router) {
				r.Get("/", handlers.HandleGetMedications(st))
				r.Post("/", handlers.HandleCreateMedication(st))
				r.Get("/adherence", handlers.HandleGetAdherence(st))
				r.Get("/alerts", handlers.HandleGetAlerts(st))
				r.Get("/{id}", handlers.HandleGetMedication(st))
				r.Put("/{id}", handlers.HandleUpdateMedication(st))
				r.Delete("/{id}", handlers.HandleDeleteMedication(st))
			})

			r.Route("/checkins", func(r chi.Router) {
				r.Get("/", handlers.HandleGetCheckIns(st))
				r.Put("/", handlers.HandlePutCheckIn(st))
				r.Get("/wizard", handlers.HandleGetWizardDraft(st))
				r.Get("/date/{date}", handlers.HandleGetCheckInByDate(st))
				r.Delete("/{id}", handlers.HandleDeleteCheckIn(st))
			})

			r.Route("/trends", func(r chi.Router) {
				r.Get("/conditions", handlers.HandleGetConditionTrends(st))
				r.Get("/factors", handlers.HandleGetFactorTrends(st))
				r.Get("/stats", handlers.HandleGetConditionStats(st))
			})

			r.Get("/export/json", handlers.HandleExportJSON(st))
			r.Get("/export/csv", handlers.HandleExportCSV(st))
			r.Get("/export/pdf", handlers.HandleExportPDF(st))

			r.Route("/settings", func(r chi.Router) {
				r.Get("/reminders", handlers.HandleGetReminders(st))
				r.Put("/reminders", handlers.HandleUpdateReminders(st))
				r.Post("/profile", handlers.HandleUpdateProfile(st))
				r.Post("/password", handlers.HandleChangePassword(st))
				r.Post("/reset", handlers.HandleReset(st))
			})
		})
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.L().Infow("server starting", "addr", addr, "environment", cfg.Server.Environment)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.L().Fatalw("server failed", "error", err)
	}
}

// handleGetCSRFToken returns a new one-time CSRF token
func handleGetCSRFToken(csrf *middleware.CSRFProtection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := csrf.GenerateToken()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"csrf_token":"%s"}`, token)
	}
}
