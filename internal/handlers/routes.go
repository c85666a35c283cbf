package handlers

import "net/http"

// Handlers groups everything the router mounts
type Handlers struct {
	Middleware  *Middleware
	Auth        *AuthHandler
	Training    *TrainingHandler
	Progress    *ProgressHandler
	Preferences *PreferencesHandler
	Health      *HealthHandler
}

// NewRouter registers every API route and wraps the mux with request logging
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()
	m := h.Middleware

	mux.HandleFunc("GET /healthz", h.Health.Health)

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(h.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", m.RequireAuth(h.Auth.Logout))
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(h.Auth.Me))
	mux.HandleFunc("GET /api/auth/{provider}/start", h.Auth.StartOAuth)
	mux.HandleFunc("GET /api/auth/{provider}/callback", h.Auth.OAuthCallback)

	// Training routes
	mux.HandleFunc("POST /api/training/start", m.RequireAuth(h.Training.Start))
	mux.HandleFunc("GET /api/training", m.RequireAuth(h.Training.Get))
	mux.HandleFunc("PUT /api/training/answer", m.RequireAuth(h.Training.SetAnswer))
	mux.HandleFunc("POST /api/training/next", m.RequireAuth(h.Training.Next))
	mux.HandleFunc("POST /api/training/previous", m.RequireAuth(h.Training.Previous))
	mux.HandleFunc("POST /api/training/goto/{questionId}", m.RequireAuth(h.Training.GoTo))
	mux.HandleFunc("POST /api/training/save", m.RequireAuth(h.Training.Save))
	mux.HandleFunc("POST /api/training/acknowledge", m.RequireAuth(h.Training.Acknowledge))
	mux.HandleFunc("POST /api/training/abandon", m.RequireAuth(h.Training.Abandon))
	mux.HandleFunc("GET /api/training/catalog", m.RequireAuth(h.Training.Catalog))

	// Progress routes
	mux.HandleFunc("GET /api/progress/summary", m.RequireAuth(h.Progress.Summary))
	mux.HandleFunc("GET /api/progress/history", m.RequireAuth(h.Progress.History))
	mux.HandleFunc("GET /api/progress/report", m.RequireAuth(h.Progress.Report))

	// Notification preference routes
	mux.HandleFunc("GET /api/notifications/preferences", m.RequireAuth(h.Preferences.Get))
	mux.HandleFunc("PUT /api/notifications/preferences", m.RequireAuth(h.Preferences.Update))

	return Logging(mux)
}
