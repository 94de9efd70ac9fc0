package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted behind the
// token gate. Every route here is authenticated; unauthenticated health
// probes live on the outer router. events may be nil when no push channel
// is wired.
func NewRouter(gate TokenVerifier, h *Handler, events http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(Auth(gate))

	// Aggregated status, polled by the client every ~20s.
	r.Get("/status", h.Status)

	// Token check used by the login screen.
	r.Post("/auth", h.Auth)

	// Heartbeat blob.
	r.Post("/heartbeat/update", h.HeartbeatUpdate)

	// Workspace browsing.
	r.Get("/files/tree", h.FilesTree)
	r.Get("/files/read", h.FilesRead)
	r.Get("/projects", h.Projects)

	// Workspace export.
	r.Get("/backup", h.Backup)

	// Translation pass-through.
	r.Post("/translate", h.Translate)

	// Change-hint push channel.
	if events != nil {
		r.Method(http.MethodGet, "/events", events)
	}

	return r
}
