// Package api exposes the per-session UI state over JSON and WebSocket.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ziadkadry99/csvstats/internal/records"
	"github.com/ziadkadry99/csvstats/internal/routes"
	"github.com/ziadkadry99/csvstats/internal/state"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxUpload = 32 << 20

	defaultRecordLimit = 100
	maxRecordLimit     = 1000
)

// Options configures the API.
type Options struct {
	Registry       *state.Registry
	Router         *routes.Router  // client route table; routes.Default() when nil
	Parse          records.Options // how uploaded files are parsed
	MaxUploadBytes int64
	Timeout        time.Duration // per-request timeout for JSON endpoints
}

// API serves the state store of each browser session.
type API struct {
	registry  *state.Registry
	router    *routes.Router
	parse     records.Options
	maxUpload int64
	timeout   time.Duration
}

// New creates an API.
func New(opts Options) *API {
	a := &API{
		registry:  opts.Registry,
		router:    opts.Router,
		parse:     opts.Parse,
		maxUpload: opts.MaxUploadBytes,
		timeout:   opts.Timeout,
	}
	if a.router == nil {
		a.router = routes.Default()
	}
	if a.maxUpload <= 0 {
		a.maxUpload = defaultMaxUpload
	}
	if a.timeout <= 0 {
		a.timeout = defaultTimeout
	}
	return a
}

// RegisterRoutes mounts all API routes onto the given router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(a.timeout))
		r.Use(a.session)

		r.Get("/api/state", a.handleGetState)
		r.Delete("/api/state", a.handleResetState)

		r.Post("/api/file", a.handleUpload)
		r.Get("/api/file", a.handleGetFile)
		r.Delete("/api/file", a.handleDeleteFile)

		r.Get("/api/filters", a.handleGetFilters)
		r.Put("/api/filters", a.handlePutFilters)
		r.Patch("/api/filters", a.handlePatchFilters)
		r.Delete("/api/filters", a.handleClearFilters)

		r.Get("/api/records", a.handleRecords)
		r.Get("/api/statistics", a.handleStatistics)
		r.Get("/api/calendar", a.handleCalendar)

		r.Put("/api/spinner", a.handleSpinner)

		r.Get("/api/routes", a.handleRoutes)
		r.Get("/api/navigate", a.handleNavigate)
	})

	// No timeout: the connection lives as long as the page.
	r.With(a.session).Get("/ws/state", a.handleStateSocket)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
