// Package admin provides the REST API for managing endpoint declarations
// and uploaded assets.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/stubd/stubd/pkg/logging"
	"github.com/stubd/stubd/pkg/store"
)

// API exposes CRUD for endpoints and assets plus registry portability.
type API struct {
	endpoints store.EndpointStore
	assets    store.AssetStore
	apiKey    string
	version   string
	startTime time.Time
	log       *slog.Logger
}

// Config configures the admin API.
type Config struct {
	Endpoints store.EndpointStore
	Assets    store.AssetStore

	// APIKey guards all admin routes. Empty disables authentication
	// (development mode).
	APIKey string

	// Version is reported by the status endpoint.
	Version string

	// Logger for operational messages.
	Logger *slog.Logger
}

// New creates the admin API.
func New(cfg Config) *API {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &API{
		endpoints: cfg.Endpoints,
		assets:    cfg.Assets,
		apiKey:    cfg.APIKey,
		version:   cfg.Version,
		startTime: time.Now(),
		log:       log,
	}
}

// Routes returns the admin handler, authentication included.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/admin/endpoints", a.handleListEndpoints)
	mux.HandleFunc("POST /api/admin/endpoints", a.handleCreateEndpoint)
	mux.HandleFunc("GET /api/admin/endpoints/{id}", a.handleGetEndpoint)
	mux.HandleFunc("PUT /api/admin/endpoints/{id}", a.handleUpdateEndpoint)
	mux.HandleFunc("DELETE /api/admin/endpoints/{id}", a.handleDeleteEndpoint)
	mux.HandleFunc("POST /api/admin/endpoints/{id}/enable", a.handleSetEnabled(true))
	mux.HandleFunc("POST /api/admin/endpoints/{id}/disable", a.handleSetEnabled(false))

	mux.HandleFunc("GET /api/admin/assets", a.handleListAssets)
	mux.HandleFunc("POST /api/admin/assets", a.handleCreateAsset)
	mux.HandleFunc("GET /api/admin/assets/{id}", a.handleGetAsset)
	mux.HandleFunc("DELETE /api/admin/assets/{id}", a.handleDeleteAsset)

	mux.HandleFunc("GET /api/admin/export", a.handleExport)
	mux.HandleFunc("POST /api/admin/import", a.handleImport)
	mux.HandleFunc("GET /api/admin/status", a.handleStatus)

	return a.requireAuth(mux)
}

// handleStatus reports server uptime and registry counts.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	endpoints, err := a.endpoints.List(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "list endpoints")
		return
	}
	assets, err := a.assets.List(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "list assets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":       a.version,
		"uptimeSeconds": int(time.Since(a.startTime).Seconds()),
		"endpoints":     len(endpoints),
		"assets":        len(assets),
	})
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON error envelope shared by all admin handlers.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeAdminError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}
