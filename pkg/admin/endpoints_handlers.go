package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stubd/stubd/internal/id"
	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store"
)

func (a *API) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := a.endpoints.List(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "list endpoints")
		return
	}
	writeJSON(w, http.StatusOK, endpoints)
}

func (a *API) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	e, err := a.endpoints.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeStoreError(w, err, "get endpoint")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var e endpoint.Endpoint
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "invalid JSON in request body")
		return
	}
	if e.ID == "" {
		e.ID = id.New()
	}
	if err := endpoint.Validate(&e); err != nil {
		writeAdminError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if rerr := a.checkRouteConflict(w, r, &e); rerr {
		return
	}
	if err := a.endpoints.Create(r.Context(), &e); err != nil {
		a.writeStoreError(w, err, "create endpoint")
		return
	}
	writeJSON(w, http.StatusCreated, &e)
}

func (a *API) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	var e endpoint.Endpoint
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "invalid JSON in request body")
		return
	}
	e.ID = r.PathValue("id")
	if err := endpoint.Validate(&e); err != nil {
		writeAdminError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if rerr := a.checkRouteConflict(w, r, &e); rerr {
		return
	}
	if err := a.endpoints.Update(r.Context(), &e); err != nil {
		a.writeStoreError(w, err, "update endpoint")
		return
	}
	writeJSON(w, http.StatusOK, &e)
}

func (a *API) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := a.endpoints.Delete(r.Context(), r.PathValue("id")); err != nil {
		a.writeStoreError(w, err, "delete endpoint")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetEnabled toggles an endpoint's enabled flag.
func (a *API) handleSetEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := a.endpoints.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			a.writeStoreError(w, err, "get endpoint")
			return
		}
		updated := *e
		updated.Enabled = &enabled
		if err := a.endpoints.Update(r.Context(), &updated); err != nil {
			a.writeStoreError(w, err, "update endpoint")
			return
		}
		writeJSON(w, http.StatusOK, &updated)
	}
}

// checkRouteConflict rejects declarations that would duplicate an enabled
// path+method pair. Matching is first-match-wins, so the duplicate would
// be permanently unreachable. Returns true when a response was written.
func (a *API) checkRouteConflict(w http.ResponseWriter, r *http.Request, e *endpoint.Endpoint) bool {
	if !e.IsEnabled() {
		return false
	}
	existing, err := a.endpoints.List(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "list endpoints")
		return true
	}
	if other := endpoint.RouteConflict(e, existing); other != nil {
		writeAdminError(w, http.StatusConflict, "route_conflict",
			fmt.Sprintf("endpoint %s already answers %s %s", other.ID, other.Method, other.Path))
		return true
	}
	return false
}

// writeStoreError maps store errors to responses, logging the full error
// server-side and returning only generic messages to the client.
func (a *API) writeStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeAdminError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, store.ErrAlreadyExists):
		writeAdminError(w, http.StatusConflict, "conflict", "resource already exists")
	case errors.Is(err, store.ErrReadOnly):
		writeAdminError(w, http.StatusForbidden, "read_only", "registry is read-only")
	default:
		a.log.Error("admin operation failed", "operation", operation, "error", err)
		writeAdminError(w, http.StatusInternalServerError, "internal_error", "operation failed")
	}
}
