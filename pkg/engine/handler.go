// Core HTTP request handler: the declaration-to-response pipeline.

package engine

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stubd/stubd/internal/registry"
	"github.com/stubd/stubd/pkg/condition"
	"github.com/stubd/stubd/pkg/logging"
	"github.com/stubd/stubd/pkg/store"
	"github.com/stubd/stubd/pkg/template"
)

// MaxRequestBodySize bounds request bodies to prevent denial-of-service
// via oversized payloads (10MB).
const MaxRequestBodySize = 10 << 20

// Handler serves live traffic against the current registry snapshot.
// Each request walks the pipeline: match, authorize, extract parameters,
// select a rule, render, dispatch. Every stage may short-circuit with a
// terminal error; no state survives the request.
type Handler struct {
	registry   *registry.Registry
	dispatcher *Dispatcher
	tmpl       *template.Engine
	log        *slog.Logger
}

// NewHandler creates a Handler over a registry snapshot source and an
// asset resolver.
func NewHandler(reg *registry.Registry, assets store.AssetResolver) *Handler {
	tmpl := template.New()
	return &Handler{
		registry:   reg,
		dispatcher: NewDispatcher(assets, tmpl, logging.Nop()),
		tmpl:       tmpl,
		log:        logging.Nop(),
	}
}

// SetLogger sets the operational logger.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	h.log = log
	h.dispatcher.log = log
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, &RequestError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    "body_too_large",
			Message: "request body exceeds maximum allowed size",
		})
		return
	}

	snap := h.registry.Current()
	matched := MatchEndpoint(snap.Endpoints, r.Method, r.URL.Path)
	if matched == nil {
		h.finish(w, r, start, "", NotFound("no_match", "no endpoint matched the request"))
		return
	}

	if rerr := Authorize(matched, r); rerr != nil {
		h.finish(w, r, start, matched.ID, rerr)
		return
	}

	view := ExtractParams(r, parseBodyObject(bodyBytes), matched.Source())
	if rerr := view.ValidateRequired(matched.Parameters); rerr != nil {
		h.finish(w, r, start, matched.ID, rerr)
		return
	}

	env := condition.Env{
		Query:   view.Query(),
		Headers: view.Headers(),
		Body:    view.Body(),
		Params:  view.Values(),
	}
	rule := SelectRule(matched, env, h.log)
	if rule == nil {
		h.finish(w, r, start, matched.ID, Internal("endpoint has no response rule configured"))
		return
	}

	tctx := template.NewContext(r, bodyBytes, view.Values())
	if rerr := h.dispatcher.Write(w, r, matched, rule, tctx); rerr != nil {
		h.finish(w, r, start, matched.ID, rerr)
		return
	}
	h.finish(w, r, start, matched.ID, nil)
}

// finish logs the request, writing the error response first if any.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, start time.Time, endpointID string, rerr *RequestError) {
	status := http.StatusOK
	if rerr != nil {
		writeError(w, rerr)
		status = rerr.Status
	}
	h.log.Debug("request served",
		"method", r.Method,
		"path", r.URL.Path,
		"endpoint_id", endpointID,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// parseBodyObject parses the request body as a JSON object. Non-object
// or unparseable bodies yield nil; the extractor substitutes an empty
// view.
func parseBodyObject(bodyBytes []byte) map[string]any {
	if len(bodyBytes) == 0 {
		return nil
	}
	var body map[string]any
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil
	}
	return body
}
