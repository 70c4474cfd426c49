package engine

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store"
	"github.com/stubd/stubd/pkg/template"
)

// Dispatcher serializes a selected, rendered response rule according to
// the endpoint's declared response type.
type Dispatcher struct {
	assets store.AssetResolver
	tmpl   *template.Engine
	log    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(assets store.AssetResolver, tmpl *template.Engine, log *slog.Logger) *Dispatcher {
	return &Dispatcher{assets: assets, tmpl: tmpl, log: log}
}

// Write renders the rule payload and emits the response. A returned
// RequestError means nothing was written yet.
func (d *Dispatcher) Write(w http.ResponseWriter, r *http.Request, e *endpoint.Endpoint, rule *endpoint.ResponseRule, tctx *template.Context) *RequestError {
	switch e.ResponseType {
	case endpoint.TypeJSON:
		return d.writeJSON(w, rule, tctx)
	case endpoint.TypeText:
		return d.writeText(w, rule, tctx)
	case endpoint.TypeBinary, endpoint.TypeImage:
		return d.writeBinary(w, rule)
	case endpoint.TypeRedirect:
		target := d.tmpl.Process(rule.RedirectURL, tctx)
		if target == "" {
			target = "/"
		}
		http.Redirect(w, r, target, http.StatusFound)
		return nil
	default:
		return d.writeRaw(w, rule)
	}
}

func (d *Dispatcher) writeJSON(w http.ResponseWriter, rule *endpoint.ResponseRule, tctx *template.Context) *RequestError {
	rendered := d.tmpl.Render(rule.Data, tctx)
	raw, err := json.Marshal(rendered)
	if err != nil {
		return Internal("response payload is not serializable")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
	return nil
}

func (d *Dispatcher) writeText(w http.ResponseWriter, rule *endpoint.ResponseRule, tctx *template.Context) *RequestError {
	body := d.tmpl.Process(rule.Text, tctx)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
	return nil
}

// writeBinary resolves payload bytes from, in priority order: an asset
// path below the asset root, an asset id, or inline base64 bytes.
func (d *Dispatcher) writeBinary(w http.ResponseWriter, rule *endpoint.ResponseRule) *RequestError {
	var data []byte
	var asset *endpoint.Asset

	switch {
	case rule.AssetPath != "":
		bytes, err := d.assets.ResolveByPath(rule.AssetPath)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NotFound("asset_not_found", fmt.Sprintf("asset %q not found", rule.AssetPath))
			}
			d.log.Error("asset read failed", "path", rule.AssetPath, "error", err)
			return Internal("failed to read asset")
		}
		data = bytes

	case rule.AssetID != "":
		bytes, meta, err := d.assets.ResolveByID(rule.AssetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NotFound("asset_not_found", fmt.Sprintf("asset %q not found", rule.AssetID))
			}
			d.log.Error("asset read failed", "id", rule.AssetID, "error", err)
			return Internal("failed to read asset")
		}
		data = bytes
		asset = meta

	case rule.Base64 != "":
		bytes, err := base64.StdEncoding.DecodeString(rule.Base64)
		if err != nil {
			return Internal("invalid base64 response payload")
		}
		data = bytes

	default:
		return Internal("binary response not configured")
	}

	w.Header().Set("Content-Type", binaryContentType(rule, asset))
	fileName := rule.FileName
	if fileName == "" && asset != nil {
		fileName = asset.FileName
	}
	if fileName != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}

// writeRaw emits the unrendered payload for unknown response types.
func (d *Dispatcher) writeRaw(w http.ResponseWriter, rule *endpoint.ResponseRule) *RequestError {
	if rule.Data != nil {
		raw, err := json.Marshal(rule.Data)
		if err != nil {
			return Internal("response payload is not serializable")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
		return nil
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rule.Text))
	return nil
}

// binaryContentType picks the response content type: the rule's declared
// type, a type inferred from the file extension, or octet-stream.
func binaryContentType(rule *endpoint.ResponseRule, asset *endpoint.Asset) string {
	if rule.ContentType != "" {
		return rule.ContentType
	}
	ext := ""
	switch {
	case rule.FileName != "":
		ext = filepath.Ext(rule.FileName)
	case asset != nil && asset.Extension != "":
		ext = asset.Extension
	case rule.AssetPath != "":
		ext = filepath.Ext(rule.AssetPath)
	}
	if ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}
