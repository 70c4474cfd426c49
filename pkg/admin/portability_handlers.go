package admin

import (
	"encoding/json"
	"net/http"

	"github.com/stubd/stubd/pkg/portability"
)

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := portability.Export(r.Context(), a.endpoints, a.assets)
	if err != nil {
		a.log.Error("export failed", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "internal_error", "export failed")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleImport applies an exported document. ?mode=merge keeps existing
// entries; the default replaces the registry with the document.
func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc portability.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "invalid JSON in request body")
		return
	}
	replace := r.URL.Query().Get("mode") != "merge"
	if err := portability.Import(r.Context(), &doc, a.endpoints, a.assets, replace); err != nil {
		a.log.Error("import failed", "error", err)
		writeAdminError(w, http.StatusBadRequest, "import_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"endpoints": len(doc.Endpoints),
		"assets":    len(doc.Assets),
	})
}
