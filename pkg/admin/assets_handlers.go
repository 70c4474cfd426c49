package admin

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/stubd/stubd/internal/id"
	"github.com/stubd/stubd/pkg/endpoint"
)

// assetUpload is the JSON upload format: metadata plus inline payload.
type assetUpload struct {
	FileName string `json:"fileName"`
	Base64   string `json:"base64"`
}

func (a *API) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := a.assets.List(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "list assets")
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (a *API) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := a.assets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeStoreError(w, err, "get asset")
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (a *API) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var upload assetUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "invalid JSON in request body")
		return
	}
	if upload.FileName == "" {
		writeAdminError(w, http.StatusBadRequest, "validation_failed", "fileName is required")
		return
	}
	data, err := base64.StdEncoding.DecodeString(upload.Base64)
	if err != nil {
		writeAdminError(w, http.StatusBadRequest, "validation_failed", "base64 payload is malformed")
		return
	}

	asset := &endpoint.Asset{
		ID:        id.New(),
		FileName:  filepath.Base(upload.FileName),
		Extension: filepath.Ext(upload.FileName),
	}
	if err := a.assets.Create(r.Context(), asset, data); err != nil {
		a.writeStoreError(w, err, "create asset")
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (a *API) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := a.assets.Delete(r.Context(), r.PathValue("id")); err != nil {
		a.writeStoreError(w, err, "delete asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
