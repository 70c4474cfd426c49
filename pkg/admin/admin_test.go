package admin

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/portability"
	"github.com/stubd/stubd/pkg/store/file"
)

func newTestAPI(t *testing.T, apiKey string) (*API, *file.FileStore) {
	t.Helper()
	fs, err := file.New(file.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })

	api := New(Config{
		Endpoints: fs.Endpoints(),
		Assets:    fs.Assets(),
		APIKey:    apiKey,
		Version:   "test",
	})
	return api, fs
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validDeclaration(path string) map[string]any {
	return map[string]any{
		"path":         path,
		"method":       "GET",
		"responseType": "json",
		"responses":    []map[string]any{{"data": map[string]any{"ok": true}}},
	}
}

func TestEndpointCRUD(t *testing.T) {
	api, _ := newTestAPI(t, "")
	h := api.Routes()

	// Create.
	rec := doJSON(t, h, http.MethodPost, "/api/admin/endpoints", validDeclaration("/orders"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created endpoint.Endpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	// List.
	rec = doJSON(t, h, http.MethodGet, "/api/admin/endpoints", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []endpoint.Endpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	// Get.
	rec = doJSON(t, h, http.MethodGet, "/api/admin/endpoints/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Update.
	update := validDeclaration("/orders/v2")
	rec = doJSON(t, h, http.MethodPut, "/api/admin/endpoints/"+created.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated endpoint.Endpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "/orders/v2", updated.Path)

	// Delete.
	rec = doJSON(t, h, http.MethodDelete, "/api/admin/endpoints/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/admin/endpoints/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEndpointValidation(t *testing.T) {
	api, _ := newTestAPI(t, "")
	h := api.Routes()

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		code    string
		message string
	}{
		{
			name:    "reserved path",
			mutate:  func(d map[string]any) { d["path"] = "/admin/hooks" },
			code:    "validation_failed",
			message: "reserved",
		},
		{
			name:    "missing responses",
			mutate:  func(d map[string]any) { d["responses"] = []map[string]any{} },
			code:    "validation_failed",
			message: "at least one response",
		},
		{
			name:    "protected without token",
			mutate:  func(d map[string]any) { d["protected"] = true },
			code:    "validation_failed",
			message: "token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := validDeclaration("/v")
			tt.mutate(decl)
			rec := doJSON(t, h, http.MethodPost, "/api/admin/endpoints", decl)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
			assert.Contains(t, body.Message, tt.message)
		})
	}

	rec := doJSON(t, h, http.MethodPost, "/api/admin/endpoints", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEndpointRouteConflict(t *testing.T) {
	api, _ := newTestAPI(t, "")
	h := api.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/admin/endpoints", validDeclaration("/dup"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/admin/endpoints", validDeclaration("/dup"))
	require.Equal(t, http.StatusConflict, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "route_conflict", body.Error)

	// A different method on the same path is fine.
	decl := validDeclaration("/dup")
	decl["method"] = "POST"
	rec = doJSON(t, h, http.MethodPost, "/api/admin/endpoints", decl)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestEnableDisable(t *testing.T) {
	api, _ := newTestAPI(t, "")
	h := api.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/admin/endpoints", validDeclaration("/toggle"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created endpoint.Endpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/admin/endpoints/%s/disable", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled endpoint.Endpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.False(t, toggled.IsEnabled())

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/admin/endpoints/%s/enable", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.True(t, toggled.IsEnabled())
}

func TestAssetLifecycle(t *testing.T) {
	api, fs := newTestAPI(t, "")
	h := api.Routes()

	payload := []byte("fake image bytes")
	rec := doJSON(t, h, http.MethodPost, "/api/admin/assets", assetUpload{
		FileName: "logo.png",
		Base64:   base64.StdEncoding.EncodeToString(payload),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var asset endpoint.Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asset))
	assert.Equal(t, "logo.png", asset.FileName)
	assert.Equal(t, ".png", asset.Extension)

	data, _, err := fs.Assets().ResolveByID(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	rec = doJSON(t, h, http.MethodGet, "/api/admin/assets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/admin/assets/"+asset.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, _, err = fs.Assets().ResolveByID(asset.ID)
	require.Error(t, err)
}

func TestAssetUploadValidation(t *testing.T) {
	api, _ := newTestAPI(t, "")
	h := api.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/admin/assets", assetUpload{Base64: "aGk="})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/admin/assets", assetUpload{FileName: "x.png", Base64: "not-base64!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportImport(t *testing.T) {
	api, _ := newTestAPI(t, "")
	h := api.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/admin/endpoints", validDeclaration("/a"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/admin/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc portability.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Endpoints, 1)

	// Replace a fresh registry with the exported document.
	other, _ := newTestAPI(t, "")
	oh := other.Routes()
	rec = doJSON(t, oh, http.MethodPost, "/api/admin/endpoints", validDeclaration("/stale"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, oh, http.MethodPost, "/api/admin/import", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, oh, http.MethodGet, "/api/admin/endpoints", nil)
	var list []endpoint.Endpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "/a", list[0].Path)
}

func TestStatus(t *testing.T) {
	api, _ := newTestAPI(t, "")
	h := api.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/admin/endpoints", validDeclaration("/s"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/admin/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "test", status["version"])
	assert.Equal(t, float64(1), status["endpoints"])
}

func TestRequireAuth(t *testing.T) {
	api, _ := newTestAPI(t, "secret-key")
	h := api.Routes()

	tests := []struct {
		name   string
		header func(*http.Request)
		want   int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong api key", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, http.StatusUnauthorized},
		{"api key header", func(r *http.Request) { r.Header.Set("X-API-Key", "secret-key") }, http.StatusOK},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-key") }, http.StatusOK},
		{"wrong bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/endpoints", nil)
			tt.header(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestEmptyAPIKeyDisablesAuth(t *testing.T) {
	api, _ := newTestAPI(t, "")
	rec := doJSON(t, api.Routes(), http.MethodGet, "/api/admin/endpoints", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
