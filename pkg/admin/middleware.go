package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAuth guards admin routes with the configured API key. The key is
// accepted as X-API-Key or as an Authorization bearer token. An empty
// configured key disables authentication (development mode).
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		presented := r.Header.Get("X-API-Key")
		if presented == "" {
			if header := r.Header.Get("Authorization"); header != "" {
				const scheme = "bearer "
				if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
					presented = strings.TrimSpace(header[len(scheme):])
				}
			}
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(a.apiKey)) != 1 {
			a.log.Warn("admin auth rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeAdminError(w, http.StatusUnauthorized, "unauthorized", "valid API key required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
