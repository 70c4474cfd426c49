package engine

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/stubd/stubd/pkg/endpoint"
)

// Authorize enforces per-endpoint bearer-token protection. It runs
// strictly before parameter validation and condition evaluation, so a bad
// token always yields 401 regardless of other request content.
func Authorize(e *endpoint.Endpoint, r *http.Request) *RequestError {
	if !e.Protected {
		return nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return Unauthorized("authorization required")
	}

	token, ok := cutBearer(header)
	if !ok {
		return Unauthorized("invalid token")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(e.Token)) != 1 {
		return Unauthorized("invalid token")
	}
	return nil
}

// cutBearer strips a case-insensitive "Bearer " scheme prefix.
func cutBearer(header string) (string, bool) {
	const scheme = "bearer "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	return strings.TrimSpace(header[len(scheme):]), true
}
