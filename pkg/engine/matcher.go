package engine

import (
	"github.com/stubd/stubd/pkg/endpoint"
)

// MatchEndpoint resolves a request (method, path) pair to at most one
// enabled endpoint. The path must already have its query string stripped.
// Matching is exact-string on the path and first-match-wins in storage
// order; reserved prefixes never match.
func MatchEndpoint(endpoints []*endpoint.Endpoint, method, path string) *endpoint.Endpoint {
	if endpoint.IsReservedPath(path) {
		return nil
	}
	for _, e := range endpoints {
		if !e.IsEnabled() {
			continue
		}
		if e.Path == path && e.MatchesMethod(method) {
			return e
		}
	}
	return nil
}
