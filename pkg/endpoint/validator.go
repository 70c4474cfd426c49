package endpoint

import (
	"fmt"
	"strings"
)

// ReservedPrefixes are path prefixes endpoints may never claim; they are
// owned by the administrative surface and health checks.
var ReservedPrefixes = []string{"/admin", "/api/admin", "/health"}

// IsReservedPath reports whether the path falls under a reserved prefix.
func IsReservedPath(path string) bool {
	for _, prefix := range ReservedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// ValidationError describes a rejected endpoint declaration.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid endpoint: %s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var validMethods = map[Method]bool{
	MethodGet: true, MethodPost: true, MethodPut: true,
	MethodDelete: true, MethodPatch: true, MethodAny: true,
}

var validSources = map[ParameterSource]bool{
	SourceNone: true, SourceQuery: true, SourceHeader: true,
	SourceBody: true, SourceMixed: true,
}

var validResponseTypes = map[ResponseType]bool{
	TypeJSON: true, TypeText: true, TypeBinary: true,
	TypeImage: true, TypeRedirect: true,
}

// Validate checks the declaration-time invariants of an endpoint. It does
// not compile condition expressions; a malformed condition only removes
// its rule from consideration at request time.
func Validate(e *Endpoint) error {
	if e == nil {
		return invalid("endpoint", "missing declaration")
	}
	if !strings.HasPrefix(e.Path, "/") {
		return invalid("path", "must start with /")
	}
	if IsReservedPath(e.Path) {
		return invalid("path", fmt.Sprintf("%q falls under a reserved prefix", e.Path))
	}
	if !validMethods[e.Method] {
		return invalid("method", fmt.Sprintf("unknown method %q", e.Method))
	}
	if e.ParameterSource != "" && !validSources[e.ParameterSource] {
		return invalid("parameterSource", fmt.Sprintf("unknown source %q", e.ParameterSource))
	}
	if !validResponseTypes[e.ResponseType] {
		return invalid("responseType", fmt.Sprintf("unknown response type %q", e.ResponseType))
	}
	if len(e.Responses) == 0 {
		return invalid("responses", "at least one response rule is required")
	}
	if e.Protected && e.Token == "" {
		return invalid("token", "required for protected endpoints")
	}
	for i, p := range e.Parameters {
		if p.Name == "" {
			return invalid("parameters", fmt.Sprintf("parameter %d has no name", i))
		}
	}
	return nil
}

// RouteConflict reports the first existing endpoint whose path and method
// overlap the candidate. Request-time matching is first-match-wins, so a
// later duplicate would be permanently unreachable; the administrative
// surface rejects the create/update instead of shadowing silently.
func RouteConflict(candidate *Endpoint, existing []*Endpoint) *Endpoint {
	for _, other := range existing {
		if other.ID == candidate.ID || !other.IsEnabled() {
			continue
		}
		if other.Path != candidate.Path {
			continue
		}
		if other.Method == candidate.Method ||
			other.Method == MethodAny || candidate.Method == MethodAny {
			return other
		}
	}
	return nil
}
