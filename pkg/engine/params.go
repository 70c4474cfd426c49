package engine

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/stubd/stubd/pkg/endpoint"
)

// ParamView is the parameter view built from an endpoint's declared
// parameter source. It always carries the query, header and body maps so
// condition evaluation can address all namespaces; source-specific
// resolution applies only to parameter lookups.
type ParamView struct {
	source  endpoint.ParameterSource
	query   map[string]any
	headers map[string]any
	body    map[string]any
}

// ExtractParams builds the parameter view for a request. Header keys are
// lower-cased; for multi-valued query parameters and headers the first
// value wins. body is the parsed JSON request body object, may be nil.
func ExtractParams(r *http.Request, body map[string]any, source endpoint.ParameterSource) *ParamView {
	query := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	headers := make(map[string]any)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(key)] = values[0]
		}
	}
	if body == nil {
		body = make(map[string]any)
	}
	return &ParamView{source: source, query: query, headers: headers, body: body}
}

// Lookup resolves a parameter name using source-specific resolution:
// mixed checks query, then lower-cased header, then body; header
// lower-cases the name; query and body look up directly; none never
// resolves.
func (v *ParamView) Lookup(name string) (any, bool) {
	switch v.source {
	case endpoint.SourceQuery:
		val, ok := v.query[name]
		return val, ok
	case endpoint.SourceHeader:
		val, ok := v.headers[strings.ToLower(name)]
		return val, ok
	case endpoint.SourceBody:
		val, ok := v.body[name]
		return val, ok
	case endpoint.SourceMixed:
		if val, ok := v.query[name]; ok {
			return val, true
		}
		if val, ok := v.headers[strings.ToLower(name)]; ok {
			return val, true
		}
		if val, ok := v.body[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// ValidateRequired checks every declared required parameter. A value that
// is absent, null or the empty string fails. The returned error names the
// parameter and the configured source.
func (v *ParamView) ValidateRequired(specs []endpoint.ParameterSpec) *RequestError {
	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		val, ok := v.Lookup(spec.Name)
		if !ok || val == nil || val == "" {
			return BadRequest(fmt.Sprintf("required parameter %q is missing from %s", spec.Name, v.source))
		}
	}
	return nil
}

// Values returns the flattened parameter view for the params namespace.
// For mixed, body is overlaid by headers and then query, matching the
// query-first resolution order of Lookup.
func (v *ParamView) Values() map[string]any {
	switch v.source {
	case endpoint.SourceQuery:
		return v.query
	case endpoint.SourceHeader:
		return v.headers
	case endpoint.SourceBody:
		return v.body
	case endpoint.SourceMixed:
		merged := make(map[string]any, len(v.body)+len(v.headers)+len(v.query))
		for k, val := range v.body {
			merged[k] = val
		}
		for k, val := range v.headers {
			merged[k] = val
		}
		for k, val := range v.query {
			merged[k] = val
		}
		return merged
	}
	return map[string]any{}
}

// Query returns the query namespace map.
func (v *ParamView) Query() map[string]any { return v.query }

// Headers returns the lower-cased header namespace map.
func (v *ParamView) Headers() map[string]any { return v.headers }

// Body returns the body namespace map.
func (v *ParamView) Body() map[string]any { return v.body }
