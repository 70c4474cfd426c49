// Package endpoint defines the virtual endpoint model: a declared route
// with parameter requirements, optional bearer-token protection, and an
// ordered list of conditional response rules.
package endpoint

import (
	"strings"
	"time"
)

// Method is the HTTP method an endpoint is declared for.
type Method string

// Supported methods. MethodAny matches every request method.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
	MethodAny    Method = "ANY"
)

// ParameterSource declares where input values for an endpoint are read from.
type ParameterSource string

const (
	SourceNone   ParameterSource = "none"
	SourceQuery  ParameterSource = "query"
	SourceHeader ParameterSource = "header"
	SourceBody   ParameterSource = "body"
	SourceMixed  ParameterSource = "mixed"
)

// ResponseType determines how the selected response rule is serialized.
type ResponseType string

const (
	TypeJSON     ResponseType = "json"
	TypeText     ResponseType = "text"
	TypeBinary   ResponseType = "binary"
	TypeImage    ResponseType = "image"
	TypeRedirect ResponseType = "redirect"
)

// ParameterSpec declares a single named parameter of an endpoint.
type ParameterSpec struct {
	Name     string `json:"name" yaml:"name"`
	Required bool   `json:"required" yaml:"required"`
}

// ResponseRule is one candidate response payload, optionally guarded by a
// condition expression. Which payload field is meaningful depends on the
// endpoint's ResponseType.
type ResponseRule struct {
	// Condition guards this rule. Empty means the rule is the
	// unconditioned default.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Data is the structured payload for json endpoints.
	Data any `json:"data,omitempty" yaml:"data,omitempty"`

	// Text is the literal payload for text endpoints.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// AssetPath references a file below the asset root (binary/image).
	AssetPath string `json:"assetPath,omitempty" yaml:"assetPath,omitempty"`

	// AssetID references an uploaded asset by identifier (binary/image).
	AssetID string `json:"assetId,omitempty" yaml:"assetId,omitempty"`

	// Base64 carries inline payload bytes (binary/image).
	Base64 string `json:"base64,omitempty" yaml:"base64,omitempty"`

	// ContentType overrides the response content type (binary/image).
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`

	// FileName, when set, is emitted as a content-disposition filename.
	FileName string `json:"fileName,omitempty" yaml:"fileName,omitempty"`

	// RedirectURL is the target for redirect endpoints. Defaults to "/".
	RedirectURL string `json:"redirectUrl,omitempty" yaml:"redirectUrl,omitempty"`
}

// HasCondition reports whether the rule carries a non-empty condition.
func (r *ResponseRule) HasCondition() bool {
	return strings.TrimSpace(r.Condition) != ""
}

// Endpoint is a configured virtual route served by the engine.
type Endpoint struct {
	// ID is a unique identifier for the endpoint.
	ID string `json:"id" yaml:"id"`

	// Path is the exact request path this endpoint answers. Must start
	// with "/" and may not fall under a reserved prefix.
	Path string `json:"path" yaml:"path"`

	// Method is the HTTP method to match, or ANY.
	Method Method `json:"method" yaml:"method"`

	// Description is an optional human-readable note.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Protected requires an Authorization bearer token on requests.
	Protected bool `json:"protected,omitempty" yaml:"protected,omitempty"`

	// Token is the expected bearer token. Required iff Protected.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// ParameterSource declares where request parameters are read from.
	ParameterSource ParameterSource `json:"parameterSource,omitempty" yaml:"parameterSource,omitempty"`

	// Parameters are the declared parameters, in order.
	Parameters []ParameterSpec `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// ResponseType selects the serialization of the chosen rule.
	ResponseType ResponseType `json:"responseType" yaml:"responseType"`

	// Responses is the ordered, non-empty rule list.
	Responses []ResponseRule `json:"responses" yaml:"responses"`

	// Enabled indicates whether this endpoint receives traffic.
	// Nil is treated as enabled.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// IsEnabled reports whether the endpoint should receive traffic.
func (e *Endpoint) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// MatchesMethod reports whether the endpoint answers the given request
// method. Comparison is case-insensitive; MethodAny matches everything.
func (e *Endpoint) MatchesMethod(method string) bool {
	if e.Method == MethodAny {
		return true
	}
	return strings.EqualFold(string(e.Method), method)
}

// Source returns the effective parameter source, defaulting to none.
func (e *Endpoint) Source() ParameterSource {
	if e.ParameterSource == "" {
		return SourceNone
	}
	return e.ParameterSource
}

// DefaultRule returns the unconditioned default rule: the first rule
// without a condition, or the first rule overall as the last resort.
// Returns nil when the rule list is empty.
func (e *Endpoint) DefaultRule() *ResponseRule {
	for i := range e.Responses {
		if !e.Responses[i].HasCondition() {
			return &e.Responses[i]
		}
	}
	if len(e.Responses) > 0 {
		return &e.Responses[0]
	}
	return nil
}

// Asset is an uploaded file referenced by binary/image response rules.
// Payload bytes are stored on disk, never embedded in the registry.
type Asset struct {
	ID          string    `json:"id" yaml:"id"`
	FileName    string    `json:"fileName" yaml:"fileName"`
	StoragePath string    `json:"storagePath" yaml:"storagePath"`
	Extension   string    `json:"extension,omitempty" yaml:"extension,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}
