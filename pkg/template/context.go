package template

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// Context holds request data available to placeholder rendering. One
// context is built per request and shared across every string in the
// selected response payload, so {{timestamp}}, {{date}} and {{time}}
// agree on a single instant.
type Context struct {
	// Now is the instant the request started processing.
	Now time.Time

	Method string

	// RawPath is the request path including the query string.
	RawPath string

	// RawBody is the request body as received.
	RawBody string

	// Body is the parsed JSON body, or nil.
	Body any

	Query   url.Values
	Headers http.Header

	// Params is the extracted parameter view.
	Params map[string]any
}

// NewContext builds a template context from an HTTP request.
func NewContext(r *http.Request, bodyBytes []byte, params map[string]any) *Context {
	ctx := &Context{
		Now:     time.Now().UTC(),
		Method:  r.Method,
		RawPath: r.URL.RequestURI(),
		RawBody: string(bodyBytes),
		Query:   r.URL.Query(),
		Headers: r.Header,
		Params:  params,
	}
	if len(bodyBytes) > 0 {
		var body any
		if err := json.Unmarshal(bodyBytes, &body); err == nil {
			ctx.Body = body
		}
	}
	return ctx
}
