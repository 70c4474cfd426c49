// Package template substitutes {{...}} placeholders in response payloads
// with values from the current request.
package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
)

// Engine renders placeholders. It is stateless and safe for concurrent
// use.
type Engine struct{}

// New creates a template engine.
func New() *Engine {
	return &Engine{}
}

// placeholderRegex matches {{expression}} patterns with optional
// whitespace inside the braces.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// Process replaces every recognized placeholder in s in a single
// left-to-right pass. Unrecognized placeholders resolve to the empty
// string rather than being left literal.
func (e *Engine) Process(s string, ctx *Context) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		inner := placeholderRegex.FindStringSubmatch(match)
		if len(inner) < 2 {
			return ""
		}
		return e.resolve(strings.TrimSpace(inner[1]), ctx)
	})
}

// Render walks a structured payload: strings are processed, sequences
// are mapped element-wise, mappings value-wise, other scalars pass
// through unchanged.
func (e *Engine) Render(value any, ctx *Context) any {
	switch v := value.(type) {
	case string:
		return e.Process(v, ctx)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = e.Render(item, ctx)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = e.Render(item, ctx)
		}
		return out
	default:
		return value
	}
}

// resolve evaluates a single placeholder expression.
func (e *Engine) resolve(expr string, ctx *Context) string {
	switch expr {
	case "timestamp":
		return ctx.Now.Format(time.RFC3339)
	case "date":
		return ctx.Now.Format("2006-01-02")
	case "time":
		return ctx.Now.Format("15:04:05")
	case "method":
		return ctx.Method
	case "path":
		return ctx.RawPath
	case "body":
		return ctx.RawBody
	}

	if name, ok := strings.CutPrefix(expr, "query."); ok {
		return ctx.Query.Get(name)
	}
	if name, ok := strings.CutPrefix(expr, "headers."); ok {
		return ctx.Headers.Get(strings.ToLower(name))
	}
	if name, ok := strings.CutPrefix(expr, "params."); ok {
		if v, ok := ctx.Params[name]; ok {
			return stringify(v)
		}
		return ""
	}
	if name, ok := strings.CutPrefix(expr, "body."); ok {
		return e.resolveBodyPath(name, ctx)
	}

	// Unknown placeholder.
	return ""
}

// resolveBodyPath looks up a dotted path inside the parsed request body.
// Structured results are serialized to JSON text; scalars are used as-is.
func (e *Engine) resolveBodyPath(path string, ctx *Context) string {
	if ctx.Body == nil {
		return ""
	}
	p, err := jp.ParseString(path)
	if err != nil {
		return ""
	}
	results := p.Get(ctx.Body)
	if len(results) == 0 {
		return ""
	}
	return stringify(results[0])
}

// stringify renders a looked-up value as text. Structured values are
// serialized to JSON; numbers avoid the float64 %v exponent form.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
