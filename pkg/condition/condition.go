// Package condition evaluates the restricted boolean expression language
// used to select response rules. An expression may compare namespaced
// request values (query.NAME, headers.NAME, body.NAME, params.NAME)
// against string/number/boolean literals using ==, !=, <, >, <=, >= and
// combine comparisons with &&, || and parentheses. Nothing else lexes.
//
// Request values are never spliced into expression text. The expression
// is lexed against the restricted grammar, rewritten to a canonical form
// that indexes the namespace maps, compiled to an AST and evaluated
// against the request environment.
package condition

import (
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// Env carries the four addressable namespaces of a request.
// Header keys must already be lower-cased.
type Env struct {
	Query   map[string]any
	Headers map[string]any
	Body    map[string]any
	Params  map[string]any
}

// Evaluate reports whether the condition holds for the environment.
// Any lex, compile or runtime failure is returned as an error; callers
// treat a failed condition as non-matching rather than failing the
// request.
func Evaluate(expression string, env Env) (bool, error) {
	tokens, err := lex(expression)
	if err != nil {
		return false, err
	}

	runEnv := map[string]any{
		"query":   env.Query,
		"headers": env.Headers,
		"body":    env.Body,
		"params":  env.Params,
	}
	program, err := expr.Compile(canonical(tokens), expr.Env(runEnv), expr.AsBool())
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, runEnv)
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	return ok && matched, nil
}

// canonical rebuilds the expression from validated tokens. Namespaced
// references become map index chains so names containing '-' stay
// intact, and headers segments are lower-cased for case-insensitive
// lookup. Literals are re-quoted from their parsed values; the original
// expression text is never reused.
func canonical(tokens []token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch t.kind {
		case tokenIdent:
			segments := strings.Split(t.text, ".")
			ns := segments[0]
			sb.WriteString(ns)
			for _, seg := range segments[1:] {
				if ns == "headers" {
					seg = strings.ToLower(seg)
				}
				sb.WriteString("[")
				sb.WriteString(strconv.Quote(seg))
				sb.WriteString("]")
			}
		case tokenString:
			sb.WriteString(strconv.Quote(t.text))
		default:
			sb.WriteString(t.text)
		}
	}
	return sb.String()
}
