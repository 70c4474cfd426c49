package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv() Env {
	return Env{
		Query: map[string]any{
			"lang": "fr",
			"page": "2",
		},
		Headers: map[string]any{
			"x-api-version": "3",
			"accept":        "application/json",
		},
		Body: map[string]any{
			"amount": float64(150),
			"active": true,
			"user":   map[string]any{"role": "admin"},
		},
		Params: map[string]any{
			"lang": "fr",
		},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"string equality", `query.lang == 'fr'`, true},
		{"string inequality", `query.lang != 'de'`, true},
		{"no match", `query.lang == 'de'`, false},
		{"double quotes", `query.lang == "fr"`, true},
		{"numeric comparison", `body.amount > 100`, true},
		{"numeric less-than", `body.amount < 100`, false},
		{"boolean literal", `body.active == true`, true},
		{"and connective", `query.lang == 'fr' && body.amount >= 150`, true},
		{"and short-circuit false", `query.lang == 'de' && body.amount >= 150`, false},
		{"or connective", `query.lang == 'de' || query.lang == 'fr'`, true},
		{"parentheses", `(query.lang == 'de' || query.lang == 'fr') && body.active == true`, true},
		{"params namespace", `params.lang == 'fr'`, true},
		{"nested body path", `body.user.role == 'admin'`, true},
		{"missing value never equals", `query.missing == 'x'`, false},
		{"missing value not-equals is true", `query.missing != 'x'`, true},
	}

	env := testEnv()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateHeadersCaseInsensitive(t *testing.T) {
	env := testEnv()

	for _, expr := range []string{
		`headers.accept == 'application/json'`,
		`headers.Accept == 'application/json'`,
		`headers.X-Api-Version == '3'`,
		`headers.x-api-version == '3'`,
	} {
		got, err := Evaluate(expr, env)
		require.NoError(t, err, expr)
		assert.True(t, got, expr)
	}
}

// Every namespace identifier must compile and evaluate even when its map
// is empty or nil; an absent value makes the comparison false, never an
// unknown-name error.
func TestEvaluateNamespacesAlwaysAddressable(t *testing.T) {
	for _, expr := range []string{
		`query.lang == 'fr'`,
		`headers.accept == 'application/json'`,
		`body.amount == 1`,
		`params.lang == 'fr'`,
	} {
		got, err := Evaluate(expr, Env{})
		require.NoError(t, err, expr)
		assert.False(t, got, expr)
	}
}

// Anything outside the restricted grammar must fail at lex time, before
// any evaluation machinery sees the expression.
func TestEvaluateRejectsUnsafeExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"bare identifier", `lang == 'fr'`},
		{"unknown namespace", `env.HOME == 'x'`},
		{"function call", `len(query.lang) > 0`},
		{"arithmetic", `body.amount + 1 > 100`},
		{"semicolon", `query.lang == 'fr'; query.lang == 'de'`},
		{"assignment", `query.lang = 'fr'`},
		{"unterminated string", `query.lang == 'fr`},
		{"index syntax", `query['lang'] == 'fr'`},
		{"ternary", `query.lang == 'fr' ? 1 : 2`},
		{"trailing dot", `query. == 'fr'`},
	}

	env := testEnv()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, env)
			assert.Error(t, err)
			assert.False(t, got)
		})
	}
}

// A value containing quote characters can never escape into the
// expression because values are looked up by the evaluator, not spliced
// into text.
func TestEvaluateValueInjection(t *testing.T) {
	env := Env{
		Query: map[string]any{
			"name": `' || '1' == '1`,
		},
	}

	got, err := Evaluate(`query.name == 'admin'`, env)
	require.NoError(t, err)
	assert.False(t, got)

	// The hostile value compares as an ordinary string.
	got, err = Evaluate(`query.name == '\' || \'1\' == \'1'`, env)
	require.NoError(t, err)
	assert.True(t, got)
}

// Structurally broken but token-safe expressions fail at compile time
// and are reported as errors, not panics.
func TestEvaluateMalformedStructure(t *testing.T) {
	env := testEnv()
	for _, expr := range []string{
		`&& query.lang == 'fr'`,
		`query.lang ==`,
		`(query.lang == 'fr'`,
		`query.lang query.page`,
	} {
		got, err := Evaluate(expr, env)
		assert.Error(t, err, expr)
		assert.False(t, got, expr)
	}
}

// Comparing an absent (nil) value with an ordering operator is a runtime
// failure, surfaced as an error so the rule is treated as non-matching.
func TestEvaluateNilOrderingFails(t *testing.T) {
	env := testEnv()
	got, err := Evaluate(`query.missing > 5`, env)
	assert.Error(t, err)
	assert.False(t, got)
}

func TestCanonicalRewritesReferences(t *testing.T) {
	tokens, err := lex(`headers.X-Api-Version == '3' && body.user.role != "guest"`)
	require.NoError(t, err)
	assert.Equal(t,
		`headers["x-api-version"] == "3" && body["user"]["role"] != "guest"`,
		canonical(tokens))
}

func BenchmarkEvaluate(b *testing.B) {
	env := Env{
		Query:  map[string]any{"lang": "fr"},
		Params: map[string]any{"tier": "gold"},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Evaluate(`query.lang == 'fr' && params.tier != 'basic'`, env); err != nil {
			b.Fatal(err)
		}
	}
}
