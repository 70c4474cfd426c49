package condition

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind classifies a lexed token.
type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenOperator
	tokenLParen
	tokenRParen
)

// token is a single lexed unit of a condition expression.
type token struct {
	kind tokenKind
	// text is the raw token text. For tokenString it is the unquoted
	// value; for tokenIdent it is the dotted reference as written.
	text string
}

// namespaces addressable from a condition expression.
var namespaces = map[string]bool{
	"query":   true,
	"headers": true,
	"body":    true,
	"params":  true,
}

// operators allowed in the restricted grammar.
var operators = []string{"==", "!=", "<=", ">=", "&&", "||", "<", ">"}

// lex splits a condition expression into tokens, rejecting anything
// outside the restricted grammar: namespaced references, string/number/
// boolean literals, comparison operators, boolean connectives and
// parentheses.
func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		c := runes[i]

		switch {
		case unicode.IsSpace(c):
			i++

		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "("})
			i++

		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")"})
			i++

		case c == '\'' || c == '"':
			value, next, err := lexString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, text: value})
			i = next

		case isDigit(c) || (c == '-' && i+1 < len(runes) && isDigit(runes[i+1])):
			value, next := lexNumber(runes, i)
			tokens = append(tokens, token{kind: tokenNumber, text: value})
			i = next

		case isIdentStart(c):
			value, next := lexIdent(runes, i)
			tok, err := classifyIdent(value)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next

		default:
			if op, width := matchOperator(runes[i:]); width > 0 {
				tokens = append(tokens, token{kind: tokenOperator, text: op})
				i += width
				continue
			}
			return nil, fmt.Errorf("condition: unexpected character %q at offset %d", c, i)
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("condition: empty expression")
	}
	return tokens, nil
}

// lexString scans a quoted string starting at runes[start]. Backslash
// escapes the quote character and the backslash itself.
func lexString(runes []rune, start int) (value string, next int, err error) {
	quote := runes[start]
	var sb strings.Builder
	i := start + 1
	for i < len(runes) {
		c := runes[i]
		if c == '\\' && i+1 < len(runes) && (runes[i+1] == quote || runes[i+1] == '\\') {
			sb.WriteRune(runes[i+1])
			i += 2
			continue
		}
		if c == quote {
			return sb.String(), i + 1, nil
		}
		sb.WriteRune(c)
		i++
	}
	return "", 0, fmt.Errorf("condition: unterminated string literal")
}

func lexNumber(runes []rune, start int) (string, int) {
	i := start
	if runes[i] == '-' {
		i++
	}
	for i < len(runes) && isDigit(runes[i]) {
		i++
	}
	if i < len(runes) && runes[i] == '.' && i+1 < len(runes) && isDigit(runes[i+1]) {
		i++
		for i < len(runes) && isDigit(runes[i]) {
			i++
		}
	}
	return string(runes[start:i]), i
}

func lexIdent(runes []rune, start int) (string, int) {
	i := start
	for i < len(runes) && isIdentPart(runes[i]) {
		i++
	}
	return string(runes[start:i]), i
}

// classifyIdent turns a raw identifier into a boolean literal or a
// validated namespaced reference.
func classifyIdent(value string) (token, error) {
	if value == "true" || value == "false" {
		return token{kind: tokenBool, text: value}, nil
	}

	segments := strings.Split(value, ".")
	if len(segments) < 2 || !namespaces[segments[0]] {
		return token{}, fmt.Errorf("condition: unknown reference %q", value)
	}
	for _, seg := range segments[1:] {
		if seg == "" {
			return token{}, fmt.Errorf("condition: malformed reference %q", value)
		}
	}
	return token{kind: tokenIdent, text: value}, nil
}

// matchOperator matches the longest allowed operator at the head of rest.
func matchOperator(rest []rune) (string, int) {
	s := string(rest)
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op, len(op)
		}
	}
	return "", 0
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

// isIdentPart includes '-' so header names like x-request-id lex as a
// single reference; the grammar has no arithmetic, so minus is otherwise
// only meaningful as a numeric sign.
func isIdentPart(c rune) bool {
	return c == '_' || c == '-' || c == '.' || unicode.IsLetter(c) || isDigit(c)
}
