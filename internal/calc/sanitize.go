package calc

import (
	"strings"
	"unicode"
)

// Display glyphs accepted in an expression besides the ASCII operators.
const (
	MultiplyGlyph    = "×"
	DivideGlyph      = "÷"
	multiplyLetter   = "x"
	operatorCharsSet = "+-*/"
)

var glyphReplacer = strings.NewReplacer(
	multiplyLetter, "*",
	MultiplyGlyph, "*",
	DivideGlyph, "/",
)

// Sanitize maps the multiply and divide glyphs to * and / and removes every
// character that is not a digit, an operator, a parenthesis, a dot or
// whitespace. It never fails and Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	mapped := glyphReplacer.Replace(raw)
	return strings.Map(func(r rune) rune {
		if isAllowed(r) {
			return r
		}
		return -1
	}, mapped)
}

func isAllowed(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '+', r == '-', r == '*', r == '/', r == '(', r == ')', r == '.':
		return true
	default:
		return unicode.IsSpace(r)
	}
}

// IsOperator reports whether token is a single operator, glyphs included.
func IsOperator(token string) bool {
	switch token {
	case "+", "-", "*", "/", multiplyLetter, MultiplyGlyph, DivideGlyph:
		return true
	}
	return false
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
