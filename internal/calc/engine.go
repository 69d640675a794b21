package calc

import (
	"unicode/utf8"
)

// placeholder is what an empty expression looks like from the outside.
const placeholder = "0"

// Engine is the calculator state: the expression being edited and the last
// committed answer. The zero value is not ready for use; call New.
type Engine struct {
	expr       string
	lastAnswer float64
	maxLen     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxLength caps the expression at n runes; Append drops tokens that would
// exceed it. n <= 0 means no limit.
func WithMaxLength(n int) Option {
	return func(e *Engine) {
		e.maxLen = n
	}
}

// New returns an engine showing "0".
func New(opts ...Option) *Engine {
	e := &Engine{expr: placeholder}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expression returns the current expression text. It is never empty.
func (e *Engine) Expression() string {
	return e.expr
}

// LastAnswer returns the value of the most recent successful Commit.
func (e *Engine) LastAnswer() float64 {
	return e.lastAnswer
}

// Append adds token to the expression one character at a time. A digit typed
// over the "0" placeholder replaces it, and an operator typed after an
// operator replaces that operator. A token that would exceed the maximum
// length is dropped whole.
func (e *Engine) Append(token string) {
	next := e.expr
	for _, r := range token {
		next = appendRune(next, string(r))
	}
	if next == e.expr {
		return
	}

	if e.maxLen > 0 && utf8.RuneCountInString(next) > e.maxLen {
		return
	}
	e.expr = next
}

func appendRune(expr, ch string) string {
	switch {
	case expr == placeholder && isDigits(ch):
		return ch
	case IsOperator(ch) && IsOperator(lastRune(expr)):
		return trimLastRune(expr) + ch
	default:
		return expr + ch
	}
}

// Backspace removes the last character. An expression of one character
// becomes "0".
func (e *Engine) Backspace() {
	if utf8.RuneCountInString(e.expr) <= 1 {
		e.expr = placeholder
		return
	}
	e.expr = trimLastRune(e.expr)
}

// Clear resets the expression to "0" and forgets the last answer.
func (e *Engine) Clear() {
	e.expr = placeholder
	e.lastAnswer = 0
}

// Commit evaluates the expression. On success the result becomes both the
// last answer and the new expression, so further input continues from it, and
// Commit returns true. An invalid expression leaves the engine untouched.
func (e *Engine) Commit() bool {
	value, err := Evaluate(e.expr)
	if err != nil {
		return false
	}
	e.lastAnswer = value
	e.expr = FormatNumber(value)
	return true
}

// Preview evaluates the expression without changing anything.
func (e *Engine) Preview() (float64, error) {
	return Evaluate(e.expr)
}

// State is a snapshot of what a front-end renders after each change.
type State struct {
	Expression string  `json:"expression"`
	Preview    float64 `json:"preview"`
	Valid      bool    `json:"valid"`
	LastAnswer float64 `json:"last_answer"`
	Error      string  `json:"error,omitempty"`
}

// PreviewText is the preview as display text, empty when invalid.
func (s State) PreviewText() string {
	if !s.Valid {
		return ""
	}
	return FormatNumber(s.Preview)
}

// State returns a snapshot of the engine including its preview.
func (e *Engine) State() State {
	st := State{Expression: e.expr, LastAnswer: e.lastAnswer}
	value, err := e.Preview()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Preview = value
	st.Valid = true
	return st
}

func lastRune(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[len(s)-size:]
}

func trimLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
