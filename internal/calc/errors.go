package calc

import (
	"errors"
	"fmt"
)

// ErrInvalidExpression is wrapped by every evaluation failure.
var ErrInvalidExpression = errors.New("invalid expression")

// Reasons reported by ExpressionError.
const (
	ReasonTrailingOperator = "expression ends with an operator"
	ReasonRepeatedDecimal  = "repeated decimal point"
	ReasonUnexpectedChar   = "unexpected character"
	ReasonUnexpectedEnd    = "unexpected end of expression"
	ReasonMissingParen     = "missing closing parenthesis"
	ReasonMalformedNumber  = "malformed number"
	ReasonIncrement        = "increment or decrement operator"
	ReasonTooDeep          = "expression nested too deeply"
	ReasonDivisionByZero   = "division by zero"
	ReasonNotFinite        = "result is not a finite number"
)

// ExpressionError describes why an expression could not be evaluated.
// Offset is a byte offset into Input, the sanitized text; it is -1 when the
// failure is not tied to a position.
type ExpressionError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ExpressionError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("invalid expression %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid expression %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidExpression.
func (e *ExpressionError) Unwrap() error {
	return ErrInvalidExpression
}

func newExpressionError(input string, offset int, reason string) *ExpressionError {
	return &ExpressionError{Input: input, Offset: offset, Reason: reason}
}
