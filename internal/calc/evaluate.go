package calc

import (
	"math"
	"strconv"
	"strings"
)

// Precision is the number of decimal places RoundSmart keeps.
const Precision = 10

const (
	roundingScale = 1e10
	// epsilon is the gap between 1 and the next float64, as JavaScript's
	// Number.EPSILON.
	epsilon = 0x1p-52
)

// Evaluate sanitizes raw and computes its value. Blank input evaluates to 0.
// Failures wrap ErrInvalidExpression; a non-nil error never comes with a
// meaningful value.
func Evaluate(raw string) (float64, error) {
	clean := Sanitize(raw)
	if strings.TrimSpace(clean) == "" {
		return 0, nil
	}

	last := len(clean) - 1
	if strings.IndexByte(operatorCharsSet, clean[last]) >= 0 {
		return 0, newExpressionError(clean, last, ReasonTrailingOperator)
	}
	if i := strings.Index(clean, ".."); i >= 0 {
		return 0, newExpressionError(clean, i, ReasonRepeatedDecimal)
	}

	value, err := compute(clean)
	if err != nil {
		return 0, err
	}

	rounded := RoundSmart(value)
	if math.IsInf(rounded, 0) || math.IsNaN(rounded) {
		return 0, newExpressionError(clean, -1, ReasonNotFinite)
	}
	return rounded, nil
}

// RoundSmart rounds n to Precision decimal places, nudging it by epsilon first
// so representation noise such as 0.30000000000000004 lands on 0.3. Halves
// round up. Values too large to scale are returned unchanged; they carry no
// fractional digits anyway.
func RoundSmart(n float64) float64 {
	scaled := (n + epsilon) * roundingScale
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return n
	}
	rounded := math.Floor(scaled+0.5) / roundingScale
	if rounded == 0 {
		return 0
	}
	return rounded
}

// FormatNumber renders v the way a committed result is written back into the
// expression: plain decimal notation, shortest form that parses back to v, and
// never "-0". The output is always valid input for Evaluate.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
