// Package calc implements the calculator core: an expression buffer edited one
// token at a time, and a safe evaluator for the arithmetic text it holds.
//
// # Evaluation
//
// Evaluation runs in four steps:
//
//  1. Sanitize maps the display glyphs (x, × and ÷) to their ASCII operators and
//     drops every character outside digits, + - * / ( ) . and whitespace.
//  2. Cheap rejections: a trailing operator or a run of two or more dots.
//  3. A recursive-descent parser evaluates the text with the usual precedence
//     (* and / bind tighter than + and -), parentheses and unary signs. The
//     grammar has no identifiers or calls, so nothing but arithmetic can run.
//  4. RoundSmart trims binary floating point noise to 10 decimal places, so
//     0.1+0.2 evaluates to 0.3.
//
// Every failure is reported as an error wrapping ErrInvalidExpression.
//
// # Editing
//
// Engine holds the expression and the last committed answer. The expression is
// never empty: a cleared engine shows "0", typing a digit over that placeholder
// replaces it, and typing an operator right after another operator replaces the
// previous one.
//
//	e := calc.New()
//	e.Append("5")
//	e.Append("+")
//	e.Append("3")
//	v, _ := e.Preview() // 8
//	e.Commit()          // e.Expression() == "8"
//
// An Engine is not safe for concurrent use; give every session its own.
package calc
