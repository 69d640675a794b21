package calc

import (
	"errors"
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// maxDepth bounds parenthesis and unary-sign nesting.
const maxDepth = 200

// parser evaluates sanitized arithmetic text while it parses:
//
//	expression = term { ("+" | "-") term }
//	term       = factor { ("*" | "/") factor }
//	factor     = ("+" | "-") factor | "(" expression ")" | number
//	number     = digits [ "." [ digits ] ] | "." digits
type parser struct {
	input string
	pos   int
	depth int
}

// compute evaluates sanitized input. It does not round the result.
func compute(input string) (float64, error) {
	// "++" and "--" are increment/decrement tokens, never two signs.
	if i := indexDoubledSign(input); i >= 0 {
		return 0, newExpressionError(input, i, ReasonIncrement)
	}

	p := &parser{input: input}
	p.skipSpaces()
	if p.isEnd() {
		return 0, p.fail(ReasonUnexpectedEnd)
	}

	value, err := p.parseExpression()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if !p.isEnd() {
		return 0, p.fail(ReasonUnexpectedChar)
	}

	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, newExpressionError(input, -1, ReasonNotFinite)
	}
	return value, nil
}

func (p *parser) parseExpression() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('+'):
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value += rhs
		case p.match('-'):
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= rhs
		default:
			return value, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	value, err := p.parseFactor()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		opPos := p.pos
		switch {
		case p.match('*'):
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			value *= rhs
		case p.match('/'):
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, newExpressionError(p.input, opPos, ReasonDivisionByZero)
			}
			value /= rhs
		default:
			return value, nil
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	p.skipSpaces()
	if p.isEnd() {
		return 0, p.fail(ReasonUnexpectedEnd)
	}

	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return 0, p.fail(ReasonTooDeep)
	}

	switch c := p.peek(); {
	case c == '+' || c == '-':
		p.pos++
		value, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if c == '-' {
			return -value, nil
		}
		return value, nil

	case c == '(':
		p.pos++
		value, err := p.parseExpression()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.match(')') {
			if p.isEnd() {
				return 0, p.fail(ReasonMissingParen)
			}
			return 0, p.fail(ReasonUnexpectedChar)
		}
		return value, nil

	case isDigit(c) || c == '.':
		return p.parseNumber()

	default:
		return 0, p.fail(ReasonUnexpectedChar)
	}
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	intDigits := p.consumeDigits()
	fracDigits := 0
	if p.match('.') {
		fracDigits = p.consumeDigits()
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0, newExpressionError(p.input, start, ReasonMalformedNumber)
	}
	if !p.isEnd() && p.peek() == '.' {
		return 0, newExpressionError(p.input, start, ReasonMalformedNumber)
	}

	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		// Out-of-range literals come back as ±Inf and are rejected once the
		// whole expression has been evaluated.
		if !errors.Is(err, strconv.ErrRange) {
			return 0, newExpressionError(p.input, start, ReasonMalformedNumber)
		}
	}
	return value, nil
}

func (p *parser) consumeDigits() int {
	n := 0
	for !p.isEnd() && isDigit(p.peek()) {
		p.pos++
		n++
	}
	return n
}

func (p *parser) skipSpaces() {
	for !p.isEnd() {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) match(c byte) bool {
	if !p.isEnd() && p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) peek() byte {
	return p.input[p.pos]
}

func (p *parser) isEnd() bool {
	return p.pos >= len(p.input)
}

func (p *parser) fail(reason string) error {
	return newExpressionError(p.input, p.pos, reason)
}

func indexDoubledSign(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if (s[i] == '+' || s[i] == '-') && s[i+1] == s[i] {
			return i
		}
	}
	return -1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
