package calc

import (
	"math/rand"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendAll(e *Engine, tokens ...string) {
	for _, tok := range tokens {
		e.Append(tok)
	}
}

func TestNewEngine(t *testing.T) {
	e := New()
	assert.Equal(t, "0", e.Expression())
	assert.Zero(t, e.LastAnswer())

	v, err := e.Preview()
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestEngineAppend(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"digit replaces placeholder", []string{"7"}, "7"},
		{"zero replaces placeholder", []string{"0"}, "0"},
		{"digits accumulate", []string{"1", "2", "3"}, "123"},
		{"dot keeps placeholder", []string{"."}, "0."},
		{"paren keeps placeholder", []string{"("}, "0("},
		{"operator after placeholder", []string{"+"}, "0+"},
		{"operator collision", []string{"+", "-"}, "0-"},
		{"glyph collision", []string{"5", "×", "÷"}, "5÷"},
		{"ascii then glyph", []string{"5", "*", "÷", "+"}, "5+"},
		{"operator after paren", []string{"(", "-"}, "0(-"},
		{"empty token ignored", []string{"4", ""}, "4"},
		{"multi-character token", []string{"12"}, "12"},
		{"operators inside token collapse", []string{"+*"}, "0*"},
		{"token collides with expression", []string{"5", "-×2"}, "5×2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			appendAll(e, tt.tokens...)
			assert.Equal(t, tt.want, e.Expression())
		})
	}
}

func TestEngineAppendMaxLength(t *testing.T) {
	e := New(WithMaxLength(3))
	appendAll(e, "1", "2", "3", "4")
	assert.Equal(t, "123", e.Expression())

	e.Backspace()
	e.Append("÷")
	assert.Equal(t, "12÷", e.Expression())

	// Collapsing an operator does not grow the expression.
	e.Append("+")
	assert.Equal(t, "12+", e.Expression())

	// A token that does not fit is dropped whole.
	e.Backspace()
	e.Append("34")
	assert.Equal(t, "12", e.Expression())
}

func TestEngineBackspace(t *testing.T) {
	e := New()
	appendAll(e, "1", "2", "÷")

	e.Backspace()
	assert.Equal(t, "12", e.Expression())
	e.Backspace()
	assert.Equal(t, "1", e.Expression())
	e.Backspace()
	assert.Equal(t, "0", e.Expression())
	e.Backspace()
	assert.Equal(t, "0", e.Expression())
}

func TestEngineClear(t *testing.T) {
	e := New()
	appendAll(e, "9", "×", "9")
	require.True(t, e.Commit())
	require.Equal(t, 81.0, e.LastAnswer())

	e.Clear()
	assert.Equal(t, "0", e.Expression())
	assert.Zero(t, e.LastAnswer())
}

func TestEngineCommitChains(t *testing.T) {
	e := New()
	appendAll(e, "5", "+", "3")
	require.True(t, e.Commit())

	assert.Equal(t, "8", e.Expression())
	assert.Equal(t, 8.0, e.LastAnswer())
	v, err := e.Preview()
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)

	appendAll(e, "×", "2")
	require.True(t, e.Commit())
	assert.Equal(t, "16", e.Expression())
}

func TestEngineCommitRounds(t *testing.T) {
	e := New()
	appendAll(e, "0", ".", "1", "+", "0", ".", "2")
	require.True(t, e.Commit())
	assert.Equal(t, "0.3", e.Expression())
	assert.Equal(t, 0.3, e.LastAnswer())
}

func TestEngineCommitNegativeResult(t *testing.T) {
	e := New()
	appendAll(e, "2", "-", "5")
	require.True(t, e.Commit())
	assert.Equal(t, "-3", e.Expression())

	e.Append("-")
	e.Append("1")
	require.True(t, e.Commit())
	assert.Equal(t, "-4", e.Expression())
}

func TestEngineCommitInvalidIsNoop(t *testing.T) {
	tests := [][]string{
		{"5", "÷", "0"},
		{"5", "+"},
		{"(", "1"},
		{"1", ".", ".", "2"},
	}

	for _, tokens := range tests {
		e := New()
		e.Append("4")
		require.True(t, e.Commit())
		appendAll(e, tokens...)
		before := e.Expression()

		_, err := e.Preview()
		require.ErrorIs(t, err, ErrInvalidExpression)
		assert.False(t, e.Commit())
		assert.Equal(t, before, e.Expression())
		assert.Equal(t, 4.0, e.LastAnswer())
	}
}

func TestEngineState(t *testing.T) {
	e := New()
	appendAll(e, "1", "+")
	st := e.State()
	assert.Equal(t, "1+", st.Expression)
	assert.False(t, st.Valid)
	assert.NotEmpty(t, st.Error)
	assert.Empty(t, st.PreviewText())

	e.Append("2")
	st = e.State()
	assert.True(t, st.Valid)
	assert.Equal(t, 3.0, st.Preview)
	assert.Equal(t, "3", st.PreviewText())
	assert.Empty(t, st.Error)
}

var randomTokens = []string{
	"0", "1", "2", "5", "9", ".", "+", "-", "*", "/", "×", "÷", "x", "(", ")", " ",
	"+-", "2×", "÷-", "12",
}

// TestEngineInvariants drives engines with random input and checks the
// properties that must hold after every operation.
func TestEngineInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		e := New()
		for step := 0; step < 60; step++ {
			before := e.Expression()
			beforeAnswer := e.LastAnswer()

			switch op := r.Intn(10); {
			case op < 7:
				e.Append(randomTokens[r.Intn(len(randomTokens))])
				assertNoAdjacentOperators(t, e.Expression())
			case op == 7:
				e.Backspace()
				assert.GreaterOrEqual(t, utf8.RuneCountInString(e.Expression()), 1)
			case op == 8:
				_, err := Evaluate(before)
				committed := e.Commit()
				assert.Equal(t, err == nil, committed)
				if !committed {
					assert.Equal(t, before, e.Expression())
					assert.Equal(t, beforeAnswer, e.LastAnswer())
				}
			default:
				if r.Intn(4) == 0 {
					e.Clear()
					assert.Equal(t, "0", e.Expression())
					assert.Zero(t, e.LastAnswer())
				}
			}

			require.NotEmpty(t, e.Expression())
		}
	}
}

func assertNoAdjacentOperators(t *testing.T, expr string) {
	t.Helper()
	prev := ""
	for _, r := range expr {
		cur := string(r)
		if IsOperator(prev) && IsOperator(cur) {
			t.Fatalf("adjacent operators in %q", expr)
		}
		prev = cur
	}
}
