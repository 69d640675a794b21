package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/rechenschnell/internal/config"
)

func newTestCLI(opts Options) (*CLI, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(config.DefaultConfig(), opts, &out, &errOut), &out, &errOut
}

func TestEvaluate(t *testing.T) {
	c, out, errOut := newTestCLI(Options{})

	require.NoError(t, c.Evaluate([]string{"2+3x4", "0.1+0.2", "(1+2)÷4", "-5"}))
	assert.Equal(t, "14\n0.3\n0.75\n-5\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestEvaluateReportsInvalid(t *testing.T) {
	c, out, errOut := newTestCLI(Options{})

	err := c.Evaluate([]string{"1+1", "5+", "1/0"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "2 of 3")

	assert.Equal(t, "2\n", out.String())
	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ends with an operator")
	assert.Contains(t, lines[1], "division by zero")
}

func TestStreamExpressions(t *testing.T) {
	c, out, errOut := newTestCLI(Options{})

	input := "1+1\n\n  \n3*3\n2..5\n"
	err := c.Stream(context.Background(), strings.NewReader(input))
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, "2\n9\n", out.String())
	assert.Contains(t, errOut.String(), "repeated decimal point")
}

func TestStreamKeys(t *testing.T) {
	c, out, errOut := newTestCLI(Options{Keys: true})

	input := strings.Join([]string{
		"12+3=",
		"*2 Enter",
		"5+",
		"Enter",
		"Backspace Backspace 7",
		"Escape",
	}, "\n")
	require.NoError(t, c.Stream(context.Background(), strings.NewReader(input)))

	assert.Equal(t, "15\n30\n305+\n305+\n307\n0\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestStreamHonorsEngineLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.MaxExpressionLength = 3
	var out, errOut bytes.Buffer
	c := New(cfg, Options{Keys: true}, &out, &errOut)

	require.NoError(t, c.Stream(context.Background(), strings.NewReader("123456\n")))
	assert.Equal(t, "123\n", out.String())
}

func TestStreamCancelled(t *testing.T) {
	c, _, _ := newTestCLI(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Stream(ctx, strings.NewReader("1\n2\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
