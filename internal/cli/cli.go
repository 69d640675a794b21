package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/codefionn/rechenschnell/internal/calc"
	"github.com/codefionn/rechenschnell/internal/config"
	"github.com/codefionn/rechenschnell/internal/logger"
)

// ErrInvalidInput is returned when at least one expression could not be
// evaluated. The individual errors have already been written to the error
// output.
var ErrInvalidInput = errors.New("invalid input")

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// Options select how input lines are interpreted.
type Options struct {
	// Keys treats every line as a sequence of key presses applied to one
	// engine instead of as an independent expression.
	Keys bool
}

// CLI evaluates expressions without a user interface.
type CLI struct {
	config  *config.Config
	options Options
	out     io.Writer
	errOut  io.Writer
}

// New creates a CLI that prints results to out and errors to errOut.
func New(cfg *config.Config, opts Options, out, errOut io.Writer) *CLI {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &CLI{config: cfg, options: opts, out: out, errOut: errOut}
}

// Evaluate prints the result of each expression, one per line.
func (c *CLI) Evaluate(exprs []string) error {
	failed := 0
	for _, expr := range exprs {
		if !c.evaluateLine(expr) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d expressions failed", ErrInvalidInput, failed, len(exprs))
	}
	return nil
}

// Stream reads r line by line until EOF or ctx is done. Each line is either
// evaluated on its own or, with Options.Keys, applied as key presses to a
// single engine whose expression is printed after every line.
func (c *CLI) Stream(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	engine := calc.New(c.config.Engine.EngineOptions()...)
	failed := 0
	lines := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		lines++

		if c.options.Keys {
			applyKeys(engine, line)
			fmt.Fprintln(c.out, engine.Expression())
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if !c.evaluateLine(line) {
			failed++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	logger.Debug("processed %d input lines, %d failed", lines, failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d lines failed", ErrInvalidInput, failed)
	}
	return nil
}

func (c *CLI) evaluateLine(expr string) bool {
	value, err := calc.Evaluate(expr)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return false
	}
	fmt.Fprintln(c.out, calc.FormatNumber(value))
	return true
}

// applyKeys applies the whitespace separated keys of line to e. A field that
// is not a key name, such as "12+3=", is typed character by character.
func applyKeys(e *calc.Engine, line string) {
	for _, field := range strings.Fields(line) {
		if ka := calc.ActionForKey(field); ka.Action != calc.ActionNone {
			e.Apply(ka)
			continue
		}
		for _, r := range field {
			e.Apply(calc.ActionForKey(string(r)))
		}
	}
}
