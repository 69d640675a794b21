package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/codefionn/rechenschnell/internal/calc"
	"github.com/codefionn/rechenschnell/internal/config"
	"github.com/codefionn/rechenschnell/internal/logger"
)

const (
	defaultWidth = 40
	ellipsis     = "…"
)

// Model is the terminal calculator.
type Model struct {
	engine *calc.Engine
	keys   keyMap
	help   help.Model

	width  int
	height int

	lastButton string
	status     string
	statusErr  bool

	showHelpBar bool
	showHelp    bool
	helpCache   map[int]string

	clipboard func(string) error
}

// New creates the model. A nil cfg uses the defaults.
func New(cfg *config.Config) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Model{
		engine:      calc.New(cfg.Engine.EngineOptions()...),
		keys:        defaultKeyMap(),
		help:        help.New(),
		width:       defaultWidth,
		showHelpBar: cfg.TUI.ShowHelp,
		helpCache:   make(map[int]string),
	}
	m.help.Width = defaultWidth
	if !cfg.TUI.DisableClipboard {
		m.clipboard = systemClipboard
	}
	return m
}

// Engine returns the engine behind the model.
func (m *Model) Engine() *calc.Engine {
	return m.engine
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ClipboardCopyMsg:
		if msg.Success {
			m.setStatus("copied "+msg.Content, false)
		} else {
			m.setStatus(msg.Error, true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if m.clipboard == nil {
			m.setStatus("clipboard disabled", true)
			return m, nil
		}
		return m, copyToClipboard(m.clipboard, m.engine.Expression())
	}

	if m.showHelp && msg.Type == tea.KeyEsc {
		m.showHelp = false
		return m, nil
	}

	name := msg.String()
	ka := calc.ActionForKey(name)
	if ka.Action == calc.ActionNone {
		return m, nil
	}

	if b, ok := calc.ButtonForKey(name); ok {
		m.lastButton = b.Label
	}
	m.status = ""

	if ka.Action == calc.ActionCommit {
		if !m.engine.Commit() {
			_, err := m.engine.Preview()
			m.setStatus(commitError(err), true)
			return m, nil
		}
		logger.Debug("committed %s", m.engine.Expression())
		return m, nil
	}

	m.engine.Apply(ka)
	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.showHelp {
		return m.renderHelp(m.width) + "\n\n" + previewStyle.Render("press ? or esc to return")
	}

	inner := m.width - frameStyle.GetHorizontalFrameSize()
	gridWidth := 4 * (buttonWidth + 1)
	if inner < gridWidth {
		inner = gridWidth
	}

	state := m.engine.State()
	display := lipgloss.JoinVertical(lipgloss.Right,
		lipgloss.PlaceHorizontal(inner, lipgloss.Right, expressionStyle.Render(truncateLeft(state.Expression, inner))),
		lipgloss.PlaceHorizontal(inner, lipgloss.Right, previewStyle.Render(previewLine(state))),
	)

	var b strings.Builder
	b.WriteString(frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, display, "", m.renderKeypad())))
	b.WriteString("\n")

	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(truncate.StringWithTail(m.status, uint(max(m.width, 1)), ellipsis)))
	}
	if m.showHelpBar {
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) renderKeypad() string {
	rows := make([]string, 0, len(calc.Keypad))
	for _, row := range calc.Keypad {
		cells := make([]string, 0, len(row))
		for _, btn := range row {
			cells = append(cells, m.buttonStyle(btn).Render(btn.Label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) buttonStyle(btn calc.Button) lipgloss.Style {
	switch {
	case btn.Label == m.lastButton:
		return activeButtonStyle
	case btn.Action == "equals":
		return equalsButtonStyle
	case btn.Action != "":
		return controlButtonStyle
	case calc.IsOperator(btn.Value):
		return operatorButtonStyle
	default:
		return buttonStyle
	}
}

// previewLine is the preview shown under the expression, blank when invalid.
func previewLine(state calc.State) string {
	if !state.Valid {
		return " "
	}
	return "= " + state.PreviewText()
}

// truncateLeft keeps the end of s visible when it is wider than width,
// prefixing an ellipsis.
func truncateLeft(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	cut := truncate.StringWithTail(reverse(s), uint(width), ellipsis)
	return reverse(cut)
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func commitError(err error) string {
	if err == nil {
		return "cannot evaluate"
	}
	var exprErr *calc.ExpressionError
	if errors.As(err, &exprErr) {
		return fmt.Sprintf("cannot evaluate: %s", exprErr.Reason)
	}
	return err.Error()
}

// Run starts the terminal calculator and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	program := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run terminal UI: %w", err)
	}
	return nil
}
