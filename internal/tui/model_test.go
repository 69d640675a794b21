package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/rechenschnell/internal/config"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeKeys(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func typeString(m *Model, s string) {
	for _, r := range s {
		typeKeys(m, runes(string(r)))
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TUI.DisableClipboard = true
	return New(cfg)
}

func TestModelTypingAndCommit(t *testing.T) {
	m := newTestModel(t)

	typeString(m, "12+3*2")
	assert.Equal(t, "12+3×2", m.Engine().Expression())
	assert.Contains(t, m.View(), "= 18")

	typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "18", m.Engine().Expression())
	assert.Equal(t, 18.0, m.Engine().LastAnswer())
	assert.Equal(t, "=", m.lastButton)

	typeString(m, "/4=")
	assert.Equal(t, "4.5", m.Engine().Expression())
}

func TestModelOperatorReplacement(t *testing.T) {
	m := newTestModel(t)

	typeString(m, "5+*")
	assert.Equal(t, "5×", m.Engine().Expression())
	assert.Equal(t, "×", m.lastButton)
}

func TestModelEditingKeys(t *testing.T) {
	m := newTestModel(t)

	typeString(m, "42")
	typeKeys(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "4", m.Engine().Expression())
	assert.Equal(t, "⌫", m.lastButton)

	typeKeys(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "0", m.Engine().Expression())

	typeString(m, "9=")
	typeKeys(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "0", m.Engine().Expression())
	assert.Equal(t, 0.0, m.Engine().LastAnswer())
	assert.Equal(t, "C", m.lastButton)

	typeString(m, "7")
	typeKeys(m, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "0", m.Engine().Expression())
}

func TestModelIgnoresUnknownKeys(t *testing.T) {
	m := newTestModel(t)
	typeString(m, "1")

	cmd := typeKeys(m, runes("a"), tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyUp})
	assert.Nil(t, cmd)
	assert.Equal(t, "1", m.Engine().Expression())
}

func TestModelInvalidCommitShowsStatus(t *testing.T) {
	m := newTestModel(t)

	typeString(m, "5+")
	typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "5+", m.Engine().Expression())
	assert.True(t, m.statusErr)
	assert.Equal(t, "cannot evaluate: expression ends with an operator", m.status)
	assert.Contains(t, m.View(), "cannot evaluate")

	typeString(m, "1")
	assert.Empty(t, m.status)
}

func TestModelQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		m := newTestModel(t)
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestModelHelpOverlay(t *testing.T) {
	m := newTestModel(t)

	typeKeys(m, runes("?"))
	require.True(t, m.showHelp)
	view := m.View()
	assert.Contains(t, view, "Keys")
	assert.Contains(t, view, "backspace")

	typeString(m, "5")
	assert.Equal(t, "5", m.Engine().Expression())

	typeKeys(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
	assert.Equal(t, "5", m.Engine().Expression())
}

func TestModelCopy(t *testing.T) {
	m := newTestModel(t)
	var copied string
	m.clipboard = func(s string) error {
		copied = s
		return nil
	}

	typeString(m, "6*7=")
	cmd := typeKeys(m, runes("y"))
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Equal(t, "42", copied)
	assert.Equal(t, "copied 42", m.status)
	assert.False(t, m.statusErr)

	m.clipboard = func(string) error { return errors.New("no display") }
	m.Update(typeKeys(m, runes("y"))())
	assert.Equal(t, "no display", m.status)
	assert.True(t, m.statusErr)
}

func TestModelClipboardDisabled(t *testing.T) {
	m := newTestModel(t)

	cmd := typeKeys(m, runes("y"))
	assert.Nil(t, cmd)
	assert.Equal(t, "clipboard disabled", m.status)
}

func TestModelViewLayout(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})

	view := m.View()
	for _, label := range []string{"C", "⌫", "7", "÷", "×", "−", "=", "+"} {
		assert.Contains(t, view, label)
	}
	assert.Contains(t, view, "quit")

	typeString(m, strings.Repeat("1", 80))
	view = m.View()
	assert.Contains(t, view, "…")
	assert.NotContains(t, view, strings.Repeat("1", 80))
}

func TestModelHelpBarHidden(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TUI.ShowHelp = false
	m := New(cfg)
	assert.NotContains(t, m.View(), "quit")
}

func TestModelMaxExpressionLength(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.MaxExpressionLength = 4
	m := New(cfg)

	typeString(m, "123456")
	assert.Equal(t, "1234", m.Engine().Expression())
}

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "12345", width: 10, want: "12345"},
		{in: "12345", width: 5, want: "12345"},
		{in: "123456789", width: 5, want: "…6789"},
		{in: "1×2÷3+4", width: 4, want: "…3+4"},
		{in: "123", width: 0, want: "123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateLeft(tt.in, tt.width), tt.in)
	}
}

func TestModelShortHelpFitsDefaultWidth(t *testing.T) {
	for _, width := range []int{40, 60} {
		m := newTestModel(t)
		m.Update(tea.WindowSizeMsg{Width: width, Height: 20})

		bar := m.help.View(m.keys)
		assert.Contains(t, bar, "q quit", "width %d", width)
		assert.Contains(t, bar, "? help", "width %d", width)
		assert.LessOrEqual(t, lipgloss.Width(bar), width)
	}
}
