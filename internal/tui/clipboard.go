package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.design/x/clipboard"
)

// ClipboardCopyMsg reports the outcome of a copy.
type ClipboardCopyMsg struct {
	Content string
	Success bool
	Error   string
}

// systemClipboard writes text to the system clipboard.
func systemClipboard(text string) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// copyToClipboard copies content using write
func copyToClipboard(write func(string) error, content string) tea.Cmd {
	return func() tea.Msg {
		if err := write(content); err != nil {
			return ClipboardCopyMsg{Success: false, Error: err.Error()}
		}
		return ClipboardCopyMsg{Content: content, Success: true}
	}
}
