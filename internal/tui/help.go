package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# rechenschnell

Type an expression and watch the preview update. Press **enter** or **=** to
commit the result, then keep typing to continue from it.

## Keys

| Key | Action |
|---|---|
| 0-9 . ( ) | append |
| + - | add, subtract |
| * | multiply (×) |
| / | divide (÷) |
| enter, = | evaluate |
| backspace | delete last character |
| esc, delete | clear everything |
| y | copy the expression |
| ? | toggle this help |
| q, ctrl+c | quit |

Two operators in a row replace each other, so ` + "`5+×`" + ` becomes ` + "`5×`" + `.
Results are rounded to 10 decimal places.
`

// renderHelp renders the help text for the given width, falling back to the
// raw markdown when glamour cannot render it.
func (m *Model) renderHelp(width int) string {
	if width <= 0 {
		width = 80
	}
	if cached, ok := m.helpCache[width]; ok {
		return cached
	}

	out := helpMarkdown
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if rendered, err := renderer.Render(helpMarkdown); err == nil {
			out = strings.TrimSpace(rendered)
		}
	}

	m.helpCache[width] = out
	return out
}
