package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/codefionn/rechenschnell/internal/calc"
)

// Page renders the calculator page. The keypad is the same layout the
// terminal front-end draws, so both stay in step.
func Page(token, title string, keypad [][]calc.Button) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := templ.EscapeString[string]
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body data-token="%s">
<main class="calculator">
<div class="display">
<div id="expression" class="expression">0</div>
<div id="preview" class="preview"></div>
</div>
<div class="keypad">
`, e(title), e(token)); err != nil {
			return err
		}

		for _, row := range keypad {
			for _, b := range row {
				class := "key"
				switch {
				case b.Action == "equals":
					class += " key-equals"
				case b.Action != "":
					class += " key-control"
				case calc.IsOperator(b.Value):
					class += " key-operator"
				}
				if _, err := fmt.Fprintf(w, "<button type=\"button\" class=\"%s\" data-value=\"%s\" data-action=\"%s\" title=\"%s\">%s</button>\n",
					class, e(b.Value), e(b.Action), e(b.Key), e(b.Label)); err != nil {
					return err
				}
			}
		}

		_, err := io.WriteString(w, `</div>
<div id="status" class="status"></div>
</main>
<script src="/static/calculator.js"></script>
</body>
</html>
`)
		return err
	})
}
