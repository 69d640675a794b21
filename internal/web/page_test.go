package web

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/rechenschnell/internal/calc"
)

func TestPageEscapesAttributes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Page(`a"b&c`, "<Rechenschnell>", calc.Keypad).Render(context.Background(), &buf))

	page := buf.String()
	assert.Contains(t, page, "<title>&lt;Rechenschnell&gt;</title>")
	assert.Contains(t, page, `data-token="a&#34;b&amp;c"`)
	assert.NotContains(t, page, "<Rechenschnell>")
	assert.Equal(t, 20, strings.Count(page, "<button "))
}
