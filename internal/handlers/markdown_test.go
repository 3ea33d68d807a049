// File: internal/handlers/markdown_test.go
package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	html := renderMarkdown("**Fever** and `cough`")
	assert.Contains(t, html, "<strong>Fever</strong>")
	assert.Contains(t, html, "<code>cough</code>")

	// GFM table support.
	html = renderMarkdown("| Drug | Class |\n|---|---|\n| Amoxicillin | Beta-lactam |")
	assert.Contains(t, html, "<table>")

	assert.Equal(t, "", renderMarkdown(""))
}
