// File: internal/handlers/markdown.go
package handlers

import (
	"bytes"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// renderMarkdown converts assistant markdown to HTML for the client bubble.
// On failure the raw text is returned so the message is never lost.
func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		log.Printf("[Handlers] markdown render failed: %v", err)
		return content
	}
	return buf.String()
}
