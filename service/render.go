package service

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"enviroagent/model"
)

// RenderedMessage is a Message plus its markdown content rendered for the dashboard.
type RenderedMessage struct {
	model.Message
	HTML string `json:"html"`
}

// RenderMarkdown converts message markdown to HTML, dropping any raw HTML in the source.
func RenderMarkdown(content string) string {
	// parsers keep state, one per document
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(content), p, renderer))
}

func RenderMessages(messages []model.Message) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, RenderedMessage{Message: m, HTML: RenderMarkdown(m.Content)})
	}
	return out
}
