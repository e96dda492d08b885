package ui

import (
	"html/template"
	"io/fs"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// renderMarkdownFile converts an embedded markdown document to HTML.
// The source is trusted, it ships with the binary.
func renderMarkdownFile(fsys fs.FS, name string) (template.HTML, error) {
	source, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	return renderMarkdown(source), nil
}

func renderMarkdown(source []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return template.HTML(markdown.ToHTML(source, p, renderer))
}
