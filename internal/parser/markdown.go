package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/formulatag/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownParser handles Markdown files with embedded MathML. The source is
// rendered to HTML with raw HTML passed through, then parsed like any other
// HTML document.
type MarkdownParser struct {
	RootClass string
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	return (&HTMLParser{RootClass: p.RootClass}).Parse(&buf, filename)
}
