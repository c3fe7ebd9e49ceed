package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/formulatag/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options apply to every format.
type Options struct {
	// RootClass limits discovery to the first element with this class.
	RootClass string
}

// formats maps a lowercase extension to its parser. Markdown is only useful
// when it embeds MathML as raw HTML.
var formats = map[string]func(Options) Parser{
	".html":     newHTML,
	".htm":      newHTML,
	".xhtml":    newHTML,
	".md":       newMarkdown,
	".markdown": newMarkdown,
}

func newHTML(o Options) Parser     { return &HTMLParser{RootClass: o.RootClass} }
func newMarkdown(o Options) Parser { return &MarkdownParser{RootClass: o.RootClass} }

// ForFile returns the parser for filename's extension.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mk, ok := formats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	return mk(opts), nil
}

// IsSupportedExtension reports whether ForFile accepts filename.
func IsSupportedExtension(filename string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// IsHTML reports whether filename is parsed as HTML directly.
func IsHTML(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}
