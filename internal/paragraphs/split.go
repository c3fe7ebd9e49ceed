package paragraphs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSelector matches LaTeXML paragraph blocks.
const DefaultSelector = "div.ltx_para"

// SplitOptions controls Split.
type SplitOptions struct {
	Selector string // defaults to DefaultSelector
	Prefix   string // prepended to every fragment file name
}

// Split writes every element matching the selector in r to its own file
// in outDir and returns the refs written, in document order. Fragments keep
// the element's outer HTML so ids inside stay intact. Elements without an id
// are numbered by position.
func Split(r io.Reader, outDir string, opts SplitOptions) ([]string, error) {
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create paragraph directory: %w", err)
	}

	var (
		refs    []string
		seen    = map[string]bool{}
		walkErr error
	)
	doc.Find(opts.Selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		frag, err := goquery.OuterHtml(s)
		if err != nil {
			walkErr = fmt.Errorf("render paragraph %d: %w", i, err)
			return false
		}
		name := fragmentName(opts.Prefix, s.AttrOr("id", ""), i)
		if seen[name] {
			name = fragmentName(opts.Prefix, "", i)
		}
		seen[name] = true
		if err := os.WriteFile(filepath.Join(outDir, name), []byte(frag), 0o644); err != nil {
			walkErr = fmt.Errorf("write paragraph %s: %w", name, err)
			return false
		}
		refs = append(refs, name)
		return true
	})
	if walkErr != nil {
		return refs, walkErr
	}
	return refs, nil
}

func fragmentName(prefix, id string, i int) string {
	base := sanitizeName(id)
	if base == "" {
		base = fmt.Sprintf("para_%d", i+1)
	}
	return prefix + base + ".html"
}

// sanitizeName keeps letters, digits, dot, dash and underscore.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", "_")
	}
	return out
}
