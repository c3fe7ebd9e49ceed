package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/formulatag/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML documents and paragraph fragments.
type HTMLParser struct {
	// RootClass restricts the tree to the first element carrying this class,
	// e.g. "ltx_page_main". If set and absent, the tree has no root.
	RootClass string
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, filepath.Ext(filename)),
	}

	// Extract title from <title> tag if present.
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	var start *html.Node
	if p.RootClass != "" {
		start = findClass(doc, p.RootClass)
	} else if start = findBody(doc); start == nil {
		start = doc
	}
	if start == nil {
		return tree, nil
	}
	tree.Root = convert(start)
	return tree, nil
}

// convert copies an html element subtree into doctree nodes, dropping
// non-content elements.
func convert(n *html.Node) *doctree.DocNode {
	node := &doctree.DocNode{Element: strings.ToLower(n.Data)}
	if n.Type == html.DocumentNode {
		node.Element = "#document"
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			node.ID = a.Val
		case "class":
			node.Classes = strings.Fields(a.Val)
		}
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text.WriteString(c.Data)
		case html.ElementNode:
			switch c.Data {
			case "script", "style":
				continue
			}
			node.Children = append(node.Children, convert(c))
		}
	}
	node.Text = text.String()
	return node
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func findClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && containsField(a.Val, class) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func containsField(s, field string) bool {
	for _, f := range strings.Fields(s) {
		if f == field {
			return true
		}
	}
	return false
}
