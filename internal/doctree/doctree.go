package doctree

import (
	"errors"
	"slices"
	"strings"
)

// ErrNoRoot is returned when a document has no traversable root.
var ErrNoRoot = errors.New("document has no root")

// DocTree is the root of a parsed document.
type DocTree struct {
	Title string   // Document title (from <title> or filename)
	Root  *DocNode // <body>, or the fragment root for paragraph HTML
}

// DocNode is an element in the document tree.
type DocNode struct {
	Element  string     // Lower-case element name, e.g. "math", "div"
	ID       string     // id attribute (empty if absent)
	Classes  []string   // class attribute split on whitespace
	Text     string     // Concatenated text of direct text children
	Children []*DocNode // Child elements in document order
}

// HasClass reports whether the node carries the given class.
func (n *DocNode) HasClass(class string) bool {
	return slices.Contains(n.Classes, class)
}

// TextContent returns the trimmed text of the node and all its descendants.
func (n *DocNode) TextContent() string {
	var buf strings.Builder
	var walk func(*DocNode)
	walk = func(n *DocNode) {
		buf.WriteString(n.Text)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// Matcher decides whether a node is an annotation candidate.
type Matcher func(*DocNode) bool

// MathMatcher matches MathML formulas, equation groups, and equations with an id.
func MathMatcher(n *DocNode) bool {
	if n.Element == "math" || n.HasClass("ltx_equationgroup") {
		return true
	}
	return n.HasClass("ltx_equation") && n.ID != ""
}

// Candidate is a matching node in document order.
type Candidate struct {
	ID        string
	Node      *DocNode
	Enclosing []string // ids of matching ancestors, outermost first

	// EnclosingNodes parallels Enclosing. Ids are not unique in real
	// documents, so callers that need the actual ancestor compare these.
	EnclosingNodes []*DocNode
}

// Candidates lists math candidates using MathMatcher.
func (t *DocTree) Candidates() ([]Candidate, error) {
	return t.CandidatesMatching(MathMatcher)
}

// CandidatesMatching walks the tree in document order and returns every
// node accepted by match. Nested matches are returned too, carrying the ids
// of the matches that enclose them. Matching nodes without an id are
// skipped since they cannot be keyed.
func (t *DocTree) CandidatesMatching(match Matcher) ([]Candidate, error) {
	if t == nil || t.Root == nil {
		return nil, ErrNoRoot
	}

	var out []Candidate
	var stack []string
	var nodes []*DocNode
	var walk func(*DocNode)
	walk = func(n *DocNode) {
		pushed := false
		if n.ID != "" && match(n) {
			out = append(out, Candidate{
				ID:             n.ID,
				Node:           n,
				Enclosing:      slices.Clone(stack),
				EnclosingNodes: slices.Clone(nodes),
			})
			stack = append(stack, n.ID)
			nodes = append(nodes, n)
			pushed = true
		}
		for _, c := range n.Children {
			walk(c)
		}
		if pushed {
			stack = stack[:len(stack)-1]
			nodes = nodes[:len(nodes)-1]
		}
	}
	walk(t.Root)
	return out, nil
}

// Find returns the first node with the given id.
func (t *DocTree) Find(id string) *DocNode {
	if t == nil || t.Root == nil {
		return nil
	}
	var found *DocNode
	var walk func(*DocNode) bool
	walk = func(n *DocNode) bool {
		if n.ID == id {
			found = n
			return true
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(t.Root)
	return found
}
