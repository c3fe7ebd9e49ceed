// Package classify guesses a tag for each formula from its MathML shape.
package classify

import (
	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/doctree"
	"github.com/dgallion1/formulatag/internal/vocab"
)

// Kind is the heuristic outcome for one formula.
type Kind int

const (
	None Kind = iota
	Identifier
	Relation
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case Relation:
		return "relation"
	}
	return "none"
}

var relational = map[string]bool{
	"∈": true, "∋": true, "<": true, ">": true, "=": true,
	"≥": true, "≤": true, "⊆": true, "⊂": true, "⊃": true,
}

var identifierElements = map[string]bool{
	"mi": true, "msub": true, "msup": true, "msubsup": true,
}

// Classify returns the kind of a candidate node. A math element is a
// relation when its top-level row has a relational operator and an
// identifier otherwise. A container (equation or equation group) is a
// relation if any formula inside it is one.
func Classify(n *doctree.DocNode) Kind {
	if n.Element == "math" {
		return classifyMath(n, false)
	}
	if len(n.Children) == 0 {
		return None
	}
	for _, inner := range innerFormulas(n) {
		if classifyMath(inner, true) == Relation {
			return Relation
		}
	}
	return Identifier
}

func classifyMath(n *doctree.DocNode, inTable bool) Kind {
	sem := firstChild(n, "semantics")
	if sem == nil {
		return None
	}
	row := firstChild(sem, "mrow")
	if row == nil {
		for _, c := range sem.Children {
			if identifierElements[c.Element] {
				return Identifier
			}
		}
		// A lone operator cell inside an aligned equation table.
		if inTable && hasRelationalOp(sem) {
			return Relation
		}
		return None
	}
	if hasRelationalOp(row) {
		return Relation
	}
	return Identifier
}

func hasRelationalOp(n *doctree.DocNode) bool {
	for _, c := range n.Children {
		if c.Element == "mo" && relational[c.TextContent()] {
			return true
		}
	}
	return false
}

func firstChild(n *doctree.DocNode, element string) *doctree.DocNode {
	for _, c := range n.Children {
		if c.Element == element {
			return c
		}
	}
	return nil
}

// innerFormulas returns the math elements below n, not descending into them.
func innerFormulas(n *doctree.DocNode) []*doctree.DocNode {
	var out []*doctree.DocNode
	var walk func(*doctree.DocNode)
	walk = func(n *doctree.DocNode) {
		for _, c := range n.Children {
			if c.Element == "math" {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Suggest maps every outermost candidate to a tag through the vocabulary's
// suggestion table. Candidates classified as None, or whose kind has no
// mapped tag, are left out so they fall back to the default tag.
func Suggest(cands []doctree.Candidate, v *vocab.Vocabulary) annotation.Map {
	out := annotation.Map{}
	for _, c := range cands {
		if len(c.Enclosing) > 0 || c.Node == nil {
			continue
		}
		if _, dup := out[c.ID]; dup {
			continue
		}
		var tag string
		switch Classify(c.Node) {
		case Identifier:
			tag = v.Suggest.Identifier
		case Relation:
			tag = v.Suggest.Relation
		}
		if tag != "" {
			out[c.ID] = tag
		}
	}
	return out
}

// Seed fills the ids missing from existing with suggested tags. Entries
// already in existing are never overridden.
func Seed(existing, suggested annotation.Map) annotation.Map {
	out := existing.Clone()
	for id, tag := range suggested {
		if _, ok := out[id]; !ok {
			out[id] = tag
		}
	}
	return out
}
