// Package session holds the annotation state for one loaded document or
// paragraph: which formula nodes exist and in what order, the tag of each,
// the current selection, and whether there are unsaved changes.
//
// A Session is owned by a single control flow. Views subscribe to it rather
// than keeping their own copy of selection or tag state.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/doctree"
	"github.com/dgallion1/formulatag/internal/vocab"
)

// ErrNoDefaultTag is returned by Discover when no default tag is configured.
var ErrNoDefaultTag = errors.New("default tag is required")

// Source lists candidate nodes in document order. *doctree.DocTree
// implements it; tests use synthetic lists.
type Source interface {
	Candidates() ([]doctree.Candidate, error)
}

// Saver persists a full annotation map for a document.
type Saver interface {
	SaveAnnotations(ctx context.Context, docID string, m annotation.Map) error
}

// Node is an annotatable node and its position in navigation order.
type Node struct {
	ID      string `json:"id"`
	Ordinal int    `json:"ordinal"`
}

// Options configures discovery.
type Options struct {
	DocID string

	// DefaultTag is assigned to nodes missing from the seed map. Falls back
	// to Vocabulary.Default.
	DefaultTag string

	// Vocabulary, if set, replaces unknown seeded tags with the default tag.
	Vocabulary *vocab.Vocabulary

	// PruneStale drops seeded entries whose ids were not discovered.
	PruneStale bool
}

// Session is the state of one annotation pass.
type Session struct {
	docID       string
	defaultTag  string
	nodes       []Node
	index       map[string]int
	annotations annotation.Map
	selected    string
	dirty       bool
	observers   []Observer
}

// Discover builds a session from the candidates of src. A candidate enclosed
// by an already retained node is skipped, so an equation group and the
// formulas inside it are not annotated twice. Retained nodes get dense
// ordinals in document order and the seeded tag if present, else the
// default tag. The new session has no selection and is clean.
func Discover(src Source, existing annotation.Map, opts Options) (*Session, error) {
	defaultTag := opts.DefaultTag
	if defaultTag == "" && opts.Vocabulary != nil {
		defaultTag = opts.Vocabulary.Default
	}
	if defaultTag == "" {
		return nil, ErrNoDefaultTag
	}

	cands, err := src.Candidates()
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", opts.DocID, err)
	}

	s := &Session{
		docID:       opts.DocID,
		defaultTag:  defaultTag,
		index:       make(map[string]int, len(cands)),
		annotations: make(annotation.Map, len(cands)),
	}

	retained := make(map[*doctree.DocNode]bool, len(cands))
	for _, c := range cands {
		if _, dup := s.index[c.ID]; dup {
			continue
		}
		if s.enclosedByRetained(c, retained) {
			continue
		}
		s.index[c.ID] = len(s.nodes)
		s.nodes = append(s.nodes, Node{ID: c.ID, Ordinal: len(s.nodes)})
		if c.Node != nil {
			retained[c.Node] = true
		}
	}

	for id, tag := range existing {
		if _, ok := s.index[id]; !ok {
			if !opts.PruneStale {
				s.annotations[id] = tag
			}
			continue
		}
		if opts.Vocabulary != nil {
			tag = opts.Vocabulary.Normalize(tag)
		}
		s.annotations[id] = tag
	}
	for _, n := range s.nodes {
		if _, ok := s.annotations[n.ID]; !ok {
			s.annotations[n.ID] = defaultTag
		}
	}
	return s, nil
}

// enclosedByRetained compares ancestor nodes when the candidate carries
// them. A later element reusing a retained id must not suppress its own
// contents. Candidates without nodes fall back to ids.
func (s *Session) enclosedByRetained(c doctree.Candidate, retained map[*doctree.DocNode]bool) bool {
	if len(c.EnclosingNodes) > 0 {
		for _, n := range c.EnclosingNodes {
			if retained[n] {
				return true
			}
		}
		return false
	}
	for _, id := range c.Enclosing {
		if _, ok := s.index[id]; ok {
			return true
		}
	}
	return false
}

// DocID returns the document or paragraph id the session persists under.
func (s *Session) DocID() string { return s.docID }

// DefaultTag returns the tag assigned to unseeded nodes.
func (s *Session) DefaultTag() string { return s.defaultTag }

// Len returns the number of annotatable nodes.
func (s *Session) Len() int { return len(s.nodes) }

// Nodes returns the annotatable nodes in navigation order.
func (s *Session) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Ordinal returns the navigation position of a node.
func (s *Session) Ordinal(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Selected returns the selected node id, if any.
func (s *Session) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// Tag returns the tag of a node.
func (s *Session) Tag(id string) (string, bool) {
	t, ok := s.annotations[id]
	return t, ok
}

// Dirty reports whether the map changed since the last successful persist.
func (s *Session) Dirty() bool { return s.dirty }

// Annotations returns a copy of the current annotation map.
func (s *Session) Annotations() annotation.Map { return s.annotations.Clone() }

// Select makes id the selected node. Unknown ids are ignored; they show up
// when a handler from a previous load fires after re-discovery. scroll is
// passed through to observers.
func (s *Session) Select(id string, scroll bool) {
	if _, ok := s.index[id]; !ok {
		return
	}
	prev := s.selected
	s.selected = id
	s.emit(Event{Kind: EventSelected, NodeID: id, Previous: prev, Scroll: scroll})
}

// Deselect clears the selection.
func (s *Session) Deselect() {
	if s.selected == "" {
		return
	}
	prev := s.selected
	s.selected = ""
	s.emit(Event{Kind: EventDeselected, Previous: prev})
}

// SetTag tags the selected node and marks the session dirty. With nothing
// selected it does nothing, so stray key presses are harmless.
func (s *Session) SetTag(tag string) {
	if s.selected == "" {
		return
	}
	s.annotations[s.selected] = tag
	s.dirty = true
	s.emit(Event{Kind: EventTagged, NodeID: s.selected, Tag: tag})
}

// Navigate moves the selection by offset, wrapping around both ends. With
// nothing selected it selects the first node. Empty sessions are left alone.
func (s *Session) Navigate(offset int) {
	n := len(s.nodes)
	if n == 0 {
		return
	}
	if s.selected == "" {
		s.Select(s.nodes[0].ID, true)
		return
	}
	i := ((s.index[s.selected]+offset)%n + n) % n
	s.Select(s.nodes[i].ID, true)
}

// Snapshot returns the map to send to the store. Callers persisting
// asynchronously send the snapshot and call MarkPersisted on success.
func (s *Session) Snapshot() annotation.Map { return s.annotations.Clone() }

// MarkPersisted clears the dirty flag. A success for an older snapshot still
// clears it even if the map changed since; the store has no versioning to
// tell the two apart.
func (s *Session) MarkPersisted() {
	s.dirty = false
	s.emit(Event{Kind: EventPersisted})
}

// Persist sends the full map to saver under the session's document id.
// On failure the session stays dirty.
func (s *Session) Persist(ctx context.Context, saver Saver) error {
	if err := saver.SaveAnnotations(ctx, s.docID, s.Snapshot()); err != nil {
		return fmt.Errorf("persist %s: %w", s.docID, err)
	}
	s.MarkPersisted()
	return nil
}
