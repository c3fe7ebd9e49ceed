// Package tui is the terminal view over an annotation session.
//
// The model never keeps its own copy of selection or tag state. It reads
// both from the session and re-renders on session events.
//
// # Thread Safety
//
// A Model is used from the bubbletea event loop only. Saves and paragraph
// fetches run as commands and report back through messages.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/doctree"
	"github.com/dgallion1/formulatag/internal/session"
	"github.com/dgallion1/formulatag/internal/vocab"
)

// Document is one unit of annotation work: a full document or a paragraph.
type Document struct {
	ID       string
	Title    string
	Tree     *doctree.DocTree
	Existing annotation.Map
}

// Fetcher loads the next document in paragraph mode.
type Fetcher func(ctx context.Context) (*Document, error)

// Config configures the model.
type Config struct {
	Vocabulary *vocab.Vocabulary
	Saver      session.Saver

	// Fetch, if set, enables paragraph mode: tab loads the next document.
	Fetch Fetcher

	PruneStale bool
	Context    context.Context
	Log        *slog.Logger
}

// =============================================================================
// Messages
// =============================================================================

type savedMsg struct {
	ticket session.Ticket
	docID  string
	err    error
}

type loadedMsg struct {
	ticket session.Ticket
	doc    *Document
	err    error
}

// =============================================================================
// Model
// =============================================================================

// Model is the bubbletea model for annotating one session at a time.
type Model struct {
	cfg    Config
	keymap map[string]vocab.Action
	styles styles

	sess   *session.Session
	doc    *Document
	labels map[string]string

	loader session.Loader
	ticket session.Ticket // latest load started
	// sessTicket is the load that produced the installed session. Saves
	// are tagged with it, not with a load that may still be in flight.
	sessTicket session.Ticket

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	status         string
	lastSaved      time.Time
	err            error
	confirmDiscard string // key awaiting a second press to drop unsaved changes
	quitting       bool
}

// New builds a model over doc. With a Fetch configured and doc nil, the
// first document is fetched on Init.
func New(cfg Config, doc *Document) (*Model, error) {
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = vocab.Default()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	if cfg.Saver == nil {
		return nil, fmt.Errorf("saver is required")
	}
	if doc == nil && cfg.Fetch == nil {
		return nil, fmt.Errorf("a document or a fetcher is required")
	}
	km, err := cfg.Vocabulary.Keymap()
	if err != nil {
		return nil, fmt.Errorf("key bindings: %w", err)
	}

	m := &Model{
		cfg:    cfg,
		keymap: km,
		styles: newStyles(cfg.Vocabulary),
	}
	m.ticket = m.loader.Begin()
	if doc != nil {
		if err := m.install(doc, m.ticket); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Session returns the current session, or nil while the first paragraph
// is loading.
func (m *Model) Session() *session.Session { return m.sess }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.sess == nil {
		return m.fetch(m.ticket)
	}
	return nil
}

// install replaces the session with one discovered from doc.
func (m *Model) install(doc *Document, ticket session.Ticket) error {
	sess, err := session.Discover(doc.Tree, doc.Existing, session.Options{
		DocID:      doc.ID,
		Vocabulary: m.cfg.Vocabulary,
		PruneStale: m.cfg.PruneStale,
	})
	if err != nil {
		return err
	}

	labels := make(map[string]string, sess.Len())
	for _, n := range sess.Nodes() {
		if node := doc.Tree.Find(n.ID); node != nil {
			labels[n.ID] = formulaLabel(node)
		}
	}

	m.sess = sess
	m.sessTicket = ticket
	m.doc = doc
	m.labels = labels
	m.confirmDiscard = ""
	m.lastSaved = time.Time{}
	sess.Subscribe(m.onEvent)
	m.status = fmt.Sprintf("%s: %d formulas", doc.ID, sess.Len())
	m.cfg.Log.Info("session loaded", "doc_id", doc.ID, "nodes", sess.Len())
	m.refresh()
	return nil
}

// onEvent keeps the view in step with the session.
func (m *Model) onEvent(e session.Event) {
	switch e.Kind {
	case session.EventSelected:
		if e.Scroll {
			m.scrollTo(e.NodeID)
		}
	case session.EventTagged:
		m.status = fmt.Sprintf("%s → %s", e.NodeID, e.Tag)
	case session.EventPersisted:
		m.status = "saved " + m.sess.DocID()
	}
	m.refresh()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vh := max(m.height-4, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, vh)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vh
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case savedMsg:
		return m.handleSaved(msg)

	case loadedMsg:
		return m.handleLoaded(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	pending := m.confirmDiscard
	m.confirmDiscard = ""

	switch key {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "q":
		if m.sess != nil && m.sess.Dirty() && pending != key {
			m.confirmDiscard = key
			m.status = "unsaved changes: press q again to quit"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case "tab":
		if m.cfg.Fetch == nil {
			return m, nil
		}
		if m.sess != nil && m.sess.Dirty() && pending != key {
			m.confirmDiscard = key
			m.status = "unsaved changes: press tab again to skip"
			return m, nil
		}
		m.ticket = m.loader.Begin()
		m.status = "loading…"
		return m, m.fetch(m.ticket)
	}

	if m.sess == nil {
		return m, nil
	}

	if a, ok := m.keymap[key]; ok {
		switch a.Kind {
		case vocab.ActionTag:
			m.sess.SetTag(a.Tag)
		case vocab.ActionSave:
			return m, m.save()
		case vocab.ActionNext:
			m.sess.Navigate(1)
		case vocab.ActionPrev:
			m.sess.Navigate(-1)
		}
		return m, nil
	}

	switch key {
	case "down", "j":
		m.sess.Navigate(1)
	case "up", "k":
		m.sess.Navigate(-1)
	case "esc":
		m.sess.Deselect()
	}
	return m, nil
}

// save sends a snapshot of the map. The session stays dirty until the
// result comes back.
func (m *Model) save() tea.Cmd {
	ctx, saver := m.cfg.Context, m.cfg.Saver
	ticket, docID, snap := m.sessTicket, m.sess.DocID(), m.sess.Snapshot()
	m.status = "saving…"
	return func() tea.Msg {
		err := saver.SaveAnnotations(ctx, docID, snap)
		return savedMsg{ticket: ticket, docID: docID, err: err}
	}
}

func (m *Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.ticket != m.sessTicket {
		// The session this save belonged to is gone.
		m.cfg.Log.Debug("dropping save result for replaced session", "doc_id", msg.docID)
		return m, nil
	}
	if msg.err != nil {
		m.err = msg.err
		m.status = "save failed: " + msg.err.Error()
		m.cfg.Log.Error("save failed", "doc_id", msg.docID, "error", msg.err)
		return m, nil
	}
	m.err = nil
	m.lastSaved = time.Now()
	m.sess.MarkPersisted()
	return m, nil
}

func (m *Model) fetch(ticket session.Ticket) tea.Cmd {
	ctx, fetch := m.cfg.Context, m.cfg.Fetch
	return func() tea.Msg {
		doc, err := fetch(ctx)
		return loadedMsg{ticket: ticket, doc: doc, err: err}
	}
}

func (m *Model) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if !m.loader.Current(msg.ticket) {
		return m, nil
	}
	if msg.err != nil {
		m.err = msg.err
		m.status = "load failed: " + msg.err.Error()
		return m, nil
	}
	if err := m.install(msg.doc, msg.ticket); err != nil {
		m.err = err
		m.status = "load failed: " + err.Error()
		return m, nil
	}
	m.err = nil
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.sess == nil {
		return "Loading...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderNodes())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) refresh() {
	if m.ready && m.sess != nil {
		m.viewport.SetContent(m.renderNodes())
	}
}

// scrollTo centres the node's line in the viewport.
func (m *Model) scrollTo(id string) {
	if !m.ready {
		return
	}
	i, ok := m.sess.Ordinal(id)
	if !ok {
		return
	}
	m.viewport.SetContent(m.renderNodes())
	m.viewport.SetYOffset(max(i-m.viewport.Height/2, 0))
}

// formulaLabel is a one-line rendering of a formula's text.
func formulaLabel(n *doctree.DocNode) string {
	text := strings.Join(strings.Fields(n.TextContent()), " ")
	const limit = 60
	if r := []rune(text); len(r) > limit {
		text = string(r[:limit-1]) + "…"
	}
	return text
}
