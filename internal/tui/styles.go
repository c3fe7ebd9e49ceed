package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dgallion1/formulatag/internal/vocab"
)

type styles struct {
	tags     map[string]lipgloss.Style
	unknown  lipgloss.Style
	header   lipgloss.Style
	selected lipgloss.Style
	dim      lipgloss.Style
	errText  lipgloss.Style
	dirty    lipgloss.Style
}

func newStyles(v *vocab.Vocabulary) styles {
	s := styles{
		tags:     make(map[string]lipgloss.Style, len(v.Tags)),
		unknown:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		header:   lipgloss.NewStyle().Bold(true),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dirty:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
	for _, t := range v.Tags {
		s.tags[t.ID] = lipgloss.NewStyle().
			Background(lipgloss.Color(t.Color)).
			Foreground(lipgloss.Color("#000")).
			Padding(0, 1)
	}
	return s
}

func (s styles) tag(id string) lipgloss.Style {
	if st, ok := s.tags[id]; ok {
		return st
	}
	return s.unknown
}

func (m *Model) renderHeader() string {
	title := m.doc.Title
	if title == "" {
		title = m.doc.ID
	}
	state := m.styles.dim.Render("saved")
	if !m.lastSaved.IsZero() {
		state = m.styles.dim.Render("saved " + humanize.Time(m.lastSaved))
	}
	if m.sess.Dirty() {
		state = m.styles.dirty.Render("unsaved")
	}
	return fmt.Sprintf("%s  %s  %s",
		m.styles.header.Render(title),
		m.styles.dim.Render(fmt.Sprintf("[%s, %d formulas]", m.sess.DocID(), m.sess.Len())),
		state)
}

func (m *Model) renderNodes() string {
	if m.sess.Len() == 0 {
		return m.styles.dim.Render("(no formulas found)")
	}
	sel, _ := m.sess.Selected()
	var b strings.Builder
	for _, n := range m.sess.Nodes() {
		tag, _ := m.sess.Tag(n.ID)
		marker := "  "
		line := fmt.Sprintf("%4d %-16s %s", n.Ordinal+1, n.ID, m.labels[n.ID])
		if n.ID == sel {
			marker = "▶ "
			line = m.styles.selected.Render(line)
		}
		b.WriteString(marker)
		b.WriteString(m.styles.tag(tag).Render(tag))
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *Model) renderFooter() string {
	var parts []string
	for _, t := range m.cfg.Vocabulary.Tags {
		if t.Key != "" {
			parts = append(parts, t.Key+" "+m.styles.tag(t.ID).Render(t.Name))
		}
	}
	keys := strings.Join(parts, "  ")
	nav := []string{vocab.KeyNext + "/" + vocab.KeyPrev + " next/prev", vocab.KeySave + " save", "esc deselect", "q quit"}
	if m.cfg.Fetch != nil {
		nav = append(nav, "tab next paragraph")
	}

	status := m.status
	if m.err != nil {
		status = m.styles.errText.Render(status)
	}
	return keys + "\n" + m.styles.dim.Render(strings.Join(nav, " · ")) + "\n" + status
}
