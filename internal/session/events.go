package session

import "sync"

// EventKind identifies a session state change.
type EventKind int

const (
	EventSelected EventKind = iota
	EventDeselected
	EventTagged
	EventPersisted
)

func (k EventKind) String() string {
	switch k {
	case EventSelected:
		return "selected"
	case EventDeselected:
		return "deselected"
	case EventTagged:
		return "tagged"
	case EventPersisted:
		return "persisted"
	}
	return "unknown"
}

// Event describes a state change delivered to observers.
type Event struct {
	Kind     EventKind
	NodeID   string // selected or tagged node
	Previous string // previously selected node, if any
	Tag      string // new tag for EventTagged
	Scroll   bool   // view hint for EventSelected
}

// Observer receives session events synchronously, in order.
type Observer func(Event)

// Subscribe registers an observer for all later state changes.
func (s *Session) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Session) emit(e Event) {
	for _, o := range s.observers {
		o(e)
	}
}

// Ticket identifies one document or paragraph load.
type Ticket uint64

// Loader hands out tickets so that a response to a superseded load can be
// recognised and dropped instead of replacing a newer session.
type Loader struct {
	mu      sync.Mutex
	current Ticket
}

// Begin starts a new load, superseding all earlier ones.
func (l *Loader) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current++
	return l.current
}

// Current reports whether t is the most recent load.
func (l *Loader) Current(t Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return t == l.current
}
