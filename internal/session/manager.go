package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/discovery"
)

const DefaultQueueSize = 100

type Options struct {
	// Now defaults to time.Now.
	Now       func() time.Time
	QueueSize int
}

// Manager turns peer observations into online/offline transitions. Sessions
// are keyed by peer id; two devices sharing a display name stay distinct.
//
// Mutators never block: events are queued internally and Run moves them onto
// the Events channel in order, waiting for the consumer when it is full.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time

	qmu    sync.Mutex
	queue  []Event
	wake   chan struct{}
	events chan Event
}

func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	return &Manager{
		sessions: make(map[string]*Session),
		now:      opts.Now,
		wake:     make(chan struct{}, 1),
		events:   make(chan Event, opts.QueueSize),
	}
}

func (m *Manager) Events() <-chan Event {
	return m.events
}

// Run delivers queued events until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.wake:
		}

		for _, ev := range m.takeQueued() {
			select {
			case m.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (m *Manager) takeQueued() []Event {
	m.qmu.Lock()
	defer m.qmu.Unlock()

	out := m.queue
	m.queue = nil
	return out
}

func (m *Manager) emit(evs ...Event) {
	if len(evs) == 0 {
		return
	}

	m.qmu.Lock()
	m.queue = append(m.queue, evs...)
	m.qmu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// OnPeerObserved records an observation. It reports whether the peer is new,
// in which case PeerOnline has been queued.
func (m *Manager) OnPeerObserved(peer discovery.Peer) bool {
	seen := peer.LastSeen
	if seen.IsZero() {
		seen = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[peer.ID]; ok {
		if seen.After(s.LastSeen) {
			s.LastSeen = seen
		}
		s.Peer.Name = peer.Name
		s.Peer.Addr = peer.Addr
		s.Peer.LastSeen = s.LastSeen
		return false
	}

	peer.LastSeen = seen
	m.sessions[peer.ID] = &Session{Peer: peer, State: Online, LastSeen: seen}
	m.emit(Event{Type: EventPeerOnline, Peer: peer, At: seen})
	return true
}

// ReapOffline removes every session silent for longer than timeout and
// queues one PeerOffline per removal. It returns the number removed.
func (m *Manager) ReapOffline(timeout time.Duration) int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen) > timeout {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].LastSeen.Before(expired[j].LastSeen)
	})

	evs := make([]Event, 0, len(expired))
	for _, s := range expired {
		s.State = Offline
		evs = append(evs, Event{Type: EventPeerOffline, Peer: s.Peer, At: now})
	}
	m.emit(evs...)
	return len(expired)
}

// ListOnline returns a snapshot sorted by name, then id.
func (m *Manager) ListOnline() []Session {
	m.mu.RLock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Peer.Name != out[j].Peer.Name {
			return out[i].Peer.Name < out[j].Peer.Name
		}
		return out[i].Peer.ID < out[j].Peer.ID
	})
	return out
}

// FindByName returns the session with the given display name. When several
// peers share the name, the most recently seen one wins.
func (m *Manager) FindByName(name string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *Session
	for _, s := range m.sessions {
		if s.Peer.Name != name {
			continue
		}
		if best == nil || s.LastSeen.After(best.LastSeen) {
			best = s
		}
	}
	if best == nil {
		return Session{}, false
	}
	return *best, true
}

func (m *Manager) FindByID(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

func (m *Manager) OnlineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
