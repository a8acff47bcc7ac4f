package session

import (
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/discovery"
)

type State int

const (
	Online State = iota
	Offline
)

func (s State) String() string {
	switch s {
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// Session is the tracked record for one peer. Expired sessions are removed,
// so every Session handed out by the Manager is Online.
type Session struct {
	Peer     discovery.Peer
	State    State
	LastSeen time.Time
}

type EventType string

const (
	EventPeerOnline  EventType = "peer_online"
	EventPeerOffline EventType = "peer_offline"
)

type Event struct {
	Type EventType
	Peer discovery.Peer
	At   time.Time
}
