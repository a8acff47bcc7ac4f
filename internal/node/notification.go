package node

import (
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/protocol"
	"github.com/rudransh-shrivastava/peer-drop/internal/session"
	"github.com/rudransh-shrivastava/peer-drop/internal/transfer"
)

// Notification is what a front end sees from the node: either a
// SessionNotification or a TransferNotification.
type Notification interface {
	Kind() string
	Time() time.Time
}

type SessionNotification struct {
	session.Event
}

func (n SessionNotification) Kind() string {
	switch n.Type {
	case session.EventPeerOnline:
		return protocol.KindPeerOnline
	case session.EventPeerOffline:
		return protocol.KindPeerOffline
	default:
		return string(n.Type)
	}
}

func (n SessionNotification) Time() time.Time { return n.At }

type TransferNotification struct {
	transfer.Event
}

func (n TransferNotification) Kind() string {
	switch n.Type {
	case transfer.EventFileReceived:
		return protocol.KindFileReceived
	case transfer.EventReceiveFailed:
		return protocol.KindReceiveError
	default:
		return string(n.Type)
	}
}

func (n TransferNotification) Time() time.Time { return n.At }

// ToMessage converts a notification for the IPC wire.
func ToMessage(ntf Notification) *protocol.Notification {
	msg := &protocol.Notification{
		Kind:      ntf.Kind(),
		Timestamp: ntf.Time().UnixMilli(),
	}

	switch n := ntf.(type) {
	case SessionNotification:
		msg.Peer = peerInfo(n.Peer)
	case TransferNotification:
		msg.FileName = n.FileName
		msg.FileSize = n.FileSize
		msg.FilePath = n.FilePath
		msg.Sender = n.Sender
		msg.Error = n.Error
	}
	return msg
}
