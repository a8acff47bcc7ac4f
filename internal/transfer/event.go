package transfer

import "time"

type EventType string

const (
	EventFileReceived  EventType = "file_received"
	EventReceiveFailed EventType = "receive_failed"
)

// Event reports the outcome of one inbound connection. FileSize counts the
// bytes actually written, not the size the sender declared.
type Event struct {
	Type     EventType
	FileName string
	FileSize int64
	FilePath string
	// Sender is empty when the connection failed before its address was known.
	Sender string
	Error  string
	At     time.Time
}
