package transport

import (
	"context"
	"errors"

	"github.com/quic-go/quic-go"
)

// Peer is one QUIC connection, from either side.
type Peer struct {
	conn *quic.Conn
}

func NewPeer(conn *quic.Conn) *Peer {
	return &Peer{conn: conn}
}

// OpenSendStream opens a unidirectional stream towards the remote side.
func (p *Peer) OpenSendStream(ctx context.Context) (*quic.SendStream, error) {
	return p.conn.OpenUniStreamSync(ctx)
}

// AcceptReceiveStream waits for the remote side to open a unidirectional stream.
func (p *Peer) AcceptReceiveStream(ctx context.Context) (*quic.ReceiveStream, error) {
	return p.conn.AcceptUniStream(ctx)
}

func (p *Peer) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}

// Done is closed once the connection is gone, whichever side closed it.
func (p *Peer) Done() <-chan struct{} {
	return p.conn.Context().Done()
}

// CloseReason returns the application error the remote side closed with, if any.
func (p *Peer) CloseReason() (*quic.ApplicationError, bool) {
	var appErr *quic.ApplicationError
	if errors.As(context.Cause(p.conn.Context()), &appErr) && appErr.Remote {
		return appErr, true
	}
	return nil, false
}

// Err is why the connection ended, or nil while it is still open.
func (p *Peer) Err() error {
	return context.Cause(p.conn.Context())
}

func (p *Peer) Close() error {
	return p.conn.CloseWithError(0, "")
}

func (p *Peer) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	return p.conn.CloseWithError(code, msg)
}
