package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/quic-go/quic-go"
)

// Transport owns one UDP socket used both to accept and to dial QUIC connections.
type Transport struct {
	conn      *net.UDPConn
	listener  *quic.Listener
	quicConf  *quic.Config
	tlsConf   *tls.Config
	tr        *quic.Transport
	closeOnce sync.Once
}

// NewTransport binds addr (for example ":5000" or "127.0.0.1:0") and starts listening.
func NewTransport(addr string) (*Transport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}

	tlsConf, err := DefaultTLSConfig()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls config: %w", err)
	}

	tr := &quic.Transport{Conn: conn}
	quicConf := DefaultQUICConfig()

	listener, err := tr.Listen(tlsConf, quicConf)
	if err != nil {
		_ = tr.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}

	return &Transport{
		conn:     conn,
		listener: listener,
		quicConf: quicConf,
		tlsConf:  tlsConf,
		tr:       tr,
	}, nil
}

func (t *Transport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Port is the bound UDP port.
func (t *Transport) Port() int {
	return t.conn.LocalAddr().(*net.UDPAddr).Port
}

func (t *Transport) Accept(ctx context.Context) (*Peer, error) {
	conn, err := t.listener.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return NewPeer(conn), nil
}

func (t *Transport) Dial(ctx context.Context, addr string) (*Peer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := t.tr.Dial(ctx, udpAddr, t.tlsConf, t.quicConf)
	if err != nil {
		return nil, err
	}
	return NewPeer(conn), nil
}

func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		_ = t.listener.Close()
		err = t.tr.Close()
		_ = t.conn.Close()
	})
	return err
}
