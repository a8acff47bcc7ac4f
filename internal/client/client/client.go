package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/rudransh-shrivastava/peer-drop/internal/protocol"
)

var ErrUnexpectedReply = errors.New("client: unexpected reply from daemon")

// Client talks to a running daemon over its unix socket. It is not safe for
// concurrent use; Watch takes over the connection for good.
type Client struct {
	DaemonConn net.Conn
	codec      *protocol.Codec
}

func NewClient(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", socketPath, err)
	}
	return &Client{DaemonConn: conn, codec: protocol.NewCodec()}, nil
}

// SendFile blocks until the daemon finished sending path to peerName.
func (c *Client) SendFile(peerName, path string) error {
	_, err := roundTrip[*protocol.SendFileRes](c, &protocol.SendFileReq{PeerName: peerName, Path: path})
	return err
}

func (c *Client) ListPeers() ([]protocol.PeerInfo, error) {
	res, err := roundTrip[*protocol.PeerListRes](c, &protocol.PeerListReq{})
	if err != nil {
		return nil, err
	}
	return res.Peers, nil
}

func (c *Client) DeviceInfo() (*protocol.DeviceInfoRes, error) {
	return roundTrip[*protocol.DeviceInfoRes](c, &protocol.DeviceInfoReq{})
}

func (c *Client) History(limit int) ([]protocol.TransferRecord, error) {
	res, err := roundTrip[*protocol.HistoryRes](c, &protocol.HistoryReq{Limit: limit})
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Watch calls fn for every notification the daemon pushes, until ctx is
// cancelled or the daemon goes away.
func (c *Client) Watch(ctx context.Context, fn func(*protocol.Notification)) error {
	if err := c.codec.WriteMessage(c.DaemonConn, &protocol.WatchReq{}); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = c.DaemonConn.Close() })
	defer stop()

	for {
		msg, err := c.codec.ReadMessage(c.DaemonConn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		ntf, ok := msg.(*protocol.Notification)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnexpectedReply, msg.Type())
		}
		fn(ntf)
	}
}

func (c *Client) Close() error {
	return c.DaemonConn.Close()
}

// roundTrip sends req and expects a reply of type T. A daemon error reply is
// returned as a *protocol.Error.
func roundTrip[T protocol.Message](c *Client, req protocol.Message) (T, error) {
	var zero T
	if err := c.codec.WriteMessage(c.DaemonConn, req); err != nil {
		return zero, err
	}

	msg, err := c.codec.ReadMessage(c.DaemonConn)
	if err != nil {
		return zero, err
	}

	switch res := msg.(type) {
	case T:
		return res, nil
	case *protocol.Error:
		return zero, res
	default:
		return zero, fmt.Errorf("%w: %s", ErrUnexpectedReply, msg.Type())
	}
}
