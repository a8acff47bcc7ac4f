package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/history"
	"github.com/rudransh-shrivastava/peer-drop/internal/protocol"
	"github.com/rudransh-shrivastava/peer-drop/internal/transfer"
	"github.com/sirupsen/logrus"
)

const (
	watcherQueueSize   = 100
	defaultHistorySize = 20
	liveCheckTimeout   = time.Second
)

var ErrSocketInUse = errors.New("node: another daemon is serving the socket")

// IPCServer exposes a Node to local clients over a unix socket.
type IPCServer struct {
	node  *Node
	path  string
	codec *protocol.Codec
	log   *logrus.Entry

	listener net.Listener

	mu       sync.Mutex
	watchers map[chan *protocol.Notification]struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewIPCServer(n *Node, socketPath string) *IPCServer {
	return &IPCServer{
		node:     n,
		path:     socketPath,
		codec:    protocol.NewCodec(),
		log:      n.opts.Logger.WithField("component", "ipc"),
		watchers: make(map[chan *protocol.Notification]struct{}),
	}
}

// Start listens on the socket, replacing a stale one, and serves clients
// until ctx is cancelled or Close is called. A socket another daemon still
// answers on is left alone.
func (s *IPCServer) Start(ctx context.Context) error {
	if conn, err := net.DialTimeout("unix", s.path, liveCheckTimeout); err == nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrSocketInUse, s.path)
	}
	_ = os.Remove(s.path)

	l, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.listener = l
	s.log.WithField("socket", s.path).Info("IPC Server started successfully")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-ctx.Done()
		_ = l.Close()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

func (s *IPCServer) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Warn("Failed to accept client")
			continue
		}
		s.log.Debug("Accepted a new socket connection")

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *IPCServer) handleConn(ctx context.Context, conn net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Unblocks reads and writes once the server shuts down.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		msg, err := s.codec.ReadMessage(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.log.WithError(err).Debug("Client connection ended")
			}
			return
		}

		if _, ok := msg.(*protocol.WatchReq); ok {
			s.watch(ctx, conn)
			return
		}

		if err := s.codec.WriteMessage(conn, s.handle(ctx, msg)); err != nil {
			s.log.WithError(err).Debug("Failed to reply to client")
			return
		}
	}
}

func (s *IPCServer) handle(ctx context.Context, msg protocol.Message) protocol.Message {
	switch m := msg.(type) {
	case *protocol.SendFileReq:
		if err := s.node.SendFile(ctx, m.PeerName, m.Path); err != nil {
			return errorMessage(err)
		}
		return &protocol.SendFileRes{}

	case *protocol.PeerListReq:
		peers := s.node.ListOnlinePeers()
		res := &protocol.PeerListRes{Peers: make([]protocol.PeerInfo, 0, len(peers))}
		for _, p := range peers {
			res.Peers = append(res.Peers, peerInfo(p))
		}
		return res

	case *protocol.DeviceInfoReq:
		info := s.node.DeviceInfo()
		return &protocol.DeviceInfoRes{
			ID:          info.ID,
			Name:        info.Name,
			OnlineCount: s.node.OnlineCount(),
			Port:        info.Port,
		}

	case *protocol.HistoryReq:
		limit := m.Limit
		if limit <= 0 {
			limit = defaultHistorySize
		}
		records, err := s.node.RecentTransfers(ctx, limit)
		if err != nil {
			return errorMessage(err)
		}
		return &protocol.HistoryRes{Records: transferRecords(records)}

	default:
		return &protocol.Error{Code: protocol.ErrInvalidMsg, Message: "unexpected message " + msg.Type().String()}
	}
}

// watch streams notifications to conn until the client goes away.
func (s *IPCServer) watch(ctx context.Context, conn net.Conn) {
	ch := make(chan *protocol.Notification, watcherQueueSize)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
	}()

	// Watchers never send again; a read returning means they hung up.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_, _ = io.Copy(io.Discard, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case ntf := <-ch:
			if err := s.codec.WriteMessage(conn, ntf); err != nil {
				return
			}
		}
	}
}

// Publish fans ntf out to every watcher. Slow watchers miss notifications
// rather than stall the node.
func (s *IPCServer) Publish(ntf Notification) {
	msg := ToMessage(ntf)

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- msg:
		default:
			s.log.WithField("kind", msg.Kind).Warn("Watcher too slow, dropping notification")
		}
	}
}

func (s *IPCServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.listener != nil {
			err = s.listener.Close()
			if errors.Is(err, net.ErrClosed) {
				err = nil
			}
		}
		_ = os.Remove(s.path)
	})
	return err
}

// Wait blocks until every connection handler has returned. Call it after
// cancelling the context passed to Start.
func (s *IPCServer) Wait() {
	s.wg.Wait()
}

func errorMessage(err error) *protocol.Error {
	code := protocol.ErrTransfer
	switch {
	case errors.Is(err, ErrPeerNotOnline):
		code = protocol.ErrPeerNotOnline
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, transfer.ErrNotRegularFile):
		code = protocol.ErrFileNotFound
	case errors.Is(err, ErrNoHistory), errors.Is(err, history.ErrInvalidLimit), errors.Is(err, ErrClosed):
		code = protocol.ErrInternal
	}
	return &protocol.Error{Code: code, Message: err.Error()}
}

func transferRecords(ts []history.Transfer) []protocol.TransferRecord {
	out := make([]protocol.TransferRecord, 0, len(ts))
	for _, t := range ts {
		out = append(out, protocol.TransferRecord{
			CreatedAt: t.CreatedAt,
			Direction: t.Direction,
			Error:     t.Error,
			FileName:  t.FileName,
			FilePath:  t.FilePath,
			FileSize:  t.FileSize,
			Peer:      t.Peer,
			Status:    t.Status,
		})
	}
	return out
}
