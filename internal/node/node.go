package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/discovery"
	"github.com/rudransh-shrivastava/peer-drop/internal/history"
	"github.com/rudransh-shrivastava/peer-drop/internal/session"
	"github.com/rudransh-shrivastava/peer-drop/internal/transfer"
	"github.com/sirupsen/logrus"
)

var (
	ErrPeerNotOnline = errors.New("node: peer not online")
	ErrClosed        = errors.New("node: closed")
	ErrNoHistory     = errors.New("node: transfer history disabled")
)

type DeviceInfo struct {
	ID   string
	Name string
	Port int
}

type sendCommand struct {
	ctx      context.Context
	peerName string
	path     string
	reply    chan error
}

// Node ties discovery, sessions and transfers together. All state changes
// happen on the goroutine calling Tick or Run; queries are safe from any
// goroutine.
type Node struct {
	opts Options
	log  *logrus.Entry

	discovery PeerSource
	sessions  *session.Manager
	engine    *transfer.Engine
	history   *history.Store

	commands chan sendCommand
	reap     *time.Ticker

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts every background component. They stop when ctx is cancelled or
// Close is called.
func New(ctx context.Context, opts Options) (*Node, error) {
	opts = opts.withDefaults()

	engine, err := transfer.New(transfer.Config{
		DownloadDir:  opts.DownloadDir,
		Host:         opts.Host,
		Port:         opts.Port,
		PortAttempts: opts.PortAttempts,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	src := opts.Discovery
	if src == nil {
		d, err := discovery.New(discovery.Config{
			Name:     opts.DeviceName,
			Group:    opts.DiscoveryGroup,
			Interval: opts.AnnounceInterval,
			Logger:   opts.Logger,
		})
		if err != nil {
			_ = engine.Close()
			return nil, err
		}
		src = d
	}

	n := &Node{
		opts:      opts,
		log:       opts.Logger.WithField("component", "node"),
		discovery: src,
		sessions:  session.NewManager(session.Options{}),
		engine:    engine,
		history:   opts.History,
		commands:  make(chan sendCommand, commandQueueSize),
		reap:      time.NewTicker(opts.ReapInterval),
	}

	n.ctx, n.cancel = context.WithCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.sessions.Run(n.ctx)
	}()
	src.Start(n.ctx)
	engine.Start(n.ctx)

	n.log.WithFields(logrus.Fields{
		"id":   src.ID(),
		"name": opts.DeviceName,
		"port": engine.Port(),
	}).Info("Node is now running")
	return n, nil
}

// SendFile asks the node to send the file at path to the online peer with
// the given display name, and waits for the result. It needs Run (or
// repeated Tick calls) on another goroutine.
func (n *Node) SendFile(ctx context.Context, peerName, path string) error {
	cmd := sendCommand{ctx: ctx, peerName: peerName, path: path, reply: make(chan error, 1)}

	select {
	case n.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-n.ctx.Done():
		return ErrClosed
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-n.ctx.Done():
		return ErrClosed
	}
}

func (n *Node) ListOnlinePeers() []discovery.Peer {
	sessions := n.sessions.ListOnline()
	out := make([]discovery.Peer, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Peer)
	}
	return out
}

func (n *Node) OnlineCount() int {
	return n.sessions.OnlineCount()
}

func (n *Node) DeviceInfo() DeviceInfo {
	return DeviceInfo{
		ID:   n.discovery.ID(),
		Name: n.opts.DeviceName,
		Port: n.engine.Port(),
	}
}

// RecentTransfers lists recorded transfers, newest first.
func (n *Node) RecentTransfers(ctx context.Context, limit int) ([]history.Transfer, error) {
	if n.history == nil {
		return nil, ErrNoHistory
	}
	return n.history.Recent(ctx, limit)
}

func (n *Node) Close() error {
	var err error
	n.closeOnce.Do(func() {
		n.log.Info("Shutting down node")
		n.cancel()
		n.reap.Stop()

		err = errors.Join(n.engine.Close(), n.discovery.Close())
		n.wg.Wait()
	})
	return err
}

func (n *Node) record(t *history.Transfer) {
	if n.history == nil {
		return
	}
	if err := n.history.Record(n.ctx, t); err != nil {
		n.log.WithError(err).Warn("Failed to record transfer")
	}
}

func (n *Node) String() string {
	info := n.DeviceInfo()
	return fmt.Sprintf("%s (%s) on port %d", info.Name, info.ID, info.Port)
}
