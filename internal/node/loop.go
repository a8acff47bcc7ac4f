package node

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rudransh-shrivastava/peer-drop/internal/history"
	"github.com/rudransh-shrivastava/peer-drop/internal/session"
	"github.com/rudransh-shrivastava/peer-drop/internal/transfer"
	"github.com/sirupsen/logrus"
)

// Tick handles exactly one pending input and returns the notification it
// produced, or nil when the input was internal bookkeeping. It blocks until
// some input is ready, ctx is cancelled or the node is closed.
func (n *Node) Tick(ctx context.Context) (Notification, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case <-n.ctx.Done():
		return nil, ErrClosed

	case peer := <-n.discovery.Peers():
		if n.sessions.OnPeerObserved(peer) {
			n.log.WithField("peer", peer.String()).Debug("New peer observed")
		}
		return nil, nil

	case ev := <-n.sessions.Events():
		n.logSessionEvent(ev)
		return SessionNotification{Event: ev}, nil

	case ev := <-n.engine.Events():
		n.recordReceive(ev)
		return TransferNotification{Event: ev}, nil

	case cmd := <-n.commands:
		n.handleSendFile(cmd)
		return nil, nil

	case <-n.reap.C:
		if removed := n.sessions.ReapOffline(n.opts.OfflineTimeout); removed > 0 {
			n.log.WithField("count", removed).Debug("Reaped silent peers")
		}
		return nil, nil
	}
}

// Run calls Tick until ctx is cancelled or the node is closed, passing every
// notification to handle.
func (n *Node) Run(ctx context.Context, handle func(Notification)) error {
	for {
		ntf, err := n.Tick(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ntf != nil && handle != nil {
			handle(ntf)
		}
	}
}

func (n *Node) handleSendFile(cmd sendCommand) {
	s, ok := n.sessions.FindByName(cmd.peerName)
	if !ok {
		cmd.reply <- fmt.Errorf("%w: %q", ErrPeerNotOnline, cmd.peerName)
		return
	}

	info, err := transfer.CheckFile(cmd.path)
	if err != nil {
		cmd.reply <- err
		return
	}

	if n.ctx.Err() != nil {
		cmd.reply <- ErrClosed
		return
	}

	addr := peerAddress(s.Peer, n.opts.PeerPort)
	log := n.log.WithFields(logrus.Fields{"peer": s.Peer.Name, "addr": addr, "file": cmd.path})
	log.Info("Sending file")

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithCancel(cmd.ctx)
		defer cancel()
		stop := context.AfterFunc(n.ctx, cancel)
		defer stop()

		err := n.engine.Send(ctx, addr, cmd.path)
		if err != nil {
			log.WithError(err).Warn("Send failed")
		} else {
			log.Info("File sent")
		}

		t := &history.Transfer{
			Direction: history.DirectionOut,
			Peer:      s.Peer.Name,
			FileName:  filepath.Base(cmd.path),
			FilePath:  cmd.path,
			FileSize:  info.Size(),
			Status:    history.StatusDone,
		}
		if err != nil {
			t.Status = history.StatusFailed
			t.Error = err.Error()
		}
		n.record(t)

		cmd.reply <- err
	}()
}

func (n *Node) recordReceive(ev transfer.Event) {
	t := &history.Transfer{
		Direction: history.DirectionIn,
		Peer:      ev.Sender,
		FileName:  ev.FileName,
		FilePath:  ev.FilePath,
		FileSize:  ev.FileSize,
		Status:    history.StatusDone,
		Error:     ev.Error,
	}
	if ev.Type == transfer.EventReceiveFailed {
		t.Status = history.StatusFailed
	}
	n.record(t)
}

func (n *Node) logSessionEvent(ev session.Event) {
	log := n.log.WithFields(logrus.Fields{"peer": ev.Peer.Name, "id": ev.Peer.ID})
	switch ev.Type {
	case session.EventPeerOnline:
		log.Info("Peer online")
	case session.EventPeerOffline:
		log.Info("Peer offline")
	}
}
