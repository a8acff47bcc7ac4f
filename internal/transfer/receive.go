package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/rudransh-shrivastava/peer-drop/internal/protocol"
	"github.com/rudransh-shrivastava/peer-drop/internal/transport"
	"github.com/sirupsen/logrus"
)

const (
	codeOK             quic.ApplicationErrorCode = 0
	codeReceiveFailed  quic.ApplicationErrorCode = 1
	maxCloseMessageLen                           = 256
)

func (e *Engine) acceptLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		peer, err := e.tr.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
				return
			}
			e.log.WithError(err).Warn("Failed to accept connection")
			e.emit(ctx, Event{
				Type:  EventReceiveFailed,
				Error: fmt.Sprintf("accept: %v", err),
				At:    time.Now(),
			})
			continue
		}

		e.wg.Add(1)
		go e.handleConn(ctx, peer)
	}
}

func (e *Engine) handleConn(ctx context.Context, peer *transport.Peer) {
	defer e.wg.Done()

	sender := peer.RemoteAddr()
	log := e.log.WithField("sender", sender)

	ev, err := e.receive(ctx, peer)
	if err != nil {
		log.WithError(err).Warn("Receive failed")
		_ = peer.CloseWithError(codeReceiveFailed, closeMessage(err))
		e.emit(ctx, Event{
			Type:   EventReceiveFailed,
			Sender: sender,
			Error:  err.Error(),
			At:     time.Now(),
		})
		return
	}

	_ = peer.CloseWithError(codeOK, "")
	ev.Sender = sender
	log.WithFields(logrus.Fields{"file": ev.FilePath, "bytes": ev.FileSize}).Info("File received")
	e.emit(ctx, ev)
}

func (e *Engine) receive(ctx context.Context, peer *transport.Peer) (Event, error) {
	stream, err := peer.AcceptReceiveStream(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("accept stream: %w", err)
	}

	header, err := protocol.ReadHeader(stream)
	if err != nil {
		stream.CancelRead(quic.StreamErrorCode(codeReceiveFailed))
		return Event{}, fmt.Errorf("decode header: %w", err)
	}

	f, path, err := createUnique(e.dir, SanitizeFileName(header.FileName))
	if err != nil {
		stream.CancelRead(quic.StreamErrorCode(codeReceiveFailed))
		return Event{}, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, stream)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return Event{}, fmt.Errorf("write %s: %w", path, err)
	}

	if uint64(n) != header.FileSize {
		e.log.WithFields(logrus.Fields{"declared": header.FileSize, "written": n}).Debug("Size differs from header")
	}

	return Event{
		Type:     EventFileReceived,
		FileName: header.FileName,
		FileSize: n,
		FilePath: path,
		At:       time.Now(),
	}, nil
}

func closeMessage(err error) string {
	msg := err.Error()
	if len(msg) > maxCloseMessageLen {
		msg = msg[:maxCloseMessageLen]
	}
	return msg
}
