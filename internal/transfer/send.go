package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/rudransh-shrivastava/peer-drop/internal/protocol"
	"github.com/rudransh-shrivastava/peer-drop/internal/transport"
)

// confirmTimeout bounds how long a sender waits for the receiver to close
// the connection after the stream is finished.
const confirmTimeout = 10 * time.Second

var (
	ErrNotRegularFile = errors.New("transfer: not a regular file")
	ErrRemoteRejected = errors.New("transfer: receiver rejected the file")
)

type sendOptions struct {
	progress io.Writer
}

type SendOption func(*sendOptions)

// WithProgress copies every payload byte sent to w, for progress display.
func WithProgress(w io.Writer) SendOption {
	return func(o *sendOptions) {
		o.progress = w
	}
}

// CheckFile reports whether path names a regular file that can be sent.
func CheckFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return info, nil
}

// SendFile sends one file over a fresh connection from tr to addr. Nothing is
// retried; the caller decides what to do with the error.
func SendFile(ctx context.Context, tr *transport.Transport, addr, path string, opts ...SendOption) error {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}

	info, err := CheckFile(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	peer, err := tr.Dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("transfer: connect %s: %w", addr, err)
	}
	defer func() { _ = peer.Close() }()

	stream, err := peer.OpenSendStream(ctx)
	if err != nil {
		return fmt.Errorf("transfer: open stream: %w", err)
	}

	header := protocol.FileHeader{
		FileName: filepath.Base(path),
		FileSize: uint64(info.Size()),
	}
	if err := protocol.WriteHeader(stream, header); err != nil {
		stream.CancelWrite(quic.StreamErrorCode(codeReceiveFailed))
		return fmt.Errorf("transfer: write header: %w", err)
	}

	var src io.Reader = f
	if o.progress != nil {
		src = io.TeeReader(f, o.progress)
	}
	if _, err := io.Copy(stream, src); err != nil {
		stream.CancelWrite(quic.StreamErrorCode(codeReceiveFailed))
		return fmt.Errorf("transfer: write body: %w", err)
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("transfer: finish stream: %w", err)
	}

	return waitForReceiver(ctx, peer)
}

func waitForReceiver(ctx context.Context, peer *transport.Peer) error {
	timer := time.NewTimer(confirmTimeout)
	defer timer.Stop()

	select {
	case <-peer.Done():
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	reason, ok := peer.CloseReason()
	if !ok {
		return fmt.Errorf("transfer: connection lost before receiver confirmed: %w", peer.Err())
	}
	if reason.ErrorCode != codeOK {
		return fmt.Errorf("%w: %s", ErrRemoteRejected, reason.ErrorMessage)
	}
	return nil
}
