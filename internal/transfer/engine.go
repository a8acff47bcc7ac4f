package transfer

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/rudransh-shrivastava/peer-drop/internal/logger"
	"github.com/rudransh-shrivastava/peer-drop/internal/transport"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPort      = 5000
	DefaultQueueSize = 100
)

type Config struct {
	DownloadDir string
	// Host to bind; all interfaces when empty.
	Host string
	Port int
	// PortAttempts is how many consecutive ports to try starting at Port.
	PortAttempts int
	QueueSize    int
	Logger       *logrus.Logger
}

func (c Config) withDefaults() Config {
	out := c
	if out.PortAttempts <= 0 {
		out.PortAttempts = 1
	}
	if out.QueueSize <= 0 {
		out.QueueSize = DefaultQueueSize
	}
	if out.Logger == nil {
		out.Logger = logger.NewLogger()
	}
	return out
}

// Engine receives files into one download directory and sends files to
// other engines over QUIC.
type Engine struct {
	cfg    Config
	dir    string
	tr     *transport.Transport
	log    *logrus.Entry
	events chan Event

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates the download directory and binds the listening endpoint.
// Either failing is fatal.
func New(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if cfg.DownloadDir == "" {
		return nil, fmt.Errorf("transfer: download directory not set")
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("transfer: create download dir: %w", err)
	}

	tr, err := bind(cfg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:    cfg,
		dir:    cfg.DownloadDir,
		tr:     tr,
		log:    cfg.Logger.WithField("component", "transfer"),
		events: make(chan Event, cfg.QueueSize),
	}, nil
}

func bind(cfg Config) (*transport.Transport, error) {
	attempts := cfg.PortAttempts
	if cfg.Port == 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		port := cfg.Port + i
		if port > 65535 {
			break
		}

		tr, err := transport.NewTransport(net.JoinHostPort(cfg.Host, strconv.Itoa(port)))
		if err == nil {
			if i > 0 {
				cfg.Logger.Warnf("Port %d busy, transfer endpoint bound to %d", cfg.Port, port)
			}
			return tr, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("transfer: bind port %d (%d attempts): %w", cfg.Port, attempts, lastErr)
}

// Start launches the receive loop.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		ctx, e.cancel = context.WithCancel(ctx)

		e.wg.Add(1)
		go e.acceptLoop(ctx)

		e.log.WithFields(logrus.Fields{"port": e.Port(), "dir": e.dir}).Info("Transfer engine listening")
	})
}

// Events yields exactly one event per inbound connection.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Port is the bound port, which may differ from the configured one after fallback.
func (e *Engine) Port() int {
	return e.tr.Port()
}

func (e *Engine) DownloadDir() string {
	return e.dir
}

// Send streams the file at path to the engine listening on addr. It returns
// once the stream is fully written and the receiver has closed the connection.
func (e *Engine) Send(ctx context.Context, addr, path string, opts ...SendOption) error {
	return SendFile(ctx, e.tr, addr, path, opts...)
}

func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
		}
		err = e.tr.Close()
		e.wg.Wait()
	})
	return err
}

func (e *Engine) emit(ctx context.Context, ev Event) {
	select {
	case e.events <- ev:
	case <-ctx.Done():
		e.log.WithField("type", ev.Type).Debug("Dropping transfer event on shutdown")
	}
}
