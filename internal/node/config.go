package node

import (
	"context"
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/discovery"
	"github.com/rudransh-shrivastava/peer-drop/internal/history"
	"github.com/rudransh-shrivastava/peer-drop/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	DefaultReapInterval   = 5 * time.Second
	DefaultOfflineTimeout = 30 * time.Second
	commandQueueSize      = 100
)

// PeerSource produces peer observations. The multicast Discovery is the
// production implementation.
type PeerSource interface {
	ID() string
	Start(ctx context.Context)
	Peers() <-chan discovery.Peer
	Close() error
}

type Options struct {
	DeviceName string
	// Host and Port the transfer endpoint binds.
	Host         string
	Port         int
	PortAttempts int
	// PeerPort is where other instances accept transfers; defaults to Port.
	PeerPort    int
	DownloadDir string

	DiscoveryGroup   string
	AnnounceInterval time.Duration
	// Discovery replaces multicast discovery when set.
	Discovery PeerSource

	ReapInterval   time.Duration
	OfflineTimeout time.Duration

	// History is optional; the caller owns and closes it.
	History *history.Store
	Logger  *logrus.Logger
}

func (o Options) withDefaults() Options {
	out := o
	if out.PeerPort == 0 {
		out.PeerPort = out.Port
	}
	if out.ReapInterval <= 0 {
		out.ReapInterval = DefaultReapInterval
	}
	if out.OfflineTimeout <= 0 {
		out.OfflineTimeout = DefaultOfflineTimeout
	}
	if out.Logger == nil {
		out.Logger = logger.NewLogger()
	}
	return out
}
