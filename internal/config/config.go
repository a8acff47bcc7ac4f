package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rudransh-shrivastava/peer-drop/internal/discovery"
	"github.com/rudransh-shrivastava/peer-drop/internal/history"
	"github.com/rudransh-shrivastava/peer-drop/internal/node"
	"github.com/rudransh-shrivastava/peer-drop/internal/transfer"
	"github.com/sirupsen/logrus"
)

const (
	fallbackDeviceName = "MyDevice"
	DefaultDownloadDir = "./downloads"
	DefaultLogLevel    = "info"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config is everything the daemon can be told from the command line.
type Config struct {
	DeviceName   string
	Port         int
	PortAttempts int
	DownloadDir  string
	LogLevel     string
	SocketPath   string
	// HistoryPath is the transfer history database; empty keeps it in memory.
	HistoryPath string
}

func Default() Config {
	return Config{
		DeviceName:   defaultDeviceName(),
		Port:         transfer.DefaultPort,
		PortAttempts: 1,
		DownloadDir:  DefaultDownloadDir,
		LogLevel:     DefaultLogLevel,
		SocketPath:   node.DefaultSocketPath(),
	}
}

func defaultDeviceName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return fallbackDeviceName
	}
	if len(name) > discovery.MaxNameLength {
		return name[:discovery.MaxNameLength]
	}
	return name
}

func (c Config) Validate() error {
	var errs []error

	switch {
	case c.DeviceName == "":
		errs = append(errs, errors.New("device name is empty"))
	case len(c.DeviceName) > discovery.MaxNameLength:
		errs = append(errs, fmt.Errorf("device name longer than %d bytes", discovery.MaxNameLength))
	case !utf8.ValidString(c.DeviceName), strings.ContainsAny(c.DeviceName, "\r\n"):
		errs = append(errs, fmt.Errorf("device name %q is not a single line of UTF-8", c.DeviceName))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.PortAttempts < 1 {
		errs = append(errs, fmt.Errorf("port attempts must be at least 1, got %d", c.PortAttempts))
	} else if c.Port+c.PortAttempts-1 > 65535 {
		errs = append(errs, fmt.Errorf("port range %d+%d exceeds 65535", c.Port, c.PortAttempts-1))
	}

	if c.DownloadDir == "" {
		errs = append(errs, errors.New("download dir is empty"))
	}
	if c.SocketPath == "" {
		errs = append(errs, errors.New("socket path is empty"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Options converts c for node.New. Peers are expected on the configured port.
func (c Config) Options(log *logrus.Logger, store *history.Store) node.Options {
	return node.Options{
		DeviceName:   c.DeviceName,
		Port:         c.Port,
		PortAttempts: c.PortAttempts,
		PeerPort:     c.Port,
		DownloadDir:  c.DownloadDir,
		History:      store,
		Logger:       log,
	}
}
