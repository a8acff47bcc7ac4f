package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rudransh-shrivastava/peer-drop/internal/history"
	"github.com/rudransh-shrivastava/peer-drop/internal/logger"
	"github.com/rudransh-shrivastava/peer-drop/internal/node"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "runs the peerdrop daemon",
	Long:  `runs the peerdrop daemon, which announces this device, receives files and serves the CLI over a unix socket`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			logger.NewLogger().Fatal(err)
			return
		}
		log, err := logger.New(os.Stdout, cfg.LogLevel)
		if err != nil {
			logger.NewLogger().Fatal(err)
			return
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.Fatal(err)
			return
		}
		defer store.Close()

		n, err := node.New(ctx, cfg.Options(log, store))
		if err != nil {
			log.Fatal(err)
			return
		}
		defer n.Close()

		srv := node.NewIPCServer(n, cfg.SocketPath)
		if err := srv.Start(ctx); err != nil {
			log.Errorf("Failed to start IPC server: %v", err)
			return
		}
		defer srv.Close()

		if err := n.Run(ctx, func(ntf node.Notification) {
			logNotification(log, ntf)
			srv.Publish(ntf)
		}); err != nil {
			log.Error(err)
		}
		log.Info("Daemon stopped")
	},
}

func init() {
	f := daemonCmd.Flags()
	f.StringVar(&cfg.DeviceName, "name", cfg.DeviceName, "name announced to other devices")
	f.IntVar(&cfg.Port, "port", cfg.Port, "port to receive files on")
	f.IntVar(&cfg.PortAttempts, "port-attempts", cfg.PortAttempts, "consecutive ports to try when the port is busy")
	f.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "directory received files are saved to")
	f.StringVar(&cfg.HistoryPath, "history-db", cfg.HistoryPath, "sqlite file for transfer history (in memory when empty)")
}

func logNotification(log *logrus.Logger, ntf node.Notification) {
	switch n := ntf.(type) {
	case node.SessionNotification:
		log.WithFields(logrus.Fields{"peer": n.Peer.Name, "addr": n.Peer.Addr}).Info(n.Kind())
	case node.TransferNotification:
		entry := log.WithFields(logrus.Fields{"file": n.FileName, "size": n.FileSize, "from": n.Sender})
		if n.Error != "" {
			entry.WithField("error", n.Error).Warn(n.Kind())
			return
		}
		entry.WithField("path", n.FilePath).Info(n.Kind())
	}
}
