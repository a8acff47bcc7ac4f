package cmd

import (
	"os"

	"github.com/rudransh-shrivastava/peer-drop/internal/client/client"
	"github.com/rudransh-shrivastava/peer-drop/internal/config"
	"github.com/rudransh-shrivastava/peer-drop/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "peerdrop",
	Short: "share files with devices on the local network",
	Long: `peerdrop finds other instances on the local network and sends files to them.
Run "peerdrop daemon" on every device, then use the other commands to talk to it.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.SocketPath, "socket", cfg.SocketPath, "unix socket of the daemon")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(peersCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pushCmd)
}

func newLogger() *logrus.Logger {
	log, err := logger.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		log = logger.NewLogger()
		log.Warnf("Invalid log level %q, using info", cfg.LogLevel)
	}
	return log
}

func newClient(log *logrus.Logger) *client.Client {
	c, err := client.NewClient(cfg.SocketPath)
	if err != nil {
		log.Fatalf("Is the daemon running? %v", err)
	}
	return c
}
