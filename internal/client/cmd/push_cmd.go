package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rudransh-shrivastava/peer-drop/internal/transfer"
	"github.com/rudransh-shrivastava/peer-drop/internal/transport"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push host:port path/to/file",
	Short: "send a file straight to an address, without a daemon",
	Long:  `connects to the transfer port of another device and sends one file, showing progress`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		addr, path := args[0], args[1]
		log := newLogger()

		info, err := transfer.CheckFile(path)
		if err != nil {
			log.Fatal(err)
			return
		}

		tr, err := transport.NewTransport(":0")
		if err != nil {
			log.Fatal(err)
			return
		}
		defer tr.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		bar := progressbar.DefaultBytes(info.Size(), filepath.Base(path))
		if err := transfer.SendFile(ctx, tr, addr, path, transfer.WithProgress(bar)); err != nil {
			log.Fatal(err)
			return
		}
		_ = bar.Finish()
		fmt.Printf("Sent %s to %s\n", filepath.Base(path), addr)
	},
}
