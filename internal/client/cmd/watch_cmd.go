package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/protocol"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "stream peer and transfer notifications from the daemon",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		c := newClient(log)
		defer c.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		err := c.Watch(ctx, func(ntf *protocol.Notification) {
			fmt.Println(formatNotification(ntf))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal(err)
		}
	},
}

func formatNotification(ntf *protocol.Notification) string {
	at := time.UnixMilli(ntf.Timestamp).Format(time.TimeOnly)

	switch ntf.Kind {
	case protocol.KindPeerOnline, protocol.KindPeerOffline:
		return fmt.Sprintf("%s %-13s %s (%s)", at, ntf.Kind, ntf.Peer.Name, ntf.Peer.Addr)
	case protocol.KindFileReceived:
		return fmt.Sprintf("%s %-13s %s, %d bytes from %s -> %s", at, ntf.Kind, ntf.FileName, ntf.FileSize, ntf.Sender, ntf.FilePath)
	case protocol.KindReceiveError:
		return fmt.Sprintf("%s %-13s from %s: %s", at, ntf.Kind, ntf.Sender, ntf.Error)
	default:
		return fmt.Sprintf("%s %s", at, ntf.Kind)
	}
}
