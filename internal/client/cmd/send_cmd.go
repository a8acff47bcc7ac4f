package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send peer-name path/to/file",
	Short: "send a file to an online peer",
	Long:  `asks the daemon to send a file to the online peer with the given name, and waits until the peer has it`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		peerName := args[0]
		log := newLogger()

		// The daemon may run from another directory.
		path, err := filepath.Abs(args[1])
		if err != nil {
			log.Fatal(err)
			return
		}

		c := newClient(log)
		defer c.Close()

		if err := c.SendFile(peerName, path); err != nil {
			log.Fatal(err)
			return
		}
		fmt.Printf("Sent %s to %s\n", filepath.Base(path), peerName)
	},
}
