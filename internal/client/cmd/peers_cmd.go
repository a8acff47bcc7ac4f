package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "list online peers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		c := newClient(log)
		defer c.Close()

		peers, err := c.ListPeers()
		if err != nil {
			log.Fatal(err)
			return
		}
		if len(peers) == 0 {
			fmt.Println("No peers online")
			return
		}

		fmt.Printf("%-24s %-36s %-22s %s\n", "NAME", "ID", "ADDRESS", "LAST SEEN")
		for _, p := range peers {
			seen := time.UnixMilli(p.LastSeen).Format(time.TimeOnly)
			fmt.Printf("%-24s %-36s %-22s %s\n", p.Name, p.ID, p.Addr, seen)
		}
	},
}
