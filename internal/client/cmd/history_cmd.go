package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "list recent transfers, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		c := newClient(log)
		defer c.Close()

		records, err := c.History(historyLimit)
		if err != nil {
			log.Fatal(err)
			return
		}
		if len(records) == 0 {
			fmt.Println("No transfers yet")
			return
		}

		for _, r := range records {
			at := time.UnixMilli(r.CreatedAt).Format(time.DateTime)
			line := fmt.Sprintf("%s %-3s %-6s %-24s %10d  %s", at, r.Direction, r.Status, r.Peer, r.FileSize, r.FileName)
			if r.Error != "" {
				line += "  (" + r.Error + ")"
			}
			fmt.Println(line)
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of transfers to show")
}
