package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "show this device's name, port and online peer count",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		c := newClient(log)
		defer c.Close()

		info, err := c.DeviceInfo()
		if err != nil {
			log.Fatal(err)
			return
		}
		fmt.Printf("Name:   %s\n", info.Name)
		fmt.Printf("ID:     %s\n", info.ID)
		fmt.Printf("Port:   %d\n", info.Port)
		fmt.Printf("Online: %d\n", info.OnlineCount)
	},
}
