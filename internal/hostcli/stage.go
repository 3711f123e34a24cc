package hostcli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage [alias] [paths...]",
	Short: "Send files to the resolved host's path-mapped destination.",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loadDocument()
		if err != nil {
			fatalf("%v", err)
		}
		reg, resolver := buildRegistry(doc)
		h, err := reg.Get(args[0], resolver.Factory())
		if err != nil {
			fatalf("%v", err)
		}
		sent, err := h.SendToHost(args[1:])
		if err != nil {
			fatalf("%v", err)
		}
		for src, dest := range sent {
			fmt.Printf("%s -> %s\n", src, dest)
		}
	},
}
