package hostcli

import (
	"fmt"

	"github.com/sosgo/hostcore/internal/hostresolve"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [alias]",
	Short: "Resolve an alias against the hosts document and print its path map.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loadDocument()
		if err != nil {
			fatalf("%v", err)
		}
		res, err := hostresolve.Resolve(doc, args[0], log)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("alias:    %s\n", res.Remote.Alias)
		fmt.Printf("address:  %s\n", res.Remote.Address)
		fmt.Printf("shared:   %v\n", res.Remote.Shared)
		for _, e := range res.Remote.PathMap {
			fmt.Printf("path_map: %s -> %s\n", e.LocalPrefix, e.RemotePrefix)
		}
	},
}
