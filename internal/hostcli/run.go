package hostcli

import (
	"fmt"

	"github.com/sosgo/hostcore/internal/agent"
	"github.com/spf13/cobra"
)

var realtime bool
var waitForTask bool

var runCmd = &cobra.Command{
	Use:   "run [alias] [command]",
	Short: "Run a command on the resolved host.",
	Args:  cobra.ExactArgs(2),
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
		if err := h.Agent.RunCommand(args[1], agent.RunOptions{Realtime: realtime, WaitForTask: waitForTask}); err != nil {
			fatalf("%v", err)
		}
		fmt.Println("ok")
	},
}

func init() {
	runCmd.Flags().BoolVar(&realtime, "realtime", true, "attach a pseudo-terminal and stream output")
	runCmd.Flags().BoolVar(&waitForTask, "wait", true, "wait for the command to finish instead of daemonizing")
}
