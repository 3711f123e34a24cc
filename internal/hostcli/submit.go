package hostcli

import (
	"fmt"

	"github.com/sosgo/hostcore/internal/taskfile"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit [alias] [command]",
	Short: "Stage a new task file for alias and submit it to its task engine.",
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

		taskID := taskfile.NewTaskID()
		f := &taskfile.File{
			TaskID:  taskID,
			Params:  map[string]any{"command": args[1]},
			Runtime: taskfile.Runtime{RunMode: "interactive"},
			Status:  taskfile.StatusNew,
		}
		if err := taskfile.Save(f); err != nil {
			fatalf("saving task file: %v", err)
		}

		if err := h.SubmitTask(taskID); err != nil {
			fatalf("submitting task: %v", err)
		}
		fmt.Println(taskID)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
