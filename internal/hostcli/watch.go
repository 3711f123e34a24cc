package hostcli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/sosgo/hostcore/internal/taskfile"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var watchTimeout time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [task-id]",
	Short: "Wait for a task file to reach a terminal status and print its result.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		taskID := args[0]
		result, err := watchTask(taskID, watchTimeout)
		if err != nil {
			fatalf("%v", err)
		}
		printResult(taskID, result)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 5*time.Minute, "give up waiting after this long")
	rootCmd.AddCommand(watchCmd)
}

// watchTask blocks until taskID's file reaches taskfile.StatusResult,
// using fsnotify on its containing directory rather than polling in a
// tight loop, falling back to a fixed-interval poll if the watch
// cannot be established (e.g. the directory doesn't exist yet).
func watchTask(taskID string, timeout time.Duration) (taskfile.Result, error) {
	path, err := taskfile.Path(taskID)
	if err != nil {
		return taskfile.Result{}, err
	}

	if f, err := taskfile.Load(taskID); err == nil && f.Status == taskfile.StatusResult {
		return f.ReceiveResult(), nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pollForResult(taskID, timeout)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return pollForResult(taskID, timeout)
	}

	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return pollForResult(taskID, timeout)
			}
			if ev.Name != path {
				continue
			}
			if f, err := taskfile.Load(taskID); err == nil && f.Status == taskfile.StatusResult {
				return f.ReceiveResult(), nil
			}
		case <-watcher.Errors:
			return pollForResult(taskID, timeout)
		case <-deadline:
			return taskfile.Result{}, fmt.Errorf("timed out waiting for task %s", taskID)
		}
	}
}

func pollForResult(taskID string, timeout time.Duration) (taskfile.Result, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f, err := taskfile.Load(taskID); err == nil && f.Status == taskfile.StatusResult {
			return f.ReceiveResult(), nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return taskfile.Result{}, fmt.Errorf("timed out waiting for task %s", taskID)
}

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func printResult(taskID string, r taskfile.Result) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Printf("%s: ret_code=%d\n", taskID, r.RetCode)
		return
	}
	if r.RetCode == 0 {
		fmt.Println(styleOK.Render(fmt.Sprintf("%s: ok", taskID)))
	} else {
		fmt.Println(styleFail.Render(fmt.Sprintf("%s: exit %d: %s", taskID, r.RetCode, r.Exception)))
	}
}
