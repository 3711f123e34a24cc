package hostcli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sosgo/hostcore/internal/taskfile"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show a live-updating status line for a task until it completes.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := tea.NewProgram(newStatusModel(args[0]))
		if _, err := p.Run(); err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusTickMsg time.Time

type statusModel struct {
	taskID string
	status taskfile.Status
	frame  int
	done   bool
}

func newStatusModel(taskID string) statusModel {
	return statusModel{taskID: taskID, status: taskfile.StatusNew}
}

func (m statusModel) Init() tea.Cmd {
	return tickStatus()
}

func tickStatus() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return statusTickMsg(t) })
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case statusTickMsg:
		m.frame++
		if f, err := taskfile.Load(m.taskID); err == nil {
			m.status = f.Status
		}
		if m.status == taskfile.StatusResult {
			m.done = true
			return m, tea.Quit
		}
		return m, tickStatus()
	}
	return m, nil
}

var spinnerFrames = []string{"|", "/", "-", "\\"}

func (m statusModel) View() string {
	if m.done {
		return fmt.Sprintf("%s: %s\n", m.taskID, m.status)
	}
	spin := spinnerFrames[m.frame%len(spinnerFrames)]
	return fmt.Sprintf("%s %s: %s\n", spin, m.taskID, m.status)
}
