// Package taskfile reads and writes the on-disk task file that
// carries a task's parameters, runtime envelope, status, and result
// between the local driver and a host agent.
package taskfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// NewTaskID generates a fresh task identifier for a caller that didn't
// supply its own.
func NewTaskID() string {
	return uuid.New().String()
}

// Status is the lifecycle state recorded in a task file.
type Status string

const (
	StatusNew     Status = "new"
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusResult  Status = "result"
)

// Runtime is the RuntimeEnvelope attached to each task file.
type Runtime struct {
	Verbosity   int               `yaml:"verbosity"`
	SigMode     string            `yaml:"sig_mode"`
	RunMode     string            `yaml:"run_mode"`
	Walltime    string            `yaml:"walltime,omitempty"`
	Cores       int               `yaml:"cores,omitempty"`
	Mem         int64             `yaml:"mem,omitempty"`
	Workdir     string            `yaml:"workdir,omitempty"`
	MaxMem      int64             `yaml:"max_mem,omitempty"`
	MaxCores    int               `yaml:"max_cores,omitempty"`
	MaxWalltime string            `yaml:"max_walltime,omitempty"`
	Localhost   *LocalhostSection `yaml:"localhost,omitempty"`
	ToHost      []string          `yaml:"to_host,omitempty"`
	// FromHost names additional remote paths to pull back on result
	// retrieval, independent of the task's declared Output.
	FromHost []string `yaml:"from_host,omitempty"`
}

// LocalhostSection records the local host's shared/paths sections so
// a remote worker can reverse-map outputs.
type LocalhostSection struct {
	Shared map[string]string `yaml:"shared,omitempty"`
	Paths  map[string]string `yaml:"paths,omitempty"`
}

// Result is the outcome recorded by whichever agent executed the task.
// Output and Subtasks carry remote paths until an agent's
// ReceiveResult rewrites them to local ones via its path mapper.
type Result struct {
	RetCode   int               `yaml:"ret_code"`
	Exception string            `yaml:"exception,omitempty"`
	Stdout    string            `yaml:"stdout,omitempty"`
	Stderr    string            `yaml:"stderr,omitempty"`
	Output    []string          `yaml:"output,omitempty"`
	Subtasks  map[string]Result `yaml:"subtasks,omitempty"`
}

// File is the complete on-disk task file.
type File struct {
	TaskID  string         `yaml:"task_id"`
	Params  map[string]any `yaml:"params,omitempty"`
	Input   []string       `yaml:"input,omitempty"`
	Depends []string       `yaml:"depends,omitempty"`
	// Output lists the task's declared output paths, staged back from
	// a remote host on successful result retrieval.
	Output  []string `yaml:"output,omitempty"`
	Runtime Runtime  `yaml:"runtime"`
	Status  Status   `yaml:"status"`
	Result  *Result  `yaml:"result,omitempty"`
	// TaskStack records nested subtask ids belonging to this task, for
	// whom Result.Subtasks carries per-subtask results.
	TaskStack []string `yaml:"task_stack,omitempty"`
}

// Path returns the canonical on-disk location for a task id:
// ~/.sos/tasks/<task_id>.task
func Path(taskID string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, taskID+".task"), nil
}

// Dir returns the canonical ~/.sos/tasks directory that holds every
// task file and its result/status/log siblings.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sos", "tasks"), nil
}

// Load reads and parses the task file for taskID.
func Load(taskID string) (*File, error) {
	p, err := Path(taskID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("task file for %q not found: %w", taskID, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("task file for %q is malformed: %w", taskID, err)
	}
	return &f, nil
}

// Save writes f to its canonical location, creating the directory
// tree as needed.
func Save(f *File) error {
	p, err := Path(f.TaskID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0600)
}

// ReceiveResult returns the recorded result, substituting a synthetic
// failure result when none is recorded -- matching the fallback
// behavior a caller sees from a task that never ran to completion.
func (f *File) ReceiveResult() Result {
	if f.Result == nil {
		return Result{RetCode: 1, Exception: "No result was recorded for this task"}
	}
	return *f.Result
}

// Age reports how long ago the task file was last modified, used by
// callers deciding whether a "running" task has gone stale.
func Age(taskID string) (time.Duration, error) {
	p, err := Path(taskID)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return time.Since(info.ModTime()), nil
}
