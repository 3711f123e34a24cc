// Package agent implements the Local and Remote agents: the
// capability-set abstraction a host resolver attaches a task/workflow
// engine to, dispatched on whether a resolved host is local or
// reached over SSH.
package agent

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sosgo/hostcore/internal/hostconfig"
	"github.com/sosgo/hostcore/internal/taskfile"
)

// Agent is the capability set both LocalAgent and RemoteAgent satisfy.
// Dispatch between the two is by interface, not inheritance, so a
// caller never needs to branch on host kind.
type Agent interface {
	// TargetExists and TargetSignature delegate to whatever target
	// representation the caller passes in, identified only by its
	// string form here.
	TargetExists(target string, cwd string) (bool, error)
	TargetSignature(target string, cwd string) (string, error)

	// SendToHost stages items (expanded to absolute local paths) onto
	// the host, returning source -> absolute remote dest.
	SendToHost(items []string) (map[string]string, error)

	// ReceiveFromHost retrieves items (remote paths) back to their
	// local equivalents, returning remote -> absolute local dest.
	ReceiveFromHost(items []string) (map[string]string, error)

	// PrepareTask stages a task for execution and flips its status to
	// pending. It returns false (never an error) when a resource
	// ceiling is exceeded or the task file cannot be prepared --
	// matching the public boolean-failure boundary documented for
	// both agents.
	PrepareTask(taskID string) bool

	// CheckOutput runs cmd and returns captured stdout.
	CheckOutput(cmd string) (string, error)

	// CheckCall runs cmd and returns only its exit code.
	CheckCall(cmd string) (int, error)

	// RunCommand executes cmd per the given options.
	RunCommand(cmd string, opts RunOptions) error

	// ReceiveResult reads back a task's recorded result.
	ReceiveResult(taskID string) (map[string]any, error)
}

// RunOptions mirrors run_command's {wait_for_task, realtime} flags.
type RunOptions struct {
	WaitForTask bool
	Realtime    bool
	Workdir     string
}

// Limits is the subset of a ResolvedHost used to enforce resource
// ceilings during task preparation.
type Limits struct {
	MaxMem      int64
	MaxCores    int
	MaxWalltime time.Duration
}

func fromResolved(h hostconfig.ResolvedHost) Limits {
	return Limits{MaxMem: h.MaxMem, MaxCores: h.MaxCores, MaxWalltime: h.MaxWalltime}
}

// exceeds reports whether a requested resource exceeds any configured
// ceiling (a zero ceiling means "no limit configured").
func (l Limits) exceeds(mem int64, cores int, walltime time.Duration) bool {
	if l.MaxMem > 0 && mem > l.MaxMem {
		return true
	}
	if l.MaxCores > 0 && cores > l.MaxCores {
		return true
	}
	if l.MaxWalltime > 0 && walltime > l.MaxWalltime {
		return true
	}
	return false
}

// logLinePattern matches the workflow's own structured log output
// (e.g. "[INFO] starting task"), which printResult filters out of a
// task's captured stdout/stderr before echoing it to the terminal.
var logLinePattern = regexp.MustCompile(`^\[(TRACE|DEBUG|INFO|WARNING|ERROR)\]`)

// printResult writes a task's captured stdout/stderr to the local
// standard error on non-zero exit or at verbosity 3 and above,
// skipping any line that matches the workflow's own log-line pattern.
func printResult(taskID string, r taskfile.Result, verbosity int) {
	if r.RetCode == 0 && verbosity < 3 {
		return
	}
	if r.Stdout != "" {
		fmt.Fprintf(os.Stderr, "\n%s.out:\n", taskID)
		writeFilteredLines(r.Stdout)
	}
	if r.Stderr != "" {
		fmt.Fprintf(os.Stderr, "\n%s.err:\n", taskID)
		writeFilteredLines(r.Stderr)
	}
}

func writeFilteredLines(s string) {
	for _, line := range strings.Split(s, "\n") {
		if logLinePattern.MatchString(line) {
			continue
		}
		fmt.Fprintln(os.Stderr, line)
	}
}

// resultToMap flattens a Result into the {ret_code, exception, stdout,
// stderr, output?, subtasks?} shape ReceiveResult returns to callers.
func resultToMap(r taskfile.Result) map[string]any {
	m := map[string]any{"ret_code": r.RetCode, "exception": r.Exception, "stdout": r.Stdout, "stderr": r.Stderr}
	if len(r.Output) > 0 {
		m["output"] = r.Output
	}
	if len(r.Subtasks) > 0 {
		m["subtasks"] = r.Subtasks
	}
	return m
}
