package agent

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/sosgo/hostcore/internal/errors"
	"github.com/sosgo/hostcore/internal/hostconfig"
	"github.com/sosgo/hostcore/internal/logger"
	"github.com/sosgo/hostcore/internal/taskfile"
)

// LocalAgent executes everything in-process on the machine the driver
// itself runs on. Staging is an identity mapping and path lookups
// delegate straight to the local filesystem.
type LocalAgent struct {
	Alias  string
	Limits Limits
	log    logger.Logger
}

// NewLocalAgent builds a LocalAgent for a resolved localhost entry.
func NewLocalAgent(h hostconfig.ResolvedHost, log logger.Logger) *LocalAgent {
	if log == nil {
		log = logger.Noop()
	}
	return &LocalAgent{Alias: h.Alias, Limits: fromResolved(h), log: log}
}

func (a *LocalAgent) TargetExists(target string, cwd string) (bool, error) {
	_, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *LocalAgent) TargetSignature(target string, cwd string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().Unix()), nil
}

// SendToHost is an identity mapping for the local agent: nothing
// needs to move, so every item maps to itself.
func (a *LocalAgent) SendToHost(items []string) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, it := range items {
		out[it] = it
	}
	return out, nil
}

// ReceiveFromHost is likewise an identity mapping.
func (a *LocalAgent) ReceiveFromHost(items []string) (map[string]string, error) {
	return a.SendToHost(items)
}

// PrepareTask loads the task file from ~/.sos/tasks/, enforces host
// resource ceilings, and flips status to pending, saving the file back
// in place. A task file that is not already there fails the prepare.
func (a *LocalAgent) PrepareTask(taskID string) bool {
	f, err := taskfile.Load(taskID)
	if err != nil {
		a.log.Warn("prepare_task: %v", err)
		return false
	}

	walltime, _ := time.ParseDuration(f.Runtime.MaxWalltime)
	if a.Limits.exceeds(f.Runtime.Mem, f.Runtime.Cores, walltime) {
		a.log.Warn("prepare_task: task %s exceeds host limits for %s", taskID, a.Alias)
		return false
	}

	if f.Runtime.Workdir == "" {
		if cwd, err := os.Getwd(); err == nil {
			f.Runtime.Workdir = cwd
		}
	}

	f.Status = taskfile.StatusPending
	if err := taskfile.Save(f); err != nil {
		a.log.Warn("prepare_task: failed to save task file for %s: %v", taskID, err)
		return false
	}
	return true
}

func (a *LocalAgent) CheckOutput(cmd string) (string, error) {
	shell := shellCommand()
	out, err := exec.Command(shell[0], append(shell[1:], cmd)...).Output()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrExec,
			"command failed to produce output", "")
	}
	return string(out), nil
}

func (a *LocalAgent) CheckCall(cmd string) (int, error) {
	shell := shellCommand()
	runErr := exec.Command(shell[0], append(shell[1:], cmd)...).Run()
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, errors.WrapWithCode(runErr, errors.ErrExec, "failed to run command locally", "")
}

// RunCommand dispatches to a PTY-attached stream, a synchronous wait,
// or a detached daemonized run depending on opts.
func (a *LocalAgent) RunCommand(cmd string, opts RunOptions) error {
	shell := shellCommand()

	if opts.Realtime {
		return a.runWithPTY(shell, cmd, opts.Workdir)
	}
	if opts.WaitForTask {
		return a.runAndWait(shell, cmd, opts.Workdir)
	}
	return a.runDaemonized(shell, cmd, opts.Workdir)
}

func (a *LocalAgent) runWithPTY(shell []string, cmd, workdir string) error {
	c := exec.Command(shell[0], append(shell[1:], cmd)...)
	if workdir != "" {
		c.Dir = workdir
	}
	f, err := pty.Start(c)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec, "failed to attach a pseudo-terminal", "")
	}
	defer f.Close()
	_, _ = f.WriteTo(os.Stdout)
	return c.Wait()
}

func (a *LocalAgent) runAndWait(shell []string, cmd, workdir string) error {
	c := exec.Command(shell[0], append(shell[1:], cmd)...)
	if workdir != "" {
		c.Dir = workdir
	}
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// runDaemonized detaches cmd into a new session with stdio redirected
// to /dev/null so the parent can return immediately without leaving a
// zombie. This is the Go idiom for the original's double-fork: a new
// session (Setsid) plus Process.Release orphans the child to init the
// same way a second fork would.
func (a *LocalAgent) runDaemonized(shell []string, cmd, workdir string) error {
	c := exec.Command(shell[0], append(shell[1:], cmd)...)
	if workdir != "" {
		c.Dir = workdir
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec, "failed to open /dev/null", "")
	}
	defer devnull.Close()

	c.Stdin = devnull
	c.Stdout = devnull
	c.Stderr = devnull
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := c.Start(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec, "failed to start the daemonized command", "")
	}
	return c.Process.Release()
}

func (a *LocalAgent) ReceiveResult(taskID string) (map[string]any, error) {
	f, err := taskfile.Load(taskID)
	if err != nil {
		return map[string]any{"ret_code": 1, "exception": err.Error()}, nil
	}
	r := f.ReceiveResult()
	printResult(taskID, r, f.Runtime.Verbosity)
	return resultToMap(r), nil
}

func shellCommand() []string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	return []string{shell, "-lc"}
}
