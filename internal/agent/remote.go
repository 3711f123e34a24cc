package agent

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sosgo/hostcore/internal/errors"
	"github.com/sosgo/hostcore/internal/hostconfig"
	"github.com/sosgo/hostcore/internal/logger"
	"github.com/sosgo/hostcore/internal/pathmap"
	"github.com/sosgo/hostcore/internal/sshcmd"
	"github.com/sosgo/hostcore/internal/taskfile"
	"github.com/sosgo/hostcore/internal/tunnel"
	"github.com/sosgo/hostcore/pkg/sshutil"
)

// RemoteAgent executes against a host reached over SSH: the tunneled
// helper channel (TargetExists, TargetSignature, CheckOutput) goes
// through an SSH client, path translation through a pathmap.Mapper,
// and staging, CheckCall and RunCommand through generated rsync/ssh
// command lines run as local subprocesses.
type RemoteAgent struct {
	Alias   string
	Client  *sshutil.Client
	Target  sshcmd.Target
	Mapper  *pathmap.Mapper
	Limits  Limits
	tunnel  *tunnel.Manager
	log     logger.Logger
	runCmd  func(string) (int, string, string, error) // overridable for tests
	probeOK bool
}

// NewRemoteAgent builds a RemoteAgent for a resolved remote host. client's
// embedded *ssh.Client.Dial is what lets the tunnel manager reach the
// helper's forwarded port without shelling out to ssh -L.
func NewRemoteAgent(h hostconfig.ResolvedHost, client *sshutil.Client, mapper *pathmap.Mapper, log logger.Logger) *RemoteAgent {
	if log == nil {
		log = logger.Noop()
	}
	target := sshcmd.Target{Host: h.Address, Port: h.Port, PEMFile: h.PEMFile}
	if target.Port == 0 {
		target.Port = 22
	}
	a := &RemoteAgent{
		Alias:  h.Alias,
		Client: client,
		Target: target,
		Mapper: mapper,
		Limits: fromResolved(h),
		log:    log,
	}
	a.tunnel = tunnel.NewManager(client, client, log)
	a.runCmd = a.runLocalShell
	return a
}

func (a *RemoteAgent) runLocalShell(cmd string) (exitCode int, stdout, stderr string, err error) {
	c := exec.Command("/bin/sh", "-c", cmd)
	var outB, errB strings.Builder
	c.Stdout = &outB
	c.Stderr = &errB
	runErr := c.Run()
	if runErr == nil {
		return 0, outB.String(), errB.String(), nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), outB.String(), errB.String(), nil
	}
	return -1, outB.String(), errB.String(), runErr
}

func (a *RemoteAgent) socket() (*tunnel.Socket, error) {
	return a.tunnel.Connect(tunnel.CurrentUIDOrDefault())
}

func (a *RemoteAgent) TargetExists(target, cwd string) (bool, error) {
	sock, err := a.socket()
	if err != nil {
		return false, err
	}
	reply, err := sock.Call("exists", target, cwd)
	if err != nil {
		a.log.Debug("target_exists: %v", err)
		return false, nil
	}
	return reply == "yes", nil
}

func (a *RemoteAgent) TargetSignature(target, cwd string) (string, error) {
	sock, err := a.socket()
	if err != nil {
		return fallbackSignature(target), nil
	}
	reply, err := sock.Call("signature", target, cwd)
	if err != nil {
		a.log.Debug("target_signature: %v", err)
		return fallbackSignature(target), nil
	}
	return reply, nil
}

func fallbackSignature(target string) string {
	return fmt.Sprintf("md5:%x", []byte(target))
}

// expandAndFollow expands each item as a shell glob against its
// parent directory and transitively adds the real targets of any
// symbolic links it contains.
func expandAndFollow(items []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, raw := range items {
		matches, err := filepath.Glob(raw)
		if err != nil || len(matches) == 0 {
			add(raw)
			continue
		}
		for _, m := range matches {
			add(m)
			followSymlinks(m, add)
		}
	}
	return out
}

func followSymlinks(root string, add func(string)) {
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if real, err := filepath.EvalSymlinks(p); err == nil {
				add(real)
				followSymlinks(real, add)
			}
		}
		return nil
	})
}

func (a *RemoteAgent) SendToHost(items []string) (map[string]string, error) {
	expanded := expandAndFollow(items)
	sort.Strings(expanded)

	sent := make(map[string]string, len(expanded))
	for _, source := range expanded {
		dest := a.Mapper.Map(source)
		if a.Mapper.IsShared(source) {
			a.log.Debug("send_to_host: %s is shared, skipping transfer", source)
			sent[source] = dest
			continue
		}
		cmd := sshcmd.SendCommand(a.Target, source, dest, a.log)
		if exitCode, _, stderr, err := a.runCmd(cmd); err != nil || exitCode != 0 {
			return nil, errors.New(errors.ErrSync,
				fmt.Sprintf("failed to copy %s to %s using command %q: %s", source, a.Alias, cmd, stderr),
				"")
		}
		sent[source] = dest
	}
	return sent, nil
}

func (a *RemoteAgent) ReceiveFromHost(items []string) (map[string]string, error) {
	received := make(map[string]string, len(items))
	for _, remote := range items {
		local := a.Mapper.ReverseMap(remote)
		if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
			return nil, err
		}
		if a.Mapper.IsShared(local) && filepath.Base(remote) == filepath.Base(local) {
			a.log.Debug("receive_from_host: %s is shared, skipping transfer", remote)
			received[remote] = local
			continue
		}
		cmd := sshcmd.ReceiveCommand(a.Target, remote, local, a.log)
		if exitCode, _, stderr, err := a.runCmd(cmd); err != nil || exitCode != 0 {
			return nil, errors.New(errors.ErrSync,
				fmt.Sprintf("failed to copy %s from %s using command %q: %s", remote, a.Alias, cmd, stderr),
				"")
		}
		received[remote] = local
	}
	return received, nil
}

// PrepareTask stages task inputs before flipping status to pending.
// Resource-ceiling violations are raised internally and caught here,
// surfacing only as a boolean false to match the public boundary
// documented for both agents.
func (a *RemoteAgent) PrepareTask(taskID string) bool {
	if err := a.prepareTask(taskID); err != nil {
		a.log.Warn("prepare_task: %v", err)
		return false
	}
	return true
}

func (a *RemoteAgent) prepareTask(taskID string) error {
	f, err := taskfile.Load(taskID)
	if err != nil {
		return err
	}

	walltime, _ := time.ParseDuration(f.Runtime.MaxWalltime)
	if a.Limits.exceeds(f.Runtime.Mem, f.Runtime.Cores, walltime) {
		return errors.New(errors.ErrResourceLimit,
			fmt.Sprintf("task %s exceeds the resource limits configured for %s", taskID, a.Alias), "")
	}

	toStage := append(append([]string{}, f.Input...), f.Depends...)
	toStage = append(toStage, f.Runtime.ToHost...)
	if len(toStage) > 0 {
		if _, err := a.SendToHost(toStage); err != nil {
			return err
		}
	}

	if f.Runtime.Workdir == "" {
		if cwd, err := os.Getwd(); err == nil {
			f.Runtime.Workdir = "#" + filepath.Base(cwd)
		}
	} else if !strings.HasPrefix(f.Runtime.Workdir, "#") && filepath.IsAbs(f.Runtime.Workdir) {
		a.log.Warn("prepare_task: workdir %q is an absolute local path and may not exist on %s", f.Runtime.Workdir, a.Alias)
	}

	f.Runtime.Localhost = &taskfile.LocalhostSection{}

	f.Status = taskfile.StatusPending
	if err := taskfile.Save(f); err != nil {
		return err
	}

	p, err := taskfile.Path(taskID)
	if err != nil {
		return err
	}
	remoteTasksDir := "~/.sos/tasks"
	mkdirCmd := sshcmd.ExecuteCommand(a.Target, fmt.Sprintf("mkdir -p %s", remoteTasksDir), "", a.log)
	if exitCode, _, _, err := a.runCmd(mkdirCmd); err != nil || exitCode != 0 {
		return fmt.Errorf("failed to create remote task directory on %s", a.Alias)
	}
	uploadCmd := fmt.Sprintf("rsync -a --no-g --ignore-existing %s %s:%s/", p, a.Target.Host, remoteTasksDir)
	if exitCode, _, stderr, err := a.runCmd(uploadCmd); err != nil || exitCode != 0 {
		return fmt.Errorf("failed to upload task file for %s to %s: %s", taskID, a.Alias, stderr)
	}

	return nil
}

func (a *RemoteAgent) CheckOutput(cmd string) (string, error) {
	sock, err := a.socket()
	if err != nil {
		return "", err
	}
	return sock.Call("check_output", cmd, "")
}

func (a *RemoteAgent) CheckCall(cmd string) (int, error) {
	line := sshcmd.ExecuteCommand(a.Target, cmd, "", a.log)
	exitCode, _, _, err := a.runCmd(line)
	return exitCode, err
}

func (a *RemoteAgent) RunCommand(cmd string, opts RunOptions) error {
	line := sshcmd.ExecuteCommand(a.Target, cmd, opts.Workdir, a.log)
	exitCode, _, stderr, err := a.runCmd(line)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRemoteCommand, "failed to run remote command", "")
	}
	if exitCode != 0 {
		return errors.New(errors.ErrRemoteCommand, fmt.Sprintf("remote command exited %d: %s", exitCode, stderr), "")
	}
	return nil
}

// ReceiveResult pulls the task file (and its result/status/log
// siblings) back from the remote host, then -- on a successful result
// -- stages declared outputs and from_host entries back and rewrites
// their remote paths to local ones.
func (a *RemoteAgent) ReceiveResult(taskID string) (map[string]any, error) {
	if err := a.fetchTaskFiles(taskID); err != nil {
		return nil, err
	}

	f, err := taskfile.Load(taskID)
	if err != nil {
		return map[string]any{"ret_code": 1, "exception": fmt.Sprintf("task %s failed or aborted", taskID)}, nil
	}
	r := f.ReceiveResult()
	printResult(taskID, r, f.Runtime.Verbosity)

	if r.RetCode != 0 {
		return resultToMap(r), nil
	}

	dryrun := f.Runtime.RunMode == "dryrun"
	if !dryrun {
		if len(f.Output) > 0 {
			if received, err := a.ReceiveFromHost(f.Output); err == nil && len(received) > 0 {
				a.log.Info("receive_result: %s received %d output(s) from %s", taskID, len(received), a.Alias)
			}
		}
		if len(f.Runtime.FromHost) > 0 {
			if _, err := a.ReceiveFromHost(f.Runtime.FromHost); err != nil {
				a.log.Warn("receive_result: from_host transfer failed for %s: %v", taskID, err)
			}
		}
	}

	r.Output = a.reverseMapAll(r.Output)
	for id, sub := range r.Subtasks {
		sub.Output = a.reverseMapAll(sub.Output)
		r.Subtasks[id] = sub
	}

	return resultToMap(r), nil
}

// fetchTaskFiles copies ~/.sos/tasks/TASK_ID.* back from the remote
// host via scp -p. Locally-present sibling files are chmod'd writable
// first since a previous run may have left them read-only. A single
// quiet attempt is made; on failure it is retried once with stderr
// surfaced, to report the actual cause.
func (a *RemoteAgent) fetchTaskFiles(taskID string) error {
	dir, err := taskfile.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if matches, err := filepath.Glob(filepath.Join(dir, taskID+".*")); err == nil {
		for _, m := range matches {
			_ = os.Chmod(m, 0600)
		}
	}

	cmd := sshcmd.ReceiveTaskFilesCommand(a.Target, taskID, dir, a.log)
	if exitCode, _, _, err := a.runCmd(cmd); err == nil && exitCode == 0 {
		return nil
	}

	exitCode, _, stderr, err := a.runCmd(cmd)
	if err != nil || exitCode != 0 {
		return errors.New(errors.ErrSync,
			fmt.Sprintf("failed to retrieve result of task %s from %s with cmd %q: %s", taskID, a.Alias, cmd, stderr), "")
	}
	return nil
}

func (a *RemoteAgent) reverseMapAll(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = a.Mapper.ReverseMap(p)
	}
	return out
}
