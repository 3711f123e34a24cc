package sshcmd

import (
	"fmt"
	"path"
	"strings"

	"github.com/sosgo/hostcore/internal/logger"
)

// Target describes the remote endpoint a command line is built for.
type Target struct {
	Host    string // user@address or address
	Port    int
	PEMFile string
}

func (t Target) sshOptions(log logger.Logger) string {
	opts := []string{ControlMasterOptions(log)}
	if id := IdentityOption(t.PEMFile); id != "" {
		opts = append(opts, id)
	}
	return joinNonEmpty(opts)
}

func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// SendCommand builds the shell command line that stages source onto
// dest on the target. A rename variant (appending a remote mv) is
// produced automatically when source and dest have different
// basenames.
func SendCommand(t Target, source, dest string, log logger.Logger) string {
	destDir := path.Dir(dest)
	opts := t.sshOptions(log)
	sshPrefix := fmt.Sprintf("ssh -p %d %s", t.Port, opts)

	mkdir := fmt.Sprintf("%s %s 'mkdir -p %s'", sshPrefix, t.Host, shellQuote(destDir))
	rsync := fmt.Sprintf("rsync -a --no-g -e %s %s %s:%s",
		shellQuote(fmt.Sprintf("ssh -p %d %s", t.Port, opts)), shellQuote(source), t.Host, shellQuote(dest))

	cmd := mkdir + " && " + rsync
	if path.Base(source) != path.Base(dest) {
		remoteMv := fmt.Sprintf("%s %s %s", sshPrefix, t.Host, shellQuote(fmt.Sprintf("mv %s %s", shellQuote(path.Join(destDir, path.Base(source))), shellQuote(dest))))
		cmd = cmd + " && " + remoteMv
	}
	return cmd
}

// ReceiveCommand builds the shell command line that retrieves source
// (a remote path) into dest (a local path). The rename variant copies
// into an intermediate directory (dest's own directory, under
// source's basename) and then performs a local mv.
func ReceiveCommand(t Target, source, dest string, log logger.Logger) string {
	opts := t.sshOptions(log)
	sshArg := shellQuote(fmt.Sprintf("ssh -p %d %s", t.Port, opts))

	if path.Base(source) == path.Base(dest) {
		return fmt.Sprintf("rsync -a --no-g -e %s %s:%s %s", sshArg, t.Host, shellQuote(source), shellQuote(dest))
	}

	destDir := path.Dir(dest)
	intermediate := path.Join(destDir, path.Base(source))
	rsync := fmt.Sprintf("rsync -a --no-g -e %s %s:%s %s", sshArg, t.Host, shellQuote(source), shellQuote(destDir))
	localMv := fmt.Sprintf("mv %s %s", shellQuote(intermediate), shellQuote(dest))
	return rsync + " && " + localMv
}

// ReceiveTaskFilesCommand builds the scp invocation that retrieves
// every file matching ~/.sos/tasks/TASK_ID.* from the target into
// destDir, preserving modification times (-p) so staleness can still
// be judged locally.
func ReceiveTaskFilesCommand(t Target, taskID, destDir string, log logger.Logger) string {
	opts := t.sshOptions(log)
	remote := fmt.Sprintf("%s:.sos/tasks/%s.*", t.Host, taskID)
	return joinNonEmpty([]string{"scp", fmt.Sprintf("-P %d", t.Port), opts, "-p", "-q", remote, shellQuote(destDir)})
}

// heredocTrigger is the character in a user command that selects the
// here-doc form over an inline single-quoted shell -c argument; a
// literal "." is the common case (hostnames, versioned filenames).
const heredocTrigger = "."

// ExecuteCommand builds the ssh invocation that runs cmd on the
// target, optionally cd-ing into workdir first. The here-doc form is
// used when cmd contains a "." (protects quoting of tokens like
// "a.b"); otherwise an inline bash --login -c '...' form is used with
// each single quote replaced by a close-quote, a backslash-escaped
// quote and a reopening quote, per POSIX shell-quoting convention.
func ExecuteCommand(t Target, cmd, workdir string, log logger.Logger) string {
	opts := t.sshOptions(log)
	sshPrefix := fmt.Sprintf("ssh -p %d %s %s", t.Port, opts, t.Host)

	inner := cmd
	if workdir != "" {
		inner = fmt.Sprintf("[ -d %s ] || mkdir -p %s; cd %s && %s", shellQuote(workdir), shellQuote(workdir), shellQuote(workdir), cmd)
	}

	if strings.Contains(cmd, heredocTrigger) {
		return fmt.Sprintf("%s <<'HEREDOC!!'\n%s\nHEREDOC!!", sshPrefix, inner)
	}

	quoted := strings.ReplaceAll(inner, "'", `'\''`)
	return fmt.Sprintf("%s bash --login -c '%s'", sshPrefix, quoted)
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
