// Package sshcmd builds the shell command lines used to reach a
// remote host: ControlMaster-multiplexed ssh invocations, rsync
// staging commands, and the quoting rules for remote command
// execution. It mirrors the way the rest of this module's ambient
// rsync plumbing builds its ssh -e strings, generalized to the
// send/receive/execute templates a host agent needs.
package sshcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sosgo/hostcore/internal/logger"
)

// controlMasterDir is the directory holding SSH ControlMaster sockets,
// matching OpenSSH's own convention of living under ~/.ssh.
func controlMasterDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ssh", "controlmasters"), nil
}

// ControlMasterOptions returns the `-o ControlMaster=... ` option
// string, creating ~/.ssh/controlmasters on first use. If the
// directory cannot be created, control-master multiplexing is
// silently disabled and an empty string is returned -- matching the
// original helper's behavior of only logging at debug level.
func ControlMasterOptions(log logger.Logger) string {
	dir, err := controlMasterDir()
	if err != nil {
		log.Debug("controlmaster: could not resolve home directory: %v", err)
		return ""
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Debug("controlmaster: could not create %s: %v", dir, err)
		return ""
	}
	return fmt.Sprintf("-o ControlMaster=auto -o ControlPath=%s/%%r@%%h:%%p -o ControlPersist=10m", dir)
}

// IdentityOption returns the `-i KEY` fragment when pemFile is set.
func IdentityOption(pemFile string) string {
	if pemFile == "" {
		return ""
	}
	return fmt.Sprintf("-i %s", pemFile)
}
