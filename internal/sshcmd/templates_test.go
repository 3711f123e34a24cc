package sshcmd

import (
	"strings"
	"testing"

	"github.com/sosgo/hostcore/internal/logger"
	"github.com/stretchr/testify/assert"
)

func testTarget() Target {
	return Target{Host: "gpu-box", Port: 2222}
}

func TestSendCommand_NoRename(t *testing.T) {
	cmd := SendCommand(testTarget(), "/local/a.txt", "/remote/a.txt", logger.Noop())
	assert.Contains(t, cmd, "mkdir -p")
	assert.Contains(t, cmd, "rsync -a --no-g")
	assert.Contains(t, cmd, "gpu-box:'/remote/a.txt'")
	assert.NotContains(t, cmd, " mv ")
}

func TestSendCommand_RenameVariant(t *testing.T) {
	cmd := SendCommand(testTarget(), "/local/a.txt", "/remote/b.txt", logger.Noop())
	assert.Contains(t, cmd, "mv")
}

func TestReceiveCommand_NoRename(t *testing.T) {
	cmd := ReceiveCommand(testTarget(), "/remote/a.txt", "/local/a.txt", logger.Noop())
	assert.True(t, strings.HasPrefix(cmd, "rsync"))
	assert.NotContains(t, cmd, " mv ")
}

func TestReceiveCommand_RenameVariant(t *testing.T) {
	cmd := ReceiveCommand(testTarget(), "/remote/a.txt", "/local/b.txt", logger.Noop())
	assert.Contains(t, cmd, " mv ")
}

func TestExecuteCommand_InlineForm(t *testing.T) {
	cmd := ExecuteCommand(testTarget(), "ls -la", "", logger.Noop())
	assert.Contains(t, cmd, "bash --login -c")
	assert.NotContains(t, cmd, "HEREDOC!!")
}

func TestExecuteCommand_HeredocFormForDottedCommand(t *testing.T) {
	cmd := ExecuteCommand(testTarget(), "python script.py", "", logger.Noop())
	assert.Contains(t, cmd, "HEREDOC!!")
}

func TestExecuteCommand_WorkdirPreamble(t *testing.T) {
	cmd := ExecuteCommand(testTarget(), "ls", "/remote/work", logger.Noop())
	assert.Contains(t, cmd, "mkdir -p")
	assert.Contains(t, cmd, "cd ")
}

func TestControlMasterOptions_ContainsExpectedFlags(t *testing.T) {
	opts := ControlMasterOptions(logger.Noop())
	assert.Contains(t, opts, "ControlMaster=auto")
	assert.Contains(t, opts, "ControlPersist=10m")
}

func TestIdentityOption(t *testing.T) {
	assert.Equal(t, "", IdentityOption(""))
	assert.Equal(t, "-i /key/path", IdentityOption("/key/path"))
}
