package taskfile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	_ = os.MkdirAll(home, 0755)
}

func TestSaveAndLoad(t *testing.T) {
	withHome(t)

	f := &File{
		TaskID: "task-1",
		Runtime: Runtime{
			Verbosity: 1,
			Workdir:   "/tmp/work",
		},
		Status: StatusNew,
	}

	require.NoError(t, Save(f))

	loaded, err := Load("task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", loaded.TaskID)
	assert.Equal(t, "/tmp/work", loaded.Runtime.Workdir)
	assert.Equal(t, StatusNew, loaded.Status)
}

func TestLoad_MissingFile(t *testing.T) {
	withHome(t)
	_, err := Load("does-not-exist")
	require.Error(t, err)
}

func TestReceiveResult_MissingResult(t *testing.T) {
	f := &File{TaskID: "task-2"}
	r := f.ReceiveResult()
	assert.Equal(t, 1, r.RetCode)
	assert.NotEmpty(t, r.Exception)
}

func TestReceiveResult_PresentResult(t *testing.T) {
	f := &File{TaskID: "task-3", Result: &Result{RetCode: 0, Stdout: "ok"}}
	r := f.ReceiveResult()
	assert.Equal(t, 0, r.RetCode)
	assert.Equal(t, "ok", r.Stdout)
}
