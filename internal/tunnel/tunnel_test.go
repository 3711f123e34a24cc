package tunnel

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"

	"github.com/sosgo/hostcore/internal/logger"
	sshtesting "github.com/sosgo/hostcore/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHelper serves one end of a net.Pipe as if it were the remote
// command helper: it replies "yes" to an "alive" frame and echoes the
// verb prefixed with "got:" to anything else.
func fakeHelper(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		var frame []any
		if err := json.Unmarshal([]byte(line), &frame); err != nil || len(frame) == 0 {
			return
		}
		verb, _ := frame[0].(string)
		var reply string
		if verb == aliveMessage {
			reply = aliveReply
		} else {
			reply = "got:" + verb
		}
		if _, err := conn.Write([]byte(reply + "\n")); err != nil {
			return
		}
	}
}

func TestSocket_TestAliveAndCall(t *testing.T) {
	client, server := net.Pipe()
	go fakeHelper(server)
	defer client.Close()

	sock := &Socket{conn: client, reader: bufio.NewReader(client)}
	assert.True(t, sock.testAlive())

	reply, err := sock.Call("status", "task-1")
	require.NoError(t, err)
	assert.Equal(t, "got:status", reply)
}

func TestSocket_CallSurfacesRemoteError(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		r := bufio.NewReader(server)
		_, _ = r.ReadString('\n')
		_, _ = server.Write([]byte("error:boom\n"))
	}()
	defer client.Close()

	sock := &Socket{conn: client, reader: bufio.NewReader(client)}
	_, err := sock.Call("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

type fakeDialer struct {
	dialErr error
}

func (d *fakeDialer) Dial(network, addr string) (net.Conn, error) {
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	client, server := net.Pipe()
	go fakeHelper(server)
	return client, nil
}

type fakeRunner struct{ execCount int }

func (r *fakeRunner) Exec(cmd string) ([]byte, []byte, int, error) {
	r.execCount++
	return nil, nil, 0, nil
}

func TestManager_ConnectBuildsSocketOnFirstCall(t *testing.T) {
	dialer := &fakeDialer{}
	runner := &fakeRunner{}
	m := NewManager(dialer, runner, logger.Noop())

	sock, err := m.Connect(1000)
	require.NoError(t, err)
	assert.NotNil(t, sock)
	assert.Equal(t, 1, runner.execCount)
}

func TestManager_ConnectReusesHealthySocket(t *testing.T) {
	dialer := &fakeDialer{}
	runner := &fakeRunner{}
	m := NewManager(dialer, runner, logger.Noop())

	first, err := m.Connect(1000)
	require.NoError(t, err)
	second, err := m.Connect(1000)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, runner.execCount)
}

func TestPort(t *testing.T) {
	assert.Equal(t, 6000, Port(1000))
}

func TestManager_ConnectLaunchesHelperThroughMockClient(t *testing.T) {
	mock := sshtesting.NewMockClient("gpu1")
	m := NewManager(&fakeDialer{}, mock, logger.Noop())

	sock, err := m.Connect(1000)
	require.NoError(t, err)
	assert.NotNil(t, sock)
}
