// Package tunnel implements the long-lived request/reply channel to a
// remote host's on-demand command helper, reached through an SSH port
// forward rather than a shelled-out ssh -L invocation.
package tunnel

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os/user"
	"strconv"
	"time"

	"github.com/sosgo/hostcore/internal/errors"
	"github.com/sosgo/hostcore/internal/logger"
)

// Dialer opens a TCP connection through an established SSH session,
// satisfied by *sshutil.Client via its embedded *ssh.Client.Dial.
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
}

// CommandRunner fires a command on the remote host without waiting
// for it to finish, used to bootstrap the helper process.
type CommandRunner interface {
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)
}

const (
	aliveMessage   = "alive"
	aliveReply     = "yes"
	bootAttempts   = 5
	bootRetryDelay = 1 * time.Second
	probeDeadline  = 1 * time.Second
)

// Port returns the remote helper's listening port for the given
// remote uid: 5000 + uid.
func Port(remoteUID int) int {
	return 5000 + remoteUID
}

// Socket is a single request/reply connection to the remote helper.
type Socket struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (s *Socket) send(frame []any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = s.conn.Write(data)
	return err
}

func (s *Socket) recv(deadline time.Duration) (string, error) {
	if deadline > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

// Close closes the underlying connection.
func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// testAlive sends "alive" and checks for "yes" within the probe
// deadline, matching the original's 1000ms round trip.
func (s *Socket) testAlive() bool {
	if err := s.send([]any{aliveMessage}); err != nil {
		return false
	}
	reply, err := s.recv(probeDeadline)
	if err != nil {
		return false
	}
	return reply == aliveReply
}

// Call sends a framed request and returns the raw reply line. Replies
// beginning with "error:" are surfaced as a ProtocolError.
func (s *Socket) Call(verb string, args ...any) (string, error) {
	frame := append([]any{verb}, args...)
	if err := s.send(frame); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrProtocol,
			"failed to send request to the remote command channel",
			"the tunneled socket may have gone stale; it will be rebuilt on the next call")
	}
	reply, err := s.recv(0)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrProtocol,
			"failed to read reply from the remote command channel", "")
	}
	if len(reply) >= 6 && reply[:6] == "error:" {
		return "", errors.New(errors.ErrRemoteCommand, reply[6:], "")
	}
	return reply, nil
}

// Manager lazily creates, reuses, and rebuilds the tunneled socket for
// one remote host.
type Manager struct {
	dial   Dialer
	runner CommandRunner
	log    logger.Logger
	sock   *Socket
}

// NewManager builds a tunnel manager over an established SSH
// connection. dial and runner are typically the same *sshutil.Client.
func NewManager(dial Dialer, runner CommandRunner, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Noop()
	}
	return &Manager{dial: dial, runner: runner, log: log}
}

// Connect returns a healthy tunneled socket, creating or rebuilding it
// as necessary. remoteUID determines the helper's listening port.
func (m *Manager) Connect(remoteUID int) (*Socket, error) {
	port := Port(remoteUID)

	if m.sock != nil {
		if m.sock.testAlive() {
			return m.sock, nil
		}
		_ = m.sock.Close()
		m.sock = nil
	}

	bootCmd := fmt.Sprintf("nohup sos server --port %d --duration 60 >/dev/null 2>&1 &", port)
	if _, _, _, err := m.runner.Exec(bootCmd); err != nil {
		m.log.Debug("tunnel: failed to launch remote helper: %v", err)
	}

	addr := net.JoinHostPort("localhost", strconv.Itoa(port))
	var lastErr error
	for attempt := 0; attempt < bootAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(bootRetryDelay)
		}
		conn, err := m.dial.Dial("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		sock := &Socket{conn: conn, reader: bufio.NewReader(conn)}
		if sock.testAlive() {
			m.sock = sock
			return sock, nil
		}
		_ = sock.Close()
		lastErr = fmt.Errorf("helper did not reply alive")
	}

	return nil, errors.WrapWithCode(lastErr, errors.ErrConnectivity,
		"failed to start a remote command helper",
		"make sure the remote host has a current version of the helper installed and reachable")
}

// CurrentUIDOrDefault returns the numeric uid of the process, falling
// back to 0 when it cannot be determined (non-POSIX systems).
func CurrentUIDOrDefault() int {
	u, err := user.Current()
	if err != nil {
		return 0
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0
	}
	return uid
}
