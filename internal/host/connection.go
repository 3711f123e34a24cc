package host

import (
	"time"

	"github.com/sosgo/hostcore/pkg/sshutil"
)

// Connection is a cached SSH connection keyed by the alias used to
// reach it, reused across separate agent builds for the same host.
type Connection struct {
	Name    string            // The resolved host alias (e.g. "gpu-box")
	Alias   string            // The SSH alias/address actually dialed
	Client  sshutil.SSHClient // The active SSH client (nil for local connections)
	Latency time.Duration     // Connection latency from the last probe
	IsLocal bool              // True when this entry stands in for local execution
}

// Close closes the underlying SSH connection, if any.
func (c *Connection) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
