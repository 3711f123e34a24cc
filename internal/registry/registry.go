// Package registry implements the Host Registry: a process-wide,
// mutex-protected alias -> agent cache with idempotent-by-key
// insertion and eviction of agents whose task engine has stopped.
// Adapted from the connection-cache pattern used elsewhere in this
// module's SSH plumbing, generalized from "cached SSH connection" to
// "cached host facade with an attached task/workflow engine".
package registry

import (
	"fmt"
	"sync"

	"github.com/sosgo/hostcore/internal/agent"
	"github.com/sosgo/hostcore/internal/engine"
	"github.com/sosgo/hostcore/internal/errors"
)

// Host is the per-task facade a caller obtains from the registry: it
// forwards staging and execution operations straight to the
// underlying agent, and task/workflow submission to the attached
// engine pair.
type Host struct {
	Alias  string
	Agent  agent.Agent
	Engine engine.Pair
}

func (h *Host) SendToHost(items []string) (map[string]string, error) { return h.Agent.SendToHost(items) }
func (h *Host) ReceiveFromHost(items []string) (map[string]string, error) {
	return h.Agent.ReceiveFromHost(items)
}
func (h *Host) TargetExists(target, cwd string) (bool, error) {
	return h.Agent.TargetExists(target, cwd)
}
func (h *Host) TargetSignature(target, cwd string) (string, error) {
	return h.Agent.TargetSignature(target, cwd)
}

// SubmitTask stages taskID onto this host and hands it to the
// attached task engine. A prepare failure (resource ceiling exceeded,
// missing task file) is a ResourceLimitError, not a successful
// submission, so it is reported to the caller rather than swallowed.
func (h *Host) SubmitTask(taskID string) error {
	if !h.Agent.PrepareTask(taskID) {
		return errors.New(errors.ErrResourceLimit,
			fmt.Sprintf("failed to prepare task %s on %s", taskID, h.Alias), "")
	}
	return h.Engine.Task.Submit(taskID)
}

func (h *Host) CheckStatus(taskID string) (string, error) {
	return h.Engine.Task.Status(taskID)
}

func (h *Host) RetrieveResults(taskID string) (map[string]any, error) {
	return h.Agent.ReceiveResult(taskID)
}

func (h *Host) ExecuteWorkflow(workflowID string, taskIDs []string) error {
	return h.Engine.Workflow.Execute(workflowID, taskIDs)
}

// EnsureEngineStarted starts the attached task engine if it is not
// currently alive, honoring a "start_engine" request from the caller.
func (h *Host) EnsureEngineStarted() error {
	if h.Engine.Task.State() == engine.StateAlive {
		return nil
	}
	return h.Engine.Task.Start()
}

// Factory builds a Host for an alias not yet in the registry.
type Factory func(alias string) (*Host, error)

// Registry is a thread-safe alias -> Host cache.
type Registry struct {
	mu    sync.Mutex
	hosts map[string]*Host
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{hosts: make(map[string]*Host)}
}

// Get returns the cached Host for alias, building it via factory on
// first lookup. An existing entry whose task engine has stopped is
// evicted and rebuilt.
func (r *Registry) Get(alias string, factory Factory) (*Host, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.hosts[alias]; ok {
		if h.Engine.Task == nil || h.Engine.Task.State() != engine.StateStopped {
			return h, nil
		}
		delete(r.hosts, alias)
		hostEvictions.WithLabelValues("engine_stopped").Inc()
	}

	h, err := factory(alias)
	if err != nil {
		return nil, err
	}
	r.hosts[alias] = h
	hostBuilds.WithLabelValues(alias).Inc()
	hostsCached.Set(float64(len(r.hosts)))
	return h, nil
}

// Evict removes alias's cached Host, e.g. when a caller's task engine
// reports the agent stopped out-of-band.
func (r *Registry) Evict(alias string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hosts[alias]; ok {
		delete(r.hosts, alias)
		hostEvictions.WithLabelValues("manual").Inc()
		hostsCached.Set(float64(len(r.hosts)))
	}
}

// Reset clears every cached Host; intended for use between tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts = make(map[string]*Host)
	hostsCached.Set(0)
}

// Size returns the number of cached Hosts.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hosts)
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide Registry singleton.
func Global() *Registry {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}
