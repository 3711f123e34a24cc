package engine

import "sync"

// backgroundTaskEngine is the built-in task engine used when a host
// declares no queue_type. Submit records a task as "running" in an
// in-memory status map; the engine itself starts no process.
type backgroundTaskEngine struct {
	mu      sync.Mutex
	state   State
	statues map[string]string
}

func newBackgroundTaskEngine() *backgroundTaskEngine {
	return &backgroundTaskEngine{statues: make(map[string]string)}
}

func (e *backgroundTaskEngine) Name() string { return "background_process" }

func (e *backgroundTaskEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateAlive
	return nil
}

func (e *backgroundTaskEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateStopped
	return nil
}

func (e *backgroundTaskEngine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *backgroundTaskEngine) Submit(taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statues[taskID] = "running"
	return nil
}

func (e *backgroundTaskEngine) Status(taskID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.statues[taskID]
	if !ok {
		return "unknown", nil
	}
	return s, nil
}

// backgroundWorkflowEngine submits a workflow's tasks one after
// another to a backgroundTaskEngine.
type backgroundWorkflowEngine struct {
	tasks *backgroundTaskEngine
}

func (e *backgroundWorkflowEngine) Name() string { return "background_process" }

func (e *backgroundWorkflowEngine) Execute(workflowID string, taskIDs []string) error {
	for _, id := range taskIDs {
		if err := e.tasks.Submit(id); err != nil {
			return err
		}
	}
	return nil
}

func newBackgroundProcessPair() Pair {
	t := newBackgroundTaskEngine()
	_ = t.Start()
	return Pair{Task: t, Workflow: &backgroundWorkflowEngine{tasks: t}}
}
