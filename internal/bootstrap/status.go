package bootstrap

import "time"

// State is the orchestrator's running state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Status is a point-in-time view of the orchestrator for the status API
// and the metrics collector.
type Status struct {
	State       State     `json:"state"`
	Current     string    `json:"current,omitempty"`
	RunID       string    `json:"runId,omitempty"`
	StartedAt   time.Time `json:"startedAt,omitempty"`
	Cancelling  bool      `json:"cancelling"`
	Queue       []string  `json:"queue"`
	LastEvent   string    `json:"lastEvent,omitempty"`
	LastEventAt time.Time `json:"lastEventAt,omitempty"`
	Drains      uint64    `json:"drains"`

	// Progress is the running task's item count, nil when idle.
	Progress *TaskProgress `json:"progress,omitempty"`

	live *Progress
}

// Status returns the current state. Safe for any goroutine.
func (o *Orchestrator) Status() Status {
	s := *o.status.Load()
	tasks := o.queue.Tasks()
	s.Queue = make([]string, len(tasks))
	for i, t := range tasks {
		s.Queue[i] = t.String()
	}
	s.Cancelling = o.cancel.Cancelled()
	if s.live != nil {
		p := s.live.Snapshot()
		s.Progress = &p
	}
	return s
}

// Busy reports whether a task is running.
func (o *Orchestrator) Busy() bool {
	return o.status.Load().State == StateRunning
}

// publish stores a fresh Status from loop-owned state. ev, when non-nil,
// becomes the last event.
func (o *Orchestrator) publish(ev *Event) {
	prev := o.status.Load()
	next := &Status{
		State:       StateIdle,
		LastEvent:   prev.LastEvent,
		LastEventAt: prev.LastEventAt,
		Drains:      prev.Drains,
	}
	if o.running != nil {
		next.State = StateRunning
		next.Current = o.running.task.String()
		next.RunID = o.running.id
		next.StartedAt = o.running.started
		next.live = o.running.progress
	}
	if ev != nil {
		next.LastEvent = ev.Type.String()
		if ev.Type == EventTaskStarted {
			next.LastEvent += " " + ev.Kind.String()
		}
		next.LastEventAt = ev.Time
		if ev.Type == EventCompleted {
			next.Drains++
		}
	}
	o.status.Store(next)
}
