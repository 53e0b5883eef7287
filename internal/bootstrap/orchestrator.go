package bootstrap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// ErrStopped is returned by producer calls once Run has returned.
var ErrStopped = errors.New("orchestrator stopped")

// Adapter starts the job for one JobKind. Start must not block: the job
// runs on its own goroutine and reports through run.Reporter, calling
// TaskStarted once and then TaskCompleted exactly once, even on failure.
type Adapter interface {
	Start(run Run)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(run Run)

// Start calls f(run).
func (f AdapterFunc) Start(run Run) { f(run) }

// Run is one execution of a task.
type Run struct {
	ID       string
	Task     Task
	Cancel   *CancelToken
	Reporter Reporter
	Progress *Progress
}

// Reporter receives adapter progress. The Orchestrator implements it.
type Reporter interface {
	TaskStarted(runID string, kind JobKind)
	TaskCompleted(runID string, kind JobKind, count ItemCount)
}

// Refresher reloads the library index.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// EventType is the kind of an orchestrator Event.
type EventType int

const (
	// EventTaskStarted is published when a job reports that it started.
	EventTaskStarted EventType = iota + 1
	// EventCompleted is published once per pipeline drain.
	EventCompleted
)

func (t EventType) String() string {
	switch t {
	case EventTaskStarted:
		return "task_started"
	case EventCompleted:
		return "completed"
	}
	return "unknown"
}

// Event is an orchestrator output. Kind is only set for EventTaskStarted.
type Event struct {
	Type EventType
	Kind JobKind
	Time time.Time
}

// Options tune an Orchestrator.
type Options struct {
	// WarnAfter logs a warning each time a task has run this long without
	// completing. Zero disables the watchdog.
	WarnAfter time.Duration
	// InboxSize is the inbox buffer length. Defaults to 64.
	InboxSize int
}

type op int

const (
	opStart op = iota + 1
	opRunIfIdle
	opEnqueue
	opStop
	opStarted
	opCompleted
)

// message is one inbox entry. done is closed once the loop has handled it;
// adapter reports leave it nil.
type message struct {
	op    op
	tasks []Task
	runID string
	kind  JobKind
	count ItemCount
	done  chan struct{}
}

// inflight is the task occupying the single running slot.
type inflight struct {
	id       string
	task     Task
	started  time.Time
	progress *Progress
}

// Orchestrator runs queued tasks one at a time. Construct with New and
// drive with Run.
type Orchestrator struct {
	queue     *TaskQueue
	cancel    *CancelToken
	adapters  map[JobKind]Adapter
	library   Refresher
	settings  Settings
	warnAfter time.Duration
	log       *logging.Logger

	inbox   chan message
	stopped chan struct{}
	started atomic.Bool

	observersMu sync.RWMutex
	observers   []func(Event)

	status atomic.Pointer[Status]

	// owned by the Run goroutine
	running  *inflight
	stale    bool
	watchdog *time.Timer
}

// New creates an orchestrator dispatching tasks to adapters.
func New(adapters map[JobKind]Adapter, library Refresher, settings Settings, opts Options) *Orchestrator {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 64
	}

	o := &Orchestrator{
		queue:     NewTaskQueue(),
		cancel:    &CancelToken{},
		adapters:  adapters,
		library:   library,
		settings:  settings,
		warnAfter: opts.WarnAfter,
		log:       logging.For("bootstrap"),
		inbox:     make(chan message, opts.InboxSize),
		stopped:   make(chan struct{}),
	}
	o.status.Store(&Status{State: StateIdle})
	return o
}

// OnEvent registers an observer. Observers are called on the loop goroutine
// in event order and must not call the orchestrator's blocking methods.
func (o *Orchestrator) OnEvent(fn func(Event)) {
	o.observersMu.Lock()
	o.observers = append(o.observers, fn)
	o.observersMu.Unlock()
}

// Queue exposes the task queue for inspection.
func (o *Orchestrator) Queue() *TaskQueue { return o.queue }

// CancelToken returns the token handed to every run.
func (o *Orchestrator) CancelToken() *CancelToken { return o.cancel }

// Run processes the inbox until ctx is done. It must be called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.started.CompareAndSwap(false, true) {
		return errors.New("orchestrator already running")
	}
	defer close(o.stopped)
	defer o.stopWatchdog()

	o.log.Info("Task orchestrator started")

	for {
		select {
		case <-ctx.Done():
			o.log.Info("Task orchestrator stopped")
			return ctx.Err()
		case msg := <-o.inbox:
			o.handle(ctx, msg)
			if msg.done != nil {
				close(msg.done)
			}
		case <-o.watchdogC():
			o.warnOverdue()
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, msg message) {
	switch msg.op {
	case opStart:
		o.handleStart(ctx)
	case opRunIfIdle:
		o.runIfIdle(ctx)
	case opEnqueue:
		o.queue.Push(msg.tasks...)
		o.runIfIdle(ctx)
	case opStop:
		o.handleStop()
	case opStarted:
		o.handleStarted(msg.runID, msg.kind)
	case opCompleted:
		o.handleCompleted(ctx, msg.runID, msg.kind, msg.count)
	}
	metrics.TaskQueueLength.Set(float64(o.queue.Len()))
}

// call posts a producer request and waits until the loop has handled it.
func (o *Orchestrator) call(ctx context.Context, msg message) error {
	msg.done = make(chan struct{})

	select {
	case o.inbox <- msg:
	case <-o.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-msg.done:
		return nil
	case <-o.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post delivers an adapter report without waiting for it to be handled.
func (o *Orchestrator) post(msg message) {
	select {
	case o.inbox <- msg:
	case <-o.stopped:
		o.log.Debug("Dropping report for %s run %s: orchestrator stopped", msg.kind, msg.runID)
	}
}

// Start refreshes the library and starts the first queued task. With an
// empty queue the pipeline completes immediately.
func (o *Orchestrator) Start(ctx context.Context) error {
	return o.call(ctx, message{op: opStart})
}

// Enqueue appends tasks to the queue without starting anything. Use
// RunIfIdle afterwards, which lets a producer queue several tasks first.
func (o *Orchestrator) Enqueue(tasks ...Task) {
	o.queue.Push(tasks...)
	metrics.TaskQueueLength.Set(float64(o.queue.Len()))
}

// RunIfIdle starts the head task unless a task is already running.
func (o *Orchestrator) RunIfIdle(ctx context.Context) error {
	return o.call(ctx, message{op: opRunIfIdle})
}

// Stop discards all queued tasks and raises the cancel token if a task is
// running. The running task still completes normally.
func (o *Orchestrator) Stop(ctx context.Context) error {
	return o.call(ctx, message{op: opStop})
}

// EnqueueStartup queues the startup pipeline. Start kicks it off.
func (o *Orchestrator) EnqueueStartup() {
	o.Enqueue(StartupTasks(o.settings.FaceDetection())...)
}

// ScanPictureForFaces queues face detection for one picture followed by
// recognition. It does nothing while face detection is off.
func (o *Orchestrator) ScanPictureForFaces(ctx context.Context, pictureID int64) error {
	return o.enqueueFaces(ctx, pictureID)
}

// ScanPicturesForFaces queues face detection for every unscanned picture
// followed by recognition. It does nothing while face detection is off.
func (o *Orchestrator) ScanPicturesForFaces(ctx context.Context) error {
	return o.enqueueFaces(ctx, 0)
}

func (o *Orchestrator) enqueueFaces(ctx context.Context, pictureID int64) error {
	if o.settings.FaceDetection() != FaceDetectionOn {
		o.log.Debug("Face detection is off, ignoring face scan request")
		return nil
	}
	return o.enqueueAndRun(ctx,
		Task{Kind: DetectFaces(), PictureID: pictureID},
		NewTask(RecognizeFaces()),
	)
}

// TranscodeAll queues a transcode of every incompatible video.
func (o *Orchestrator) TranscodeAll(ctx context.Context) error {
	return o.enqueueAndRun(ctx, NewTask(Transcode()))
}

// Rescan queues the filesystem pickup tasks (see RescanTasks).
func (o *Orchestrator) Rescan(ctx context.Context) error {
	return o.enqueueAndRun(ctx, RescanTasks()...)
}

func (o *Orchestrator) enqueueAndRun(ctx context.Context, tasks ...Task) error {
	return o.call(ctx, message{op: opEnqueue, tasks: tasks})
}

// TaskStarted implements Reporter.
func (o *Orchestrator) TaskStarted(runID string, kind JobKind) {
	o.post(message{op: opStarted, runID: runID, kind: kind})
}

// TaskCompleted implements Reporter.
func (o *Orchestrator) TaskCompleted(runID string, kind JobKind, count ItemCount) {
	o.post(message{op: opCompleted, runID: runID, kind: kind, count: count})
}

func (o *Orchestrator) handleStart(ctx context.Context) {
	o.refresh(ctx)
	if o.running != nil {
		return
	}
	if !o.startNext() {
		o.drain(ctx)
	}
}

func (o *Orchestrator) runIfIdle(ctx context.Context) {
	if o.running != nil {
		return
	}
	// Unlike Start, an empty queue here is not a pipeline run.
	if o.queue.Len() == 0 {
		return
	}
	if !o.startNext() {
		o.drain(ctx)
	}
}

// startNext pops tasks until one is handed to an adapter. It returns false
// when the queue ran dry. Tasks without an adapter count as completed
// without changes.
func (o *Orchestrator) startNext() bool {
	for {
		task, ok := o.queue.Pop()
		if !ok {
			return false
		}

		adapter, found := o.adapters[task.Kind]
		if !found {
			o.log.Warn("No adapter registered for %s, skipping", task)
			continue
		}

		o.running = &inflight{
			id:       uuid.NewString(),
			task:     task,
			started:  time.Now(),
			progress: &Progress{},
		}
		o.startWatchdog()
		o.publish(nil)

		o.log.Debug("Starting %s (run %s)", task, o.running.id)
		adapter.Start(Run{
			ID:       o.running.id,
			Task:     task,
			Cancel:   o.cancel,
			Reporter: o,
			Progress: o.running.progress,
		})
		return true
	}
}

func (o *Orchestrator) handleStarted(runID string, kind JobKind) {
	if o.running == nil || o.running.id != runID {
		o.log.Warn("Ignoring start report for %s: run %s is not in flight", kind, runID)
		return
	}
	o.emit(Event{Type: EventTaskStarted, Kind: kind, Time: time.Now()})
}

func (o *Orchestrator) handleCompleted(ctx context.Context, runID string, kind JobKind, count ItemCount) {
	if o.running == nil || o.running.id != runID {
		o.log.Warn("Ignoring completion report for %s: run %s is not in flight", kind, runID)
		return
	}

	o.log.Debug("Completed %s in %v (items: %s)", o.running.task, time.Since(o.running.started), count)
	o.stale = o.stale || count.Changed()
	o.running = nil
	o.stopWatchdog()

	if !o.startNext() {
		o.drain(ctx)
	}
}

// drain finishes a pipeline run once the queue is empty and nothing runs.
func (o *Orchestrator) drain(ctx context.Context) {
	if o.stale {
		o.refresh(ctx)
	}
	o.stale = false
	o.cancel.Reset()

	metrics.TaskPipelineDrainsTotal.Inc()
	o.log.Info("Task pipeline completed")
	o.emit(Event{Type: EventCompleted, Time: time.Now()})
}

func (o *Orchestrator) handleStop() {
	if o.running == nil {
		return
	}
	dropped := o.queue.Clear()
	o.cancel.Cancel()
	metrics.TaskStopRequestsTotal.Inc()
	o.log.Info("Stop requested: discarded %d queued tasks, cancelling %s", dropped, o.running.task)
	o.publish(nil)
}

// refresh reloads the library. Failures keep the previous snapshot.
func (o *Orchestrator) refresh(ctx context.Context) {
	if err := o.library.Refresh(ctx); err != nil {
		o.log.Error("Library refresh failed, keeping previous snapshot: %v", err)
	}
}

func (o *Orchestrator) emit(ev Event) {
	o.publish(&ev)

	o.observersMu.RLock()
	observers := o.observers
	o.observersMu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

func (o *Orchestrator) watchdogC() <-chan time.Time {
	if o.watchdog == nil {
		return nil
	}
	return o.watchdog.C
}

func (o *Orchestrator) startWatchdog() {
	if o.warnAfter <= 0 {
		return
	}
	o.stopWatchdog()
	o.watchdog = time.NewTimer(o.warnAfter)
}

func (o *Orchestrator) stopWatchdog() {
	if o.watchdog != nil {
		o.watchdog.Stop()
		o.watchdog = nil
	}
}

// warnOverdue reports a task that has not completed within warnAfter. It
// never completes the task on the adapter's behalf.
func (o *Orchestrator) warnOverdue() {
	if o.running == nil {
		o.stopWatchdog()
		return
	}
	label := o.running.task.Kind.String()
	metrics.TaskOverdueTotal.WithLabelValues(label).Inc()
	o.log.Warn("Task %s (run %s) has been running for %v without completing",
		o.running.task, o.running.id, time.Since(o.running.started).Round(time.Second))
	o.watchdog.Reset(o.warnAfter)
}
