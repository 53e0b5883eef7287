package bootstrap

import "sync"

// TaskQueue is a FIFO of pending tasks, safe for use by any goroutine.
// Tasks leave the queue only through Pop or Clear.
type TaskQueue struct {
	mu    sync.Mutex
	tasks []Task
}

// NewTaskQueue returns an empty queue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// Push appends tasks to the tail. A batch is appended atomically, so it is
// never interleaved with another producer's tasks.
func (q *TaskQueue) Push(tasks ...Task) {
	if len(tasks) == 0 {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, tasks...)
	q.mu.Unlock()
}

// Pop removes and returns the head task.
func (q *TaskQueue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return Task{}, false
	}
	t := q.tasks[0]
	q.tasks[0] = Task{}
	q.tasks = q.tasks[1:]
	if len(q.tasks) == 0 {
		q.tasks = nil
	}
	return t, true
}

// Clear discards every queued task and returns how many were dropped.
func (q *TaskQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tasks)
	q.tasks = nil
	return n
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Tasks returns a copy of the queued tasks in order.
func (q *TaskQueue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

// Kinds returns the kinds of the queued tasks in order.
func (q *TaskQueue) Kinds() []JobKind {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]JobKind, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = t.Kind
	}
	return out
}
