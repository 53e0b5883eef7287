package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"media-library/internal/bootstrap"
	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// Body is the work of one job. It returns the number of library rows it
// changed, which is only reported for counted jobs.
type Body func(ctx context.Context, run bootstrap.Run) (changed int, err error)

// Runner adapts a Body to bootstrap.Adapter.
type Runner struct {
	ctx     context.Context
	kind    bootstrap.JobKind
	counted bool
	body    Body
	log     *logging.Logger
}

// NewRunner creates an adapter for kind. Bodies run with ctx, so
// cancelling it aborts blocking work such as ffmpeg subprocesses.
func NewRunner(ctx context.Context, kind bootstrap.JobKind, counted bool, body Body) *Runner {
	return &Runner{
		ctx:     ctx,
		kind:    kind,
		counted: counted,
		body:    body,
		log:     logging.For("jobs"),
	}
}

// Start runs the body on a new goroutine.
func (r *Runner) Start(run bootstrap.Run) {
	go r.execute(run)
}

func (r *Runner) execute(run bootstrap.Run) {
	label := r.kind.String()
	run.Reporter.TaskStarted(run.ID, r.kind)
	metrics.TaskStartedTotal.WithLabelValues(label).Inc()
	r.log.Debug("Started %s (run %s)", run.Task, run.ID)

	start := time.Now()
	changed, err := r.safeBody(run)
	elapsed := time.Since(start)
	metrics.TaskDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	if err != nil {
		metrics.TaskErrorsTotal.WithLabelValues(label).Inc()
		r.log.Error("%s failed after %v: %v", run.Task, elapsed.Round(time.Millisecond), err)
	}

	count := bootstrap.Uncounted()
	if r.counted {
		count = bootstrap.Items(changed)
		if changed > 0 {
			metrics.TaskItemsProcessed.WithLabelValues(label).Add(float64(changed))
		}
	}

	if err == nil {
		r.log.Info("%s finished in %v, %s", run.Task, elapsed.Round(time.Millisecond), count)
	}
	metrics.TaskCompletedTotal.WithLabelValues(label).Inc()
	run.Reporter.TaskCompleted(run.ID, r.kind, count)
}

func (r *Runner) safeBody(run bootstrap.Run) (changed int, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("panic in %s: %v\n%s", run.Task, p, debug.Stack())
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.body(r.ctx, run)
}
