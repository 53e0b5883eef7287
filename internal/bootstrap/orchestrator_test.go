package bootstrap

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-library/internal/metrics"
)

const testTimeout = 2 * time.Second

// staticSettings is a fixed face-detection mode.
type staticSettings FaceDetectionMode

func (s staticSettings) FaceDetection() FaceDetectionMode { return FaceDetectionMode(s) }

// trace records refreshes and events in loop order.
type trace struct {
	mu      sync.Mutex
	entries []string
}

func (tr *trace) add(s string) {
	tr.mu.Lock()
	tr.entries = append(tr.entries, s)
	tr.mu.Unlock()
}

func (tr *trace) snapshot() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.entries...)
}

// fakeRefresher counts Refresh calls.
type fakeRefresher struct {
	trace *trace
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context) error {
	f.calls.Add(1)
	f.trace.add("refresh")
	return f.err
}

// recordingAdapter hands every run to the test, which reports on the
// adapter's behalf.
type recordingAdapter struct {
	runs chan Run
}

func (a *recordingAdapter) Start(run Run) {
	a.runs <- run
}

func allKinds() []JobKind {
	kinds := kindsOf(StartupTasks(FaceDetectionOn))
	return append(kinds, Transcode())
}

type harness struct {
	o       *Orchestrator
	adapter *recordingAdapter
	refresh *fakeRefresher
	events  chan Event
	trace   *trace
	ctx     context.Context
}

func newHarness(t *testing.T, mode FaceDetectionMode, opts Options) *harness {
	t.Helper()

	tr := &trace{}
	adapter := &recordingAdapter{runs: make(chan Run, 256)}
	adapters := make(map[JobKind]Adapter)
	for _, kind := range allKinds() {
		adapters[kind] = adapter
	}
	refresher := &fakeRefresher{trace: tr}

	h := &harness{
		o:       New(adapters, refresher, staticSettings(mode), opts),
		adapter: adapter,
		refresh: refresher,
		events:  make(chan Event, 256),
		trace:   tr,
	}
	h.o.OnEvent(func(ev Event) {
		if ev.Type == EventTaskStarted {
			tr.add("started " + ev.Kind.String())
		} else {
			tr.add("completed")
		}
		h.events <- ev
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.ctx = ctx
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.o.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func (h *harness) nextRun(t *testing.T) Run {
	t.Helper()
	select {
	case run := <-h.adapter.runs:
		return run
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for a task to start")
		return Run{}
	}
}

func (h *harness) nextEvent(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for an event")
		return Event{}
	}
}

func (h *harness) expectNoRun(t *testing.T) {
	t.Helper()
	select {
	case run := <-h.adapter.runs:
		t.Fatalf("unexpected run of %s", run.Task)
	case <-time.After(20 * time.Millisecond):
	}
}

// complete reports a full start/complete cycle for run.
func (h *harness) complete(t *testing.T, run Run, count ItemCount) {
	t.Helper()
	h.o.TaskStarted(run.ID, run.Task.Kind)
	if ev := h.nextEvent(t); ev.Type != EventTaskStarted || ev.Kind != run.Task.Kind {
		t.Fatalf("event = %+v, want task_started %s", ev, run.Task.Kind)
	}
	h.o.TaskCompleted(run.ID, run.Task.Kind, count)
}

func TestScenarioScanPhotoThenVideo(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(NewTask(Scan(Photo)), NewTask(Scan(Video)))
	if err := h.o.Start(h.ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	run := h.nextRun(t)
	if run.Task.Kind != Scan(Photo) {
		t.Fatalf("first run = %s, want scan(photo)", run.Task)
	}
	h.complete(t, run, Uncounted())

	run = h.nextRun(t)
	if run.Task.Kind != Scan(Video) {
		t.Fatalf("second run = %s, want scan(video)", run.Task)
	}
	h.complete(t, run, Items(5))

	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}

	want := []string{"refresh", "started scan(photo)", "started scan(video)", "refresh", "completed"}
	got := h.trace.snapshot()
	if len(got) != len(want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("trace[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if h.o.Busy() {
		t.Error("orchestrator still busy after drain")
	}
}

func TestStartWithEmptyQueueCompletes(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	if err := h.o.Start(h.ctx); err != nil {
		t.Fatal(err)
	}
	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}
	if got := h.refresh.calls.Load(); got != 1 {
		t.Errorf("Refresh() calls = %d, want 1", got)
	}
	h.expectNoRun(t)
}

func TestEnqueueDoesNotStart(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(NewTask(Transcode()))
	h.expectNoRun(t)
	if h.o.Queue().Len() != 1 {
		t.Errorf("queue length = %d, want 1", h.o.Queue().Len())
	}

	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	if run := h.nextRun(t); run.Task.Kind != Transcode() {
		t.Errorf("run = %s, want transcode", run.Task)
	}
}

func TestRunIfIdleWhileRunningIsNoop(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(NewTask(Scan(Photo)), NewTask(Scan(Video)))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	first := h.nextRun(t)

	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	h.expectNoRun(t)

	h.complete(t, first, Uncounted())
	if run := h.nextRun(t); run.Task.Kind != Scan(Video) {
		t.Errorf("run = %s, want scan(video)", run.Task)
	}
}

func TestStalenessGating(t *testing.T) {
	tests := []struct {
		name   string
		counts []ItemCount
		want   int32
	}{
		{name: "all uncounted", counts: []ItemCount{Uncounted(), Uncounted()}, want: 0},
		{name: "zero and uncounted", counts: []ItemCount{Items(0), Uncounted()}, want: 0},
		{name: "one changed", counts: []ItemCount{Items(0), Items(3)}, want: 1},
		{name: "all changed", counts: []ItemCount{Items(1), Items(2), Items(3)}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, FaceDetectionOff, Options{})

			for range tt.counts {
				h.o.Enqueue(NewTask(Transcode()))
			}
			if err := h.o.RunIfIdle(h.ctx); err != nil {
				t.Fatal(err)
			}
			for _, count := range tt.counts {
				h.complete(t, h.nextRun(t), count)
			}
			if ev := h.nextEvent(t); ev.Type != EventCompleted {
				t.Fatalf("event = %+v, want completed", ev)
			}
			if got := h.refresh.calls.Load(); got != tt.want {
				t.Errorf("Refresh() calls = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStaleFlagResetsBetweenDrains(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(NewTask(Transcode()))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	h.complete(t, h.nextRun(t), Items(2))
	h.nextEvent(t)

	h.o.Enqueue(NewTask(Transcode()))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	h.complete(t, h.nextRun(t), Uncounted())
	h.nextEvent(t)

	if got := h.refresh.calls.Load(); got != 1 {
		t.Errorf("Refresh() calls = %d, want 1", got)
	}
}

func TestStop(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(RescanTasks()...)
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	run := h.nextRun(t)

	if err := h.o.Stop(h.ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if n := h.o.Queue().Len(); n != 0 {
		t.Errorf("queue length after Stop() = %d, want 0", n)
	}
	if !run.Cancel.Cancelled() {
		t.Error("cancel token not set after Stop()")
	}
	if st := h.o.Status(); !st.Cancelling || st.State != StateRunning {
		t.Errorf("Status() = %+v, want running and cancelling", st)
	}

	// the in-flight job finishes through the normal path
	h.complete(t, run, Items(1))
	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}
	if run.Cancel.Cancelled() {
		t.Error("cancel token not reset after drain")
	}
	if h.o.Busy() {
		t.Error("orchestrator busy after drain")
	}
	h.expectNoRun(t)
}

func TestStopWhenIdle(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(NewTask(Transcode()))
	if err := h.o.Stop(h.ctx); err != nil {
		t.Fatal(err)
	}
	if h.o.CancelToken().Cancelled() {
		t.Error("Stop() while idle set the cancel token")
	}
	if h.o.Queue().Len() != 1 {
		t.Errorf("Stop() while idle cleared the queue")
	}
}

func TestFaceScanFeatureGating(t *testing.T) {
	t.Run("off", func(t *testing.T) {
		h := newHarness(t, FaceDetectionOff, Options{})

		if err := h.o.ScanPicturesForFaces(h.ctx); err != nil {
			t.Fatal(err)
		}
		if err := h.o.ScanPictureForFaces(h.ctx, 42); err != nil {
			t.Fatal(err)
		}
		if n := h.o.Queue().Len(); n != 0 {
			t.Errorf("queue length = %d, want 0", n)
		}
		h.expectNoRun(t)
	})

	t.Run("on", func(t *testing.T) {
		h := newHarness(t, FaceDetectionOn, Options{})

		if err := h.o.ScanPictureForFaces(h.ctx, 42); err != nil {
			t.Fatal(err)
		}
		run := h.nextRun(t)
		if run.Task.Kind != DetectFaces() || run.Task.PictureID != 42 {
			t.Errorf("run = %s, want detect-faces for picture 42", run.Task)
		}
		if got := h.o.Queue().Kinds(); !equalKinds(got, []JobKind{RecognizeFaces()}) {
			t.Errorf("queue = %v, want [recognize-faces]", got)
		}
	})
}

func TestTranscodeAllAndRescan(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(NewTask(Scan(Photo)))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	first := h.nextRun(t)

	if err := h.o.TranscodeAll(h.ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.o.Rescan(h.ctx); err != nil {
		t.Fatal(err)
	}

	want := append([]JobKind{Transcode()}, kindsOf(RescanTasks())...)
	if got := h.o.Queue().Kinds(); !equalKinds(got, want) {
		t.Errorf("queue = %v, want %v", got, want)
	}

	h.complete(t, first, Uncounted())
	if run := h.nextRun(t); run.Task.Kind != Transcode() {
		t.Errorf("run = %s, want transcode", run.Task)
	}
}

func TestEnqueueStartup(t *testing.T) {
	for _, mode := range []FaceDetectionMode{FaceDetectionOff, FaceDetectionOn} {
		t.Run(mode.String(), func(t *testing.T) {
			h := newHarness(t, mode, Options{})
			h.o.EnqueueStartup()

			want := kindsOf(StartupTasks(mode))
			if got := h.o.Queue().Kinds(); !equalKinds(got, want) {
				t.Errorf("queue = %v, want %v", got, want)
			}
		})
	}
}

func TestFIFOOrder(t *testing.T) {
	h := newHarness(t, FaceDetectionOn, Options{})

	want := kindsOf(StartupTasks(FaceDetectionOn))
	h.o.EnqueueStartup()
	h.o.Enqueue(NewTask(Transcode()))
	want = append(want, Transcode())

	if err := h.o.Start(h.ctx); err != nil {
		t.Fatal(err)
	}
	for i, kind := range want {
		run := h.nextRun(t)
		if run.Task.Kind != kind {
			t.Fatalf("run #%d = %s, want %s", i, run.Task.Kind, kind)
		}
		h.complete(t, run, Uncounted())
	}
	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}
}

// autoAdapter runs each task on its own goroutine like the real job runner
// and records start order and overlap.
type autoAdapter struct {
	mu        sync.Mutex
	order     []Task
	active    atomic.Int32
	maxActive atomic.Int32
}

func (a *autoAdapter) Start(run Run) {
	go func() {
		n := a.active.Add(1)
		for {
			m := a.maxActive.Load()
			if n <= m || a.maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		a.mu.Lock()
		a.order = append(a.order, run.Task)
		a.mu.Unlock()

		run.Reporter.TaskStarted(run.ID, run.Task.Kind)
		time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
		a.active.Add(-1)
		run.Reporter.TaskCompleted(run.ID, run.Task.Kind, Uncounted())
	}()
}

func (a *autoAdapter) started() []Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Task(nil), a.order...)
}

func TestFIFOAndMutualExclusionAcrossProducers(t *testing.T) {
	adapter := &autoAdapter{}
	o := New(map[JobKind]Adapter{DetectFaces(): adapter}, &fakeRefresher{trace: &trace{}},
		staticSettings(FaceDetectionOn), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	const producers, perProducer = 4, 25
	var wg sync.WaitGroup
	for p := 1; p <= producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				o.Enqueue(Task{Kind: DetectFaces(), PictureID: int64(p*1000 + i)})
				if err := o.RunIfIdle(ctx); err != nil {
					t.Errorf("RunIfIdle() failed: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	deadline := time.Now().Add(testTimeout)
	for len(adapter.started()) < producers*perProducer {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d tasks started", len(adapter.started()), producers*perProducer)
		}
		time.Sleep(time.Millisecond)
	}

	if m := adapter.maxActive.Load(); m != 1 {
		t.Errorf("max concurrently running tasks = %d, want 1", m)
	}

	last := make(map[int64]int64)
	for _, task := range adapter.started() {
		p := task.PictureID / 1000
		if prev, ok := last[p]; ok && task.PictureID <= prev {
			t.Errorf("producer %d: task %d started after %d", p, task.PictureID, prev)
		}
		last[p] = task.PictureID
	}
}

func TestUnknownKindIsSkipped(t *testing.T) {
	adapter := &recordingAdapter{runs: make(chan Run, 8)}
	events := make(chan Event, 8)
	o := New(map[JobKind]Adapter{Scan(Photo): adapter}, &fakeRefresher{trace: &trace{}},
		staticSettings(FaceDetectionOff), Options{})
	o.OnEvent(func(ev Event) { events <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	o.Enqueue(NewTask(Transcode()), NewTask(Scan(Photo)))
	if err := o.RunIfIdle(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case run := <-adapter.runs:
		if run.Task.Kind != Scan(Photo) {
			t.Errorf("run = %s, want scan(photo)", run.Task)
		}
	case <-time.After(testTimeout):
		t.Fatal("scan(photo) never started")
	}

	o2 := New(nil, &fakeRefresher{trace: &trace{}}, staticSettings(FaceDetectionOff), Options{})
	o2.OnEvent(func(ev Event) { events <- ev })
	go func() { _ = o2.Run(ctx) }()

	o2.Enqueue(NewTask(Transcode()))
	if err := o2.RunIfIdle(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if ev.Type != EventCompleted {
			t.Errorf("event = %+v, want completed", ev)
		}
	case <-time.After(testTimeout):
		t.Fatal("pipeline with only unknown tasks never completed")
	}
}

func TestMismatchedCompletionIgnored(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	h.o.Enqueue(NewTask(Transcode()))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	run := h.nextRun(t)

	h.o.TaskCompleted("not-a-run", Transcode(), Items(10))
	h.o.TaskStarted("not-a-run", Transcode())
	// the inbox is ordered, so this round trip follows the bogus reports
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	if !h.o.Busy() {
		t.Fatal("bogus completion ended the running task")
	}

	h.complete(t, run, Uncounted())
	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}
	if got := h.refresh.calls.Load(); got != 0 {
		t.Errorf("Refresh() calls = %d, want 0 (bogus count must not mark stale)", got)
	}
}

func TestRefreshFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})
	h.refresh.err = errors.New("database unavailable")

	h.o.Enqueue(NewTask(Transcode()), NewTask(Transcode()))
	if err := h.o.Start(h.ctx); err != nil {
		t.Fatal(err)
	}
	h.complete(t, h.nextRun(t), Items(1))
	h.complete(t, h.nextRun(t), Items(1))

	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}
	if got := h.refresh.calls.Load(); got != 2 {
		t.Errorf("Refresh() calls = %d, want 2", got)
	}
}

func TestWatchdogWarnsWithoutCompleting(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{WarnAfter: 5 * time.Millisecond})
	overdue := metrics.TaskOverdueTotal.WithLabelValues(Transcode().String())
	before := testutil.ToFloat64(overdue)

	h.o.Enqueue(NewTask(Transcode()))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	run := h.nextRun(t)

	deadline := time.Now().Add(testTimeout)
	for testutil.ToFloat64(overdue) <= before {
		if time.Now().After(deadline) {
			t.Fatal("watchdog never fired")
		}
		time.Sleep(time.Millisecond)
	}
	if !h.o.Busy() {
		t.Fatal("watchdog completed the task")
	}

	h.complete(t, run, Uncounted())
	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	if st := h.o.Status(); st.State != StateIdle || len(st.Queue) != 0 {
		t.Errorf("initial Status() = %+v", st)
	}

	h.o.Enqueue(NewTask(Scan(Photo)), NewTask(Scan(Video)))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatal(err)
	}
	run := h.nextRun(t)

	st := h.o.Status()
	if st.State != StateRunning || st.Current != "scan(photo)" || st.RunID != run.ID {
		t.Errorf("running Status() = %+v", st)
	}
	if len(st.Queue) != 1 || st.Queue[0] != "scan(video)" {
		t.Errorf("Status().Queue = %v", st.Queue)
	}

	h.complete(t, run, Uncounted())
	h.complete(t, h.nextRun(t), Uncounted())
	h.nextEvent(t)

	st = h.o.Status()
	if st.State != StateIdle || st.LastEvent != "completed" || st.Drains != 1 {
		t.Errorf("drained Status() = %+v", st)
	}
}

func TestCallsAfterRunReturns(t *testing.T) {
	o := New(nil, &fakeRefresher{trace: &trace{}}, staticSettings(FaceDetectionOff), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Run(ctx)
	}()
	cancel()
	<-done

	if err := o.Stop(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Stop() after Run returned = %v, want ErrStopped", err)
	}
	if err := o.Run(context.Background()); err == nil {
		t.Error("second Run() expected error")
	}
	// reports after shutdown are dropped, not blocked on
	o.TaskCompleted("run", Transcode(), Uncounted())
}

func TestStatusReportsRunningTaskProgress(t *testing.T) {
	h := newHarness(t, FaceDetectionOff, Options{})

	if p := h.o.Status().Progress; p != nil {
		t.Fatalf("idle progress = %+v, want nil", p)
	}

	h.o.Enqueue(NewTask(Thumbnail(Photo)), NewTask(Clean(Photo)))
	if err := h.o.RunIfIdle(h.ctx); err != nil {
		t.Fatalf("RunIfIdle() failed: %v", err)
	}

	run := h.nextRun(t)
	if run.Progress == nil {
		t.Fatal("run has no Progress")
	}
	run.Progress.SetTotal(4)
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run.Progress.Advance()
		}()
	}
	wg.Wait()

	got := h.o.Status().Progress
	if got == nil || *got != (TaskProgress{Done: 3, Total: 4}) {
		t.Fatalf("progress = %+v, want 3/4", got)
	}
	if f := got.Fraction(); f != 0.75 {
		t.Errorf("Fraction() = %v, want 0.75", f)
	}

	h.complete(t, run, Items(0))
	next := h.nextRun(t)
	if p := h.o.Status().Progress; p == nil || *p != (TaskProgress{}) {
		t.Errorf("next task progress = %+v, want fresh 0/0", p)
	}
	h.complete(t, next, Items(0))
	if ev := h.nextEvent(t); ev.Type != EventCompleted {
		t.Fatalf("event = %+v, want completed", ev)
	}
	if p := h.o.Status().Progress; p != nil {
		t.Errorf("progress after drain = %+v, want nil", p)
	}
}

func TestProgressNilAndFraction(t *testing.T) {
	var p *Progress
	p.SetTotal(10)
	p.Advance()
	if got := p.Snapshot(); got != (TaskProgress{}) {
		t.Errorf("nil Snapshot() = %+v", got)
	}

	tests := []struct {
		name string
		in   TaskProgress
		want float64
	}{
		{"unknown total", TaskProgress{Done: 5}, 0},
		{"half", TaskProgress{Done: 2, Total: 4}, 0.5},
		{"overshoot", TaskProgress{Done: 9, Total: 4}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Fraction(); got != tt.want {
				t.Errorf("Fraction() = %v, want %v", got, tt.want)
			}
		})
	}
}
