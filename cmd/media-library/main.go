package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/handlers"
	"media-library/internal/jobs"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/media"
	"media-library/internal/memory"
	"media-library/internal/metrics"
	"media-library/internal/startup"
	"media-library/internal/transcoder"
	"media-library/internal/watcher"
)

const (
	collectorInterval = time.Minute
	shutdownTimeout   = 30 * time.Second
)

func main() {
	startTime := time.Now()

	memory.ApplyLimit()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	media.InitVips()
	startup.LogMediaToolsInit(media.IsVipsAvailable())

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
	}

	lib := library.New(db)
	settings := startup.NewSettings(config)
	trans := transcoder.New(config.CacheDir)

	gate := memory.NewGate(memory.DefaultConfig())
	gate.Start()

	registry := jobs.NewRegistry(db, jobs.Config{
		MediaDir: config.MediaDir,
		CacheDir: config.CacheDir,
		Videos:   trans,
		Memory:   gate,
	})
	orch := bootstrap.New(registry.Adapters(ctx), lib, settings, bootstrap.Options{
		WarnAfter: config.TaskWarnAfter,
	})
	orch.OnEvent(pipelineEventLogger(lib))
	go func() {
		if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Task orchestrator exited: %v", err)
		}
	}()

	orch.EnqueueStartup()
	startup.LogPipelineInit(config, orch.Queue().Len())
	if err := orch.Start(ctx); err != nil {
		logging.Fatal("Failed to start task pipeline: %v", err)
	}

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(&statsAdapter{lib: lib, orch: orch}, db, collectorInterval)
		collector.Start()
	}

	var w *watcher.Watcher
	if config.WatchEnabled {
		w = startWatcher(ctx, config, orch)
	} else {
		startup.LogWatcherInit(config, 0, nil)
	}

	h := handlers.New(lib, orch, settings)
	router := handlers.NewRouter(h, handlers.RouterConfig{
		LogHealthChecks: config.LogHealthChecks,
		MetricsEnabled:  config.MetricsEnabled,
	})
	startup.LogHTTPRoutes(router)

	srv := newServer(":"+config.Port, router)

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(":"+config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		waitForSignal()
		shutdown(shutdownDeps{
			cancel:     cancel,
			orch:       orch,
			trans:      trans,
			gate:       gate,
			watcher:    w,
			collector:  collector,
			srv:        srv,
			metricsSrv: metricsSrv,
		})
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Server error: %v", err)
	}
	<-shutdownDone

	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	}
	media.ShutdownVips()
	startup.LogShutdownComplete()
}

// pipelineEventLogger reports orchestrator events. It runs on the
// orchestrator goroutine and must not block.
func pipelineEventLogger(lib *library.Library) func(bootstrap.Event) {
	return func(ev bootstrap.Event) {
		switch ev.Type {
		case bootstrap.EventTaskStarted:
			logging.Info("Task started: %s", ev.Kind)
		case bootstrap.EventCompleted:
			snap := lib.Snapshot()
			logging.Info("Task pipeline idle, library has %d items (snapshot v%d)", len(snap.Items), snap.Version)
		}
	}
}

// startWatcher watches the media directory and requests a rescan after a
// burst of changes settles. A watcher that fails to start is logged and
// left out.
func startWatcher(ctx context.Context, config *startup.Config, orch *bootstrap.Orchestrator) *watcher.Watcher {
	w, err := watcher.New(config.MediaDir, orch, config.WatchDebounce)
	if err != nil {
		startup.LogWatcherInit(config, 0, err)
		return nil
	}
	if err := w.Start(ctx); err != nil {
		startup.LogWatcherInit(config, 0, err)
		_ = w.Close()
		return nil
	}
	startup.LogWatcherInit(config, w.Dirs(), nil)
	return w
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// newMetricsServer serves Prometheus metrics and a health check on a
// separate port.
func newMetricsServer(addr string, h *handlers.Handlers) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// statsAdapter feeds the metrics collector from the library snapshot and
// the task queue.
type statsAdapter struct {
	lib  *library.Library
	orch interface {
		Queue() *bootstrap.TaskQueue
		Status() bootstrap.Status
	}
}

func (a *statsAdapter) GetStats() metrics.Stats {
	snap := a.lib.Snapshot()
	counts := a.lib.Counts()
	status := a.orch.Status()

	var progress bootstrap.TaskProgress
	if status.Progress != nil {
		progress = *status.Progress
	}
	return metrics.Stats{
		Photos:        counts.Photos,
		Videos:        counts.Videos,
		MotionPhotos:  counts.MotionPhotos,
		Selfies:       counts.Selfies,
		SnapshotVer:   snap.Version,
		QueuedTasks:   a.orch.Queue().Len(),
		PipelineBusy:  status.State == bootstrap.StateRunning,
		LastRefreshed: snap.RefreshedAt,

		TaskItemsDone:  progress.Done,
		TaskItemsTotal: progress.Total,
	}
}

type shutdownDeps struct {
	cancel     context.CancelFunc
	orch       *bootstrap.Orchestrator
	trans      *transcoder.Transcoder
	gate       *memory.Gate
	watcher    *watcher.Watcher
	collector  *metrics.Collector
	srv        *http.Server
	metricsSrv *http.Server
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	signal.Stop(sigChan)
	startup.LogShutdownInitiated(sig.String())
}

// shutdown stops the watcher and the task pipeline before the servers.
func shutdown(deps shutdownDeps) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if deps.watcher != nil {
		startup.LogShutdownStep("Stopping file watcher")
		if err := deps.watcher.Close(); err != nil {
			logging.Warn("Watcher close error: %v", err)
		}
		startup.LogShutdownStepComplete("File watcher stopped")
	}

	startup.LogShutdownStep("Stopping task pipeline")
	if err := deps.orch.Stop(ctx); err != nil {
		logging.Warn("Task pipeline stop error: %v", err)
	}
	deps.trans.Cleanup()
	deps.gate.Stop()
	deps.cancel()
	startup.LogShutdownStepComplete("Task pipeline stopped")

	if deps.collector != nil {
		deps.collector.Stop()
	}

	if deps.metricsSrv != nil {
		if err := deps.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := deps.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
}
