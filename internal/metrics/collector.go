package metrics

import (
	"time"

	"media-library/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// DBMetricsUpdater refreshes connection-pool gauges.
type DBMetricsUpdater interface {
	UpdateDBMetrics()
}

// Stats holds the current library statistics
type Stats struct {
	Photos        int
	Videos        int
	MotionPhotos  int
	Selfies       int
	SnapshotVer   uint64
	QueuedTasks   int
	PipelineBusy  bool
	LastRefreshed time.Time

	// Running task progress, zero when idle
	TaskItemsDone  int64
	TaskItemsTotal int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	db            DBMetricsUpdater
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. db may be nil.
func NewCollector(provider StatsProvider, db DBMetricsUpdater, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		db:            db,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.db != nil {
		c.db.UpdateDBMetrics()
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryItems.WithLabelValues("photo").Set(float64(stats.Photos))
	LibraryItems.WithLabelValues("video").Set(float64(stats.Videos))
	LibraryItems.WithLabelValues("motion_photo").Set(float64(stats.MotionPhotos))
	LibraryItems.WithLabelValues("selfie").Set(float64(stats.Selfies))
	LibrarySnapshotVersion.Set(float64(stats.SnapshotVer))
	TaskQueueLength.Set(float64(stats.QueuedTasks))
	TaskProgressItems.WithLabelValues("done").Set(float64(stats.TaskItemsDone))
	TaskProgressItems.WithLabelValues("total").Set(float64(stats.TaskItemsTotal))
	if stats.PipelineBusy {
		TaskPipelineRunning.Set(1)
	} else {
		TaskPipelineRunning.Set(0)
	}

	logging.Debug("Metrics collected: photos=%d, videos=%d, motion=%d, selfies=%d, queued=%d",
		stats.Photos, stats.Videos, stats.MotionPhotos, stats.Selfies, stats.QueuedTasks)
}
