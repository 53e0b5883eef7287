package metrics

// jobLabels are the job label values used by task metrics. They match
// bootstrap.JobKind.String().
var jobLabels = []string{
	"scan(photo)", "scan(video)",
	"enrich(photo)", "enrich(video)",
	"thumbnail(photo)", "thumbnail(video)",
	"clean(photo)", "clean(video)",
	"motion-photo-extract", "detect-faces", "recognize-faces", "transcode",
}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, job := range jobLabels {
		TaskStartedTotal.WithLabelValues(job)
		TaskCompletedTotal.WithLabelValues(job)
		TaskErrorsTotal.WithLabelValues(job)
		TaskDuration.WithLabelValues(job)
		TaskItemsProcessed.WithLabelValues(job)
		TaskOverdueTotal.WithLabelValues(job)
	}

	for _, state := range []string{"done", "total"} {
		TaskProgressItems.WithLabelValues(state)
	}

	for _, status := range []string{"success", "error"} {
		LibraryRefreshTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"photo", "video", "motion_photo", "selfie"} {
		LibraryItems.WithLabelValues(kind)
	}

	for _, t := range []string{"photo", "video"} {
		ThumbnailGenerationsTotal.WithLabelValues(t, "success")
		ThumbnailGenerationsTotal.WithLabelValues(t, "error")
		ThumbnailGenerationDuration.WithLabelValues(t)
	}

	for _, op := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemStaleErrorsTotal.WithLabelValues(op)
		FilesystemRetriesTotal.WithLabelValues(op, "success")
		FilesystemRetriesTotal.WithLabelValues(op, "failure")
	}

	for _, t := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(t)
	}
}
