// Package jobs implements the background tasks the orchestrator schedules:
// scanning the media directory, enriching rows with file metadata,
// generating thumbnails, removing rows for deleted files, extracting
// motion-photo videos, detecting and recognising faces and transcoding
// videos browsers cannot play.
//
// Every job runs behind a Runner, which adapts a job body to
// bootstrap.Adapter: the body runs on its own goroutine, panics are
// recovered, and exactly one completion is reported per run. Bodies poll
// the run's cancellation token between items and return early when it is
// set.
//
// Registry.Adapters builds the dispatch table handed to bootstrap.New.
package jobs
