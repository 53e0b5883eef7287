// Package bootstrap sequences the library maintenance jobs.
//
// The Orchestrator owns a FIFO TaskQueue and runs at most one job at a time.
// Producers (startup, HTTP requests, the filesystem watcher) append tasks;
// the orchestrator pops the head, hands it to the Adapter registered for its
// JobKind and waits for the adapter to report completion before starting the
// next one. When the queue drains it refreshes the library index, but only
// if some job reported changed items.
//
// All orchestrator state is owned by the goroutine running Run. Every input,
// whether a producer request or an adapter report, is a message on one
// inbox channel, so inputs are processed strictly in arrival order.
//
// Stop discards every queued task and raises the CancelToken. Cancellation
// is advisory: a running job polls the token between items and finishes
// early, reporting completion through the normal path.
package bootstrap
