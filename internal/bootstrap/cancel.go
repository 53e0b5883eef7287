package bootstrap

import "sync/atomic"

// CancelToken is a shared stop request. Setting it interrupts nothing; jobs
// poll Cancelled between items and return early.
type CancelToken struct {
	flag atomic.Bool
}

// Cancel requests running jobs to stop.
func (c *CancelToken) Cancel() { c.flag.Store(true) }

// Reset clears the request once the pipeline has drained.
func (c *CancelToken) Reset() { c.flag.Store(false) }

// Cancelled reports whether a stop was requested.
func (c *CancelToken) Cancelled() bool { return c.flag.Load() }
