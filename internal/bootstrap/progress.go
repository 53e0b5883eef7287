package bootstrap

import "sync/atomic"

// Progress counts the items a running job has handled. The job sets the
// total once it knows it and advances once per item, from any goroutine.
// A nil *Progress ignores updates.
type Progress struct {
	total atomic.Int64
	done  atomic.Int64
}

// SetTotal records how many items the job will handle.
func (p *Progress) SetTotal(n int) {
	if p != nil {
		p.total.Store(int64(n))
	}
}

// Advance marks one more item handled.
func (p *Progress) Advance() {
	if p != nil {
		p.done.Add(1)
	}
}

// Snapshot returns the handled and total item counts.
func (p *Progress) Snapshot() TaskProgress {
	if p == nil {
		return TaskProgress{}
	}
	return TaskProgress{Done: p.done.Load(), Total: p.total.Load()}
}

// TaskProgress is a point-in-time reading of a Progress. Total is zero
// until the job has listed its work.
type TaskProgress struct {
	Done  int64 `json:"done"`
	Total int64 `json:"total"`
}

// Fraction returns Done/Total in [0, 1], or 0 before the total is known.
func (p TaskProgress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(float64(p.Done)/float64(p.Total), 1)
}
