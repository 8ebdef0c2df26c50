package traffic

import (
	"sync"
	"time"
)

// maxAge bounds how long outcomes are kept; windows longer than this undercount.
const maxAge = 5 * time.Minute

// Window keeps sliding windows of request outcomes for health decisions:
// served requests, server errors and rate-limit denials. Safe for concurrent use.
type Window struct {
	mu          sync.Mutex
	served      []time.Time
	errorTimes  []time.Time
	deniedTimes []time.Time
	now         func() time.Time
}

// NewWindow returns an empty Window.
func NewWindow() *Window {
	return &Window{now: time.Now}
}

// RecordServed records a request that completed without a server error.
func (w *Window) RecordServed() {
	w.record(&w.served)
}

// RecordError records a request that ended in a 5xx.
func (w *Window) RecordError() {
	w.record(&w.errorTimes)
}

// RecordDenied records a rate-limit denial (429).
func (w *Window) RecordDenied() {
	w.record(&w.deniedTimes)
}

func (w *Window) record(slice *[]time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	*slice = append(*slice, now)
	w.pruneLocked(now)
}

// Counts holds outcome totals within one window.
type Counts struct {
	Served int
	Errors int
	Denied int
}

// Total returns all outcomes, denials included.
func (c Counts) Total() int {
	return c.Served + c.Errors + c.Denied
}

// Counts returns outcome totals within window.
func (w *Window) Counts(window time.Duration) Counts {
	w.mu.Lock()
	defer w.mu.Unlock()
	cutoff := w.now().Add(-window)
	return Counts{
		Served: countSince(w.served, cutoff),
		Errors: countSince(w.errorTimes, cutoff),
		Denied: countSince(w.deniedTimes, cutoff),
	}
}

// Reset clears all recorded outcomes.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.served = nil
	w.errorTimes = nil
	w.deniedTimes = nil
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than maxAge. Timestamps are appended in
// order, so pruning stops at the first one inside the range.
func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-maxAge)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for i < len(times) && times[i].Before(cutoff) {
			i++
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&w.served)
	prune(&w.errorTimes)
	prune(&w.deniedTimes)
}
