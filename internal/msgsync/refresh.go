package msgsync

import (
	"context"
	"sync"
)

// Refresher funnels every "the view might be stale" signal - the poll timer,
// channel reconnects, explicit user refreshes - into one entry point with a
// single in-flight fetch. Triggers arriving mid-fetch collapse into at most
// one follow-up pass.
type Refresher struct {
	fetch func(ctx context.Context) error

	mu       sync.Mutex
	inflight bool
	queued   bool
}

// NewRefresher wraps the fetch function performing the actual reload.
func NewRefresher(fetch func(ctx context.Context) error) *Refresher {
	return &Refresher{fetch: fetch}
}

// Trigger runs the fetch unless one is already in flight, in which case one
// extra pass is queued and the call returns immediately. The error of the
// pass this caller started is returned; queued passes report through their
// own caller.
func (r *Refresher) Trigger(ctx context.Context) error {
	r.mu.Lock()
	if r.inflight {
		r.queued = true
		r.mu.Unlock()
		return nil
	}
	r.inflight = true
	r.mu.Unlock()

	err := r.fetch(ctx)

	for {
		r.mu.Lock()
		if !r.queued {
			r.inflight = false
			r.mu.Unlock()
			return err
		}
		r.queued = false
		r.mu.Unlock()

		err = r.fetch(ctx)
	}
}
