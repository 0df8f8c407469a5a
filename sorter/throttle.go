package sorter

import (
	"context"
	"sync"

	"github.com/ChristianF88/splatsort/depthsort"
)

// Throttle runs at most one sort at a time for a Sorter. Views submitted while
// a sort is running are coalesced: only the newest one is sorted next, and an
// unchanged view is not sorted twice.
type Throttle struct {
	sorter *Sorter

	mu      sync.Mutex
	latest  depthsort.ViewTransform
	hasView bool

	pending chan struct{}
	results chan Result
}

// NewThrottle creates a throttle for s. Call Run to start sorting.
func NewThrottle(s *Sorter) *Throttle {
	return &Throttle{
		sorter:  s,
		pending: make(chan struct{}, 1),
		results: make(chan Result, 1),
	}
}

// Update records view as the newest camera transform. It never blocks.
func (t *Throttle) Update(view depthsort.ViewTransform) {
	t.mu.Lock()
	t.latest = view
	t.hasView = true
	t.mu.Unlock()

	select {
	case t.pending <- struct{}{}:
	default:
	}
}

// Results delivers sorted frames. When the consumer falls behind, an unread
// result is replaced by the newer one. The channel is closed when Run returns.
func (t *Throttle) Results() <-chan Result {
	return t.results
}

// Run sorts submitted views until ctx is cancelled or the sorter fails.
func (t *Throttle) Run(ctx context.Context) error {
	defer close(t.results)

	var last depthsort.ViewTransform
	sortedOnce := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.pending:
		}

		t.mu.Lock()
		view, ok := t.latest, t.hasView
		t.mu.Unlock()
		if !ok || (sortedOnce && view == last) {
			continue
		}

		res, err := t.sorter.Sort(&view)
		if err != nil {
			return err
		}
		last, sortedOnce = view, true
		t.publish(res)
	}
}

// publish delivers res, dropping a stale unread result if necessary. Run is
// the only sender, so the second send cannot block.
func (t *Throttle) publish(res Result) {
	select {
	case t.results <- res:
		return
	default:
	}
	select {
	case <-t.results:
	default:
	}
	t.results <- res
}
