package feed

import (
	"context"
)

// Worker is one in-flight fetch. It always delivers exactly one Result on its
// single-slot channel, success or failure; a hang past the fetch deadline is
// converted into a failed Result rather than a silent stall. Results are
// observed by non-blocking polls so the owning loop never waits on a worker.
type Worker struct {
	URL     string
	Mode    Mode
	results chan Result
	cancel  context.CancelFunc
}

// Dispatch starts a fetch of url in its own goroutine and returns its handle.
func (f *Fetcher) Dispatch(parent context.Context, url string, mode Mode) *Worker {
	ctx, cancel := context.WithCancel(parent)

	w := &Worker{
		URL:     url,
		Mode:    mode,
		results: make(chan Result, 1),
		cancel:  cancel,
	}

	go func() {
		defer cancel()
		w.results <- f.Fetch(ctx, url, mode)
	}()

	return w
}

// Poll performs a non-blocking check for the worker's result.
func (w *Worker) Poll() (Result, bool) {
	select {
	case result := <-w.results:
		return result, true
	default:
		return Result{}, false
	}
}

// Cancel aborts the fetch. A result already in flight is left unread in the
// worker's channel and discarded with it; cancelling a finished worker is a
// no-op.
func (w *Worker) Cancel() {
	w.cancel()
}
