package pageflow

import "context"

// HostLimiter paces requests to the same host.
type HostLimiter interface {
	// Wait blocks until a request to the host of url is allowed.
	// Returns an error if url has no usable host or the context is canceled.
	Wait(ctx context.Context, url string) error
}

// StageObserver receives scheduling events from a pipeline stage.
// Implementations must be safe for concurrent use.
type StageObserver interface {
	// Admitted is called after an item joins the stage's in-flight set.
	Admitted(stage string, inflight int)

	// Completed is called after an item leaves the in-flight set.
	// err is nil when the unit of work succeeded.
	Completed(stage string, inflight int, err error)
}
