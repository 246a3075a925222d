package mock

import (
	"context"

	"github.com/fwojciec/pageflow"
)

var _ pageflow.HostLimiter = (*HostLimiter)(nil)

// HostLimiter is a mock implementation of pageflow.HostLimiter.
type HostLimiter struct {
	WaitFn func(ctx context.Context, url string) error
}

func (l *HostLimiter) Wait(ctx context.Context, url string) error {
	return l.WaitFn(ctx, url)
}

var _ pageflow.StageObserver = (*StageObserver)(nil)

// StageObserver is a mock implementation of pageflow.StageObserver.
type StageObserver struct {
	AdmittedFn  func(stage string, inflight int)
	CompletedFn func(stage string, inflight int, err error)
}

func (o *StageObserver) Admitted(stage string, inflight int) {
	o.AdmittedFn(stage, inflight)
}

func (o *StageObserver) Completed(stage string, inflight int, err error) {
	o.CompletedFn(stage, inflight, err)
}
