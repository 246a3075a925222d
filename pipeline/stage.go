// Package pipeline provides the bounded-concurrency fetch and extraction
// stages and the orchestration that connects them.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/fwojciec/pageflow"
)

// WorkFunc is the unit operation of a stage.
type WorkFunc[I, O any] func(ctx context.Context, in I) (O, error)

// Stage drives an in-flight work set capped at Limit. It pulls new input
// while capacity remains and forwards completed work downstream as it
// finishes, in completion order.
type Stage[I, O any] struct {
	// Name labels log lines and observer events.
	Name string

	// Limit is the maximum number of operations in flight. A Limit below 1
	// runs one operation at a time; pipeline.New rejects such values instead.
	Limit int

	// Work is called once per admitted item, on its own goroutine.
	Work WorkFunc[I, O]

	// Discard, if set, releases an output that will never be forwarded
	// because the stage stopped before it could be sent.
	Discard func(O)

	Observer pageflow.StageObserver
	Logger   *slog.Logger
}

// outcome is a finished unit of work reported back to the scheduling loop.
type outcome[O any] struct {
	slot  uint64
	value O
	err   error
}

// Run schedules work until in is closed and drained and every in-flight
// operation has completed. Run closes out before returning.
//
// Canceling ctx means the downstream consumer is gone: Run stops admitting
// and forwarding and returns immediately. Operations still in flight finish
// in the background and their outputs are passed to Discard.
func (s *Stage[I, O]) Run(ctx context.Context, in <-chan I, out chan<- O) {
	defer close(out)

	logger := s.logger()
	limit := s.Limit
	if limit <= 0 {
		limit = 1
	}

	// Buffered to the limit so a finished operation never blocks on the loop.
	done := make(chan outcome[O], limit)
	inflight := 0
	var next uint64

	admit := func(item I) {
		slot := next
		next++
		inflight++
		logger.Debug("admitted", "slot", slot, "inflight", inflight)
		s.admitted(inflight)
		go func() {
			value, err := s.Work(ctx, item)
			done <- outcome[O]{slot: slot, value: value, err: err}
		}()
	}

	for {
		if in == nil && inflight == 0 {
			logger.Info("stage finished")
			return
		}
		if ctx.Err() != nil {
			logger.Warn("stage canceled, shutting down", "inflight", inflight)
			s.abandon(done, inflight)
			return
		}

		// Admission wins over draining when both are ready.
		if in != nil && inflight < limit {
			select {
			case item, ok := <-in:
				if !ok {
					in = nil
				} else {
					admit(item)
				}
				continue
			default:
			}
		}

		var upstream <-chan I
		if inflight < limit {
			upstream = in
		}
		var completed <-chan outcome[O]
		if inflight > 0 {
			completed = done
		}

		select {
		case <-ctx.Done():
			logger.Warn("stage canceled, shutting down", "inflight", inflight)
			s.abandon(done, inflight)
			return
		case item, ok := <-upstream:
			if !ok {
				in = nil
				continue
			}
			admit(item)
		case res := <-completed:
			inflight--
			s.completed(inflight, res.err)
			if res.err != nil {
				logger.Warn("work failed", "slot", res.slot, "err", res.err)
				continue
			}
			if !s.forward(ctx, out, res.value) {
				logger.Warn("cannot forward, shutting down", "slot", res.slot, "inflight", inflight)
				s.abandon(done, inflight)
				return
			}
		}
	}
}

// forward sends v downstream, blocking while the downstream queue is full.
// It reports false if the consumer went away first.
func (s *Stage[I, O]) forward(ctx context.Context, out chan<- O, v O) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		s.discard(v)
		return false
	}
}

// abandon releases the outputs of operations still in flight once they finish.
func (s *Stage[I, O]) abandon(done <-chan outcome[O], inflight int) {
	if inflight == 0 {
		return
	}
	go func() {
		for range inflight {
			res := <-done
			if res.err == nil {
				s.discard(res.value)
			}
		}
	}()
}

func (s *Stage[I, O]) discard(v O) {
	if s.Discard != nil {
		s.Discard(v)
	}
}

func (s *Stage[I, O]) admitted(inflight int) {
	if s.Observer != nil {
		s.Observer.Admitted(s.Name, inflight)
	}
}

func (s *Stage[I, O]) completed(inflight int, err error) {
	if s.Observer != nil {
		s.Observer.Completed(s.Name, inflight, err)
	}
}

func (s *Stage[I, O]) logger() *slog.Logger {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("stage", s.Name)
}
