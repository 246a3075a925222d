package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/fwojciec/pageflow"
	"golang.org/x/sync/errgroup"
)

// Default tunables.
const (
	DefaultChannelSize      = 64
	DefaultConcurrencyLimit = 64
)

// DefaultParseLimit returns the default number of documents parsed at once.
func DefaultParseLimit() int {
	return runtime.GOMAXPROCS(0)
}

// Config configures a Pipeline.
type Config struct {
	// ChannelSize is the capacity of each of the three queues.
	ChannelSize int

	// ConcurrencyLimit is the maximum number of operations in flight per stage.
	ConcurrencyLimit int

	// ParseLimit bounds concurrent CPU-bound parsing in the extraction stage.
	// Defaults to DefaultParseLimit.
	ParseLimit int

	Fetcher   pageflow.Fetcher
	Extractor pageflow.Extractor

	// Limiter, if set, rate limits fetches per host.
	Limiter pageflow.HostLimiter

	Observer pageflow.StageObserver
	Logger   *slog.Logger
}

// Pipeline wires a fetch stage and an extraction stage together.
type Pipeline struct {
	cfg Config
}

// New validates cfg and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.ChannelSize <= 0 {
		return nil, pageflow.Errorf(pageflow.EINVALID, "channel size must be > 0, got %d", cfg.ChannelSize)
	}
	if cfg.ConcurrencyLimit <= 0 {
		return nil, pageflow.Errorf(pageflow.EINVALID, "concurrency limit must be > 0, got %d", cfg.ConcurrencyLimit)
	}
	if cfg.Fetcher == nil {
		return nil, pageflow.Errorf(pageflow.EINVALID, "fetcher required")
	}
	if cfg.Extractor == nil {
		return nil, pageflow.Errorf(pageflow.EINVALID, "extractor required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg}, nil
}

// Run is a started pipeline.
//
// The caller must eventually close Input and must keep draining Output,
// otherwise the pipeline stalls on backpressure.
type Run struct {
	input  chan pageflow.Record
	output chan pageflow.Resource
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Input returns the producer handle. Closing it is the shutdown signal:
// both stages drain and terminate, then Output is closed.
// Sending after close panics.
func (r *Run) Input() chan<- pageflow.Record {
	return r.input
}

// Output returns the consumer handle. It is closed once both stages finish.
func (r *Run) Output() <-chan pageflow.Resource {
	return r.output
}

// Stop tells the stages the consumer is gone. They stop admitting and
// forwarding work and terminate without draining their input.
func (r *Run) Stop() {
	r.cancel()
}

// Wait blocks until both stages have terminated.
func (r *Run) Wait() error {
	err := r.group.Wait()
	r.cancel()
	return err
}

// Start allocates the queues and launches both stages. Canceling ctx has
// the same effect as calling Stop on the returned Run.
func (p *Pipeline) Start(ctx context.Context) *Run {
	ctx, cancel := context.WithCancel(ctx)

	input := make(chan pageflow.Record, p.cfg.ChannelSize)
	items := make(chan pageflow.Item, p.cfg.ChannelSize)
	output := make(chan pageflow.Resource, p.cfg.ChannelSize)

	fetch := &FetchStage{
		Fetcher:  p.cfg.Fetcher,
		Limiter:  p.cfg.Limiter,
		Limit:    p.cfg.ConcurrencyLimit,
		Observer: p.cfg.Observer,
		Logger:   p.cfg.Logger,
	}
	extract := NewExtractStage(p.cfg.Extractor, p.cfg.ConcurrencyLimit, p.cfg.ParseLimit)
	extract.Observer = p.cfg.Observer
	extract.Logger = p.cfg.Logger

	var g errgroup.Group
	g.Go(func() error {
		fetch.Run(ctx, input, items)
		return nil
	})
	g.Go(func() error {
		extract.Run(ctx, items, output)
		// Release items the extraction stage stopped before taking.
		for item := range items {
			discardItem(item)
		}
		return nil
	})

	return &Run{
		input:  input,
		output: output,
		cancel: cancel,
		group:  &g,
	}
}

// Collect runs records through a fresh pipeline and returns every resource
// produced, in completion order. Records whose fetch or extraction fails
// are absent from the result.
func (p *Pipeline) Collect(ctx context.Context, records []pageflow.Record) ([]pageflow.Resource, error) {
	source := sliceSource(records)
	return p.CollectFrom(ctx, source)
}

// CollectFrom is like Collect but streams records from source. If source
// fails, the resources collected so far are returned with the error.
func (p *Pipeline) CollectFrom(ctx context.Context, source pageflow.RecordSource) ([]pageflow.Resource, error) {
	run := p.Start(ctx)

	var g errgroup.Group
	g.Go(func() error {
		defer close(run.input)
		return source.Records(ctx, func(record pageflow.Record) error {
			select {
			case run.input <- record:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	resources := []pageflow.Resource{}
	for resource := range run.Output() {
		resources = append(resources, resource)
	}

	err := g.Wait()
	if werr := run.Wait(); err == nil {
		err = werr
	}
	if err == nil {
		err = ctx.Err()
	}
	return resources, err
}

// sliceSource is a RecordSource over an in-memory slice.
type sliceSource []pageflow.Record

func (s sliceSource) Records(ctx context.Context, fn func(pageflow.Record) error) error {
	for _, record := range s {
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}
