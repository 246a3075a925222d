package pipeline

import (
	"context"
	"log/slog"

	"github.com/fwojciec/pageflow"
)

// FetchStageName labels the fetch stage in logs and metrics.
const FetchStageName = "fetch"

// FetchStage retrieves the resource behind each record.
type FetchStage struct {
	Fetcher  pageflow.Fetcher
	Limiter  pageflow.HostLimiter
	Limit    int
	Observer pageflow.StageObserver
	Logger   *slog.Logger
}

// Run fetches records from in and forwards fetched items to out until in
// is closed and drained. Run closes out before returning.
func (f *FetchStage) Run(ctx context.Context, in <-chan pageflow.Record, out chan<- pageflow.Item) {
	stage := &Stage[pageflow.Record, pageflow.Item]{
		Name:     FetchStageName,
		Limit:    f.Limit,
		Work:     f.fetch,
		Discard:  discardItem,
		Observer: f.Observer,
		Logger:   f.Logger,
	}
	stage.Run(ctx, in, out)
}

// fetch is the unit operation of the fetch stage.
func (f *FetchStage) fetch(ctx context.Context, record pageflow.Record) (pageflow.Item, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx, record.URL); err != nil {
			return pageflow.Item{}, &pageflow.FetchError{URL: record.URL, Err: err}
		}
	}

	resp, err := f.Fetcher.Fetch(ctx, record.URL)
	if err != nil {
		return pageflow.Item{}, &pageflow.FetchError{URL: record.URL, Err: err}
	}
	return pageflow.Item{Response: resp, Timestamp: record.Timestamp}, nil
}

// discardItem releases the body of a response that will never be extracted.
func discardItem(item pageflow.Item) {
	if item.Response != nil {
		_ = item.Response.Close()
	}
}
