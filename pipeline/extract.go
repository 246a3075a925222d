package pipeline

import (
	"context"
	"log/slog"

	"github.com/fwojciec/pageflow"
	"golang.org/x/sync/semaphore"
)

// ExtractStageName labels the extraction stage in logs and metrics.
const ExtractStageName = "extract"

// ExtractStage turns fetched items into resources.
type ExtractStage struct {
	Extractor pageflow.Extractor
	Limit     int
	Observer  pageflow.StageObserver
	Logger    *slog.Logger

	// parse bounds CPU-bound parsing separately from the I/O bound Limit.
	parse *semaphore.Weighted
}

// NewExtractStage returns an ExtractStage allowing at most parseLimit
// documents to be parsed at once.
func NewExtractStage(extractor pageflow.Extractor, limit, parseLimit int) *ExtractStage {
	if parseLimit <= 0 {
		parseLimit = DefaultParseLimit()
	}
	return &ExtractStage{
		Extractor: extractor,
		Limit:     limit,
		parse:     semaphore.NewWeighted(int64(parseLimit)),
	}
}

// Run extracts items from in and forwards resources to out until in is
// closed and drained. Run closes out before returning.
func (e *ExtractStage) Run(ctx context.Context, in <-chan pageflow.Item, out chan<- pageflow.Resource) {
	stage := &Stage[pageflow.Item, pageflow.Resource]{
		Name:     ExtractStageName,
		Limit:    e.Limit,
		Work:     e.extract,
		Observer: e.Observer,
		Logger:   e.Logger,
	}
	stage.Run(ctx, in, out)
}

// extract is the unit operation of the extraction stage.
func (e *ExtractStage) extract(ctx context.Context, item pageflow.Item) (pageflow.Resource, error) {
	finalURL := item.Response.URL()
	text, err := item.Response.Text()
	if err != nil {
		return pageflow.Resource{}, &pageflow.TransferError{URL: finalURL, Err: err}
	}

	if e.parse != nil {
		if err := e.parse.Acquire(ctx, 1); err != nil {
			return pageflow.Resource{}, err
		}
		defer e.parse.Release(1)
	}

	result, err := e.Extractor.Extract(text)
	if err != nil {
		return pageflow.Resource{}, &pageflow.ExtractError{URL: finalURL, Err: err}
	}

	return pageflow.Resource{
		URL:         finalURL,
		Title:       result.Title,
		Description: result.Description,
		Timestamp:   item.Timestamp,
	}, nil
}
