package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pageflow"
)

var _ pageflow.RecordSource = (*LoggingRecordSource)(nil)

// LoggingRecordSource wraps a RecordSource with logging.
type LoggingRecordSource struct {
	next   pageflow.RecordSource
	name   string
	logger *slog.Logger
}

// NewLoggingRecordSource creates a new LoggingRecordSource. name identifies
// the input in log lines, typically a path or URL.
func NewLoggingRecordSource(next pageflow.RecordSource, name string, logger *slog.Logger) *LoggingRecordSource {
	return &LoggingRecordSource{next: next, name: name, logger: logger}
}

// Records delegates to the wrapped source and logs the number of records read.
func (s *LoggingRecordSource) Records(ctx context.Context, fn func(pageflow.Record) error) (err error) {
	var count int
	defer func(begin time.Time) {
		s.logger.Info("read records",
			"source", s.name,
			"count", count,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Records(ctx, func(r pageflow.Record) error {
		count++
		return fn(r)
	})
}

var _ pageflow.ResourceWriter = (*LoggingResourceWriter)(nil)

// LoggingResourceWriter wraps a ResourceWriter with logging.
type LoggingResourceWriter struct {
	next   pageflow.ResourceWriter
	name   string
	logger *slog.Logger
}

// NewLoggingResourceWriter creates a new LoggingResourceWriter.
func NewLoggingResourceWriter(next pageflow.ResourceWriter, name string, logger *slog.Logger) *LoggingResourceWriter {
	return &LoggingResourceWriter{next: next, name: name, logger: logger}
}

// WriteResources delegates to the wrapped writer and logs the operation.
func (w *LoggingResourceWriter) WriteResources(ctx context.Context, resources []pageflow.Resource) (err error) {
	defer func(begin time.Time) {
		w.logger.Info("write resources",
			"sink", w.name,
			"count", len(resources),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteResources(ctx, resources)
}
