// Package csv reads records from tab-separated files.
//
// Each line holds a date and a URL with no header row:
//
//	2024-01-01	https://example.com/
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/fwojciec/pageflow"
)

var _ pageflow.RecordSource = (*Source)(nil)

// Source streams records from tab-separated input. Rows that cannot be
// parsed are logged and skipped.
type Source struct {
	open   func() (io.ReadCloser, error)
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewFileSource returns a Source reading the file at path.
func NewFileSource(path string, opts ...Option) *Source {
	return newSource(func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, pageflow.Errorf(pageflow.ENOTFOUND, "input file not found: %s", path)
		}
		return f, err
	}, opts)
}

// NewSource returns a Source reading r. Records can only be called once.
func NewSource(r io.Reader, opts ...Option) *Source {
	return newSource(func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}, opts)
}

func newSource(open func() (io.ReadCloser, error), opts []Option) *Source {
	s := &Source{
		open:   open,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records calls fn for each valid row in input order.
func (s *Source) Records(ctx context.Context, fn func(pageflow.Record) error) error {
	rc, err := s.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.Comma = '\t'
	r.FieldsPerRecord = 2
	r.LazyQuotes = true
	r.ReuseRecord = true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := r.Read()
		if err == io.EOF {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			s.logger.Warn("failed to parse record", "line", perr.Line, "error", perr.Err)
			continue
		}
		if err != nil {
			return err
		}

		record, err := parseRecord(fields)
		if err != nil {
			line, _ := r.FieldPos(0)
			s.logger.Warn("failed to parse record", "line", line, "error", pageflow.ErrorMessage(err))
			continue
		}
		s.logger.Debug("parsed record", "timestamp", record.Timestamp, "url", record.URL)

		if err := fn(record); err != nil {
			return err
		}
	}
}

func parseRecord(fields []string) (pageflow.Record, error) {
	date, err := civil.ParseDate(strings.TrimSpace(fields[0]))
	if err != nil {
		return pageflow.Record{}, pageflow.Errorf(pageflow.EINVALID, "invalid date %q", fields[0])
	}
	record := pageflow.Record{
		Timestamp: date,
		URL:       strings.TrimSpace(fields[1]),
	}
	if err := record.Validate(); err != nil {
		return pageflow.Record{}, err
	}
	return record, nil
}
