package csv_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/fwojciec/pageflow"
	"github.com/fwojciec/pageflow/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, src *csv.Source) ([]pageflow.Record, error) {
	t.Helper()

	var records []pageflow.Record
	err := src.Records(context.Background(), func(r pageflow.Record) error {
		records = append(records, r)
		return nil
	})
	return records, err
}

func TestSource_Records(t *testing.T) {
	t.Parallel()

	t.Run("parses tab-separated rows in order", func(t *testing.T) {
		t.Parallel()

		input := "2024-01-01\thttp://a.test\n2024-02-03\thttps://b.test/path?q=1\n"

		records, err := readAll(t, csv.NewSource(strings.NewReader(input)))

		require.NoError(t, err)
		assert.Equal(t, []pageflow.Record{
			{Timestamp: civil.Date{Year: 2024, Month: 1, Day: 1}, URL: "http://a.test"},
			{Timestamp: civil.Date{Year: 2024, Month: 2, Day: 3}, URL: "https://b.test/path?q=1"},
		}, records)
	})

	t.Run("skips and logs malformed rows", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		input := strings.Join([]string{
			"2024-01-01\thttp://ok1.test",
			"not-a-date\thttp://bad-date.test",
			"2024-01-01\tnot a url",
			"2024-01-01",
			"2024-01-01\thttp://x.test\textra",
			"",
			"2024-01-02\thttp://ok2.test",
		}, "\n")

		records, err := readAll(t, csv.NewSource(strings.NewReader(input), csv.WithLogger(logger)))

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "http://ok1.test", records[0].URL)
		assert.Equal(t, "http://ok2.test", records[1].URL)
		assert.Equal(t, 4, strings.Count(logs.String(), "failed to parse record"))
	})

	t.Run("returns nothing for empty input", func(t *testing.T) {
		t.Parallel()

		records, err := readAll(t, csv.NewSource(strings.NewReader("")))

		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("reads from a file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "urls.csv")
		require.NoError(t, os.WriteFile(path, []byte("2024-01-01\thttp://a.test\n"), 0o644))

		records, err := readAll(t, csv.NewFileSource(path))

		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("returns not found for a missing file", func(t *testing.T) {
		t.Parallel()

		_, err := readAll(t, csv.NewFileSource(filepath.Join(t.TempDir(), "missing.csv")))

		assert.Equal(t, pageflow.ENOTFOUND, pageflow.ErrorCode(err))
	})

	t.Run("stops when the callback fails", func(t *testing.T) {
		t.Parallel()

		stop := errors.New("stop")
		calls := 0
		src := csv.NewSource(strings.NewReader("2024-01-01\thttp://a.test\n2024-01-01\thttp://b.test\n"))

		err := src.Records(context.Background(), func(pageflow.Record) error {
			calls++
			return stop
		})

		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns context error when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := csv.NewSource(strings.NewReader("2024-01-01\thttp://a.test\n")).Records(ctx, func(pageflow.Record) error {
			t.Error("callback should not be called")
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
