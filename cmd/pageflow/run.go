package main

import (
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/fwojciec/pageflow"
	"github.com/fwojciec/pageflow/csv"
	"github.com/fwojciec/pageflow/fs"
	"github.com/fwojciec/pageflow/goquery"
	pfhttp "github.com/fwojciec/pageflow/http"
	"github.com/fwojciec/pageflow/pipeline"
	"github.com/fwojciec/pageflow/rod"
	pfslog "github.com/fwojciec/pageflow/slog"
	"github.com/fwojciec/pageflow/trafilatura"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	start := time.Now()
	ctx := deps.Ctx
	logger := deps.Logger

	source := c.recordSource(deps)

	fetcher, closeFetcher, err := c.fetcher()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pageflow.ErrorMessage(err))
		return err
	}
	defer closeFetcher()

	cfg := pipeline.Config{
		ChannelSize:      c.ChannelSize,
		ConcurrencyLimit: c.Concurrency,
		ParseLimit:       c.ParseLimit,
		Fetcher:          pfslog.NewLoggingFetcher(fetcher, logger),
		Extractor:        pfslog.NewLoggingExtractor(c.extractor(), logger),
		Logger:           logger,
	}
	if c.RPS > 0 {
		cfg.Limiter = pipeline.NewHostLimiter(c.RPS, c.Burst)
	}

	if c.MetricsAddr != "" {
		metrics, err := startMetrics(c.MetricsAddr, logger)
		if err != nil {
			return err
		}
		defer metrics.Close()
		cfg.Observer = metrics.Observer
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pageflow.ErrorMessage(err))
		return err
	}

	resources, err := p.CollectFrom(ctx, source)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pageflow.ErrorMessage(err))
		return err
	}

	for _, w := range c.resourceWriters(deps) {
		if err := w.WriteResources(ctx, resources); err != nil {
			return err
		}
	}

	fmt.Fprintf(deps.Stderr, "Time elapsed: %.3fs\n", time.Since(start).Seconds())
	return nil
}

// fetcher returns the configured fetcher and a function releasing it.
func (c *RunCmd) fetcher() (pageflow.Fetcher, func(), error) {
	if c.Render {
		f, err := rod.NewFetcher(
			rod.WithTimeout(c.Timeout),
			rod.WithMaxPages(c.MaxPages),
			rod.WithUserAgent(c.UserAgent),
		)
		if err != nil {
			return nil, nil, pageflow.Errorf(pageflow.EINTERNAL, "starting browser: %v", err)
		}
		return f, func() { _ = f.Close() }, nil
	}

	f := pfhttp.NewFetcher(
		pfhttp.WithConnectTimeout(c.ConnectTimeout),
		pfhttp.WithTimeout(c.Timeout),
		pfhttp.WithUserAgent(c.UserAgent),
	)
	return f, func() {}, nil
}

func (c *RunCmd) extractor() pageflow.Extractor {
	if c.Extractor == "trafilatura" {
		return trafilatura.NewExtractor(trafilatura.WithFallback(goquery.NewExtractor()))
	}
	return goquery.NewExtractor()
}

func (c *RunCmd) recordSource(deps *Dependencies) pageflow.RecordSource {
	if c.Sitemap != "" {
		src := pfhttp.NewSitemapSource(c.Sitemap,
			pfhttp.WithClient(&nethttp.Client{Timeout: c.Timeout}),
			pfhttp.WithLogger(deps.Logger),
		)
		return pfslog.NewLoggingRecordSource(src, c.Sitemap, deps.Logger)
	}
	src := csv.NewFileSource(c.Input, csv.WithLogger(deps.Logger))
	return pfslog.NewLoggingRecordSource(src, c.Input, deps.Logger)
}

func (c *RunCmd) resourceWriters(deps *Dependencies) []pageflow.ResourceWriter {
	var out pageflow.ResourceWriter
	if c.Output == fs.Stdout {
		out = fs.NewStreamWriter(deps.Stdout)
	} else {
		out = fs.NewJSONWriter(c.Output)
	}

	writers := []pageflow.ResourceWriter{pfslog.NewLoggingResourceWriter(out, c.Output, deps.Logger)}
	if deps.Resources != nil {
		writers = append(writers, pfslog.NewLoggingResourceWriter(deps.Resources, c.DB, deps.Logger))
	}
	return writers
}
