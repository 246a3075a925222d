// Package rod implements pageflow.Fetcher with a headless Chrome browser,
// for pages that only carry their title or description after scripts run.
package rod

import (
	"context"
	"time"

	"github.com/fwojciec/pageflow"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultTimeout bounds navigating to and rendering a single page.
const DefaultTimeout = 30 * time.Second

var _ pageflow.Fetcher = (*Fetcher)(nil)

// Fetcher renders pages in headless Chrome.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	browser   *browser
	timeout   time.Duration
	maxPages  int
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds navigating to and rendering a single page.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxPages sets how many pages are rendered before the browser is
// restarted. Zero disables restarts.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithUserAgent overrides the browser's User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	b, err := newBrowser(f.maxPages)
	if err != nil {
		return nil, err
	}
	f.browser = b
	return f, nil
}

// Fetch navigates to url, waits for the load event and returns the
// rendered document. The page is closed before Fetch returns.
func (f *Fetcher) Fetch(ctx context.Context, url string) (pageflow.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, release, err := f.browser.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.timeout)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, err
		}
	}
	if err := page.Navigate(url); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return NewResponse(finalURL, html), nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() error {
	return f.browser.close()
}

var _ pageflow.Response = (*Response)(nil)

// Response is a rendered document. It holds no connection, so Close is a
// no-op.
type Response struct {
	url  string
	html string
}

// NewResponse returns a Response for an already rendered document.
func NewResponse(url, html string) *Response {
	return &Response{url: url, html: html}
}

// URL returns the URL the browser ended up on.
func (r *Response) URL() string { return r.url }

// Text returns the rendered HTML.
func (r *Response) Text() (string, error) { return r.html, nil }

// Close implements pageflow.Response.
func (r *Response) Close() error { return nil }
