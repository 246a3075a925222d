package mock

import (
	"context"

	"github.com/fwojciec/pageflow"
)

var _ pageflow.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of pageflow.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (pageflow.Response, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (pageflow.Response, error) {
	return f.FetchFn(ctx, url)
}

var _ pageflow.Response = (*Response)(nil)

// Response is a mock implementation of pageflow.Response.
type Response struct {
	URLFn   func() string
	TextFn  func() (string, error)
	CloseFn func() error
}

func (r *Response) URL() string {
	return r.URLFn()
}

func (r *Response) Text() (string, error) {
	return r.TextFn()
}

func (r *Response) Close() error {
	return r.CloseFn()
}

// NewResponse returns a Response serving a fixed URL and body.
func NewResponse(url, body string) *Response {
	return &Response{
		URLFn:   func() string { return url },
		TextFn:  func() (string, error) { return body, nil },
		CloseFn: func() error { return nil },
	}
}
