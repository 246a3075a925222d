// Package http provides net/http implementations of pageflow.Fetcher and
// pageflow.RecordSource.
package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/pageflow"
	"golang.org/x/net/html/charset"
)

// Default timeouts for HTTP requests.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultTimeout        = 30 * time.Second
)

var _ pageflow.Fetcher = (*Fetcher)(nil)

// Fetcher issues GET requests and hands back the open response.
// Redirects are followed and any status code is a successful fetch.
type Fetcher struct {
	client         *http.Client
	transport      http.RoundTripper
	connectTimeout time.Duration
	timeout        time.Duration
	userAgent      string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithConnectTimeout bounds establishing a connection.
// Defaults to DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.connectTimeout = d
	}
}

// WithTimeout bounds the whole exchange, including reading the body.
// Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithTransport replaces the default transport. The connect timeout
// is ignored when a transport is supplied.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		connectTimeout: DefaultConnectTimeout,
		timeout:        DefaultTimeout,
		userAgent:      pageflow.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := f.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DialContext = (&net.Dialer{
			Timeout:   f.connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport = t
	}

	f.client = &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
	}

	return f
}

// Fetch sends a GET request to url. The caller owns the returned response
// and must read its text or close it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (pageflow.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pageflow.Errorf(pageflow.EINVALID, "invalid request URL %q: %v", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	return &Response{resp: resp}, nil
}

var _ pageflow.Response = (*Response)(nil)

// Response is an open HTTP response whose body has not been read yet.
type Response struct {
	resp *http.Response
	once sync.Once
}

// URL returns the URL after redirects.
func (r *Response) URL() string {
	return r.resp.Request.URL.String()
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.resp.StatusCode
}

// Text reads the body, decoding it to UTF-8 using the declared or sniffed
// charset, and closes it.
func (r *Response) Text() (string, error) {
	defer r.Close()

	body, err := charset.NewReader(r.resp.Body, r.resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Close releases the connection without reading the body. It is safe to
// call more than once.
func (r *Response) Close() error {
	var err error
	r.once.Do(func() {
		err = r.resp.Body.Close()
	})
	return err
}
