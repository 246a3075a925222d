package pageflow

import "context"

// Fetcher retrieves the resource at a URL.
type Fetcher interface {
	// Fetch issues the request and returns once response headers arrive.
	// The body is left unread on the returned Response.
	Fetch(ctx context.Context, url string) (Response, error)
}

// Response is a handle to fetched content whose body has not been read.
// Exactly one of Text or Close must be called to release it.
type Response interface {
	// URL returns the final URL after any redirects.
	URL() string

	// Text reads the whole body, decodes it to UTF-8 and releases it.
	Text() (string, error)

	// Close releases the body without reading it.
	Close() error
}
