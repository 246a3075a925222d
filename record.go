package pageflow

import (
	"net/url"

	"cloud.google.com/go/civil"
)

// Record identifies a resource to fetch.
type Record struct {
	Timestamp civil.Date `json:"timestamp"`
	URL       string     `json:"url"`
}

// Validate returns an error if the record cannot be fetched.
func (r *Record) Validate() error {
	if r.URL == "" {
		return Errorf(EINVALID, "record URL required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return Errorf(EINVALID, "invalid record URL %q: %v", r.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Errorf(EINVALID, "record URL %q has no host", r.URL)
	}
	return nil
}

// Item is a fetched response waiting for extraction.
// It is owned by exactly one stage at a time.
type Item struct {
	Response  Response
	Timestamp civil.Date
}

// Resource is the structured result of fetching and extracting one Record.
// Title and Description are empty when the page does not carry them.
type Resource struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Timestamp   civil.Date `json:"timestamp"`
}
