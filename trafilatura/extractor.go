// Package trafilatura implements pageflow.Extractor using go-trafilatura's
// metadata heuristics, which also consult OpenGraph and JSON-LD when the
// plain title and description tags are missing.
package trafilatura

import (
	"strings"

	"github.com/fwojciec/pageflow"
	"github.com/markusmobius/go-trafilatura"
)

var _ pageflow.Extractor = (*Extractor)(nil)

// Extractor extracts page metadata with go-trafilatura.
type Extractor struct {
	fallback pageflow.Extractor
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFallback sets the extractor used when trafilatura rejects a page,
// which it does for pages with too little body text.
func WithFallback(ext pageflow.Extractor) Option {
	return func(e *Extractor) {
		e.fallback = ext
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the title and description trafilatura finds in html.
// Fields it cannot find are empty.
func (e *Extractor) Extract(html string) (*pageflow.ExtractResult, error) {
	if html == "" {
		return &pageflow.ExtractResult{}, nil
	}

	result, err := trafilatura.Extract(strings.NewReader(html), trafilatura.Options{
		EnableFallback: true,
	})
	if err != nil {
		if e.fallback != nil {
			return e.fallback.Extract(html)
		}
		return nil, pageflow.Errorf(pageflow.EINVALID, "extracting metadata: %v", err)
	}

	return &pageflow.ExtractResult{
		Title:       result.Metadata.Title,
		Description: result.Metadata.Description,
	}, nil
}
