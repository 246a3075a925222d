package mock

import "github.com/fwojciec/pageflow"

var _ pageflow.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of pageflow.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*pageflow.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*pageflow.ExtractResult, error) {
	return e.ExtractFn(html)
}
