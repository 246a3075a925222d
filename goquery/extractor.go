// Package goquery implements pageflow.Extractor on top of goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pageflow"
)

var _ pageflow.Extractor = (*Extractor)(nil)

// Extractor pulls the document title and description out of HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of the first <title> element and the content
// attribute of the first <meta name="description"> element. Either is empty
// when absent. Text is returned as it appears in the document.
func (e *Extractor) Extract(html string) (*pageflow.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, pageflow.Errorf(pageflow.EINVALID, "failed to parse HTML: %v", err)
	}

	result := &pageflow.ExtractResult{}
	if title := doc.Find("title").First(); title.Length() > 0 {
		result.Title = title.Text()
	}
	if desc := doc.Find(`meta[name="description"]`).First(); desc.Length() > 0 {
		result.Description = desc.AttrOr("content", "")
	}
	return result, nil
}
