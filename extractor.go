package pageflow

// ExtractResult holds the metadata extracted from an HTML page.
type ExtractResult struct {
	// Title is the text of the first title element.
	Title string

	// Description is the content of the first description meta tag.
	Description string
}

// Extractor pulls page metadata out of markup.
type Extractor interface {
	// Extract parses html and returns its metadata. Missing fields are
	// returned as empty strings, not as an error.
	Extract(html string) (*ExtractResult, error)
}
