package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/beevik/etree"
	"github.com/fwojciec/pageflow"
)

var _ pageflow.RecordSource = (*SitemapSource)(nil)

// SitemapSource yields one record per <url> entry of a site's sitemaps.
//
// If the configured URL points at an XML document it is read directly.
// Otherwise sitemaps are discovered through the Sitemap: directives in
// robots.txt, falling back to /sitemap.xml.
type SitemapSource struct {
	client *http.Client
	target string
	date   civil.Date
	logger *slog.Logger
}

// SitemapOption configures a SitemapSource.
type SitemapOption func(*SitemapSource)

// WithClient sets the HTTP client. Defaults to http.DefaultClient.
func WithClient(client *http.Client) SitemapOption {
	return func(s *SitemapSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithDefaultDate sets the timestamp used for entries without <lastmod>.
// Defaults to today.
func WithDefaultDate(d civil.Date) SitemapOption {
	return func(s *SitemapSource) {
		s.date = d
	}
}

// WithLogger sets the logger used to report skipped entries.
func WithLogger(logger *slog.Logger) SitemapOption {
	return func(s *SitemapSource) {
		s.logger = logger
	}
}

// NewSitemapSource returns a SitemapSource for target, either a site root
// or the URL of a sitemap document.
func NewSitemapSource(target string, opts ...SitemapOption) *SitemapSource {
	s := &SitemapSource{
		client: http.DefaultClient,
		target: target,
		date:   civil.DateOf(time.Now()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records calls fn for every entry in the discovered sitemaps, in document
// order. Entries are not deduplicated. Returning an error from fn stops
// the walk.
func (s *SitemapSource) Records(ctx context.Context, fn func(pageflow.Record) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	base, err := url.Parse(s.target)
	if err != nil || base.Host == "" {
		return pageflow.Errorf(pageflow.EINVALID, "invalid sitemap URL %q", s.target)
	}

	var sitemaps []string
	if isSitemapDocument(base) {
		sitemaps = []string{base.String()}
	} else {
		root := *base
		root.Path = ""
		root.RawQuery = ""
		sitemaps, err = s.findSitemapURLs(ctx, &root)
		if err != nil {
			return err
		}
	}
	if len(sitemaps) == 0 {
		return pageflow.Errorf(pageflow.ENOTFOUND, "no sitemap found for %s", s.target)
	}

	seen := make(map[string]bool)
	for _, sitemapURL := range sitemaps {
		if err := s.walk(ctx, sitemapURL, seen, fn); err != nil {
			return err
		}
	}
	return nil
}

func isSitemapDocument(u *url.URL) bool {
	return strings.EqualFold(path.Ext(u.Path), ".xml")
}

// findSitemapURLs discovers sitemap URLs from robots.txt or falls back to /sitemap.xml.
func (s *SitemapSource) findSitemapURLs(ctx context.Context, base *url.URL) ([]string, error) {
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.parseRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}

	sitemapURL := base.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	exists, err := s.urlExists(ctx, sitemapURL.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if exists {
		return []string{sitemapURL.String()}, nil
	}
	return nil, nil
}

// parseRobots extracts Sitemap: directives from robots.txt.
func (s *SitemapSource) parseRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	const directive = "sitemap:"
	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(strings.ToLower(line), directive) {
			if u := strings.TrimSpace(line[len(directive):]); u != "" {
				sitemaps = append(sitemaps, u)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

// walk emits the entries of a urlset, or recurses into the children of a
// sitemapindex. Each sitemap document is visited at most once.
func (s *SitemapSource) walk(ctx context.Context, sitemapURL string, seen map[string]bool, fn func(pageflow.Record) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if seen[sitemapURL] {
		return nil
	}
	seen[sitemapURL] = true

	root, err := s.load(ctx, sitemapURL)
	if err != nil {
		return err
	}

	if root.Tag == "sitemapindex" {
		for _, child := range root.SelectElements("sitemap") {
			loc := elementText(child, "loc")
			if loc == "" {
				continue
			}
			if err := s.walk(ctx, loc, seen, fn); err != nil {
				return err
			}
		}
		return nil
	}

	for _, entry := range root.SelectElements("url") {
		record := pageflow.Record{
			URL:       elementText(entry, "loc"),
			Timestamp: s.lastmod(entry),
		}
		if err := record.Validate(); err != nil {
			s.logger.Warn("skipping sitemap entry", "sitemap", sitemapURL, "url", record.URL, "error", pageflow.ErrorMessage(err))
			continue
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

// lastmod returns the date part of the entry's <lastmod>, or the default date.
func (s *SitemapSource) lastmod(entry *etree.Element) civil.Date {
	text := elementText(entry, "lastmod")
	if len(text) >= len("2006-01-02") {
		if d, err := civil.ParseDate(text[:len("2006-01-02")]); err == nil {
			return d
		}
	}
	return s.date
}

// load fetches and parses a sitemap document and returns its root element.
func (s *SitemapSource) load(ctx context.Context, sitemapURL string) (*etree.Element, error) {
	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, pageflow.Errorf(pageflow.EINVALID, "parsing sitemap %s: %v", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, pageflow.Errorf(pageflow.EINVALID, "empty sitemap %s", sitemapURL)
	}
	return root, nil
}

func elementText(parent *etree.Element, tag string) string {
	el := parent.SelectElement(tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// get fetches targetURL and returns the body of a 200 response.
func (s *SitemapSource) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, pageflow.Errorf(pageflow.ENOTFOUND, "%s not found", targetURL)
		}
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}

// urlExists reports whether a HEAD request to targetURL returns 200 OK.
func (s *SitemapSource) urlExists(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
