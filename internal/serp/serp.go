package serp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/FranksOps/sourcelinks/internal/page"
)

// DefaultSources are the reference sites every search is scoped to unless
// configured otherwise.
var DefaultSources = []string{
	"openlibrary.org",
	"gutenberg.org",
	"scholar.google.com",
	"books.google.com",
	"news.google.com",
	"guides.library.harvard.edu",
	"en.wikisource.org",
	"en.wikipedia.org",
	"iep.utm.edu",
	"plato.stanford.edu",
}

// Query is the immutable description of one run: what to search for, on
// which engine, and scoped to which sources.
type Query struct {
	text    string
	engine  Engine
	sources []string
}

// NewQuery builds a Query. A nil sources slice means DefaultSources. Blank and
// duplicate sources are dropped.
func NewQuery(text string, engine Engine, sources []string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("serp: empty search text")
	}
	if sources == nil {
		sources = DefaultSources
	}

	seen := make(map[string]struct{}, len(sources))
	cleaned := make([]string, 0, len(sources))
	for _, s := range sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		cleaned = append(cleaned, s)
	}
	if len(cleaned) == 0 {
		return Query{}, fmt.Errorf("serp: no source scopes")
	}
	return Query{text: text, engine: engine, sources: cleaned}, nil
}

// Text returns the search text.
func (q Query) Text() string { return q.text }

// Engine returns the search engine the query runs against.
func (q Query) Engine() Engine { return q.engine }

// Sources returns a copy of the ordered source scopes.
func (q Query) Sources() []string { return append([]string(nil), q.sources...) }

// URL returns the scoped search URL for one source.
func (q Query) URL(source string) string { return q.engine.ScopedURL(q.text, source) }

// Engine is a search engine reachable at {BaseURL}/search?q=...
type Engine struct {
	Name    string
	BaseURL string
}

// NewEngine maps an engine name onto its base URL. A bare name like "google"
// becomes https://google.com; a value containing a scheme is used as is.
func NewEngine(name string) (Engine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Engine{}, fmt.Errorf("serp: empty search engine")
	}
	if strings.Contains(name, "://") {
		u, err := url.Parse(name)
		if err != nil || u.Host == "" {
			return Engine{}, fmt.Errorf("serp: invalid search engine url %q", name)
		}
		return Engine{Name: u.Hostname(), BaseURL: strings.TrimRight(u.String(), "/")}, nil
	}
	name = strings.ToLower(name)
	if strings.ContainsAny(name, "/?# ") {
		return Engine{}, fmt.Errorf("serp: invalid search engine name %q", name)
	}
	return Engine{Name: name, BaseURL: "https://" + name + ".com"}, nil
}

// ScopedURL builds {base}/search?q={text}+site:{source}. Spaces in text
// become '+' and everything else is query-escaped.
func (e Engine) ScopedURL(text, source string) string {
	return fmt.Sprintf("%s/search?q=%s+site:%s", e.BaseURL, url.QueryEscape(text), source)
}

// Result is what one source scope contributed to a run.
type Result struct {
	Source string
	URL    string
	Titles []string
	Links  []string
	Page   *page.Page
}

// Failed reports whether the page for this source could not be fetched.
func (r Result) Failed() bool {
	return r.Page == nil || !r.Page.OK()
}

// Provider runs a query against a single source scope. Implementations never
// fail on transport errors; they return an empty Result instead.
type Provider interface {
	Search(ctx context.Context, q Query, source string) Result
}
