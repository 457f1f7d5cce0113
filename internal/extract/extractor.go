package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Set is what one result page yields: titles and links in matching order.
// Titles[i] is the text of the result whose link is Links[i], so both always
// have the same length.
type Set struct {
	Titles []string
	Links  []string
}

// Result is one matched element: its visible text and its link.
type Result struct {
	Title string
	Link  string
}

// Extractor applies one selector, cap and link mode to result pages.
type Extractor struct {
	matcher  goquery.Matcher
	selector string
	limit    int
	linkMode LinkMode
}

// New compiles selector and returns an Extractor keeping at most limit unique
// values per page. limit <= 0 keeps everything.
func New(selector string, limit int, mode LinkMode) (*Extractor, error) {
	m, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = LinkHref
	}
	return &Extractor{matcher: m, selector: selector, limit: limit, linkMode: mode}, nil
}

// Selector returns the selector the Extractor was built with.
func (e *Extractor) Selector() string { return e.selector }

// Titles returns the unique text of matched elements, capped.
func (e *Extractor) Titles(doc *goquery.Document) []string {
	return SelectUniqueUpTo(doc, e.matcher, e.limit, Text)
}

// Links returns the unique links of matched elements, capped. pageURL is used
// to resolve relative hrefs and may be empty.
func (e *Extractor) Links(doc *goquery.Document, pageURL string) []string {
	return SelectUniqueUpTo(doc, e.matcher, e.limit, e.linkFunc(pageURL))
}

func (e *Extractor) linkFunc(pageURL string) ValueFunc {
	if e.linkMode == LinkText {
		return Text
	}
	var base *url.URL
	if pageURL != "" {
		base, _ = url.Parse(pageURL)
	}
	return Href(base)
}

// Results walks the matches once and keeps up to the cap of (title, link)
// pairs. A match lacking either value is skipped. Pairs are deduplicated on
// the link in href mode and on the title in text mode.
func (e *Extractor) Results(doc *goquery.Document, pageURL string) []Result {
	out := []Result{}
	if doc == nil {
		return out
	}
	link := e.linkFunc(pageURL)
	seen := make(map[string]struct{})
	doc.FindMatcher(e.matcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		r := Result{Title: Text(s), Link: link(s)}
		if r.Title == "" || r.Link == "" {
			return true
		}
		key := r.Link
		if e.linkMode == LinkText {
			key = r.Title
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		out = append(out, r)
		return e.limit <= 0 || len(out) < e.limit
	})
	return out
}

// Extract parses raw once and returns its paired results.
func (e *Extractor) Extract(raw, pageURL string) Set {
	results := e.Results(Parse(raw), pageURL)
	set := Set{
		Titles: make([]string, 0, len(results)),
		Links:  make([]string, 0, len(results)),
	}
	for _, r := range results {
		set.Titles = append(set.Titles, r.Title)
		set.Links = append(set.Links, r.Link)
	}
	return set
}

// Titles is the one-shot form of Extractor.Titles on raw HTML.
func Titles(raw, selector string, limit int) ([]string, error) {
	e, err := New(selector, limit, LinkText)
	if err != nil {
		return nil, err
	}
	return e.Titles(Parse(raw)), nil
}

// Links is the one-shot form of Extractor.Links on raw HTML.
func Links(raw, selector string, limit int, mode LinkMode) ([]string, error) {
	e, err := New(selector, limit, mode)
	if err != nil {
		return nil, err
	}
	return e.Links(Parse(raw), ""), nil
}
