// Package extract pulls result titles and links out of a search results page
// with a CSS selector.
//
// Titles and links go through the same SelectUniqueUpTo walk: matches are
// visited in document order, empty and repeated values are skipped, and the
// walk stops once limit unique values are collected. Titles are therefore
// capped exactly like links.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// DefaultSelector matches result titles in Google's current markup.
const DefaultSelector = ".DKV0Md"

// ErrInvalidSelector is returned for selectors cascadia cannot compile.
var ErrInvalidSelector = errors.New("extract: invalid selector")

// LinkMode selects what a "link" is read from.
type LinkMode string

const (
	// LinkHref reads the hyperlink target of the match or its enclosing anchor.
	LinkHref LinkMode = "href"
	// LinkText reads the visible text of the match, mirroring the legacy tool
	// which used anchor text as the href.
	LinkText LinkMode = "text"
)

// ParseLinkMode validates a link mode name. Empty means LinkHref.
func ParseLinkMode(s string) (LinkMode, error) {
	switch m := LinkMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return LinkHref, nil
	case LinkHref, LinkText:
		return m, nil
	default:
		return "", fmt.Errorf("extract: unknown link mode %q", s)
	}
}

// ValueFunc reads the value kept for one matched element. An empty result
// means the element contributes nothing.
type ValueFunc func(*goquery.Selection) string

// Compile parses a selector group, e.g. "h3.LC20lb, .DKV0Md".
func Compile(selector string) (goquery.Matcher, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	return sel, nil
}

// Parse builds a document from raw HTML. Unparsable input yields an empty
// document, never an error, since a broken page simply has no results.
func Parse(raw string) *goquery.Document {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	return goquery.NewDocumentFromNode(root)
}

// SelectUniqueUpTo walks the elements of doc matching m in document order and
// returns up to limit distinct non-empty values. limit <= 0 means no cap.
func SelectUniqueUpTo(doc *goquery.Document, m goquery.Matcher, limit int, value ValueFunc) []string {
	out := []string{}
	if doc == nil || m == nil {
		return out
	}
	seen := make(map[string]struct{})
	doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v := value(s)
		if v == "" {
			return true
		}
		if _, dup := seen[v]; dup {
			return true
		}
		seen[v] = struct{}{}
		out = append(out, v)
		return limit <= 0 || len(out) < limit
	})
	return out
}

// Text returns the whitespace-trimmed text content of the selection.
func Text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// Href returns a ValueFunc reading the link target for a match: its own href,
// the closest enclosing a[href], or its first a[href] descendant. Google
// "/url?q=" redirect wrappers are unwrapped and relative targets resolved
// against base when base is non-nil.
func Href(base *url.URL) ValueFunc {
	return func(s *goquery.Selection) string {
		href, ok := s.Attr("href")
		if !ok {
			href, ok = s.Closest("a[href]").Attr("href")
		}
		if !ok {
			href, ok = s.Find("a[href]").First().Attr("href")
		}
		if !ok {
			return ""
		}
		return normalizeHref(base, strings.TrimSpace(href))
	}
}

func normalizeHref(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Path == "/url" {
		for _, key := range []string{"q", "url"} {
			if target := u.Query().Get(key); target != "" {
				if t, err := url.Parse(target); err == nil && t.IsAbs() {
					return t.String()
				}
			}
		}
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}
