package page

import (
	"strings"
	"time"
)

// Page is the raw HTML returned for one scoped search URL, together with the
// transport details of the fetch that produced it. Pages are consumed by the
// extractor right away and never persisted.
type Page struct {
	ID           string
	URL          string
	Source       string // source scope the URL was built for, empty for ad-hoc fetches
	Method       string
	StatusCode   int
	Headers      map[string][]string
	Body         []byte
	Duration     time.Duration
	DetectedBot  bool
	DetectionSrc string // e.g. "Cloudflare", "Akamai", "PerimeterX", "DataDome"
	CreatedAt    time.Time
	Error        string // non-empty if the fetch failed before an HTTP response was read
}

// OK reports whether the transport round trip succeeded. The status code is
// not considered: a 429 page is still a page.
func (p *Page) OK() bool {
	return p != nil && p.Error == ""
}

// HTML returns the body as text, or an empty string if the fetch failed.
func (p *Page) HTML() string {
	if !p.OK() {
		return ""
	}
	return string(p.Body)
}

// Header returns the first value of the named response header, matching the
// key case-insensitively.
func (p *Page) Header(key string) string {
	if p == nil {
		return ""
	}
	if vals, ok := p.Headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	for k, vals := range p.Headers {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
