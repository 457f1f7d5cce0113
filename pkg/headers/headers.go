// Package headers generates believable browser request headers so search
// requests look like they come from a desktop browser session.
package headers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
)

// Browser identifies the browser family whose headers are imitated.
type Browser string

// OS identifies the platform reported in the User-Agent.
type OS string

const (
	Chrome  Browser = "chrome"
	Firefox Browser = "firefox"
	Safari  Browser = "safari"
	Edge    Browser = "edge"

	MacOS   OS = "macos"
	Windows OS = "windows"
	Linux   OS = "linux"
)

// userAgents holds realistic desktop User-Agents keyed by browser then OS.
var userAgents = map[Browser]map[OS][]string{
	Chrome: {
		MacOS: {
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		},
		Windows: {
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Linux: {
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		},
	},
	Firefox: {
		MacOS: {
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:123.0) Gecko/20100101 Firefox/123.0",
		},
		Windows: {
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
		},
		Linux: {
			"Mozilla/5.0 (X11; Linux x86_64; rv:122.0) Gecko/20100101 Firefox/122.0",
		},
	},
	Safari: {
		MacOS: {
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		},
	},
	Edge: {
		Windows: {
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		},
		MacOS: {
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36 Edg/121.0.0.0",
		},
	},
}

// Generator produces header sets for one browser/OS combination. It is safe
// for concurrent use.
type Generator struct {
	browser Browser
	os      OS
	uas     []string
	counter atomic.Uint64
	random  bool
}

// Option customises a Generator.
type Option func(*Generator)

// WithRandom picks User-Agents at random instead of round-robin.
func WithRandom() Option {
	return func(g *Generator) { g.random = true }
}

// WithUserAgents replaces the built-in User-Agent list.
func WithUserAgents(uas []string) Option {
	return func(g *Generator) {
		if len(uas) > 0 {
			g.uas = append([]string(nil), uas...)
		}
	}
}

// New returns a Generator for the given browser and OS. Unknown combinations
// are an error; an empty browser or OS means chrome on macos.
func New(browser Browser, os OS, opts ...Option) (*Generator, error) {
	if browser == "" {
		browser = Chrome
	}
	if os == "" {
		os = MacOS
	}
	byOS, ok := userAgents[browser]
	if !ok {
		return nil, fmt.Errorf("headers: unknown browser %q", browser)
	}
	uas, ok := byOS[os]
	if !ok {
		return nil, fmt.Errorf("headers: no %s user agents for %s", browser, os)
	}

	g := &Generator{browser: browser, os: os, uas: append([]string(nil), uas...)}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// UserAgent returns the next User-Agent string.
func (g *Generator) UserAgent() string {
	if len(g.uas) == 0 {
		return ""
	}
	if g.random {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(g.uas))))
		if err == nil {
			return g.uas[n.Int64()]
		}
	}
	idx := g.counter.Add(1) - 1
	return g.uas[idx%uint64(len(g.uas))]
}

// Generate returns a fresh header set. Accept-Encoding is left to net/http
// so that gzip responses are decoded transparently.
func (g *Generator) Generate() http.Header {
	h := http.Header{}
	h.Set("User-Agent", g.UserAgent())
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Upgrade-Insecure-Requests", "1")

	switch g.browser {
	case Firefox:
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
		h.Set("DNT", "1")
	case Safari:
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	default:
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
		h.Set("Sec-Ch-Ua-Mobile", "?0")
		h.Set("Sec-Ch-Ua-Platform", platformHint(g.os))
	}

	if g.browser != Safari {
		h.Set("Sec-Fetch-Dest", "document")
		h.Set("Sec-Fetch-Mode", "navigate")
		h.Set("Sec-Fetch-Site", "none")
		h.Set("Sec-Fetch-User", "?1")
	}
	return h
}

func platformHint(os OS) string {
	switch os {
	case Windows:
		return `"Windows"`
	case Linux:
		return `"Linux"`
	default:
		return `"macOS"`
	}
}

// ParseBrowser normalises a browser name.
func ParseBrowser(name string) Browser {
	return Browser(strings.ToLower(strings.TrimSpace(name)))
}
