package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/sourcelinks/internal/bypass"
	"github.com/FranksOps/sourcelinks/internal/fingerprint"
	"github.com/FranksOps/sourcelinks/internal/metrics"
	"github.com/FranksOps/sourcelinks/internal/page"
	"github.com/FranksOps/sourcelinks/pkg/headers"
	"github.com/FranksOps/sourcelinks/pkg/httpclient"
	"github.com/FranksOps/sourcelinks/pkg/proxy"
	"github.com/google/uuid"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// FetchConfig configures the Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	Headers      *headers.Generator
	Fingerprint  fingerprint.Profile
	Detectors    []bypass.Detector
	Logger       *slog.Logger
}

// Fetcher retrieves search result pages with a browser-like header set and
// TLS fingerprint. A single client is held for its lifetime, so cookies set
// by the search engine carry over between sources.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher builds a Fetcher, filling defaults for anything left zero.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Headers == nil {
		gen, err := headers.New(headers.Chrome, headers.MacOS)
		if err != nil {
			return nil, fmt.Errorf("scraper: %w", err)
		}
		cfg.Headers = gen
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Per-request proxy rotation: the proxy chosen in Fetch travels in the
	// request context so one transport (and its connection pool) is shared.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("scraper: failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
		HeaderFunc:   cfg.Headers.Generate,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: failed to create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client, logger: cfg.Logger}, nil
}

// Fetch performs a GET against targetURL. Transport failures are logged and
// recorded in the returned Page's Error field rather than returned, and
// non-2xx responses are kept as ordinary pages.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) *page.Page {
	p := f.fetch(ctx, targetURL)
	f.logPage(p)
	return p
}

func (f *Fetcher) fetch(ctx context.Context, targetURL string) *page.Page {
	start := time.Now()
	p := &page.Page{
		ID:        uuid.New().String(),
		URL:       targetURL,
		Method:    http.MethodGet,
		CreatedAt: start.UTC(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		p.Error = fmt.Sprintf("failed to create request: %v", err)
		p.Duration = time.Since(start)
		return p
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil && f.config.ProxyPool.Len() > 0 {
		activeProxy = f.config.ProxyPool.Next()
		if activeProxy == nil {
			// Never fall back to a direct connection when proxies are configured.
			p.Error = "no proxy available: every proxy is cooling down"
			p.Duration = time.Since(start)
			return p
		}
		req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
	}

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.String()).Inc()
		}
		p.Error = fmt.Sprintf("request failed: %v", err)
		p.Duration = time.Since(start)
		return p
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.Error = fmt.Sprintf("failed to read body: %v", err)
	}

	p.StatusCode = resp.StatusCode
	p.Headers = resp.Header
	p.Body = body
	p.Duration = time.Since(start)

	bypass.Analyze(p, f.config.Detectors)
	return p
}

// HTML returns the page text for targetURL, or an empty string when the
// fetch failed. Failures are logged and never returned.
func (f *Fetcher) HTML(ctx context.Context, targetURL string) string {
	return f.Fetch(ctx, targetURL).HTML()
}

func (f *Fetcher) logPage(p *page.Page) {
	switch {
	case !p.OK():
		f.logger.Error("fetch failed", "url", p.URL, "err", p.Error)
	case p.DetectedBot:
		f.logger.Warn("search engine served a challenge page", "url", p.URL, "status", p.StatusCode, "detector", p.DetectionSrc)
	default:
		f.logger.Debug("fetched", "url", p.URL, "status", p.StatusCode, "bytes", len(p.Body), "duration", p.Duration)
	}
}
