package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/sourcelinks/internal/fingerprint"
	"github.com/FranksOps/sourcelinks/pkg/headers"
	"github.com/FranksOps/sourcelinks/pkg/proxy"
)

func newTestFetcher(t *testing.T, cfg FetchConfig) *Fetcher {
	t.Helper()
	cfg.Fingerprint = fingerprint.ProfileGo
	f, err := NewFetcher(cfg)
	if err != nil {
		t.Fatalf("unexpected error creating fetcher: %v", err)
	}
	return f
}

func TestFetcher_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestBrowser/1.0" {
			t.Errorf("expected generated User-Agent header, got %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept-Language") == "" {
			t.Errorf("expected Accept-Language header")
		}
		w.Header().Set("X-Test", "true")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	gen, _ := headers.New(headers.Chrome, headers.MacOS, headers.WithUserAgents([]string{"TestBrowser/1.0"}))
	fetcher := newTestFetcher(t, FetchConfig{Timeout: 5 * time.Second, Headers: gen})

	p := fetcher.Fetch(context.Background(), ts.URL)
	if !p.OK() {
		t.Fatalf("expected no fetch error, got %s", p.Error)
	}
	if p.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", p.StatusCode)
	}
	if p.HTML() != "ok" {
		t.Errorf("expected body 'ok', got %s", p.HTML())
	}
	if p.Header("X-Test") != "true" {
		t.Errorf("expected X-Test header 'true', got %v", p.Headers["X-Test"])
	}
	if p.Duration == 0 {
		t.Errorf("expected non-zero duration")
	}
	if p.ID == "" {
		t.Errorf("expected non-empty UUID")
	}
}

func TestFetcher_HTMLNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<p>gone</p>"))
	}))
	defer ts.Close()

	fetcher := newTestFetcher(t, FetchConfig{Timeout: 5 * time.Second})
	if got := fetcher.HTML(context.Background(), ts.URL); got != "<p>gone</p>" {
		t.Errorf("expected non-2xx body to be returned as html, got %q", got)
	}
}

func TestFetcher_FailureReturnsEmptyAndLogs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := ts.URL
	ts.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	fetcher := newTestFetcher(t, FetchConfig{Timeout: time.Second, Logger: logger})

	if got := fetcher.HTML(context.Background(), deadURL); got != "" {
		t.Errorf("expected empty html for refused connection, got %q", got)
	}
	if !strings.Contains(buf.String(), "fetch failed") || !strings.Contains(buf.String(), deadURL) {
		t.Errorf("expected failure to be logged with url, got %q", buf.String())
	}
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fetcher := newTestFetcher(t, FetchConfig{Timeout: 10 * time.Millisecond})
	p := fetcher.Fetch(context.Background(), ts.URL)

	if !strings.Contains(p.Error, "request failed") {
		t.Errorf("expected timeout error, got %q", p.Error)
	}
}

func TestFetcher_InvalidURL(t *testing.T) {
	fetcher := newTestFetcher(t, FetchConfig{})
	p := fetcher.Fetch(context.Background(), "://bad")
	if !strings.Contains(p.Error, "failed to create request") {
		t.Errorf("expected request creation error, got %q", p.Error)
	}
}

func TestFetcher_DetectsChallenge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	fetcher := newTestFetcher(t, FetchConfig{Timeout: 5 * time.Second})
	p := fetcher.Fetch(context.Background(), ts.URL)
	if !p.DetectedBot || p.DetectionSrc != "RateLimited" {
		t.Errorf("expected 429 to be detected, got %v %q", p.DetectedBot, p.DetectionSrc)
	}
}

func TestFetcher_Proxy(t *testing.T) {
	// The "proxy" answers every request itself, so a teapot proves routing.
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer proxyServer.Close()

	pool := proxy.NewPool(proxy.Config{MaxFailures: 1, Cooldown: time.Second})
	if err := pool.Add(proxyServer.URL); err != nil {
		t.Fatalf("failed to add proxy: %v", err)
	}

	targetServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer targetServer.Close()

	fetcher := newTestFetcher(t, FetchConfig{Timeout: 5 * time.Second, ProxyPool: pool})
	p := fetcher.Fetch(context.Background(), targetServer.URL)

	if p.StatusCode != http.StatusTeapot {
		t.Errorf("expected 418 Teapot from proxy, got %d, err: %v", p.StatusCode, p.Error)
	}
}

func TestFetcher_AllProxiesBenched(t *testing.T) {
	var hits int
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer proxyServer.Close()

	pool := proxy.NewPool(proxy.Config{MaxFailures: 1, Cooldown: time.Hour})
	if err := pool.Add(proxyServer.URL); err != nil {
		t.Fatalf("failed to add proxy: %v", err)
	}
	if err := pool.MarkFailure(pool.Next()); err != nil {
		t.Fatalf("failed to bench proxy: %v", err)
	}

	var logs bytes.Buffer
	fetcher := newTestFetcher(t, FetchConfig{
		Timeout:   5 * time.Second,
		ProxyPool: pool,
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	})
	p := fetcher.Fetch(context.Background(), "http://example.com/search?q=plato")

	if p.OK() || !strings.Contains(p.Error, "no proxy available") {
		t.Errorf("expected fetch to fail without a proxy, got status %d err %q", p.StatusCode, p.Error)
	}
	if hits != 0 {
		t.Errorf("expected no request to be sent, got %d", hits)
	}
	if !strings.Contains(logs.String(), "fetch failed") {
		t.Errorf("expected failure to be logged, got %q", logs.String())
	}
}
