package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int // 0 means the net/http default of 10, negative disables redirects
	UseCookieJar bool
	// Transport overrides the round tripper, e.g. for proxies or uTLS fingerprinting.
	Transport http.RoundTripper
	// HeaderFunc is called per request; headers it returns are set unless the
	// request already carries them.
	HeaderFunc func() http.Header
}

// Client wraps a standard http.Client with a redirect policy, optional cookie
// persistence and per-request default headers.
type Client struct {
	*http.Client
	headerFunc func() http.Header
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &http.Client{Timeout: cfg.Timeout}

	switch {
	case cfg.MaxRedirects < 0:
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	case cfg.MaxRedirects > 0:
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("httpclient: stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("httpclient: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{Client: c, headerFunc: cfg.HeaderFunc}, nil
}

// Do executes an HTTP request bound to ctx, which controls cancellation
// independently of the client timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("httpclient: context cannot be nil")
	}

	reqWithCtx := req.Clone(ctx)
	if c.headerFunc != nil {
		for k, vals := range c.headerFunc() {
			if reqWithCtx.Header.Get(k) != "" {
				continue
			}
			for _, v := range vals {
				reqWithCtx.Header.Add(k, v)
			}
		}
	}

	resp, err := c.Client.Do(reqWithCtx)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}
