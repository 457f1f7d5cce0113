package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknownProxy is returned when marking a proxy the pool does not hold.
var ErrUnknownProxy = errors.New("proxy: not found in pool")

type entry struct {
	url           *url.URL
	failures      int
	successes     int
	disabledUntil time.Time
}

func (e *entry) available(now time.Time) bool {
	return e.disabledUntil.IsZero() || now.After(e.disabledUntil)
}

// Pool rotates through proxies round-robin and benches a proxy for a
// cooldown period after repeated failures. It is safe for concurrent use.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	index       map[string]*entry
	next        int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// Config defines settings for the Pool.
type Config struct {
	// MaxFailures before a proxy is benched.
	MaxFailures int
	// Cooldown is how long a benched proxy is skipped.
	Cooldown time.Duration
}

// NewPool creates an empty pool. Zero config values fall back to 3 failures
// and a five minute cooldown.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		index:       make(map[string]*entry),
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
	}
}

// Add parses raw proxy URLs and appends them. A missing scheme means http.
// Duplicates are ignored.
func (p *Pool) Add(rawURLs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range rawURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("proxy: missing host in %q", raw)
		}
		key := u.String()
		if _, dup := p.index[key]; dup {
			continue
		}
		e := &entry{url: u}
		p.entries = append(p.entries, e)
		p.index[key] = e
	}
	return nil
}

// Load reads one proxy URL per line. Blank lines and lines starting with
// '#' are skipped.
func (p *Pool) Load(r io.Reader) error {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	return p.Add(urls...)
}

// LoadFile is Load on the named file.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	defer f.Close()
	return p.Load(f)
}

// Len returns the number of proxies held, benched or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next available proxy, or nil when the pool is empty or
// every proxy is cooling down.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for i := 0; i < len(p.entries); i++ {
		e := p.entries[p.next]
		p.next = (p.next + 1) % len(p.entries)
		if e.available(now) {
			if !e.disabledUntil.IsZero() {
				// back from the bench with a clean slate
				e.disabledUntil = time.Time{}
				e.failures = 0
			}
			return e.url
		}
	}
	return nil
}

// MarkSuccess records a successful request through proxyURL.
func (p *Pool) MarkSuccess(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(e *entry) {
		e.successes++
		if e.failures > 0 {
			e.failures--
		}
	})
}

// MarkFailure records a failed request through proxyURL and benches it once
// it reaches the configured failure count.
func (p *Pool) MarkFailure(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(e *entry) {
		e.failures++
		if e.failures >= p.maxFailures {
			e.disabledUntil = p.now().Add(p.cooldown)
		}
	})
}

func (p *Pool) mark(proxyURL *url.URL, fn func(*entry)) error {
	if proxyURL == nil {
		return errors.New("proxy: url cannot be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.index[proxyURL.String()]
	if !ok {
		return ErrUnknownProxy
	}
	fn(e)
	return nil
}
