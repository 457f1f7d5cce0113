package proxy

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPool_AddAndNext(t *testing.T) {
	pool := NewPool(Config{})

	err := pool.Add("127.0.0.1:8080", "http://127.0.0.1:8081", "socks5://127.0.0.1:9050", "127.0.0.1:8080")
	if err != nil {
		t.Fatalf("unexpected error adding proxies: %v", err)
	}
	if pool.Len() != 3 {
		t.Fatalf("expected duplicate to be ignored, got %d proxies", pool.Len())
	}

	expected := []string{
		"http://127.0.0.1:8080",
		"http://127.0.0.1:8081",
		"socks5://127.0.0.1:9050",
		"http://127.0.0.1:8080",
	}
	for _, want := range expected {
		if u := pool.Next(); u == nil || u.String() != want {
			t.Errorf("expected %s, got %v", want, u)
		}
	}
}

func TestPool_HealthTracking(t *testing.T) {
	pool := NewPool(Config{MaxFailures: 2, Cooldown: time.Minute})
	now := time.Now()
	pool.now = func() time.Time { return now }

	if err := pool.Add("http://a", "http://b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	uA := pool.Next()
	if uA.String() != "http://a" {
		t.Fatalf("expected http://a, got %v", uA)
	}
	_ = pool.MarkFailure(uA)
	_ = pool.MarkFailure(uA)

	for i := 0; i < 2; i++ {
		if u := pool.Next(); u.String() != "http://b" {
			t.Fatalf("expected http://b while a cools down, got %v", u)
		}
	}

	now = now.Add(2 * time.Minute)
	if u := pool.Next(); u.String() != "http://a" {
		t.Fatalf("expected http://a after cooldown, got %v", u)
	}
}

func TestPool_AllDisabled(t *testing.T) {
	pool := NewPool(Config{MaxFailures: 1, Cooldown: time.Hour})
	_ = pool.Add("http://a")

	_ = pool.MarkFailure(pool.Next())

	if u := pool.Next(); u != nil {
		t.Errorf("expected nil when all proxies disabled, got %v", u)
	}
}

func TestPool_Empty(t *testing.T) {
	if u := NewPool(Config{}).Next(); u != nil {
		t.Errorf("expected nil from empty pool, got %v", u)
	}
}

func TestPool_Load(t *testing.T) {
	content := `
# some comment
http://proxy1.com
proxy2.com:80

socks5://proxy3.com:1080
`
	dir := t.TempDir()
	path := filepath.Join(dir, "proxies.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write proxy file: %v", err)
	}

	pool := NewPool(Config{})
	if err := pool.LoadFile(path); err != nil {
		t.Fatalf("failed to load file: %v", err)
	}

	expected := []string{"http://proxy1.com", "http://proxy2.com:80", "socks5://proxy3.com:1080"}
	for _, want := range expected {
		if u := pool.Next(); u == nil || u.String() != want {
			t.Errorf("expected %s, got %v", want, u)
		}
	}

	if err := NewPool(Config{}).Load(strings.NewReader("http://")); err == nil {
		t.Errorf("expected error for proxy without host")
	}
}

func TestPool_MarkUnknown(t *testing.T) {
	pool := NewPool(Config{})
	_ = pool.Add("http://a")

	unknown, _ := url.Parse("http://unknown")
	if err := pool.MarkSuccess(unknown); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy, got %v", err)
	}
	if err := pool.MarkFailure(nil); err == nil {
		t.Errorf("expected error for nil url")
	}
}
