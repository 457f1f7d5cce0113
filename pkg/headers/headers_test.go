package headers

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerator_Defaults(t *testing.T) {
	g, err := New("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := g.Generate()
	ua := h.Get("User-Agent")
	if !strings.Contains(ua, "Chrome/") || !strings.Contains(ua, "Macintosh") {
		t.Errorf("expected a chrome/macos user agent, got %q", ua)
	}
	if h.Get("Sec-Ch-Ua-Platform") != `"macOS"` {
		t.Errorf("expected macOS platform hint, got %q", h.Get("Sec-Ch-Ua-Platform"))
	}
	if h.Get("Accept") == "" || h.Get("Accept-Language") == "" {
		t.Errorf("expected Accept and Accept-Language to be set: %v", h)
	}
	if h.Get("Accept-Encoding") != "" {
		t.Errorf("expected Accept-Encoding to be left to net/http")
	}
}

func TestGenerator_Firefox(t *testing.T) {
	g, err := New(Firefox, Windows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := g.Generate()
	if !strings.Contains(h.Get("User-Agent"), "Firefox/") {
		t.Errorf("expected firefox user agent, got %q", h.Get("User-Agent"))
	}
	if h.Get("Sec-Ch-Ua-Platform") != "" {
		t.Errorf("firefox does not send client hints")
	}
}

func TestGenerator_Unknown(t *testing.T) {
	if _, err := New("netscape", MacOS); err == nil {
		t.Errorf("expected error for unknown browser")
	}
	if _, err := New(Safari, Windows); err == nil {
		t.Errorf("expected error for safari on windows")
	}
}

func TestGenerator_Sequential(t *testing.T) {
	g, err := New(Chrome, MacOS, WithUserAgents([]string{"A", "B", "C"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"A", "B", "C", "A"} {
		if got := g.UserAgent(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestGenerator_Random(t *testing.T) {
	g, _ := New(Chrome, MacOS, WithUserAgents([]string{"A", "B"}), WithRandom())

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := g.UserAgent()
		if got != "A" && got != "B" {
			t.Fatalf("unexpected UA: %s", got)
		}
		seen[got] = true
	}
	if !seen["A"] || !seen["B"] {
		t.Errorf("expected to see both A and B randomly, got %v", seen)
	}
}

func TestGenerator_Concurrent(t *testing.T) {
	g, _ := New(Chrome, MacOS, WithUserAgents([]string{"X", "Y", "Z"}))

	const routines = 50
	const iterations = 300

	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := map[string]int{}
			for j := 0; j < iterations; j++ {
				local[g.UserAgent()]++
			}
			mu.Lock()
			for k, v := range local {
				counts[k] += v
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	want := routines * iterations / 3
	for _, k := range []string{"X", "Y", "Z"} {
		if counts[k] != want {
			t.Errorf("expected %d hits for %s, got %d", want, k, counts[k])
		}
	}
}
