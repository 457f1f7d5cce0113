package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/sourcelinks/internal/page"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcelinks_search_requests_total",
			Help: "Total number of scoped search requests executed",
		},
		[]string{"source", "status", "detected"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourcelinks_search_duration_seconds",
			Help:    "Duration of scoped search requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	SearchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcelinks_search_bytes_total",
			Help: "Total bytes of search result pages downloaded",
		},
		[]string{"source"},
	)

	ExtractedResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcelinks_extracted_results_total",
			Help: "Unique titles and links extracted from result pages",
		},
		[]string{"source", "kind"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcelinks_proxy_failures_total",
			Help: "Total number of proxy failures during searches",
		},
		[]string{"proxy_url"},
	)
)

// RecordSearch updates the request metrics for one fetched result page.
func RecordSearch(source string, p *page.Page) {
	if p == nil {
		return
	}

	status := strconv.Itoa(p.StatusCode)
	if !p.OK() {
		status = "error"
	}

	SearchRequestsTotal.WithLabelValues(source, status, strconv.FormatBool(p.DetectedBot)).Inc()
	SearchDuration.WithLabelValues(source).Observe(p.Duration.Seconds())
	SearchBytesTotal.WithLabelValues(source).Add(float64(len(p.Body)))
}

// RecordExtracted counts the titles and links kept for a source.
func RecordExtracted(source string, titles, links int) {
	ExtractedResultsTotal.WithLabelValues(source, "title").Add(float64(titles))
	ExtractedResultsTotal.WithLabelValues(source, "link").Add(float64(links))
}

// Server exposes the default registry over HTTP.
type Server struct {
	srv *http.Server
}

// Start begins listening on the given port and serves /metrics. Listen
// errors are logged, not returned, so a busy port never aborts a search run.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", srv.Addr, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
