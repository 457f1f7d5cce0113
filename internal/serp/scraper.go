package serp

import (
	"context"
	"log/slog"

	"github.com/FranksOps/sourcelinks/internal/extract"
	"github.com/FranksOps/sourcelinks/internal/metrics"
	"github.com/FranksOps/sourcelinks/internal/page"
)

// PageFetcher is the transport the Scraper depends on.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) *page.Page
}

// Scraper is the Provider that fetches the engine's HTML results page and
// pulls titles and links out of it with an Extractor.
type Scraper struct {
	fetcher   PageFetcher
	extractor *extract.Extractor
	logger    *slog.Logger
}

var _ Provider = (*Scraper)(nil)

// NewScraper wires a fetcher and an extractor together.
func NewScraper(fetcher PageFetcher, extractor *extract.Extractor, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{fetcher: fetcher, extractor: extractor, logger: logger}
}

// Search fetches the scoped results page for source and extracts from it.
func (s *Scraper) Search(ctx context.Context, q Query, source string) Result {
	target := q.URL(source)

	p := s.fetcher.Fetch(ctx, target)
	if p == nil {
		p = &page.Page{URL: target, Error: "no page returned"}
	}
	p.Source = source
	metrics.RecordSearch(source, p)

	set := s.extractor.Extract(p.HTML(), target)
	metrics.RecordExtracted(source, len(set.Titles), len(set.Links))

	if p.OK() && len(set.Titles) == 0 {
		s.logger.Info("selector matched nothing", "source", source, "selector", s.extractor.Selector(), "status", p.StatusCode)
	}

	return Result{
		Source: source,
		URL:    target,
		Titles: set.Titles,
		Links:  set.Links,
		Page:   p,
	}
}
