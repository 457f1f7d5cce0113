package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/sourcelinks/internal/serp"
)

// Observer is told about progress between sources. It has no influence on
// ordering or results.
type Observer interface {
	SourceStarted(i, n int, source string)
	SourceDone(i, n int, res serp.Result)
}

// Pipeline drives a Provider across every source scope of a query, one at a
// time, and keeps each source's result separately.
type Pipeline struct {
	provider serp.Provider
	observer Observer
	logger   *slog.Logger
}

// New builds a Pipeline. observer and logger may be nil.
func New(provider serp.Provider, observer Observer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{provider: provider, observer: observer, logger: logger}
}

// Run searches each source in order and returns one Result per source. A
// source that fails to fetch contributes an empty Result and the run moves
// on. The only error is a cancelled context, returned with the results
// gathered so far.
func (p *Pipeline) Run(ctx context.Context, q serp.Query) ([]serp.Result, error) {
	if p.provider == nil {
		return nil, errors.New("pipeline: provider is nil")
	}

	sources := q.Sources()
	results := make([]serp.Result, 0, len(sources))

	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("pipeline: %w", err)
		}
		if p.observer != nil {
			p.observer.SourceStarted(i, len(sources), source)
		}

		res := p.provider.Search(ctx, q, source)
		results = append(results, res)

		p.logger.Info("source searched",
			"source", source,
			"titles", len(res.Titles),
			"links", len(res.Links),
			"failed", res.Failed(),
		)
		if p.observer != nil {
			p.observer.SourceDone(i, len(sources), res)
		}
	}

	return results, nil
}

// MergePolicy decides how per-source results fold into one title/link list.
type MergePolicy string

const (
	// MergeConcat concatenates titles and links of every source.
	MergeConcat MergePolicy = "concat"
	// MergeUnique concatenates but drops pairs whose link (or, lacking one,
	// title) already appeared for an earlier source.
	MergeUnique MergePolicy = "unique"
	// MergeLegacy concatenates titles but keeps only the last source's links.
	MergeLegacy MergePolicy = "legacy"
)

// ParseMergePolicy validates a policy name. Empty means MergeConcat.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch m := MergePolicy(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MergeConcat, nil
	case MergeConcat, MergeUnique, MergeLegacy:
		return m, nil
	default:
		return "", fmt.Errorf("pipeline: unknown merge policy %q", s)
	}
}

// Flatten folds per-source results into parallel title and link slices.
func Flatten(results []serp.Result, policy MergePolicy) (titles, links []string) {
	titles, links = []string{}, []string{}

	switch policy {
	case MergeLegacy:
		for _, r := range results {
			titles = append(titles, r.Titles...)
		}
		if len(results) > 0 {
			links = append(links, results[len(results)-1].Links...)
		}

	case MergeUnique:
		seen := make(map[string]struct{})
		for _, r := range results {
			n := min(len(r.Titles), len(r.Links))
			for i := 0; i < n; i++ {
				key := r.Links[i]
				if key == "" {
					key = r.Titles[i]
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				titles = append(titles, r.Titles[i])
				links = append(links, r.Links[i])
			}
		}

	default:
		for _, r := range results {
			titles = append(titles, r.Titles...)
			links = append(links, r.Links...)
		}
	}

	return titles, links
}
