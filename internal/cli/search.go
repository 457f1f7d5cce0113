package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FranksOps/sourcelinks/internal/config"
	"github.com/FranksOps/sourcelinks/internal/extract"
	"github.com/FranksOps/sourcelinks/internal/logging"
	"github.com/FranksOps/sourcelinks/internal/metrics"
	"github.com/FranksOps/sourcelinks/internal/pipeline"
	"github.com/FranksOps/sourcelinks/internal/report"
	"github.com/FranksOps/sourcelinks/internal/scraper"
	"github.com/FranksOps/sourcelinks/internal/serp"
	"github.com/FranksOps/sourcelinks/pkg/headers"
	"github.com/FranksOps/sourcelinks/pkg/proxy"
)

func runSearch(cmd *cobra.Command, cfg *config.Config) error {
	logger, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.MetricsPort > 0 {
		srv := metrics.Start(cfg.MetricsPort, logger)
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}

	q, err := serp.NewQuery(cfg.Query, cfg.Engine, cfg.Sources)
	if err != nil {
		return err
	}

	var observer pipeline.Observer
	if !cfg.Quiet {
		observer = progress{w: cmd.ErrOrStderr()}
	}

	logger.Info("search started", "query", q.Text(), "engine", q.Engine().BaseURL, "sources", len(q.Sources()))
	results, err := pipeline.New(provider, observer, logger).Run(cmd.Context(), q)
	if err != nil {
		return err
	}

	titles, links := pipeline.Flatten(results, cfg.Merge)
	if err := writeOutput(cmd, cfg, titles, links); err != nil {
		logger.Error("writing output failed", "output", cfg.Output, "err", err)
		return err
	}
	logger.Info("search finished", "titles", len(titles), "links", len(links), "output", cfg.Output)

	if !cfg.Quiet {
		if !cfg.Stdout() {
			fmt.Fprintf(cmd.ErrOrStderr(), "\nWrote %d links to %s\n\n", min(len(titles), len(links)), cfg.Output)
		}
		if err := report.WriteSummary(cmd.ErrOrStderr(), report.GenerateSummary(results)); err != nil {
			return err
		}
	}
	return nil
}

func newProvider(cfg *config.Config, logger *slog.Logger) (serp.Provider, error) {
	var opts []headers.Option
	if cfg.RandomUA {
		opts = append(opts, headers.WithRandom())
	}
	gen, err := headers.New(cfg.Browser, cfg.Platform, opts...)
	if err != nil {
		return nil, err
	}

	var pool *proxy.Pool
	if len(cfg.Proxies) > 0 || cfg.ProxyFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.Add(cfg.Proxies...); err != nil {
			return nil, err
		}
		if cfg.ProxyFile != "" {
			if err := pool.LoadFile(cfg.ProxyFile); err != nil {
				return nil, err
			}
		}
		logger.Info("proxy pool loaded", "proxies", pool.Len())
	}

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:      cfg.Timeout,
		UseCookieJar: true,
		ProxyPool:    pool,
		Headers:      gen,
		Fingerprint:  cfg.Fingerprint,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	ex, err := extract.New(cfg.Selector, cfg.NumResults, cfg.LinkMode)
	if err != nil {
		return nil, err
	}

	return serp.NewScraper(fetcher, ex, logger), nil
}

func writeOutput(cmd *cobra.Command, cfg *config.Config, titles, links []string) error {
	opts := report.Options{
		Stylesheet: !cfg.DisableStylesheet,
		Title:      cfg.Query,
	}

	if cfg.Stdout() {
		return report.Write(cmd.OutOrStdout(), cfg.Format, titles, links, opts)
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := report.Write(f, cfg.Format, titles, links, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}
