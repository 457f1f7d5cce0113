// Package cli is the sourcelinks command line.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/FranksOps/sourcelinks/internal/config"
	"github.com/FranksOps/sourcelinks/internal/extract"
	"github.com/FranksOps/sourcelinks/internal/logging"
)

// flagKeys maps flag names onto config keys where the two differ.
var flagKeys = map[string]string{
	"source": config.KeySources,
	"proxy":  config.KeyProxies,
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "sourcelinks [query]",
		Short: "Collect search result links scoped to reference sites",
		Long: `Searches the query once per reference site (site:openlibrary.org,
site:plato.stanford.edu, ...) on a search engine, extracts result titles and
links from each results page with a CSS selector, and renders them as an
HTML list of links.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, args[0])
			if err != nil {
				return err
			}
			return runSearch(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.IntP("num-results", "n", 5, "maximum titles and links kept per source")
	f.StringP("output", "o", "output.html", "output file, - for stdout")
	f.BoolP("disable-stylesheet", "d", false, "do not link the stylesheet in HTML output")
	f.StringP("search-engine", "e", "google", "engine name (google -> https://google.com) or base URL")
	f.StringP("selector", "s", extract.DefaultSelector, "CSS selector for result elements")
	f.String("links", string(extract.LinkHref), "link extraction: href or text")
	f.String("merge", "concat", "merge policy across sources: concat, unique or legacy")
	f.String("format", "html", "output format: html, json or csv")
	f.StringSlice("source", nil, "source scope to search (repeatable, replaces the defaults)")
	f.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	f.Duration("timeout", 30*time.Second, "per-request timeout")
	f.String("fingerprint", "chrome", "TLS fingerprint: chrome, firefox, safari, go or random")
	f.String("browser", "chrome", "browser whose headers are sent")
	f.String("platform", "macos", "platform reported in the User-Agent")
	f.Bool("random-ua", false, "pick User-Agents at random instead of rotating in order")
	f.StringSlice("proxy", nil, "proxy URL (repeatable)")
	f.String("proxy-file", "", "file with one proxy URL per line")
	f.Int("metrics-port", 0, "serve Prometheus metrics on this port while running")
	f.String("log-file", logging.DefaultFile, "log file, appended to; empty logs to stderr")
	f.String("log-level", "info", "log level: debug, info, warn or error")
	f.BoolP("quiet", "q", false, "no progress or summary on stderr")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" || f.Name == "help" {
			return
		}
		key := f.Name
		if k, ok := flagKeys[key]; ok {
			key = k
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
