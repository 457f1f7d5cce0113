// Package config resolves a run's settings from flags, SOURCELINKS_*
// environment variables and an optional config file, in that order of
// precedence, and validates them before anything is fetched.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/FranksOps/sourcelinks/internal/extract"
	"github.com/FranksOps/sourcelinks/internal/fingerprint"
	"github.com/FranksOps/sourcelinks/internal/logging"
	"github.com/FranksOps/sourcelinks/internal/pipeline"
	"github.com/FranksOps/sourcelinks/internal/report"
	"github.com/FranksOps/sourcelinks/internal/serp"
	"github.com/FranksOps/sourcelinks/pkg/headers"
)

// EnvPrefix is prepended to every key when reading the environment.
const EnvPrefix = "SOURCELINKS"

// Keys shared by flags, env vars and config files.
const (
	KeyNumResults        = "num-results"
	KeyOutput            = "output"
	KeyDisableStylesheet = "disable-stylesheet"
	KeySearchEngine      = "search-engine"
	KeySelector          = "selector"
	KeyLinks             = "links"
	KeyMerge             = "merge"
	KeyFormat            = "format"
	KeySources           = "sources"
	KeyTimeout           = "timeout"
	KeyFingerprint       = "fingerprint"
	KeyBrowser           = "browser"
	KeyPlatform          = "platform"
	KeyRandomUA          = "random-ua"
	KeyProxies           = "proxies"
	KeyProxyFile         = "proxy-file"
	KeyMetricsPort       = "metrics-port"
	KeyLogFile           = "log-file"
	KeyLogLevel          = "log-level"
	KeyQuiet             = "quiet"
)

var (
	ErrMissingQuery      = errors.New("config: search text is required")
	ErrInvalidNumResults = errors.New("config: num-results must be positive")
	ErrInvalidTimeout    = errors.New("config: timeout must be positive")
	ErrInvalidPort       = errors.New("config: metrics-port out of range")
)

// Config is a fully resolved run.
type Config struct {
	Query             string
	NumResults        int
	Output            string
	DisableStylesheet bool
	Engine            serp.Engine
	Selector          string
	LinkMode          extract.LinkMode
	Merge             pipeline.MergePolicy
	Format            report.Format
	Sources           []string
	Timeout           time.Duration
	Fingerprint       fingerprint.Profile
	Browser           headers.Browser
	Platform          headers.OS
	RandomUA          bool
	Proxies           []string
	ProxyFile         string
	MetricsPort       int
	LogFile           string
	LogLevel          string
	Quiet             bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyNumResults, 5)
	v.SetDefault(KeyOutput, "output.html")
	v.SetDefault(KeyDisableStylesheet, false)
	v.SetDefault(KeySearchEngine, "google")
	v.SetDefault(KeySelector, extract.DefaultSelector)
	v.SetDefault(KeyLinks, string(extract.LinkHref))
	v.SetDefault(KeyMerge, string(pipeline.MergeConcat))
	v.SetDefault(KeyFormat, string(report.FormatHTML))
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyFingerprint, string(fingerprint.ProfileChrome))
	v.SetDefault(KeyBrowser, string(headers.Chrome))
	v.SetDefault(KeyPlatform, string(headers.MacOS))
	v.SetDefault(KeyRandomUA, false)
	v.SetDefault(KeyMetricsPort, 0)
	v.SetDefault(KeyLogFile, logging.DefaultFile)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyQuiet, false)
}

// NewViper returns a viper instance with defaults and environment binding in
// place. configFile is read when non-empty.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load resolves and validates a Config for query from v.
func Load(v *viper.Viper, query string) (*Config, error) {
	cfg := &Config{
		Query:             strings.TrimSpace(query),
		NumResults:        v.GetInt(KeyNumResults),
		Output:            strings.TrimSpace(v.GetString(KeyOutput)),
		DisableStylesheet: v.GetBool(KeyDisableStylesheet),
		Selector:          v.GetString(KeySelector),
		Sources:           nonEmpty(v.GetStringSlice(KeySources)),
		Timeout:           v.GetDuration(KeyTimeout),
		Proxies:           nonEmpty(v.GetStringSlice(KeyProxies)),
		ProxyFile:         strings.TrimSpace(v.GetString(KeyProxyFile)),
		MetricsPort:       v.GetInt(KeyMetricsPort),
		LogFile:           strings.TrimSpace(v.GetString(KeyLogFile)),
		LogLevel:          v.GetString(KeyLogLevel),
		Quiet:             v.GetBool(KeyQuiet),
		RandomUA:          v.GetBool(KeyRandomUA),
	}

	if cfg.Query == "" {
		return nil, ErrMissingQuery
	}
	if cfg.NumResults <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNumResults, cfg.NumResults)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTimeout, cfg.Timeout)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPort, cfg.MetricsPort)
	}

	var err error
	if cfg.Engine, err = serp.NewEngine(v.GetString(KeySearchEngine)); err != nil {
		return nil, err
	}
	if _, err = extract.Compile(cfg.Selector); err != nil {
		return nil, err
	}
	if cfg.LinkMode, err = extract.ParseLinkMode(v.GetString(KeyLinks)); err != nil {
		return nil, err
	}
	if cfg.Merge, err = pipeline.ParseMergePolicy(v.GetString(KeyMerge)); err != nil {
		return nil, err
	}
	if cfg.Format, err = report.ParseFormat(v.GetString(KeyFormat)); err != nil {
		return nil, err
	}
	if cfg.Fingerprint, err = fingerprint.ParseProfile(v.GetString(KeyFingerprint)); err != nil {
		return nil, err
	}
	if _, err = logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	cfg.Browser = headers.ParseBrowser(v.GetString(KeyBrowser))
	cfg.Platform = headers.OS(strings.ToLower(strings.TrimSpace(v.GetString(KeyPlatform))))
	if _, err = headers.New(cfg.Browser, cfg.Platform); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Stdout reports whether the rendered output goes to standard output.
func (c *Config) Stdout() bool {
	return c.Output == "" || c.Output == "-"
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		// Env vars arrive as one space separated value.
		for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, f)
		}
	}
	return out
}
