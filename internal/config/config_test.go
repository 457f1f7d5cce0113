package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FranksOps/sourcelinks/internal/extract"
	"github.com/FranksOps/sourcelinks/internal/fingerprint"
	"github.com/FranksOps/sourcelinks/internal/pipeline"
	"github.com/FranksOps/sourcelinks/internal/report"
	"github.com/FranksOps/sourcelinks/pkg/headers"
)

func TestLoad_Defaults(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)

	cfg, err := Load(v, "  plato  ")
	require.NoError(t, err)

	assert.Equal(t, "plato", cfg.Query)
	assert.Equal(t, 5, cfg.NumResults)
	assert.Equal(t, "output.html", cfg.Output)
	assert.False(t, cfg.DisableStylesheet)
	assert.Equal(t, "https://google.com", cfg.Engine.BaseURL)
	assert.Equal(t, extract.DefaultSelector, cfg.Selector)
	assert.Equal(t, extract.LinkHref, cfg.LinkMode)
	assert.Equal(t, pipeline.MergeConcat, cfg.Merge)
	assert.Equal(t, report.FormatHTML, cfg.Format)
	assert.Nil(t, cfg.Sources)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, fingerprint.ProfileChrome, cfg.Fingerprint)
	assert.Equal(t, headers.Chrome, cfg.Browser)
	assert.False(t, cfg.RandomUA)
	assert.Equal(t, "download.log", cfg.LogFile)
	assert.False(t, cfg.Stdout())
}

func TestLoad_MissingQuery(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)

	_, err = Load(v, "   ")
	assert.ErrorIs(t, err, ErrMissingQuery)
}

func TestLoad_InvalidNumResults(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)
	v.Set(KeyNumResults, 0)

	_, err = Load(v, "plato")
	assert.ErrorIs(t, err, ErrInvalidNumResults)
}

func TestLoad_InvalidSelector(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)
	v.Set(KeySelector, "div[")

	_, err = Load(v, "plato")
	assert.ErrorIs(t, err, extract.ErrInvalidSelector)
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	for key, value := range map[string]any{
		KeyLinks:        "title",
		KeyMerge:        "zip",
		KeyFormat:       "xml",
		KeyFingerprint:  "netscape",
		KeySearchEngine: "bad/engine",
		KeyLogLevel:     "loud",
		KeyBrowser:      "lynx",
		KeyMetricsPort:  70000,
		KeyTimeout:      "-1s",
	} {
		t.Run(key, func(t *testing.T) {
			v, err := NewViper("")
			require.NoError(t, err)
			v.Set(key, value)

			_, err = Load(v, "plato")
			assert.Error(t, err)
		})
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SOURCELINKS_NUM_RESULTS", "3")
	t.Setenv("SOURCELINKS_SEARCH_ENGINE", "bing")
	t.Setenv("SOURCELINKS_RANDOM_UA", "true")
	t.Setenv("SOURCELINKS_SOURCES", "en.wikipedia.org,plato.stanford.edu")

	v, err := NewViper("")
	require.NoError(t, err)

	cfg, err := Load(v, "plato")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.NumResults)
	assert.Equal(t, "https://bing.com", cfg.Engine.BaseURL)
	assert.True(t, cfg.RandomUA)
	assert.Equal(t, []string{"en.wikipedia.org", "plato.stanford.edu"}, cfg.Sources)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sourcelinks.yaml")
	content := `num-results: 2
output: "-"
merge: unique
sources:
  - iep.utm.edu
  - plato.stanford.edu
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v, err := NewViper(path)
	require.NoError(t, err)

	cfg, err := Load(v, "stoicism")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.NumResults)
	assert.True(t, cfg.Stdout())
	assert.Equal(t, pipeline.MergeUnique, cfg.Merge)
	assert.Equal(t, []string{"iep.utm.edu", "plato.stanford.edu"}, cfg.Sources)
}

func TestNewViper_MissingFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
