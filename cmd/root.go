package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/musicdash/internal/config"
	"github.com/KaramelBytes/musicdash/internal/dataset"
	"github.com/KaramelBytes/musicdash/internal/logger"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagDataset string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global

	// one handle per source so a process loads each dataset at most once
	handlesMu sync.Mutex
	handles   = map[string]*dataset.Handle{}
)

var rootCmd = &cobra.Command{
	Use:   "musicdash",
	Short: "musicdash: explore music genres and track characteristics",
	Long: `musicdash loads a tracks dataset (by default the public Spotify tracks dataset)
and answers the dashboard questions: which genres rank highest on a metric, how
genres compare on two audio features, and how one feature is distributed within
a genre. Results print as text or JSON, export as charts, or serve over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.musicdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataset, "dataset", "", "dataset source: local CSV path, http(s) URL or hf://datasets/... (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("dataset") && flagDataset != "" {
		cfg.DatasetSource = flagDataset
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if debug {
		cfg.LogLevel = "debug"
	}
}

// currentConfig tolerates commands run before OnInitialize (tests).
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func newLogger() *logger.Logger {
	c := currentConfig()
	return logger.New(logger.Config{
		Writer:      os.Stderr,
		Format:      c.LogFormat,
		Environment: c.Environment,
		Level:       logger.ParseLevel(c.LogLevel),
	})
}

// loadDataset returns the configured dataset, loading it on first use.
// A failed load is remembered and returned again.
func loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	c := currentConfig()
	source := c.DatasetSource

	handlesMu.Lock()
	h, ok := handles[source]
	if !ok {
		log := newLogger()
		opt := dataset.Options{Fetch: c.FetchOptions()}
		h = dataset.NewHandle(func(ctx context.Context) (*dataset.Dataset, error) {
			log.Debug("Loading dataset", "source", source)
			ds, err := dataset.Load(ctx, source, opt)
			if err != nil {
				return nil, err
			}
			log.Debug("Dataset loaded", "source", source, "rows", ds.Len(), "genres", len(ds.Genres()))
			return ds, nil
		})
		handles[source] = h
	}
	handlesMu.Unlock()

	return h.Get(ctx)
}
