package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datascrub-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datascrub-cli/internal/config"
	"github.com/KaramelBytes/datascrub-cli/internal/logging"
)

var (
	cfgFile       string
	debug         bool
	flagLogFormat string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datascrub",
	Short: "datascrub: profile tabular data, surface quality issues, and auto-clean it",
	Long: `datascrub profiles CSV/TSV/XLSX files: it infers column types, counts missing
values and duplicate rows, flags outliers and inconsistent categories, and can
write a cleaned copy. Profiles can be sent to an AI model (OpenRouter or a local
Ollama) for a cleaning plan or to answer questions about the data.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datascrub/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		initLogging("", "")
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
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
	initLogging(cfg.LogLevel, cfg.LogFormat)

	if cfg.ModelsFile != "" {
		m, err := ai.LoadCatalog(cfg.ModelsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: models_file ignored: %v\n", err)
			return
		}
		ai.MergeCatalog(m)
		slog.Debug("merged model catalog", "file", cfg.ModelsFile, "models", len(m))
	}
}

func initLogging(level, format string) {
	if debug {
		level = "debug"
	}
	if flagLogFormat != "" {
		format = flagLogFormat
	}
	if _, err := logging.Init(logging.Options{Level: level, Format: format, AddSource: debug}); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logging: %v\n", err)
	}
}
