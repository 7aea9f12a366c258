package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlibrea/propscan/internal/analysis"
	"github.com/mlibrea/propscan/internal/carousell"
	"github.com/mlibrea/propscan/internal/config"
	"github.com/mlibrea/propscan/internal/listing"
	"github.com/mlibrea/propscan/internal/llm"
	"github.com/mlibrea/propscan/internal/logger"
	"github.com/mlibrea/propscan/internal/normalize"
	"github.com/mlibrea/propscan/internal/output"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape a Carousell search and normalize the listings",
	Long: `Scrape a Carousell property search page with a real browser, extract
one record per listing card, and fill in building and transaction type
by normalizing each title with an LLM.

The location filter is typed into the on-page search form before results
are harvested, and "Show more results" is clicked until the button stops
appearing (or --max-loads is reached).

Examples:
  # Scrape to CSV with the auto-detected provider
  propscan scrape -u "https://www.carousell.ph/search/..." \
      --location "Salcedo Village" -o listings.csv

  # Bound the result pages and use a specific model
  propscan scrape -u "https://www.carousell.ph/search/..." \
      --location "Makati" --max-loads 5 -p anthropic -m claude-sonnet-4-5

  # Print the per-sqm report alongside the JSONL output
  propscan scrape -u "https://www.carousell.ph/search/..." \
      --location "BGC" -f jsonl -o listings.jsonl --report`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()

	// Search inputs
	flags.StringP("url", "u", "", "search results URL to open (required)")
	flags.String("location", "", "location typed into the search filter (required)")
	flags.Int("max-loads", 0, "max \"Show more results\" clicks (0 = until exhausted)")
	flags.Bool("headless", true, "run the browser headless")
	flags.String("chrome-path", "", "path to the Chrome/Chromium binary")

	// LLM settings
	flags.StringP("provider", "p", "", "LLM provider: ollama, anthropic, openai, openrouter (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.String("reference", "", "reference description guiding title normalization")
	flags.IntP("concurrency", "c", 0, "concurrent normalization calls")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.StringP("format", "f", "", "output format: csv, json, jsonl, yaml")
	flags.String("postgres-dsn", "", "also upsert records into this Postgres database")

	// Report settings
	flags.Bool("report", false, "print the per-sqm building report to stdout")
	flags.Int("top", analysis.DefaultTop, "units kept per building in the report")

	// Bind to the config tree
	_ = viper.BindPFlag("scrape.url", flags.Lookup("url"))
	_ = viper.BindPFlag("scrape.location", flags.Lookup("location"))
	_ = viper.BindPFlag("scrape.max_loads", flags.Lookup("max-loads"))
	_ = viper.BindPFlag("scrape.headless", flags.Lookup("headless"))
	_ = viper.BindPFlag("scrape.chrome_path", flags.Lookup("chrome-path"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("model"))
	_ = viper.BindPFlag("llm.api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("llm.base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("llm.reference", flags.Lookup("reference"))
	_ = viper.BindPFlag("llm.concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("output.path", flags.Lookup("output"))
	_ = viper.BindPFlag("output.format", flags.Lookup("format"))
	_ = viper.BindPFlag("output.postgres_dsn", flags.Lookup("postgres-dsn"))
}

func runScrape(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	if cfg.Scrape.URL == "" || cfg.Scrape.Location == "" {
		logger.Error("a search URL and a location filter are required")
		return cmd.Help()
	}

	logger.Debug("scrape starting",
		"url", cfg.Scrape.URL,
		"location", cfg.Scrape.Location,
		"max_loads", cfg.Scrape.MaxLoads)

	markup, err := carousell.Materialize(ctx, browserConfig(cfg), carousell.Request{
		SearchURL: cfg.Scrape.URL,
		Location:  cfg.Scrape.Location,
		MaxLoads:  cfg.Scrape.MaxLoads,
	})
	if err != nil {
		logger.Error("browser session failed", "error", err)
		return err
	}

	pageTitle, records, err := carousell.Collect(markup)
	if err != nil {
		logger.Error("no usable listings on the page", "page_title", pageTitle, "error", err)
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		logger.Error("failed to create LLM provider", "error", err)
		return err
	}

	n := normalize.New(provider, normalize.Config{
		Timeout:     cfg.LLM.Timeout,
		Concurrency: cfg.LLM.Concurrency,
	})
	records = n.All(ctx, records, cfg.LLM.Reference, cfg.LLM.Concurrency)
	if stats := n.Stats(); stats.Failed > 0 || stats.Malformed > 0 {
		logger.Warn("normalization anomalies",
			"calls", stats.Calls,
			"failed", stats.Failed,
			"malformed", stats.Malformed)
	}

	if err := writeRecords(cfg, records); err != nil {
		return err
	}

	if cfg.Output.PostgresDSN != "" {
		if err := upsertRecords(cfg.Output.PostgresDSN, records); err != nil {
			logger.Error("postgres upsert failed", "error", err)
			return err
		}
	}

	if report, _ := cmd.Flags().GetBool("report"); report {
		top, _ := cmd.Flags().GetInt("top")
		units := analysis.TopPerBuilding(analysis.Rank(records, analysis.DefaultAliases()), top)
		if err := analysis.WriteReport(os.Stdout, units); err != nil {
			logger.Error("failed to render report", "error", err)
			return err
		}
	}

	logger.Info("scrape complete", "page_title", pageTitle, "records", len(records))
	return nil
}

// browserConfig maps the scrape settings onto the materializer. User agent
// and language stay on their defaults.
func browserConfig(cfg *config.Config) carousell.BrowserConfig {
	return carousell.BrowserConfig{
		Headless:          cfg.Scrape.Headless,
		ChromePath:        cfg.Scrape.ChromePath,
		NavigationTimeout: cfg.Scrape.NavigationTimeout,
		FilterTimeout:     cfg.Scrape.FilterTimeout,
		SearchTimeout:     cfg.Scrape.SearchTimeout,
		ReadinessTimeout:  cfg.Scrape.ReadinessTimeout,
		LoadMoreTimeout:   cfg.Scrape.LoadMoreTimeout,
	}
}

// buildProvider resolves the normalization backend. An explicit provider
// wins; otherwise the environment decides, falling back to local Ollama.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	name := cfg.LLM.Provider
	apiKey := cfg.LLM.APIKey
	if name == "" {
		detected, detectedKey := llm.Detect()
		name = detected
		if apiKey == "" {
			apiKey = detectedKey
		}
		logger.Debug("auto-detected provider", "provider", name)
	}

	model := cfg.LLM.Model
	if model == "" {
		model = llm.DefaultModel(name)
	}

	providerCfg := llm.DefaultConfig()
	providerCfg.APIKey = apiKey
	providerCfg.BaseURL = cfg.LLM.BaseURL
	providerCfg.Model = model
	if cfg.LLM.Timeout > 0 {
		providerCfg.Timeout = cfg.LLM.Timeout
	}

	return llm.New(name, providerCfg)
}

// writeRecords serializes records to the configured path, or stdout.
func writeRecords(cfg *config.Config, records []listing.Record) error {
	outFile := os.Stdout
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", cfg.Output.Path, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		outFile = f
	}

	writer, err := output.NewWriter(outFile, output.Format(cfg.Output.Format))
	if err != nil {
		logger.Error("failed to create output writer", "format", cfg.Output.Format, "error", err)
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		logger.Error("failed to write records", "error", err)
		return err
	}
	return writer.Close()
}

// upsertRecords mirrors the run into Postgres keyed by listing URL.
func upsertRecords(dsn string, records []listing.Record) error {
	pw, err := output.NewPostgresWriter(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = pw.Close() }()
	return pw.WriteAll(records)
}
