package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Scrape.Headless {
		t.Error("Scrape.Headless default should be true")
	}
	if cfg.Scrape.FilterTimeout != 10*time.Second {
		t.Errorf("FilterTimeout = %v, want 10s", cfg.Scrape.FilterTimeout)
	}
	if cfg.Scrape.LoadMoreTimeout != 40*time.Second {
		t.Errorf("LoadMoreTimeout = %v, want 40s", cfg.Scrape.LoadMoreTimeout)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("LLM.Timeout = %v, want 60s", cfg.LLM.Timeout)
	}
	if cfg.LLM.Concurrency != 10 {
		t.Errorf("LLM.Concurrency = %d, want 10", cfg.LLM.Concurrency)
	}
	if cfg.Portals.MaxPages != 5 {
		t.Errorf("Portals.MaxPages = %d, want 5", cfg.Portals.MaxPages)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Output.Format = %q, want csv", cfg.Output.Format)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	resetViper(t)
	// Unmarshal only sees env values for keys viper already knows, so
	// override keys that carry defaults.
	t.Setenv("PROPSCAN_LLM_CONCURRENCY", "3")
	t.Setenv("PROPSCAN_OUTPUT_FORMAT", "json")

	viper.SetEnvPrefix("PROPSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Concurrency != 3 {
		t.Errorf("LLM.Concurrency = %d, want env override 3", cfg.LLM.Concurrency)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want env override json", cfg.Output.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"zero_config_valid", func(c *Config) {}, false},
		{"known_provider", func(c *Config) { c.LLM.Provider = "anthropic" }, false},
		{"unknown_provider", func(c *Config) { c.LLM.Provider = "gemini" }, true},
		{"unknown_format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"negative_concurrency", func(c *Config) { c.LLM.Concurrency = -1 }, true},
		{"bad_url", func(c *Config) { c.Scrape.URL = "not a url" }, true},
		{"good_url", func(c *Config) { c.Scrape.URL = "https://www.carousell.ph/search" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
