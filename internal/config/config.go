// Package config loads and validates propscan settings from config files,
// environment, and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full propscan configuration tree. Field presence required
// by a specific command is checked by that command; Validate only enforces
// domain constraints that hold everywhere.
type Config struct {
	Debug   bool `mapstructure:"debug"`
	Quiet   bool `mapstructure:"quiet"`
	LogJSON bool `mapstructure:"log_json"`

	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Portals PortalsConfig `mapstructure:"portals"`
	Output  OutputConfig  `mapstructure:"output"`
}

// ScrapeConfig controls the browser-driven search scrape.
type ScrapeConfig struct {
	URL        string `mapstructure:"url" validate:"omitempty,url"`
	Location   string `mapstructure:"location"`
	MaxLoads   int    `mapstructure:"max_loads"`
	Headless   bool   `mapstructure:"headless"`
	ChromePath string `mapstructure:"chrome_path"`

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" validate:"gte=0"`
	FilterTimeout     time.Duration `mapstructure:"filter_timeout" validate:"gte=0"`
	SearchTimeout     time.Duration `mapstructure:"search_timeout" validate:"gte=0"`
	ReadinessTimeout  time.Duration `mapstructure:"readiness_timeout" validate:"gte=0"`
	LoadMoreTimeout   time.Duration `mapstructure:"load_more_timeout" validate:"gte=0"`
}

// LLMConfig controls the normalization backend.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" validate:"omitempty,oneof=ollama anthropic openai openrouter"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=0"`
	Reference   string        `mapstructure:"reference"`
}

// PortalsConfig controls the static portal scrapers.
type PortalsConfig struct {
	MaxPages  int           `mapstructure:"max_pages" validate:"gte=0"`
	PageDelay time.Duration `mapstructure:"page_delay" validate:"gte=0"`
}

// OutputConfig controls record sinks.
type OutputConfig struct {
	Format      string `mapstructure:"format" validate:"omitempty,oneof=csv json jsonl yaml"`
	Path        string `mapstructure:"path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// SetDefaults registers defaults on the global viper instance.
func SetDefaults() {
	viper.SetDefault("scrape.headless", true)
	viper.SetDefault("scrape.navigation_timeout", 45*time.Second)
	viper.SetDefault("scrape.filter_timeout", 10*time.Second)
	viper.SetDefault("scrape.search_timeout", 20*time.Second)
	viper.SetDefault("scrape.readiness_timeout", 20*time.Second)
	viper.SetDefault("scrape.load_more_timeout", 40*time.Second)

	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("llm.concurrency", 10)

	viper.SetDefault("portals.max_pages", 5)
	viper.SetDefault("portals.page_delay", time.Second)

	viper.SetDefault("output.format", "csv")
}

// InitViper wires the global viper instance: config file discovery, the
// PROPSCAN_* environment, API key fallbacks, and defaults.
func InitViper(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".propscan")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PROPSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Also check the providers' native API key env vars.
	_ = viper.BindEnv("llm.api_key",
		"PROPSCAN_LLM_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY")

	SetDefaults()

	// Missing config file is fine; flags and env carry the rest.
	_ = viper.ReadInConfig()
}

// Load unmarshals and validates the current viper state.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the config's domain constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("invalid config: %s fails %q", e.Namespace(), e.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}
