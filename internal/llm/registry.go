package llm

import (
	"fmt"
	"os"
	"sort"
)

// Factory creates providers.
type Factory func(cfg Config) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"ollama":     "mistral",
	"anthropic":  "claude-sonnet-4-5",
	"openai":     "gpt-4o",
	"openrouter": "mistralai/mistral-small",
}

var registry = map[string]Factory{
	"ollama": func(cfg Config) (Provider, error) {
		return NewOllama(cfg)
	},
	"anthropic": func(cfg Config) (Provider, error) {
		return NewAnthropic(cfg)
	},
	"openai": func(cfg Config) (Provider, error) {
		return NewOpenAI(cfg)
	},
	"openrouter": func(cfg Config) (Provider, error) {
		// OpenRouter speaks the OpenAI chat API.
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://openrouter.ai/api/v1"
		}
		return NewOpenAI(cfg)
	},
}

// New creates a provider by name.
func New(name string, cfg Config) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, Available())
	}
	return factory(cfg)
}

// Register adds a custom provider factory.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Available returns the registered provider names, sorted.
func Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks a provider from the environment. Hosted backends win when a
// key is present; otherwise a local Ollama needs no key at all.
func Detect() (provider string, apiKey string) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return "anthropic", key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return "openai", key
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return "openrouter", key
	}
	return "ollama", ""
}

// DefaultModel returns the default model for a provider, or "".
func DefaultModel(provider string) string {
	return DefaultModels[provider]
}
