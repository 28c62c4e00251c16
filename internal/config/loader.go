package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"promptq/internal/chunk"
	"promptq/internal/common/fsutil"
)

// Provider kinds understood by the registry.
const (
	KindOllama     = "ollama"
	KindOpenRouter = "openrouter"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultAddr            = ":8080"
	DefaultLogLevel        = "info"
	DefaultProvider        = "ollama"
	DefaultSystemPrompt    = "You are a helpful and smart assistant"
	DefaultDeadlineSeconds = 20
	DefaultIdleIntervalMs  = 100
	DefaultChunkLimit      = 2000
	DefaultChunkPolicy     = "split"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultOllamaURL       = "http://localhost:11434/api/chat"
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
)

// Environment variables consulted for the remote API key, in order.
var apiKeyEnv = []string{"PROMPTQ_API_KEY", "OPENROUTER_API_KEY"}

// Provider describes one backend the daemon can route prompts to.
type Provider struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Kind  string `json:"kind" yaml:"kind" toml:"kind"`
	URL   string `json:"url" yaml:"url" toml:"url"`
	Model string `json:"model" yaml:"model" toml:"model"`
	// APIKey overrides Config.APIKey for this provider.
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key"`
	// ContentParts sends system prompt and prompt as parts of one user message.
	ContentParts     bool   `json:"content_parts" yaml:"content_parts" toml:"content_parts"`
	RateLimitHint    string `json:"rate_limit_hint" yaml:"rate_limit_hint" toml:"rate_limit_hint"`
	ConnectTimeoutMs int    `json:"connect_timeout_ms" yaml:"connect_timeout_ms" toml:"connect_timeout_ms"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogPretty bool   `json:"log_pretty" yaml:"log_pretty" toml:"log_pretty"`

	// Initial provider settings.
	Provider     string `json:"provider" yaml:"provider" toml:"provider"`
	Model        string `json:"model" yaml:"model" toml:"model"`
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`

	DeadlineSeconds int    `json:"deadline_seconds" yaml:"deadline_seconds" toml:"deadline_seconds"`
	IdleIntervalMs  int    `json:"idle_interval_ms" yaml:"idle_interval_ms" toml:"idle_interval_ms"`
	ChunkLimit      int    `json:"chunk_limit" yaml:"chunk_limit" toml:"chunk_limit"`
	ChunkPolicy     string `json:"chunk_policy" yaml:"chunk_policy" toml:"chunk_policy"`
	// Timezone renders rate limit reset times, e.g. "America/Los_Angeles".
	Timezone string `json:"timezone" yaml:"timezone" toml:"timezone"`

	// APIKey is the shared credential for remote providers.
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
	MaxBodyBytes       int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	Providers []Provider `json:"providers" yaml:"providers" toml:"providers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. A leading ~ is expanded.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// DefaultProviders are the built-in backends used when the config lists none.
func DefaultProviders() []Provider {
	return []Provider{
		{Name: "ollama", Kind: KindOllama, URL: DefaultOllamaURL, Model: "mistral:latest"},
		{Name: "gemma", Kind: KindOpenRouter, URL: DefaultOpenRouterURL, Model: "google/gemma-3-27b-it:free", ContentParts: true,
			RateLimitHint: "Try again later or try Ollama (local)"},
		{Name: "deepseek", Kind: KindOpenRouter, URL: DefaultOpenRouterURL, Model: "deepseek/deepseek-r1:free",
			RateLimitHint: "Try again later or try Ollama (local)"},
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.DeadlineSeconds <= 0 {
		c.DeadlineSeconds = DefaultDeadlineSeconds
	}
	if c.IdleIntervalMs <= 0 {
		c.IdleIntervalMs = DefaultIdleIntervalMs
	}
	if c.ChunkLimit == 0 {
		c.ChunkLimit = DefaultChunkLimit
	}
	if c.ChunkPolicy == "" {
		c.ChunkPolicy = DefaultChunkPolicy
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if len(c.Providers) == 0 {
		c.Providers = DefaultProviders()
	}
	for i := range c.Providers {
		p := &c.Providers[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
		if p.Kind == "" {
			p.Kind = KindOpenRouter
			if p.Name == KindOllama {
				p.Kind = KindOllama
			}
		}
		if p.URL == "" {
			switch p.Kind {
			case KindOllama:
				p.URL = DefaultOllamaURL
			case KindOpenRouter:
				p.URL = DefaultOpenRouterURL
			}
		}
	}
	if c.CORSEnabled {
		if len(c.CORSAllowedMethods) == 0 {
			c.CORSAllowedMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
		}
		if len(c.CORSAllowedHeaders) == 0 {
			c.CORSAllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-Id", "X-Log-Level"}
		}
	}
}

// ApplyEnv fills APIKey from the environment when the config left it empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if c.APIKey != "" {
		return
	}
	for _, k := range apiKeyEnv {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			c.APIKey = v
			return
		}
	}
}

// KeyFor returns the credential for p: its own key, else the shared one.
func (c Config) KeyFor(p Provider) string {
	if p.APIKey != "" {
		return p.APIKey
	}
	return c.APIKey
}

// Validate reports the first invalid setting. Call after ApplyDefaults.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "trace":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if _, err := chunk.ParsePolicy(c.ChunkPolicy); err != nil {
		return err
	}
	if c.Timezone != "" {
		if _, err := c.Location(); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.Kind != KindOllama && p.Kind != KindOpenRouter {
			return fmt.Errorf("providers[%d]: unknown kind %q", i, p.Kind)
		}
	}
	if !seen[strings.ToLower(strings.TrimSpace(c.Provider))] {
		return fmt.Errorf("provider %q is not configured", c.Provider)
	}
	return nil
}
