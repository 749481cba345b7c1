package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfiguration marks configuration problems that must stop the process at startup
var ErrConfiguration = errors.New("configuration error")

// Config is the single configuration object handed to every component
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Debate       DebateConfig       `yaml:"debate" mapstructure:"debate"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Kafka        KafkaConfig        `yaml:"kafka" mapstructure:"kafka"`
	Research     ResearchConfig     `yaml:"research" mapstructure:"research"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the generation provider
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`                       // openai, anthropic, ollama
	Model             string  `yaml:"model" mapstructure:"model"`                             // Text model
	VisionModel       string  `yaml:"vision_model" mapstructure:"vision_model"`               // Model used to read ticket images
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`               // Prefer OPENAI_API_KEY / ANTHROPIC_API_KEY
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`             // Custom endpoint
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"`                         // Seconds per generation call
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`                   // Extraction, context, summary calls
	ArgumentMaxTokens int     `yaml:"argument_max_tokens" mapstructure:"argument_max_tokens"` // Debate turns
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// DebateConfig configures the turn loop
type DebateConfig struct {
	MaxRoundsPerSide int `yaml:"max_rounds_per_side" mapstructure:"max_rounds_per_side"`

	// MaxRoundsOverride bounds the per-submission rounds override
	MaxRoundsOverride int `yaml:"max_rounds_override" mapstructure:"max_rounds_override"`
}

// CacheConfig configures extraction and context caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig configures transcript persistence
type StoreConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"` // none, file, redis
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix" mapstructure:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// KafkaConfig configures the transcript event stream
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" mapstructure:"enabled"`
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
}

// ResearchConfig configures context gathering
type ResearchConfig struct {
	// LawURLTemplate is an optional municipal code URL with {city} and
	// {violation_code} placeholders. Empty disables web lookups.
	LawURLTemplate string        `yaml:"law_url_template" mapstructure:"law_url_template"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes       int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RateLimitingConfig throttles generation calls per provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string `yaml:"addr" mapstructure:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-4o",
			VisionModel:       "gpt-4o",
			Timeout:           30,
			MaxTokens:         1000,
			ArgumentMaxTokens: 400,
			Temperature:       0.3,
		},
		Debate: DebateConfig{
			MaxRoundsPerSide:  5,
			MaxRoundsOverride: 10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".ticketdebate/cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Backend:     "file",
			Dir:         ".ticketdebate/history",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "ticketdebate:transcript:",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "ticket-debate-turns",
		},
		Research: ResearchConfig{
			UserAgent: "TicketDebate/0.1 (+https://github.com/ppiankov/ticketdebate)",
			MaxBytes:  2_000_000,
			Timeout:   15 * time.Second,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration before any generation call is made.
// Every returned error wraps ErrConfiguration.
func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "anthropic", "claude":
		if c.LLM.APIKey == "" {
			problems = append(problems, fmt.Sprintf("missing API key for provider %q", c.LLM.Provider))
		}
	case "ollama":
		if c.LLM.Model == "" {
			problems = append(problems, "ollama requires llm.model")
		}
	case "":
		problems = append(problems, "llm.provider is required")
	default:
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q (supported: openai, anthropic, ollama)", c.LLM.Provider))
	}

	if c.Debate.MaxRoundsPerSide < 1 {
		problems = append(problems, "debate.max_rounds_per_side must be positive")
	}
	if c.Debate.MaxRoundsOverride < 1 {
		problems = append(problems, "debate.max_rounds_override must be positive")
	}

	switch c.Store.Backend {
	case "", "none", "file", "redis":
	default:
		problems = append(problems, fmt.Sprintf("unknown store.backend %q (supported: none, file, redis)", c.Store.Backend))
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		problems = append(problems, "store.redis_addr is required for the redis backend")
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		problems = append(problems, "kafka.brokers and kafka.topic are required when kafka is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
