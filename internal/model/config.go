package model

import "time"

// Config holds the complete lifestory configuration
type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset" mapstructure:"dataset"`
	Selection   SelectionConfig   `yaml:"selection" mapstructure:"selection"`
	Render      RenderConfig      `yaml:"render" mapstructure:"render"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DatasetConfig locates and decodes the source CSV. Path may be an
// http(s) URL, fetched once into the cache directory.
type DatasetConfig struct {
	Path         string        `yaml:"path" mapstructure:"path"`
	Encoding     string        `yaml:"encoding" mapstructure:"encoding"` // IANA charset name
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	MaxBytes     int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// SelectionConfig bounds the birth year selector
type SelectionConfig struct {
	MinYear     int `yaml:"min_year" mapstructure:"min_year"`
	MaxYear     int `yaml:"max_year" mapstructure:"max_year"`
	DefaultYear int `yaml:"default_year" mapstructure:"default_year"`
}

// RenderConfig controls the generated story markup
type RenderConfig struct {
	Width     int    `yaml:"width" mapstructure:"width"`
	Height    int    `yaml:"height" mapstructure:"height"`
	PlayerURL string `yaml:"player_url" mapstructure:"player_url"` // vizzu-story ES module
	Tooltip   bool   `yaml:"tooltip" mapstructure:"tooltip"`
}

// CacheConfig controls the parsed-dataset cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ServerConfig controls the interactive HTTP surface
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // per client
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	TrustProxy        bool          `yaml:"trust_proxy" mapstructure:"trust_proxy"` // key clients by X-Forwarded-For
}

// ConcurrencyConfig controls batch generation
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LLMConfig controls optional narrative generation
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls where generated files go
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:         "Data.csv",
			Encoding:     "ISO-8859-1",
			FetchTimeout: 30 * time.Second,
			MaxBytes:     64 << 20,
			UserAgent:    "lifestory/1.0",
		},
		Selection: SelectionConfig{
			MinYear:     1950,
			MaxYear:     2024,
			DefaultYear: 1980,
		},
		Render: RenderConfig{
			Width:     600,
			Height:    450,
			PlayerURL: "https://cdn.jsdelivr.net/npm/vizzu-story@0.7/dist/vizzu-story.min.js",
			Tooltip:   true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".lifestory-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:              ":8501",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			RequestsPerSecond: 5,
			BurstSize:         10,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 300,
		},
		Output: OutputConfig{
			Dir:      ".",
			LogLevel: "info",
		},
	}
}
