package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		CronSecret      string        `yaml:"cron_secret"`
		AllowOrigins    []string      `yaml:"allow_origins"`
		LaunchPerMinute float64       `yaml:"launch_per_minute" default:"6"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type" default:"memory"` // clickhouse or memory
	} `yaml:"backend"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fxbias"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix" default:"fxbias"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"5m"`
		LockTTL  time.Duration `yaml:"lock_ttl" default:"2h"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic" default:"fxbias.events"`
		TriggerTopic string   `yaml:"trigger_topic" default:"fxbias.trigger"`
		OpsTopic     string   `yaml:"ops_topic" default:"fxbias.ops"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchSize    int           `yaml:"batch_size" default:"10"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"fxbias"`
			RetryMax   int           `yaml:"retry_max" default:"2"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Gemini struct {
		APIKey            string        `yaml:"api_key"`
		Model             string        `yaml:"model" default:"gemini-2.5-flash"`
		Timeout           time.Duration `yaml:"timeout" default:"90s"`
		RequestsPerMinute int           `yaml:"requests_per_minute" default:"30"`
	} `yaml:"gemini"`
	AlphaVantage struct {
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
		Timeout           time.Duration `yaml:"timeout" default:"20s"`
		RequestsPerMinute int           `yaml:"requests_per_minute" default:"75"`
	} `yaml:"alphavantage"`
	Scraper struct {
		Mode      string        `yaml:"mode" default:"chrome"` // chrome or http
		Headless  bool          `yaml:"headless" default:"true"`
		NoSandbox bool          `yaml:"no_sandbox" default:"true"`
		Timeout   time.Duration `yaml:"timeout" default:"45s"`
		Settle    time.Duration `yaml:"settle" default:"2s"`
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"`
		MemoTTL   time.Duration `yaml:"memo_ttl" default:"30m"`
	} `yaml:"scraper"`
	Analysis struct {
		Currencies      []string `yaml:"currencies"`
		MaxContentChars int      `yaml:"max_content_chars" default:"15000"`
		EventStreamURL  string   `yaml:"event_stream_url" default:"https://tradingeconomics.com/ws/stream.ashx?start=0&size=20"`
		CatalogPath     string   `yaml:"catalog_path"`
		Schedule        string   `yaml:"schedule"`
	} `yaml:"analysis"`
}

// Load reads and parses a YAML configuration file. Missing keys take their struct defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overlays environment values onto c. getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	} else if v := getenv("API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := getenv("CRON_SECRET"); v != "" {
		c.Server.CronSecret = v
	}
	if v := getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("CURRENCIES"); v != "" {
		c.Analysis.Currencies = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type != "clickhouse" && c.Backend.Type != "memory" {
		return fmt.Errorf("backend.type must be 'clickhouse' or 'memory', got '%s'", c.Backend.Type)
	}
	if c.Scraper.Mode != "chrome" && c.Scraper.Mode != "http" {
		return fmt.Errorf("scraper.mode must be 'chrome' or 'http', got '%s'", c.Scraper.Mode)
	}
	if c.Analysis.MaxContentChars <= 0 {
		return fmt.Errorf("analysis.max_content_chars must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Gemini.Model == "" {
		return fmt.Errorf("gemini.model is required")
	}
	return nil
}
