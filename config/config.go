// Package config loads gleaner settings from YAML, .env files and the environment.
//
// Values are resolved in this order, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. The YAML file named by the caller or by GLEANER_CONFIG
//  3. Environment variables, after .env.local and .env are loaded
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/gleaner/ai"
	"github.com/poiesic/gleaner/ingestion"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "GLEANER_CONFIG"
	dbPathEnv         = "GLEANER_DB_PATH"
	embeddingHostEnv  = "GLEANER_EMBEDDING_HOST"
	embeddingModelEnv = "GLEANER_EMBEDDING_MODEL"
	embeddingTokenEnv = "GLEANER_EMBEDDING_TOKEN"
	listenAddrEnv     = "GLEANER_LISTEN_ADDR"
	tavilyAPIKeyEnv   = "TAVILY_API_KEY"
	envFileEnv        = "ENV_FILE"
)

var (
	ErrDBPathRequired     = errors.New("config: dbPath is required")
	ErrListenAddrRequired = errors.New("config: listenAddr is required")
	ErrInvalidThreshold   = errors.New("config: thresholds must be between 0 and 1")
)

// Config is the complete gleaner configuration.
type Config struct {
	DBPath     string               `yaml:"dbPath"`
	ListenAddr string               `yaml:"listenAddr"`
	Embedding  EmbeddingConfig      `yaml:"embedding"`
	Thresholds ingestion.Thresholds `yaml:"thresholds"`
	Pipeline   PipelineConfig       `yaml:"pipeline"`
	Scheduler  SchedulerConfig      `yaml:"scheduler"`
	Arxiv      ArxivConfig          `yaml:"arxiv"`
	Tavily     TavilyConfig         `yaml:"tavily"`
}

// EmbeddingConfig points at an OpenAI-compatible embedding service.
type EmbeddingConfig struct {
	Host    string        `yaml:"host"`
	Model   string        `yaml:"model"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// PipelineConfig tunes batch processing and storage retries.
type PipelineConfig struct {
	PoolSize     int           `yaml:"poolSize"`
	StoreRetries int           `yaml:"storeRetries"`
	RetryDelay   time.Duration `yaml:"retryDelay"`
}

// SchedulerConfig tunes recurring collection jobs.
type SchedulerConfig struct {
	BatchSize int `yaml:"batchSize"`
	PoolSize  int `yaml:"poolSize"`
}

// ArxivConfig configures the arXiv collector.
type ArxivConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

// TavilyConfig configures the web collector. An empty APIKey disables it.
type TavilyConfig struct {
	APIKey     string `yaml:"apiKey"`
	BaseURL    string `yaml:"baseUrl"`
	MaxResults int    `yaml:"maxResults"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		DBPath:     "gleaner.db",
		ListenAddr: ":8080",
		Embedding: EmbeddingConfig{
			Host:    aiDefaults.Host,
			Model:   aiDefaults.Model,
			Token:   aiDefaults.Token,
			Timeout: aiDefaults.Timeout,
		},
		Thresholds: ingestion.DefaultThresholds(),
		Pipeline: PipelineConfig{
			PoolSize:     4,
			StoreRetries: 3,
			RetryDelay:   500 * time.Millisecond,
		},
		Scheduler: SchedulerConfig{
			BatchSize: 3,
			PoolSize:  4,
		},
		Arxiv: ArxivConfig{
			BaseURL: "http://export.arxiv.org/api/query",
		},
		Tavily: TavilyConfig{
			BaseURL:    "https://api.tavily.com/search",
			MaxResults: 8,
		},
	}
}

// Load builds a Config. An empty path falls back to GLEANER_CONFIG, and when
// neither is set only defaults and the environment are used.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// godotenv never overrides variables that are already set, so the first
// file to define a key wins.
func loadEnvFiles() error {
	if envFile := os.Getenv(envFileEnv); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.DBPath, dbPathEnv)
	setString(&c.ListenAddr, listenAddrEnv)
	setString(&c.Embedding.Host, embeddingHostEnv)
	setString(&c.Embedding.Model, embeddingModelEnv)
	setString(&c.Embedding.Token, embeddingTokenEnv)
	setString(&c.Tavily.APIKey, tavilyAPIKeyEnv)
	setInt(&c.Scheduler.BatchSize, "GLEANER_SCHEDULER_BATCH_SIZE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks required settings and threshold ranges.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return ErrDBPathRequired
	}
	if c.ListenAddr == "" {
		return ErrListenAddrRequired
	}
	for _, t := range []float64{c.Thresholds.Paper, c.Thresholds.Web, c.Thresholds.Other} {
		if t < 0 || t > 1 {
			return fmt.Errorf("%w: got %v", ErrInvalidThreshold, t)
		}
	}
	return c.AIConfig().Validate()
}

// AIConfig converts the embedding settings into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return &ai.Config{
		Host:    c.Embedding.Host,
		Model:   c.Embedding.Model,
		Token:   c.Embedding.Token,
		Timeout: c.Embedding.Timeout,
	}
}
