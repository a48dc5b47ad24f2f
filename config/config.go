package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/recembed/ai"
	"github.com/poiesic/recembed/source"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory by LoadDefault.
const DefaultFileName = "recembed.yaml"

// EmbedderConfig configures the OpenAI-compatible embedding service.
type EmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// PipelineConfig configures record loading and the embedding loop.
type PipelineConfig struct {
	ContentField   string        `yaml:"content_field"`
	DataField      string        `yaml:"data_field"`
	CSVDelimiter   string        `yaml:"csv_delimiter"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	SkipFailed     bool          `yaml:"skip_failed"`
	ReportInterval int           `yaml:"report_interval"`
}

// SinkConfig selects where embeddings go besides the pipeline itself.
type SinkConfig struct {
	Quiet bool   `yaml:"quiet"` // suppress console output
	JSONL string `yaml:"jsonl"` // JSON Lines output file
	Store string `yaml:"store"` // BadgerDB directory
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sinks    SinkConfig     `yaml:"sinks"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./recembed.yaml first, then ~/.config/recembed/config.yaml.
// If neither exists it returns defaults and an empty path.
func LoadDefault() (*AppConfig, string, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		cfg, err := Load(DefaultFileName)
		return cfg, DefaultFileName, err
	}
	userPath, err := defaultUserConfigPath()
	if err == nil {
		if _, statErr := os.Stat(userPath); statErr == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	return defaultConfig(), "", nil
}

// Validate checks values that defaults cannot repair.
func (c *AppConfig) Validate() error {
	if _, err := c.Pipeline.Comma(); err != nil {
		return err
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("config: pipeline.max_attempts must be at least 1")
	}
	if c.Pipeline.RetryDelay < 0 {
		return fmt.Errorf("config: pipeline.retry_delay must not be negative")
	}
	if c.Embedder.TimeoutSecs < 0 {
		return fmt.Errorf("config: embedder.timeout_secs must not be negative")
	}
	if c.Embedder.RequestsPerSecond < 0 {
		return fmt.Errorf("config: embedder.requests_per_second must not be negative")
	}
	return nil
}

// Comma returns the CSV delimiter as a rune.
func (p PipelineConfig) Comma() (rune, error) {
	if p.CSVDelimiter == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(p.CSVDelimiter)
	if size != len(p.CSVDelimiter) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("config: pipeline.csv_delimiter %q must be a single character other than a quote or line break", p.CSVDelimiter)
	}
	return r, nil
}

// SourceOptions converts the pipeline section to record source options.
func (p PipelineConfig) SourceOptions() (source.Options, error) {
	comma, err := p.Comma()
	if err != nil {
		return source.Options{}, err
	}
	return source.Options{
		ContentField: p.ContentField,
		DataField:    p.DataField,
		Comma:        comma,
	}, nil
}

// AIConfig builds the embedding client configuration carrying apiKey.
func (e EmbedderConfig) AIConfig(apiKey string) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(e.BaseURL),
		ai.WithEmbeddingModel(e.Model),
		ai.WithAPIKey(apiKey),
		ai.WithTimeout(time.Duration(e.TimeoutSecs)*time.Second),
		ai.WithRequestsPerSecond(e.RequestsPerSecond),
	)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "recembed", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	cfg.Pipeline.ContentField = strings.TrimSpace(cfg.Pipeline.ContentField)
	if cfg.Pipeline.ContentField == "" {
		cfg.Pipeline.ContentField = source.DefaultContentField
	}
	if cfg.Pipeline.DataField == "" {
		cfg.Pipeline.DataField = source.DefaultDataField
	}
	if cfg.Pipeline.CSVDelimiter == "" {
		cfg.Pipeline.CSVDelimiter = ","
	}
	if cfg.Pipeline.MaxAttempts == 0 {
		cfg.Pipeline.MaxAttempts = 1
	}
	if cfg.Pipeline.RetryDelay == 0 {
		cfg.Pipeline.RetryDelay = time.Second
	}
	if cfg.Pipeline.ReportInterval <= 0 {
		cfg.Pipeline.ReportInterval = 1
	}
}
