package common

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the recognized configuration surface. It is decoded from
// TOML, then translated into the explicit option structs each pipeline
// stage actually accepts — stages never read *Config directly.
type Config struct {
	Normalization    NormalizationConfig    `toml:"normalization"`
	Parser           ParserConfig           `toml:"parser"`
	MaxFileSizeMB    int                    `toml:"max_file_size_mb"`
	Validation       ValidationConfig       `toml:"validation"`
	SectionDetection SectionDetectionConfig `toml:"section_detection"`
	LLM              LLMConfig              `toml:"llm"`
	Performance      PerformanceConfig      `toml:"performance"`
	Logging          LoggingConfig          `toml:"logging"`
}

type NormalizationConfig struct {
	BaseCurrency string `toml:"base_currency"`
	BaseScale    string `toml:"base_scale"`
}

type ParserConfig struct {
	Priority       []string `toml:"parser_priority"`
	TimeoutSeconds int      `toml:"parser_timeout"`
	FallbackOnly   bool     `toml:"fallback_only"`
}

type ValidationConfig struct {
	YoYGrowthMax float64 `toml:"yoy_growth_max"`
	YoYGrowthMin float64 `toml:"yoy_growth_min"`
	MarginMax    float64 `toml:"margin_max"`
	MarginMin    float64 `toml:"margin_min"`
}

type SectionDetectionConfig struct {
	RegexWeight         float64 `toml:"regex_weight"`
	EmbeddingWeight     float64 `toml:"embedding_weight"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	EmbeddingEnabled    bool    `toml:"embedding_enabled"`
	EmbeddingURL        string  `toml:"embedding_url"`
	EmbeddingModel      string  `toml:"embedding_model"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	TimeoutSecs int     `toml:"timeout"`
	MaxRetries  int     `toml:"max_retries"`
}

type PerformanceConfig struct {
	ParallelProcessing bool `toml:"parallel_processing"`
	MaxWorkers         int  `toml:"max_workers"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// defaults are typed constants applied by a single pass after decode,
// never scattered as magic values in callers.
const (
	DefaultBaseCurrency        = "GBP"
	DefaultBaseScale           = "millions"
	DefaultParserTimeoutSecs   = 30
	DefaultMaxFileSizeMB       = 50
	DefaultYoYGrowthMin        = -0.5
	DefaultYoYGrowthMax        = 2.0
	DefaultMarginMin           = -1.0
	DefaultMarginMax           = 1.0
	DefaultRegexWeight         = 0.7
	DefaultEmbeddingWeight     = 0.3
	DefaultSimilarityThreshold = 0.6
	DefaultLLMModel            = "claude-sonnet-4-20250514"
	DefaultLLMTemperature      = 0.0
	DefaultLLMMaxTokens        = 2048
	DefaultLLMTimeoutSecs      = 30
	DefaultLLMMaxRetries       = 2
	DefaultMaxWorkers          = 4
)

var DefaultParserPriority = []string{"adapter-a", "adapter-b", "adapter-c"}

// DefaultConfig returns a Config with every field at its documented
// default, for callers running without a configuration file.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads and decodes a TOML configuration file, applying defaults
// to any field left unset. Configuration loading is a CLI convenience —
// pipeline stages never call this themselves.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Normalization.BaseCurrency == "" {
		c.Normalization.BaseCurrency = DefaultBaseCurrency
	}
	if c.Normalization.BaseScale == "" {
		c.Normalization.BaseScale = DefaultBaseScale
	}
	if len(c.Parser.Priority) == 0 {
		c.Parser.Priority = append([]string{}, DefaultParserPriority...)
	}
	if c.Parser.TimeoutSeconds == 0 {
		c.Parser.TimeoutSeconds = DefaultParserTimeoutSecs
	}
	if c.MaxFileSizeMB == 0 {
		c.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if c.Validation.YoYGrowthMin == 0 && c.Validation.YoYGrowthMax == 0 {
		c.Validation.YoYGrowthMin = DefaultYoYGrowthMin
		c.Validation.YoYGrowthMax = DefaultYoYGrowthMax
	}
	if c.Validation.MarginMin == 0 && c.Validation.MarginMax == 0 {
		c.Validation.MarginMin = DefaultMarginMin
		c.Validation.MarginMax = DefaultMarginMax
	}
	if c.SectionDetection.RegexWeight == 0 {
		c.SectionDetection.RegexWeight = DefaultRegexWeight
	}
	if c.SectionDetection.EmbeddingWeight == 0 {
		c.SectionDetection.EmbeddingWeight = DefaultEmbeddingWeight
	}
	if c.SectionDetection.SimilarityThreshold == 0 {
		c.SectionDetection.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultLLMMaxTokens
	}
	if c.LLM.TimeoutSecs == 0 {
		c.LLM.TimeoutSecs = DefaultLLMTimeoutSecs
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = DefaultLLMMaxRetries
	}
	if c.Performance.MaxWorkers == 0 {
		c.Performance.MaxWorkers = DefaultMaxWorkers
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
