package configs

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/voice-match/internal/auth"
	"github.com/RyanBlaney/voice-match/pkg/audio/common"
	"github.com/RyanBlaney/voice-match/pkg/audio/features"
	"github.com/RyanBlaney/voice-match/pkg/audio/similarity"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`

	Decoder    DecoderConfig    `mapstructure:"decoder" yaml:"decoder"`
	Features   features.Config  `mapstructure:"features" yaml:"features"`
	Similarity SimilarityConfig `mapstructure:"similarity" yaml:"similarity"`
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Auth       auth.Config      `mapstructure:"auth" yaml:"auth"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// DecoderConfig contains decoding and resampling settings
type DecoderConfig struct {
	FFmpegPath       string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFmpegSampleRate int    `mapstructure:"ffmpeg_sample_rate" yaml:"ffmpeg_sample_rate"`
	// TargetSampleRate resamples every decoded buffer when positive
	TargetSampleRate int `mapstructure:"target_sample_rate" yaml:"target_sample_rate"`
	// RawFormat enables the headerless decoder (s16le or f32le) when set
	RawFormat       string `mapstructure:"raw_format" yaml:"raw_format"`
	RawSampleRate   int    `mapstructure:"raw_sample_rate" yaml:"raw_sample_rate"`
	RawChannels     int    `mapstructure:"raw_channels" yaml:"raw_channels"`
	PreferTranscode bool   `mapstructure:"prefer_transcode" yaml:"prefer_transcode"`
	// Format skips container detection and decodes every input as this format
	Format string `mapstructure:"format" yaml:"format"`
}

// SimilarityConfig contains scoring settings
type SimilarityConfig struct {
	Weights similarity.Weights `mapstructure:"weights" yaml:"weights"`
}

// EngineConfig contains comparison settings
type EngineConfig struct {
	// MinDuration is in seconds. Zero selects the engine default and a
	// negative value turns the short recording penalty off.
	MinDuration    float64 `mapstructure:"min_duration" yaml:"min_duration"`
	ShortPenalty   float64 `mapstructure:"short_penalty" yaml:"short_penalty"`
	MaxConcurrency int     `mapstructure:"max_concurrency" yaml:"max_concurrency"`
}

// StoreConfig contains enrollment store settings
type StoreConfig struct {
	// Dir defaults to <data_dir>/samples
	Dir      string `mapstructure:"dir" yaml:"dir"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

// MetricsConfig contains metric emission settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Prefix  string `mapstructure:"prefix" yaml:"prefix"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom loads configuration from v, filling unset keys with defaults
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %q", config.LogLevel)
	}

	switch config.OutputFormat {
	case "json", "yaml", "csv", "table":
	default:
		return fmt.Errorf("unknown output format: %q", config.OutputFormat)
	}

	if config.Decoder.TargetSampleRate < 0 {
		return fmt.Errorf("decoder target sample rate cannot be negative")
	}
	if config.Decoder.FFmpegSampleRate < 0 {
		return fmt.Errorf("decoder ffmpeg sample rate cannot be negative")
	}
	if config.Decoder.RawFormat != "" {
		switch config.Decoder.RawFormat {
		case "s16le", "f32le":
		default:
			return fmt.Errorf("unknown raw format: %q", config.Decoder.RawFormat)
		}
		if config.Decoder.RawSampleRate <= 0 {
			return fmt.Errorf("raw sample rate must be positive when raw format is set")
		}
		if config.Decoder.RawChannels < 0 {
			return fmt.Errorf("raw channels cannot be negative")
		}
	}

	if name := config.Decoder.Format; name != "" {
		format := common.ParseFormat(strings.ToLower(name))
		if format == common.FormatUnknown {
			return fmt.Errorf("unknown decoder format: %q", name)
		}
		if format == common.FormatRaw && config.Decoder.RawFormat == "" {
			return fmt.Errorf("decoder format raw needs raw_format")
		}
	}

	if err := config.Features.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("invalid features configuration: %w", err)
	}

	if err := config.Similarity.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid similarity weights: %w", err)
	}

	if math.IsNaN(config.Engine.MinDuration) {
		return fmt.Errorf("engine min duration must be a number")
	}
	if config.Engine.ShortPenalty <= 0 || config.Engine.ShortPenalty > 1 {
		return fmt.Errorf("engine short penalty must be in (0, 1]")
	}
	if config.Engine.MaxConcurrency < 0 {
		return fmt.Errorf("engine max concurrency cannot be negative")
	}

	if err := config.Auth.Validate(); err != nil {
		return fmt.Errorf("invalid auth configuration: %w", err)
	}

	if !config.Store.InMemory && config.Store.Dir == "" && config.DataDir == "" {
		return fmt.Errorf("store dir or data dir is required unless the store is in memory")
	}

	return nil
}
