package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/voice-match/configs"
	"github.com/RyanBlaney/voice-match/internal/engine"
	"github.com/RyanBlaney/voice-match/internal/store"
	"github.com/RyanBlaney/voice-match/pkg/audio/decode"
	"github.com/RyanBlaney/voice-match/pkg/audio/features"
	"github.com/RyanBlaney/voice-match/pkg/audio/similarity"
)

// LoadConfigFile reads a YAML or JSON config file on top of the defaults
func LoadConfigFile(filePath string) (*configs.Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// JSON documents are valid YAML, so one decoder covers both
	config := configs.GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return config, nil
}

// WriteConfigFile writes config as YAML, creating parent directories
func WriteConfigFile(filePath string, config *configs.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// NewDecoder builds the decoder factory described by cfg
func NewDecoder(cfg configs.DecoderConfig, logger logging.Logger) (*decode.Factory, error) {
	factoryCfg := decode.FactoryConfig{
		FFmpegPath:       cfg.FFmpegPath,
		FFmpegSampleRate: cfg.FFmpegSampleRate,
		TargetSampleRate: cfg.TargetSampleRate,
		PreferTranscode:  cfg.PreferTranscode,
		Format:           cfg.Format,
		Logger:           logger,
	}
	if cfg.RawFormat != "" {
		factoryCfg.Raw = &decode.RawConfig{
			Encoding:   cfg.RawFormat,
			SampleRate: cfg.RawSampleRate,
			Channels:   cfg.RawChannels,
		}
	}
	return decode.NewFactoryWithConfig(factoryCfg)
}

// NewEngine builds the comparison engine described by cfg
func NewEngine(cfg *configs.Config, logger logging.Logger) (*engine.Engine, error) {
	decoder, err := NewDecoder(cfg.Decoder, logger)
	if err != nil {
		return nil, err
	}

	extractor, err := features.NewExtractor(cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature extractor: %w", err)
	}

	scorer, err := similarity.NewScorer(cfg.Similarity.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}

	return engine.NewEngine(&engine.EngineConfig{
		Decoder:        decoder,
		Extractor:      extractor,
		Scorer:         scorer,
		MinDuration:    cfg.Engine.MinDuration,
		ShortPenalty:   cfg.Engine.ShortPenalty,
		MaxConcurrency: cfg.Engine.MaxConcurrency,
		Logger:         logger,
	})
}

// OpenStore opens the enrollment store described by cfg
func OpenStore(cfg *configs.Config, logger logging.Logger) (store.Store, error) {
	if cfg.Store.InMemory {
		return store.NewBadger(store.BadgerOptions{InMemory: true, Logger: logger})
	}

	dir := cfg.StoreDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return store.NewBadger(store.BadgerOptions{Dir: dir, Logger: logger})
}
