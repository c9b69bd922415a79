package configs

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/voice-match/internal/auth"
	"github.com/RyanBlaney/voice-match/internal/engine"
	"github.com/RyanBlaney/voice-match/pkg/audio/decode"
	"github.com/RyanBlaney/voice-match/pkg/audio/features"
	"github.com/RyanBlaney/voice-match/pkg/audio/similarity"
)

// AppName names the config file, env prefix and default directories
const AppName = "voice-match"

// EnvPrefix is prepended to environment overrides, e.g. VOICE_MATCH_LOG_LEVEL
const EnvPrefix = "VOICE_MATCH"

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	// Application defaults
	setDefault(v, "verbose", d.Verbose)
	setDefault(v, "log_level", d.LogLevel)
	setDefault(v, "log_file", d.LogFile)
	setDefault(v, "output_format", d.OutputFormat)
	setDefault(v, "data_dir", d.DataDir)

	// Decoder defaults
	setDefault(v, "decoder.ffmpeg_path", d.Decoder.FFmpegPath)
	setDefault(v, "decoder.ffmpeg_sample_rate", d.Decoder.FFmpegSampleRate)
	setDefault(v, "decoder.target_sample_rate", d.Decoder.TargetSampleRate)
	setDefault(v, "decoder.raw_format", d.Decoder.RawFormat)
	setDefault(v, "decoder.raw_sample_rate", d.Decoder.RawSampleRate)
	setDefault(v, "decoder.raw_channels", d.Decoder.RawChannels)
	setDefault(v, "decoder.prefer_transcode", d.Decoder.PreferTranscode)
	setDefault(v, "decoder.format", d.Decoder.Format)

	// Feature extraction defaults
	setDefault(v, "features.fft_size", d.Features.FFTSize)
	setDefault(v, "features.hop_size", d.Features.HopSize)
	setDefault(v, "features.window", d.Features.Window)

	// Similarity weights
	w := d.Similarity.Weights
	setDefault(v, "similarity.weights.waveform", w.Waveform)
	setDefault(v, "similarity.weights.energy", w.Energy)
	setDefault(v, "similarity.weights.zero_crossings", w.ZeroCrossings)
	setDefault(v, "similarity.weights.max_amplitude", w.MaxAmplitude)
	setDefault(v, "similarity.weights.spectral_centroid", w.SpectralCentroid)
	setDefault(v, "similarity.weights.spectral_flatness", w.SpectralFlatness)

	// Engine defaults
	setDefault(v, "engine.min_duration", d.Engine.MinDuration)
	setDefault(v, "engine.short_penalty", d.Engine.ShortPenalty)
	setDefault(v, "engine.max_concurrency", d.Engine.MaxConcurrency)

	// Verification policy defaults
	setDefault(v, "auth.accept_threshold", d.Auth.AcceptThreshold)
	setDefault(v, "auth.borderline_threshold", d.Auth.BorderlineThreshold)
	setDefault(v, "auth.required_samples", d.Auth.RequiredSamples)
	setDefault(v, "auth.strategy", string(d.Auth.Strategy))
	setDefault(v, "auth.phrase", d.Auth.Phrase)

	// Store defaults
	setDefault(v, "store.dir", d.Store.Dir)
	setDefault(v, "store.in_memory", d.Store.InMemory)

	// Metrics defaults
	setDefault(v, "metrics.enabled", d.Metrics.Enabled)
	setDefault(v, "metrics.prefix", d.Metrics.Prefix)
}

func setDefault(v *viper.Viper, key string, value any) {
	if !v.IsSet(key) {
		v.SetDefault(key, value)
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		DataDir:      DefaultDataDir(),

		Decoder:    GetDefaultDecoderConfig(),
		Features:   GetDefaultFeaturesConfig(),
		Similarity: SimilarityConfig{Weights: similarity.DefaultWeights()},
		Engine:     GetDefaultEngineConfig(),
		Auth:       auth.DefaultConfig(),
		Store:      StoreConfig{},
		Metrics:    GetDefaultMetricsConfig(),
	}
}

// DefaultDataDir returns $HOME/.local/share/voice-match, or a relative
// directory when the home directory is unknown
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// DefaultConfigDir returns $HOME/.config/voice-match
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", AppName)
}

// GetDefaultDecoderConfig returns default decoder settings
func GetDefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		FFmpegPath:       "ffmpeg",
		FFmpegSampleRate: decode.DefaultFFmpegSampleRate,
		RawChannels:      1,
	}
}

// GetDefaultFeaturesConfig returns default spectral settings. The hop size
// is left zero so it follows fft_size.
func GetDefaultFeaturesConfig() features.Config {
	c := features.DefaultConfig()
	c.HopSize = 0
	return c
}

// GetDefaultEngineConfig returns default comparison settings
func GetDefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinDuration:  engine.DefaultMinDuration,
		ShortPenalty: engine.DefaultShortPenalty,
	}
}

// GetDefaultMetricsConfig returns default metric settings
func GetDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: false,
		Prefix:  "voicematch",
	}
}

// InMemoryConfig returns defaults with an in-memory store, for one-off runs
func InMemoryConfig() *Config {
	c := GetDefaultConfig()
	c.Store.InMemory = true
	return c
}

// StoreDir resolves the on-disk store location
func (c *Config) StoreDir() string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	return filepath.Join(c.DataDir, "samples")
}
