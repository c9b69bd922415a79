package configs

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/voice-match/internal/auth"
	"github.com/RyanBlaney/voice-match/pkg/audio/similarity"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, similarity.DefaultWeights(), cfg.Similarity.Weights)
	assert.Equal(t, 0.5, cfg.Engine.MinDuration)
	assert.Equal(t, 0.5, cfg.Engine.ShortPenalty)
	assert.Equal(t, 90.0, cfg.Auth.AcceptThreshold)
	assert.Equal(t, 70.0, cfg.Auth.BorderlineThreshold)
	assert.Equal(t, 3, cfg.Auth.RequiredSamples)
	assert.Equal(t, auth.StrategyNewest, cfg.Auth.Strategy)
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, GetDefaultConfig().Similarity.Weights, cfg.Similarity.Weights)
	assert.Equal(t, 2048, cfg.Features.FFTSize)
	assert.Equal(t, "hann", cfg.Features.Window)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Equal(t, "ffmpeg", cfg.Decoder.FFmpegPath)
}

func TestLoadConfigFrom_Overrides(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
log_level: debug
output_format: json
features:
  fft_size: 1024
  window: hamming
similarity:
  weights:
    waveform: 1
    energy: 0
    zero_crossings: 0
    max_amplitude: 0
    spectral_centroid: 0
    spectral_flatness: 0
auth:
  strategy: best
  accept_threshold: 85
engine:
  short_penalty: 0.25
store:
  in_memory: true
`)))

	cfg, err := LoadConfigFrom(v)
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1024, cfg.Features.FFTSize)
	assert.Equal(t, "hamming", cfg.Features.Window)
	assert.Equal(t, 1.0, cfg.Similarity.Weights.Waveform)
	assert.Zero(t, cfg.Similarity.Weights.Energy)
	assert.Equal(t, auth.StrategyBest, cfg.Auth.Strategy)
	assert.Equal(t, 85.0, cfg.Auth.AcceptThreshold)
	assert.Equal(t, 70.0, cfg.Auth.BorderlineThreshold)
	assert.Equal(t, 0.25, cfg.Engine.ShortPenalty)
	assert.True(t, cfg.Store.InMemory)
}

func TestValidateConfig_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"output format", func(c *Config) { c.OutputFormat = "xml" }},
		{"raw format", func(c *Config) { c.Decoder.RawFormat = "u8" }},
		{"raw rate", func(c *Config) { c.Decoder.RawFormat = "s16le" }},
		{"decoder format", func(c *Config) { c.Decoder.Format = "aiff" }},
		{"forced raw without raw format", func(c *Config) { c.Decoder.Format = "raw" }},
		{"fft size", func(c *Config) { c.Features.FFTSize = 1000 }},
		{"window", func(c *Config) { c.Features.Window = "kaiser" }},
		{"zero weights", func(c *Config) { c.Similarity.Weights = similarity.Weights{} }},
		{"negative weight", func(c *Config) { c.Similarity.Weights.Energy = -1 }},
		{"penalty", func(c *Config) { c.Engine.ShortPenalty = 2 }},
		{"zero penalty", func(c *Config) { c.Engine.ShortPenalty = 0 }},
		{"min duration", func(c *Config) { c.Engine.MinDuration = math.NaN() }},
		{"thresholds", func(c *Config) { c.Auth.BorderlineThreshold = 95 }},
		{"strategy", func(c *Config) { c.Auth.Strategy = "loudest" }},
		{"store location", func(c *Config) { c.DataDir = ""; c.Store.Dir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestStoreDir(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.DataDir = "/var/lib/voice-match"
	assert.Equal(t, filepath.Join("/var/lib/voice-match", "samples"), cfg.StoreDir())

	cfg.Store.Dir = "/srv/samples"
	assert.Equal(t, "/srv/samples", cfg.StoreDir())

	assert.True(t, InMemoryConfig().Store.InMemory)
}
