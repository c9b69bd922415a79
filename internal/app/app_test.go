package app

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/voice-match/configs"
	"github.com/RyanBlaney/voice-match/internal/auth"
	"github.com/RyanBlaney/voice-match/pkg/audio/common"
	"github.com/RyanBlaney/voice-match/pkg/audio/decode"
	"github.com/RyanBlaney/voice-match/pkg/audio/signal"
)

const testRate = 16000

func writeWAV(t *testing.T, dir, name string, buf *common.PCMBuffer) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, decode.EncodeWAV(f, buf))
	require.NoError(t, f.Close())
	return path
}

func newTestApp(t *testing.T, out *bytes.Buffer) *App {
	t.Helper()

	cfg := configs.InMemoryConfig()
	cfg.OutputFormat = "json"

	a, err := NewApp(&Context{Config: cfg, Stdout: out})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "voice-match.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
output_format: yaml
auth:
  strategy: mean
features:
  fft_size: 512
`), 0644))

	cfg, err := LoadConfigFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.OutputFormat)
	assert.Equal(t, auth.StrategyMean, cfg.Auth.Strategy)
	assert.Equal(t, 512, cfg.Features.FFTSize)
	assert.Equal(t, 90.0, cfg.Auth.AcceptThreshold)
	require.NoError(t, configs.ValidateConfig(cfg))

	jsonPath := filepath.Join(dir, "voice-match.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"log_level": "debug", "engine": {"short_penalty": 0.3}}`), 0644))

	cfg, err = LoadConfigFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.3, cfg.Engine.ShortPenalty)
	assert.Equal(t, 0.5, cfg.Engine.MinDuration)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteConfigFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "voice-match.yaml")

	in := configs.GetDefaultConfig()
	in.Auth.Strategy = auth.StrategyBest
	in.Similarity.Weights.Waveform = 0.5
	require.NoError(t, WriteConfigFile(path, in))

	out, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	cfg := configs.InMemoryConfig()
	cfg.Auth.BorderlineThreshold = 99

	_, err := NewApp(&Context{Config: cfg})
	assert.Error(t, err)
}

func TestApp_CompareAndOutput(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, &out)
	dir := t.TempDir()

	tone := writeWAV(t, dir, "tone.wav", signal.Tone(200, 1, 1, testRate))
	quiet := writeWAV(t, dir, "quiet.wav", signal.Tone(200, 0.5, 1, testRate))
	silence := writeWAV(t, dir, "silence.wav", signal.Silence(1, testRate))

	comparisons, err := a.Compare(context.Background(), tone, quiet)
	require.NoError(t, err)
	require.Len(t, comparisons, 1)
	assert.GreaterOrEqual(t, comparisons[0].Score, 85.0)

	comparisons, err = a.Compare(context.Background(), tone, quiet, silence)
	require.NoError(t, err)
	require.Len(t, comparisons, 2)
	assert.LessOrEqual(t, comparisons[1].Score, 20.0)

	_, err = a.Compare(context.Background(), tone)
	assert.Error(t, err)

	require.NoError(t, a.Output(ComparisonReport(comparisons[0], false)))
	assert.Contains(t, out.String(), `"score"`)
	assert.Contains(t, out.String(), `"penalty_applied"`)
}

func TestApp_EnrollAndVerify(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, &out)
	ctx := context.Background()
	dir := t.TempDir()

	clip := writeWAV(t, dir, "clip.wav", signal.Mix(
		signal.Tone(180, 0.6, 1, testRate),
		signal.Noise(0.05, 1, testRate, 3),
	))

	for i := 0; i < auth.DefaultRequiredSamples; i++ {
		_, err := a.Enroll(ctx, "alice", "", clip)
		require.NoError(t, err)
	}

	decision, err := a.Verify(ctx, "alice", clip)
	require.NoError(t, err)
	assert.Equal(t, auth.VerdictAccepted, decision.Verdict)

	report := DecisionReport(decision)
	assert.Equal(t, "Accepted", report["verdict"])
	assert.Equal(t, auth.MessageAccepted, report["message"])

	_, err = a.Verify(ctx, "bob", clip)
	assert.ErrorIs(t, err, auth.ErrNotEnrolled)
}

func TestApp_ReadAudioFromStdin(t *testing.T) {
	cfg := configs.InMemoryConfig()
	a, err := NewApp(&Context{Config: cfg, Stdin: bytes.NewReader([]byte("pcm"))})
	require.NoError(t, err)

	data, err := a.ReadAudio("-")
	require.NoError(t, err)
	assert.Equal(t, []byte("pcm"), data)

	_, err = a.ReadAudio(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestApp_OutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "out.json")
	cfg := configs.InMemoryConfig()
	cfg.OutputFormat = "json"

	a, err := NewApp(&Context{Config: cfg, OutputFile: path})
	require.NoError(t, err)
	require.NoError(t, a.Output(map[string]any{"score": 42.0}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "42")
}

func TestSanitizeForJSON(t *testing.T) {
	type inner struct {
		Value  float64 `json:"value"`
		Hidden string  `json:"-"`
	}

	got := sanitizeForJSON(map[string]any{
		"nan":    math.NaN(),
		"inf":    math.Inf(1),
		"ok":     1.5,
		"slice":  []float64{1, math.Inf(-1)},
		"struct": &inner{Value: math.NaN(), Hidden: "x"},
	}).(map[string]any)

	assert.Equal(t, 0.0, got["nan"])
	assert.Equal(t, 0.0, got["inf"])
	assert.Equal(t, 1.5, got["ok"])
	assert.Equal(t, []float64{1, 0}, got["slice"])
	assert.Equal(t, map[string]any{"value": 0.0}, got["struct"])
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		ctx      Context
		level    string
		format   string
		verbose  bool
		expected string
	}{
		{"table keeps info", Context{}, "info", "table", false, "info"},
		{"json drops info", Context{}, "info", "json", false, "warn"},
		{"csv drops info", Context{}, "info", "csv", false, "warn"},
		{"explicit debug wins over json", Context{}, "debug", "json", false, "debug"},
		{"warning alias", Context{}, "WARNING", "table", false, "warn"},
		{"error level", Context{}, "error", "table", false, "error"},
		{"verbose", Context{}, "info", "json", true, "debug"},
		{"quiet beats verbose", Context{Quiet: true}, "debug", "table", true, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configs.GetDefaultConfig()
			cfg.LogLevel = tt.level
			cfg.OutputFormat = tt.format
			cfg.Verbose = tt.verbose

			ctx := tt.ctx
			assert.Equal(t, tt.expected, logLevel(&ctx, cfg))
		})
	}
}
