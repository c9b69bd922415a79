package features

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
	"github.com/RyanBlaney/voice-match/pkg/audio/signal"
)

const testRate = 16000

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultConfig())
	require.NoError(t, err)
	return e
}

func requireFinite(t *testing.T, f AudioFeatures) {
	t.Helper()
	for i, v := range f.Waveform {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "waveform[%d] = %v", i, v)
	}
	for name, v := range map[string]float64{
		"energy":   f.Energy,
		"zcr":      f.ZeroCrossings,
		"max":      f.MaxAmplitude,
		"centroid": f.SpectralCentroid,
		"flatness": f.SpectralFlatness,
		"duration": f.Duration,
	} {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s = %v", name, v)
	}
}

func TestWaveformLengthIsPinned(t *testing.T) {
	assert.Equal(t, 128, WaveformLength)

	e := newTestExtractor(t)
	tone := signal.Tone(300, 0.7, 4, testRate)
	for _, n := range []int{1, 7, 127, 128, 129, 1000, 48000} {
		require.GreaterOrEqual(t, tone.Len(), n)
		buf := &common.PCMBuffer{Samples: tone.Samples[:n], SampleRate: testRate}
		f, err := e.Extract(buf)
		require.NoError(t, err)
		assert.Len(t, f.Waveform, WaveformLength, "input of %d samples", n)
	}
}

func TestWaveformSummary(t *testing.T) {
	t.Run("peak normalised", func(t *testing.T) {
		x := make([]float64, 256)
		for i := range x {
			x[i] = -0.25
		}
		x[0], x[1] = 0.5, 0.5

		w := waveformSummary(x)
		assert.InDelta(t, 1.0, w[0], 1e-12)
		assert.InDelta(t, 0.5, w[1], 1e-12)
		assert.InDelta(t, 0.5, w[127], 1e-12)
	})

	t.Run("short input repeats nearest sample", func(t *testing.T) {
		w := waveformSummary([]float64{0.2, -0.4})
		assert.InDelta(t, 0.5, w[0], 1e-12)
		assert.InDelta(t, 0.5, w[63], 1e-12)
		assert.InDelta(t, 1.0, w[64], 1e-12)
		assert.InDelta(t, 1.0, w[127], 1e-12)
	})

	t.Run("silence stays zero", func(t *testing.T) {
		for _, v := range waveformSummary(make([]float64, 500)) {
			assert.Zero(t, v)
		}
	})
}

func TestExtract_Determinism(t *testing.T) {
	e := newTestExtractor(t)
	buf := signal.Mix(signal.Tone(220, 0.6, 1.5, testRate), signal.Noise(0.05, 1.5, testRate, 7))

	a, err := e.Extract(buf)
	require.NoError(t, err)
	b, err := e.Extract(buf)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestExtract_Silence(t *testing.T) {
	e := newTestExtractor(t)

	f, err := e.Extract(signal.Silence(1, testRate))
	require.NoError(t, err)
	requireFinite(t, f)

	assert.Zero(t, f.Energy)
	assert.Zero(t, f.ZeroCrossings)
	assert.Zero(t, f.MaxAmplitude)
	assert.Zero(t, f.SpectralCentroid)
	assert.Zero(t, f.SpectralFlatness)
	assert.InDelta(t, 1.0, f.Duration, 1e-12)
}

func TestExtract_EmptyInput(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.Extract(&common.PCMBuffer{SampleRate: testRate})
	require.Error(t, err)
	assert.True(t, common.IsInsufficientSignal(err))

	_, err = e.Extract(nil)
	assert.True(t, common.IsInsufficientSignal(err))
}

func TestExtract_Tone(t *testing.T) {
	e := newTestExtractor(t)

	f, err := e.Extract(signal.Tone(200, 1, 3, testRate))
	require.NoError(t, err)
	requireFinite(t, f)

	assert.InDelta(t, 0.5, f.Energy, 1e-3)
	assert.InDelta(t, 400, f.ZeroCrossings, 2)
	assert.InDelta(t, 1.0, f.MaxAmplitude, 1e-3)
	assert.InDelta(t, 200, f.SpectralCentroid, 5)
	assert.Less(t, f.SpectralFlatness, 0.01)
	assert.InDelta(t, 3.0, f.Duration, 1e-12)
	assert.Equal(t, testRate, f.SampleRate)
}

func TestExtract_NoiseIsFlatterThanTone(t *testing.T) {
	e := newTestExtractor(t)

	tone, err := e.Extract(signal.Tone(200, 0.5, 2, testRate))
	require.NoError(t, err)
	noise, err := e.Extract(signal.Noise(0.5, 2, testRate, 42))
	require.NoError(t, err)

	assert.Greater(t, noise.SpectralFlatness, 0.5)
	assert.Greater(t, noise.SpectralFlatness, tone.SpectralFlatness)
	assert.Greater(t, noise.SpectralCentroid, 2000.0)
	assert.LessOrEqual(t, noise.SpectralCentroid, float64(testRate)/2)
	assert.LessOrEqual(t, noise.SpectralFlatness, 1.0)
}

func TestExtract_ShortSignalIsZeroPadded(t *testing.T) {
	e := newTestExtractor(t)

	f, err := e.Extract(signal.Tone(1000, 0.9, 0.05, testRate))
	require.NoError(t, err)
	requireFinite(t, f)
	assert.InDelta(t, 1000, f.SpectralCentroid, 50)
	assert.InDelta(t, 0.05, f.Duration, 1e-12)
}

func TestExtract_ClippedInput(t *testing.T) {
	e := newTestExtractor(t)

	x := make([]float64, 4000)
	for i := range x {
		if (i/20)%2 == 0 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}

	f, err := e.Extract(&common.PCMBuffer{Samples: x, SampleRate: testRate})
	require.NoError(t, err)
	requireFinite(t, f)
	assert.Equal(t, 1.0, f.MaxAmplitude)
	assert.InDelta(t, 1.0, f.Energy, 1e-12)
}

func TestExtract_DCHasNoZeroCrossings(t *testing.T) {
	e := newTestExtractor(t)

	x := make([]float64, 8000)
	for i := range x {
		x[i] = 0.3
	}
	f, err := e.Extract(&common.PCMBuffer{Samples: x, SampleRate: testRate})
	require.NoError(t, err)
	assert.Zero(t, f.ZeroCrossings)
	assert.InDelta(t, 0.09, f.Energy, 1e-12)
}

func TestExtract_Concurrent(t *testing.T) {
	e := newTestExtractor(t)
	buf := signal.Tone(330, 0.4, 1, testRate)

	want, err := e.Extract(buf)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]AudioFeatures, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Extract(buf)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"not power of two", Config{FFTSize: 1000, HopSize: 500, Window: WindowHann}},
		{"too small", Config{FFTSize: 32, HopSize: 32, Window: WindowHann}},
		{"hop larger than frame", Config{FFTSize: 1024, HopSize: 2048, Window: WindowHann}},
		{"unknown window", Config{FFTSize: 1024, HopSize: 512, Window: "kaiser"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
			_, err := NewExtractor(tt.cfg)
			assert.Error(t, err)
		})
	}

	e, err := NewExtractor(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), e.Config())
}

func TestAudioFeaturesValidate(t *testing.T) {
	e := newTestExtractor(t)
	f, err := e.Extract(signal.Tone(200, 0.5, 1, testRate))
	require.NoError(t, err)
	assert.NoError(t, f.Validate())

	bad := f
	bad.Waveform = bad.Waveform[:10]
	assert.Error(t, bad.Validate())

	bad = f
	bad.Energy = math.NaN()
	assert.Error(t, bad.Validate())

	bad = f
	bad.SpectralFlatness = 1.5
	assert.Error(t, bad.Validate())
}
