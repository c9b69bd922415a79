package features

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// Extractor turns PCM buffers into AudioFeatures. It is safe for concurrent
// use: the window is read only and all scratch space is allocated per call.
type Extractor struct {
	config Config
	window []float64
	logger logging.Logger
}

// NewExtractor creates an extractor, filling zero values in cfg with defaults
func NewExtractor(cfg Config) (*Extractor, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature config: %w", err)
	}

	return &Extractor{
		config: cfg,
		window: makeWindow(cfg.Window, cfg.FFTSize),
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
			"fft_size":  cfg.FFTSize,
		}),
	}, nil
}

// Config returns the effective configuration
func (e *Extractor) Config() Config {
	return e.config
}

// Extract computes the fingerprint of pcm
func (e *Extractor) Extract(pcm *common.PCMBuffer) (AudioFeatures, error) {
	if pcm.Len() == 0 {
		return AudioFeatures{}, common.NewInsufficientSignalError("extract", 0)
	}
	if pcm.SampleRate <= 0 {
		return AudioFeatures{}, fmt.Errorf("invalid sample rate: %d", pcm.SampleRate)
	}

	x := pcm.Samples
	duration := pcm.Duration()

	f := AudioFeatures{
		Waveform:     waveformSummary(x),
		Energy:       floats.Dot(x, x) / float64(len(x)),
		MaxAmplitude: math.Min(maxAbs(x), 1),
		Duration:     duration,
		SampleRate:   pcm.SampleRate,
	}
	f.ZeroCrossings = float64(countZeroCrossings(x)) / duration

	spectrum := e.averageSpectrum(x)
	gateSpectrum(spectrum)
	f.SpectralCentroid = spectralCentroid(spectrum, pcm.SampleRate, e.config.FFTSize)
	f.SpectralFlatness = spectralFlatness(spectrum)

	f.sanitize()

	e.logger.Debug("Extracted features", logging.Fields{
		"samples":           len(x),
		"sample_rate":       pcm.SampleRate,
		"duration":          f.Duration,
		"energy":            f.Energy,
		"zero_crossings":    f.ZeroCrossings,
		"spectral_centroid": f.SpectralCentroid,
		"spectral_flatness": f.SpectralFlatness,
	})

	return f, nil
}

func maxAbs(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

func countZeroCrossings(x []float64) int {
	crossings := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] >= 0 && x[i] < 0) || (x[i-1] < 0 && x[i] >= 0) {
			crossings++
		}
	}
	return crossings
}

func makeWindow(name string, size int) []float64 {
	if size < 3 {
		// tapered windows degenerate to zeros or NaN here
		name = WindowRectangular
	}
	switch name {
	case WindowHamming:
		return window.Hamming(size)
	case WindowRectangular:
		w := make([]float64, size)
		for i := range w {
			w[i] = 1
		}
		return w
	default:
		return window.Hann(size)
	}
}
