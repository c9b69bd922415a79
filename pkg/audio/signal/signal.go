// Package signal generates deterministic synthetic buffers for calibration
// and tests.
package signal

import (
	"math"
	"math/rand/v2"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
)

// Tone returns a sine at freq Hz with the given peak amplitude
func Tone(freq, amplitude, seconds float64, sampleRate int) *common.PCMBuffer {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return &common.PCMBuffer{Samples: samples, SampleRate: sampleRate, Format: common.FormatRaw}
}

// Silence returns an all-zero buffer
func Silence(seconds float64, sampleRate int) *common.PCMBuffer {
	n := int(seconds * float64(sampleRate))
	return &common.PCMBuffer{Samples: make([]float64, n), SampleRate: sampleRate, Format: common.FormatRaw}
}

// Noise returns uniform white noise in [-amplitude, amplitude]
func Noise(amplitude, seconds float64, sampleRate int, seed uint64) *common.PCMBuffer {
	n := int(seconds * float64(sampleRate))
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * (2*rng.Float64() - 1)
	}
	return &common.PCMBuffer{Samples: samples, SampleRate: sampleRate, Format: common.FormatRaw}
}

// Scale returns a copy of buf with every sample multiplied by factor
func Scale(buf *common.PCMBuffer, factor float64) *common.PCMBuffer {
	out := &common.PCMBuffer{SampleRate: buf.SampleRate, Format: buf.Format}
	out.Samples = make([]float64, len(buf.Samples))
	for i, s := range buf.Samples {
		out.Samples[i] = s * factor
	}
	return out
}

// Mix adds b into a copy of a, clamped to [-1, 1]. The result has the length of a.
func Mix(a, b *common.PCMBuffer) *common.PCMBuffer {
	out := &common.PCMBuffer{SampleRate: a.SampleRate, Format: a.Format}
	out.Samples = make([]float64, len(a.Samples))
	for i, s := range a.Samples {
		if i < len(b.Samples) {
			s += b.Samples[i]
		}
		out.Samples[i] = math.Max(-1, math.Min(1, s))
	}
	return out
}
