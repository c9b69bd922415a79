package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// waveformSummary reduces x to WaveformLength block averaged absolute
// amplitudes, peak normalised to [0, 1]
func waveformSummary(x []float64) []float64 {
	out := make([]float64, WaveformLength)
	n := len(x)
	if n == 0 {
		return out
	}

	if n < WaveformLength {
		// blocks would be empty, take the nearest sample instead
		for i := range out {
			idx := int(float64(i) * float64(n) / float64(WaveformLength))
			out[i] = math.Abs(x[min(idx, n-1)])
		}
	} else {
		for i := range out {
			start := i * n / WaveformLength
			end := (i + 1) * n / WaveformLength
			var sum float64
			for _, v := range x[start:end] {
				sum += math.Abs(v)
			}
			out[i] = sum / float64(end-start)
		}
	}

	if peak := floats.Max(out); peak > 0 {
		floats.Scale(1/peak, out)
	}
	return out
}
