package features

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

const (
	// bins more than 40 dB under the spectral peak are treated as silent
	gateRatio = 0.01
	// log floor relative to the peak magnitude
	flatnessFloor = 1e-10
)

// averageSpectrum returns the mean magnitude spectrum (bins 0..N/2) over all
// frames of x. Signals shorter than one frame are zero padded.
func (e *Extractor) averageSpectrum(x []float64) []float64 {
	size := e.config.FFTSize
	hop := e.config.HopSize
	bins := size/2 + 1

	avg := make([]float64, bins)
	frame := make([]float64, size)

	win := e.window
	if len(x) < size {
		// window the signal itself, then pad
		win = makeWindow(e.config.Window, len(x))
	}

	frames := 0
	for start := 0; start == 0 || start+size <= len(x); start += hop {
		end := min(start+size, len(x))
		for i := range frame {
			frame[i] = 0
		}
		for i, v := range x[start:end] {
			frame[i] = v * win[i]
		}

		spectrum := fft.FFTReal(frame)
		for i := range bins {
			avg[i] += cmplx.Abs(spectrum[i])
		}
		frames++
	}

	floats.Scale(1/float64(frames), avg)
	return avg
}

// gateSpectrum zeroes bins far below the spectral peak so low level noise
// does not pull the centroid
func gateSpectrum(spectrum []float64) {
	peak := floats.Max(spectrum)
	if peak <= 0 {
		return
	}
	threshold := peak * gateRatio
	for i, m := range spectrum {
		if m < threshold {
			spectrum[i] = 0
		}
	}
}

// spectralCentroid is the magnitude weighted mean frequency in Hz
func spectralCentroid(spectrum []float64, sampleRate, fftSize int) float64 {
	binWidth := float64(sampleRate) / float64(fftSize)

	numerator := 0.0
	denominator := 0.0
	for i, m := range spectrum {
		numerator += float64(i) * binWidth * m
		denominator += m
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// spectralFlatness is the geometric over arithmetic mean, computed in the log domain
func spectralFlatness(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	peak := floats.Max(spectrum)
	arithmeticMean := floats.Sum(spectrum) / float64(len(spectrum))
	if peak <= 0 || arithmeticMean <= 0 {
		return 0
	}

	eps := peak * flatnessFloor
	logSum := 0.0
	for _, m := range spectrum {
		logSum += math.Log(m + eps)
	}
	geometricMean := math.Exp(logSum / float64(len(spectrum)))

	return math.Max(0, math.Min(1, geometricMean/arithmeticMean))
}
