package features

import (
	"fmt"
	"math"
)

// WaveformLength is the fixed size of every waveform summary. Features with a
// different length cannot be compared point by point.
const WaveformLength = 128

// AudioFeatures is the fingerprint of a single recording
type AudioFeatures struct {
	Waveform         []float64 `json:"waveform" yaml:"waveform" msgpack:"waveform"`
	Energy           float64   `json:"energy" yaml:"energy" msgpack:"energy"`
	ZeroCrossings    float64   `json:"zero_crossings" yaml:"zero_crossings" msgpack:"zero_crossings"`
	MaxAmplitude     float64   `json:"max_amplitude" yaml:"max_amplitude" msgpack:"max_amplitude"`
	SpectralCentroid float64   `json:"spectral_centroid" yaml:"spectral_centroid" msgpack:"spectral_centroid"`
	SpectralFlatness float64   `json:"spectral_flatness" yaml:"spectral_flatness" msgpack:"spectral_flatness"`
	Duration         float64   `json:"duration" yaml:"duration" msgpack:"duration"`
	SampleRate       int       `json:"sample_rate" yaml:"sample_rate" msgpack:"sample_rate"`
}

// Validate checks that features loaded from outside the extractor are usable
func (f AudioFeatures) Validate() error {
	if len(f.Waveform) != WaveformLength {
		return fmt.Errorf("waveform has %d points, expected %d", len(f.Waveform), WaveformLength)
	}
	for i, v := range f.Waveform {
		if !isFinite(v) || v < 0 {
			return fmt.Errorf("waveform point %d is invalid: %v", i, v)
		}
	}

	scalars := map[string]float64{
		"energy":            f.Energy,
		"zero_crossings":    f.ZeroCrossings,
		"max_amplitude":     f.MaxAmplitude,
		"spectral_centroid": f.SpectralCentroid,
		"spectral_flatness": f.SpectralFlatness,
		"duration":          f.Duration,
	}
	for name, v := range scalars {
		if !isFinite(v) || v < 0 {
			return fmt.Errorf("%s is invalid: %v", name, v)
		}
	}
	if f.MaxAmplitude > 1 {
		return fmt.Errorf("max_amplitude out of range: %v", f.MaxAmplitude)
	}
	if f.SpectralFlatness > 1 {
		return fmt.Errorf("spectral_flatness out of range: %v", f.SpectralFlatness)
	}
	return nil
}

// RMS returns the root mean square amplitude
func (f AudioFeatures) RMS() float64 {
	return math.Sqrt(f.Energy)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if isFinite(v) {
		return v
	}
	return 0
}

// sanitize enforces the no NaN/Inf invariant on every field
func (f *AudioFeatures) sanitize() {
	for i, v := range f.Waveform {
		f.Waveform[i] = finiteOrZero(v)
	}
	f.Energy = finiteOrZero(f.Energy)
	f.ZeroCrossings = finiteOrZero(f.ZeroCrossings)
	f.MaxAmplitude = finiteOrZero(f.MaxAmplitude)
	f.SpectralCentroid = finiteOrZero(f.SpectralCentroid)
	f.SpectralFlatness = finiteOrZero(f.SpectralFlatness)
	f.Duration = finiteOrZero(f.Duration)
}
