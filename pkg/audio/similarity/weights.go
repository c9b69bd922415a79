package similarity

import (
	"fmt"
	"math"
)

// Component names used in Result.Components
const (
	ComponentWaveform         = "waveform"
	ComponentEnergy           = "energy"
	ComponentZeroCrossings    = "zero_crossings"
	ComponentMaxAmplitude     = "max_amplitude"
	ComponentSpectralCentroid = "spectral_centroid"
	ComponentSpectralFlatness = "spectral_flatness"
)

// Weights sets the contribution of each feature to the combined similarity.
// They are normalised by their sum, so only their ratios matter.
type Weights struct {
	Waveform         float64 `json:"waveform" yaml:"waveform" mapstructure:"waveform"`
	Energy           float64 `json:"energy" yaml:"energy" mapstructure:"energy"`
	ZeroCrossings    float64 `json:"zero_crossings" yaml:"zero_crossings" mapstructure:"zero_crossings"`
	MaxAmplitude     float64 `json:"max_amplitude" yaml:"max_amplitude" mapstructure:"max_amplitude"`
	SpectralCentroid float64 `json:"spectral_centroid" yaml:"spectral_centroid" mapstructure:"spectral_centroid"`
	SpectralFlatness float64 `json:"spectral_flatness" yaml:"spectral_flatness" mapstructure:"spectral_flatness"`
}

// DefaultWeights favours shape and spectral position over loudness, which
// varies with microphone distance
func DefaultWeights() Weights {
	return Weights{
		Waveform:         0.35,
		Energy:           0.05,
		ZeroCrossings:    0.20,
		MaxAmplitude:     0.05,
		SpectralCentroid: 0.25,
		SpectralFlatness: 0.10,
	}
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Waveform + w.Energy + w.ZeroCrossings + w.MaxAmplitude + w.SpectralCentroid + w.SpectralFlatness
}

// Validate rejects negative, non-finite or all-zero weights
func (w Weights) Validate() error {
	for name, v := range w.asMap() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a finite non-negative number, got %v", name, v)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	return nil
}

// Normalized returns the weights scaled to sum to 1
func (w Weights) Normalized() Weights {
	sum := w.Sum()
	if sum <= 0 {
		return w
	}
	return Weights{
		Waveform:         w.Waveform / sum,
		Energy:           w.Energy / sum,
		ZeroCrossings:    w.ZeroCrossings / sum,
		MaxAmplitude:     w.MaxAmplitude / sum,
		SpectralCentroid: w.SpectralCentroid / sum,
		SpectralFlatness: w.SpectralFlatness / sum,
	}
}

func (w Weights) asMap() map[string]float64 {
	return map[string]float64{
		ComponentWaveform:         w.Waveform,
		ComponentEnergy:           w.Energy,
		ComponentZeroCrossings:    w.ZeroCrossings,
		ComponentMaxAmplitude:     w.MaxAmplitude,
		ComponentSpectralCentroid: w.SpectralCentroid,
		ComponentSpectralFlatness: w.SpectralFlatness,
	}
}
