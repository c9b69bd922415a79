package similarity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/voice-match/pkg/audio/features"
)

// Per feature floors for the relative difference denominator. Values below
// the floor are indistinguishable from zero for that feature.
const (
	floorRMS          = 1e-6
	floorZeroCrossing = 1.0 // crossings per second
	floorAmplitude    = 1e-6
	floorCentroid     = 1.0 // Hz
	floorFlatness     = 1e-3
)

// Result is a similarity with its per feature breakdown
type Result struct {
	Similarity float64            `json:"similarity" yaml:"similarity"`
	Components map[string]float64 `json:"components" yaml:"components"`
}

// Scorer combines per feature similarities into one value in [0, 1].
// It is stateless after construction and safe for concurrent use.
type Scorer struct {
	weights Weights
	order   []string
	vector  []float64
}

// NewScorer creates a scorer with the given weights
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid similarity weights: %w", err)
	}

	n := w.Normalized()
	return &Scorer{
		weights: n,
		order: []string{
			ComponentWaveform,
			ComponentEnergy,
			ComponentZeroCrossings,
			ComponentMaxAmplitude,
			ComponentSpectralCentroid,
			ComponentSpectralFlatness,
		},
		vector: []float64{
			n.Waveform,
			n.Energy,
			n.ZeroCrossings,
			n.MaxAmplitude,
			n.SpectralCentroid,
			n.SpectralFlatness,
		},
	}, nil
}

// NewDefaultScorer creates a scorer with DefaultWeights
func NewDefaultScorer() *Scorer {
	s, err := NewScorer(DefaultWeights())
	if err != nil {
		panic(err)
	}
	return s
}

// Weights returns the normalised weights in use
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the combined similarity of a and b in [0, 1]
func (s *Scorer) Score(a, b features.AudioFeatures) float64 {
	return s.Compare(a, b).Similarity
}

// Compare returns the combined similarity together with each component
func (s *Scorer) Compare(a, b features.AudioFeatures) Result {
	values := []float64{
		WaveformSimilarity(a.Waveform, b.Waveform),
		RelativeSimilarity(a.RMS(), b.RMS(), floorRMS),
		RelativeSimilarity(a.ZeroCrossings, b.ZeroCrossings, floorZeroCrossing),
		RelativeSimilarity(a.MaxAmplitude, b.MaxAmplitude, floorAmplitude),
		RelativeSimilarity(a.SpectralCentroid, b.SpectralCentroid, floorCentroid),
		RelativeSimilarity(a.SpectralFlatness, b.SpectralFlatness, floorFlatness),
	}

	components := make(map[string]float64, len(values))
	for i, name := range s.order {
		components[name] = values[i]
	}

	return Result{
		Similarity: clamp01(stat.Mean(values, s.vector)),
		Components: components,
	}
}

// WaveformSimilarity is the cosine similarity of two waveform summaries,
// clamped to [0, 1]. Two silent summaries match, one silent summary does not.
// Summaries of different lengths never match.
func WaveformSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	switch {
	case normA == 0 && normB == 0:
		return 1
	case normA == 0 || normB == 0:
		return 0
	}

	return clamp01(floats.Dot(a, b) / (normA * normB))
}

// RelativeSimilarity maps 1 - |a-b| / max(|a|, |b|, floor) into [0, 1]
func RelativeSimilarity(a, b, floor float64) float64 {
	denominator := math.Max(math.Max(math.Abs(a), math.Abs(b)), floor)
	if denominator <= 0 {
		return 1
	}
	return clamp01(1 - math.Abs(a-b)/denominator)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
