package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/RyanBlaney/voice-match/pkg/audio/common"
	"github.com/RyanBlaney/voice-match/pkg/audio/features"
	"github.com/RyanBlaney/voice-match/pkg/audio/signal"
)

const testRate = 16000

type ScorerTestSuite struct {
	suite.Suite
	extractor *features.Extractor
	scorer    *Scorer

	tone    features.AudioFeatures
	noise   features.AudioFeatures
	silence features.AudioFeatures
}

func (s *ScorerTestSuite) SetupSuite() {
	var err error
	s.extractor, err = features.NewExtractor(features.DefaultConfig())
	s.Require().NoError(err)
	s.scorer = NewDefaultScorer()

	s.tone = s.extract(signal.Tone(200, 1, 3, testRate))
	s.noise = s.extract(signal.Noise(0.5, 3, testRate, 3))
	s.silence = s.extract(signal.Silence(3, testRate))
}

func (s *ScorerTestSuite) extract(buf *common.PCMBuffer) features.AudioFeatures {
	f, err := s.extractor.Extract(buf)
	s.Require().NoError(err)
	return f
}

func (s *ScorerTestSuite) TestSelfSimilarity() {
	for _, f := range []features.AudioFeatures{s.tone, s.noise, s.silence} {
		s.InDelta(1.0, s.scorer.Score(f, f), 1e-9)
	}
}

func (s *ScorerTestSuite) TestSymmetry() {
	pairs := [][2]features.AudioFeatures{
		{s.tone, s.noise},
		{s.tone, s.silence},
		{s.noise, s.silence},
	}
	for _, p := range pairs {
		s.Equal(s.scorer.Score(p[0], p[1]), s.scorer.Score(p[1], p[0]))
	}
}

func (s *ScorerTestSuite) TestBounded() {
	for _, a := range []features.AudioFeatures{s.tone, s.noise, s.silence} {
		for _, b := range []features.AudioFeatures{s.tone, s.noise, s.silence} {
			score := s.scorer.Score(a, b)
			s.GreaterOrEqual(score, 0.0)
			s.LessOrEqual(score, 1.0)
		}
	}
}

func (s *ScorerTestSuite) TestScaleInvariance() {
	scaled := s.extract(signal.Scale(signal.Tone(200, 1, 3, testRate), 0.8))

	s.InDelta(0.8, scaled.MaxAmplitude/s.tone.MaxAmplitude, 1e-6)
	s.InDelta(0.64, scaled.Energy/s.tone.Energy, 1e-6)
	s.InDelta(s.scorer.Score(s.tone, s.tone), s.scorer.Score(s.tone, scaled), 0.05)
}

func (s *ScorerTestSuite) TestToneVersusSilence() {
	s.LessOrEqual(s.scorer.Score(s.tone, s.silence), 0.2)
}

func (s *ScorerTestSuite) TestDifferentSignalsScoreLower() {
	other := s.extract(signal.Tone(1000, 1, 3, testRate))
	s.Less(s.scorer.Score(s.tone, other), s.scorer.Score(s.tone, s.tone))
	s.Less(s.scorer.Score(s.tone, s.noise), 0.8)
}

func (s *ScorerTestSuite) TestCompareBreakdown() {
	res := s.scorer.Compare(s.tone, s.silence)
	s.Len(res.Components, 6)
	s.Zero(res.Components[ComponentWaveform])
	s.Zero(res.Components[ComponentEnergy])
	s.Zero(res.Components[ComponentSpectralCentroid])
	s.Equal(res.Similarity, s.scorer.Score(s.tone, s.silence))
}

func TestScorerSuite(t *testing.T) {
	suite.Run(t, new(ScorerTestSuite))
}

func TestDefaultWeightsArePinned(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, Weights{
		Waveform:         0.35,
		Energy:           0.05,
		ZeroCrossings:    0.20,
		MaxAmplitude:     0.05,
		SpectralCentroid: 0.25,
		SpectralFlatness: 0.10,
	}, w)
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	assert.NoError(t, w.Validate())
}

func TestWeightsValidate(t *testing.T) {
	assert.Error(t, Weights{}.Validate())
	assert.Error(t, Weights{Waveform: 1, Energy: -0.1}.Validate())

	_, err := NewScorer(Weights{})
	assert.Error(t, err)

	s, err := NewScorer(Weights{Waveform: 2, SpectralCentroid: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s.Weights().Waveform, 1e-12)
	assert.InDelta(t, 0.5, s.Weights().SpectralCentroid, 1e-12)
	assert.InDelta(t, 1.0, s.Weights().Sum(), 1e-12)
}

func TestWaveformSimilarity(t *testing.T) {
	zero := make([]float64, 4)
	a := []float64{1, 0.5, 0.25, 0}
	b := []float64{2, 1, 0.5, 0}

	assert.Equal(t, 1.0, WaveformSimilarity(zero, zero))
	assert.Equal(t, 0.0, WaveformSimilarity(a, zero))
	assert.Equal(t, 0.0, WaveformSimilarity(zero, a))
	assert.InDelta(t, 1.0, WaveformSimilarity(a, b), 1e-12)
	assert.Equal(t, 0.0, WaveformSimilarity([]float64{1, 0}, []float64{0, 1}))
	assert.Equal(t, 0.0, WaveformSimilarity(a, a[:2]))
}

func TestRelativeSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    float64
		floor   float64
		want    float64
		epsilon float64
	}{
		{"identical", 3, 3, 1e-12, 1, 0},
		{"half", 1, 0.5, 1e-12, 0.5, 1e-12},
		{"both zero", 0, 0, 1e-12, 1, 0},
		{"one zero", 0, 5, 1e-12, 0, 0},
		{"under the floor", 0, 1e-4, 1e-3, 0.9, 1e-12},
		{"zero floor", 0, 0, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RelativeSimilarity(tt.a, tt.b, tt.floor), tt.epsilon)
			assert.Equal(t, RelativeSimilarity(tt.a, tt.b, tt.floor), RelativeSimilarity(tt.b, tt.a, tt.floor))
		})
	}
}
