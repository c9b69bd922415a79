package engine

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/RyanBlaney/voice-match/pkg/audio/decode"
	"github.com/RyanBlaney/voice-match/pkg/audio/features"
	"github.com/RyanBlaney/voice-match/pkg/audio/similarity"
)

const (
	DefaultMinDuration  = 0.5
	DefaultShortPenalty = 0.5
)

// Engine decodes, fingerprints and scores pairs of recordings
type Engine struct {
	decoder        decode.Decoder
	extractor      *features.Extractor
	scorer         *similarity.Scorer
	minDuration    float64
	shortPenalty   float64
	maxConcurrency int
	logger         logging.Logger
}

// EngineConfig contains configuration for the engine. Nil collaborators are
// replaced with defaults.
type EngineConfig struct {
	Decoder        decode.Decoder
	Extractor      *features.Extractor
	Scorer         *similarity.Scorer
	MinDuration    float64 // zero selects DefaultMinDuration, negative disables the penalty
	ShortPenalty   float64
	MaxConcurrency int
	Logger         logging.Logger
}

// NewEngine creates a new engine
func NewEngine(config *EngineConfig) (*Engine, error) {
	if config == nil {
		config = &EngineConfig{}
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	decoder := config.Decoder
	if decoder == nil {
		decoder = decode.NewFactory()
	}

	extractor := config.Extractor
	if extractor == nil {
		var err error
		extractor, err = features.NewExtractor(features.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create feature extractor: %w", err)
		}
	}

	scorer := config.Scorer
	if scorer == nil {
		scorer = similarity.NewDefaultScorer()
	}

	if math.IsNaN(config.MinDuration) {
		return nil, fmt.Errorf("min duration must be a number, got %v", config.MinDuration)
	}
	minDuration := config.MinDuration
	switch {
	case minDuration == 0:
		minDuration = DefaultMinDuration
	case minDuration < 0:
		// no recording is shorter than zero seconds
		minDuration = 0
	}
	shortPenalty := config.ShortPenalty
	if shortPenalty == 0 {
		shortPenalty = DefaultShortPenalty
	}
	if shortPenalty < 0 || shortPenalty > 1 || math.IsNaN(shortPenalty) {
		return nil, fmt.Errorf("short penalty must be in [0, 1], got %v", shortPenalty)
	}

	maxConcurrency := config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}

	return &Engine{
		decoder:        decoder,
		extractor:      extractor,
		scorer:         scorer,
		minDuration:    minDuration,
		shortPenalty:   shortPenalty,
		maxConcurrency: maxConcurrency,
		logger:         logger.WithFields(logging.Fields{"component": "engine"}),
	}, nil
}

// Compare scores two encoded recordings on a 0 to 100 scale
func (e *Engine) Compare(ctx context.Context, a, b []byte) (*Comparison, error) {
	start := time.Now()

	fa, err := e.extract(ctx, 0, a)
	if err != nil {
		return nil, err
	}
	fb, err := e.extract(ctx, 1, b)
	if err != nil {
		return nil, err
	}

	comparison := e.CompareFeatures(fa, fb)
	comparison.ProcessingTime = time.Since(start)

	e.logger.Debug("Comparison completed", logging.Fields{
		"score":           comparison.Score,
		"raw_similarity":  comparison.RawSimilarity,
		"penalty_applied": comparison.PenaltyApplied,
		"processing_ms":   comparison.ProcessingTime.Milliseconds(),
	})

	return comparison, nil
}

// CompareFeatures scores two pre-extracted fingerprints. A recording shorter
// than the minimum duration on either side scales the similarity by the
// short penalty before it is turned into a percentage.
func (e *Engine) CompareFeatures(a, b features.AudioFeatures) *Comparison {
	result := e.scorer.Compare(a, b)

	similarity := result.Similarity
	penalty := a.Duration < e.minDuration || b.Duration < e.minDuration
	if penalty {
		similarity *= e.shortPenalty
	}

	return &Comparison{
		Score:          toPercent(similarity),
		RawSimilarity:  result.Similarity,
		PenaltyApplied: penalty,
		Components:     result.Components,
		First:          a,
		Second:         b,
	}
}

// ExtractBlob decodes and fingerprints a single recording
func (e *Engine) ExtractBlob(ctx context.Context, data []byte) (features.AudioFeatures, error) {
	return e.extract(ctx, 0, data)
}

func (e *Engine) extract(ctx context.Context, input int, data []byte) (features.AudioFeatures, error) {
	if err := ctx.Err(); err != nil {
		return features.AudioFeatures{}, err
	}

	pcm, err := e.decoder.Decode(ctx, data)
	if err != nil {
		e.logger.Debug("Decode failed", logging.Fields{"input": input, "error": err.Error()})
		return features.AudioFeatures{}, newComparisonError(StageDecode, input, err)
	}

	f, err := e.extractor.Extract(pcm)
	if err != nil {
		e.logger.Debug("Feature extraction failed", logging.Fields{"input": input, "error": err.Error()})
		return features.AudioFeatures{}, newComparisonError(StageExtract, input, err)
	}

	return f, nil
}

func toPercent(similarity float64) float64 {
	score := similarity * 100
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
