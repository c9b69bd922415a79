package engine

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/voice-match/pkg/audio/features"
)

// Stages at which a comparison can fail
const (
	StageDecode  = "decode"
	StageExtract = "extract"
)

// Comparison is the outcome of comparing two recordings
type Comparison struct {
	Score          float64                `json:"score" yaml:"score"`
	RawSimilarity  float64                `json:"raw_similarity" yaml:"raw_similarity"`
	PenaltyApplied bool                   `json:"penalty_applied" yaml:"penalty_applied"`
	Components     map[string]float64     `json:"components" yaml:"components"`
	First          features.AudioFeatures `json:"first" yaml:"first"`
	Second         features.AudioFeatures `json:"second" yaml:"second"`
	ProcessingTime time.Duration          `json:"processing_time" yaml:"processing_time"`
}

// ComparisonError reports a failed comparison. Input is the position of the
// offending buffer: the query or first buffer is 0, the next one is 1, and so on.
type ComparisonError struct {
	Stage string `json:"stage"`
	Input int    `json:"input"`
	Err   error  `json:"-"`
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("comparison failed: %s input %d: %v", e.Stage, e.Input, e.Err)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}

func newComparisonError(stage string, input int, err error) *ComparisonError {
	return &ComparisonError{Stage: stage, Input: input, Err: err}
}
