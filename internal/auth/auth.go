// Package auth applies the enrollment and verification policy on top of the
// comparison engine: users enroll a few recordings of a phrase and later
// verify with a new recording that is scored against them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/google/uuid"

	"github.com/RyanBlaney/voice-match/internal/engine"
	"github.com/RyanBlaney/voice-match/internal/store"
	"github.com/RyanBlaney/voice-match/pkg/audio/decode"
)

var (
	// ErrNotEnrolled is returned when verifying a user with no samples
	ErrNotEnrolled = errors.New("auth: user not enrolled")
	// ErrInvalidUser is returned for unusable user IDs
	ErrInvalidUser = errors.New("auth: invalid user id")
	// ErrEnrollmentComplete is returned when a user already has every required sample
	ErrEnrollmentComplete = errors.New("auth: enrollment already complete")
)

const (
	MessageAccepted   = "Authentication successful!"
	MessageBorderline = "Close match. Please try again."
	MessageRejected   = "Authentication failed. Please try again."
	MessageEnrolled   = "Voice registration successful! You can now proceed to authentication."
)

// Verdict is the policy outcome for a score
type Verdict string

const (
	VerdictAccepted   Verdict = "accepted"
	VerdictBorderline Verdict = "borderline"
	VerdictRejected   Verdict = "rejected"
)

// Strategy selects which enrolled samples a query is scored against
type Strategy string

const (
	// StrategyNewest scores against the most recent sample only
	StrategyNewest Strategy = "newest"
	// StrategyBest keeps the highest score over all samples
	StrategyBest Strategy = "best"
	// StrategyMean averages the scores over all samples
	StrategyMean Strategy = "mean"
)

// ParseStrategy converts a configured name to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyNewest, StrategyBest, StrategyMean:
		return Strategy(name), nil
	case "":
		return StrategyNewest, nil
	}
	return "", fmt.Errorf("unknown verification strategy: %q", name)
}

// Status reports enrollment progress for a user
type Status struct {
	UserID   string `json:"user_id" yaml:"user_id"`
	Samples  int    `json:"samples" yaml:"samples"`
	Required int    `json:"required" yaml:"required"`
	Complete bool   `json:"complete" yaml:"complete"`
}

// Enrollment is the outcome of storing one recording
type Enrollment struct {
	Sample   store.Sample `json:"sample" yaml:"sample"`
	Duration float64      `json:"duration" yaml:"duration"`
	Status   Status       `json:"status" yaml:"status"`
	Message  string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// Decision is the outcome of a verification
type Decision struct {
	UserID         string        `json:"user_id" yaml:"user_id"`
	Score          float64       `json:"score" yaml:"score"`
	Verdict        Verdict       `json:"verdict" yaml:"verdict"`
	Message        string        `json:"message" yaml:"message"`
	Strategy       Strategy      `json:"strategy" yaml:"strategy"`
	Compared       int           `json:"compared" yaml:"compared"`
	Scores         []float64     `json:"scores" yaml:"scores"`
	ReferenceID    uuid.UUID     `json:"reference_id" yaml:"reference_id"`
	Stats          ScoreStats    `json:"stats" yaml:"stats"`
	PenaltyApplied bool          `json:"penalty_applied" yaml:"penalty_applied"`
	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
}

// Authenticator enrolls and verifies users
type Authenticator struct {
	engine *engine.Engine
	store  store.Store
	config Config
	logger logging.Logger

	// serialises the count check and the write of an enrollment
	enrollMu sync.Mutex
}

// NewAuthenticator creates an authenticator. The config is validated after
// zero fields are replaced with defaults.
func NewAuthenticator(e *engine.Engine, s store.Store, cfg Config, logger logging.Logger) (*Authenticator, error) {
	if e == nil {
		return nil, errors.New("auth: engine is required")
	}
	if s == nil {
		return nil, errors.New("auth: store is required")
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Authenticator{
		engine: e,
		store:  s,
		config: cfg,
		logger: logger.WithFields(logging.Fields{"component": "authenticator"}),
	}, nil
}

// Config returns the effective configuration
func (a *Authenticator) Config() Config {
	return a.config
}

// Enroll stores a recording for userID once it is known to decode and yield
// features. An empty phrase means the configured phrase. Concurrent calls on
// one Authenticator never store more than RequiredSamples; processes sharing
// a store must serialise enrollments themselves.
func (a *Authenticator) Enroll(ctx context.Context, userID, phrase string, audio []byte) (*Enrollment, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	if _, err := a.checkCapacity(ctx, userID); err != nil {
		return nil, err
	}

	f, err := a.engine.ExtractBlob(ctx, audio)
	if err != nil {
		a.logger.Warn("Rejected enrollment recording", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("failed to validate recording: %w", err)
	}

	if phrase == "" {
		phrase = a.config.Phrase
	}

	a.enrollMu.Lock()
	defer a.enrollMu.Unlock()

	// recheck, another enrollment may have landed during extraction
	count, err := a.checkCapacity(ctx, userID)
	if err != nil {
		return nil, err
	}

	sample, err := a.store.Add(ctx, store.Sample{
		UserID: userID,
		Phrase: phrase,
		Format: string(decode.Detect(audio)),
		Audio:  audio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store sample: %w", err)
	}

	status := a.status(userID, count+1)
	enrollment := &Enrollment{
		Sample:   sample,
		Duration: f.Duration,
		Status:   status,
	}
	if status.Complete {
		enrollment.Message = MessageEnrolled
	}

	a.logger.Info("Enrolled voice sample", logging.Fields{
		"user_id":  userID,
		"sample":   sample.ID.String(),
		"samples":  status.Samples,
		"required": status.Required,
		"duration": f.Duration,
	})

	return enrollment, nil
}

// checkCapacity returns the current sample count, or ErrEnrollmentComplete
// when no more samples are accepted
func (a *Authenticator) checkCapacity(ctx context.Context, userID string) (int, error) {
	count, err := a.store.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	if count >= a.config.RequiredSamples {
		return count, fmt.Errorf("%w: %s has %d of %d samples", ErrEnrollmentComplete, userID, count, a.config.RequiredSamples)
	}
	return count, nil
}

// EnrollmentStatus reports how many samples userID has enrolled
func (a *Authenticator) EnrollmentStatus(ctx context.Context, userID string) (Status, error) {
	if err := validateUser(userID); err != nil {
		return Status{}, err
	}

	count, err := a.store.Count(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("failed to count samples: %w", err)
	}
	return a.status(userID, count), nil
}

func (a *Authenticator) status(userID string, count int) Status {
	return Status{
		UserID:   userID,
		Samples:  count,
		Required: a.config.RequiredSamples,
		Complete: count >= a.config.RequiredSamples,
	}
}

// Verify scores a recording against userID's enrolled samples and applies
// the thresholds to the selected score.
func (a *Authenticator) Verify(ctx context.Context, userID string, audio []byte) (*Decision, error) {
	start := time.Now()

	if err := validateUser(userID); err != nil {
		return nil, err
	}

	references, err := a.references(ctx, userID)
	if err != nil {
		return nil, err
	}

	refAudio := make([][]byte, len(references))
	for i, ref := range references {
		refAudio[i] = ref.Audio
	}

	comparisons, err := a.engine.CompareMany(ctx, audio, refAudio)
	if err != nil {
		return nil, err
	}

	decision := a.decide(userID, references, comparisons)
	decision.ProcessingTime = time.Since(start)

	a.logger.Info("Verification completed", logging.Fields{
		"user_id":  userID,
		"score":    decision.Score,
		"verdict":  string(decision.Verdict),
		"strategy": string(decision.Strategy),
		"compared": decision.Compared,
	})

	return decision, nil
}

func (a *Authenticator) references(ctx context.Context, userID string) ([]store.Sample, error) {
	if a.config.Strategy == StrategyNewest {
		newest, err := a.store.Newest(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotEnrolled, userID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load newest sample: %w", err)
		}
		return []store.Sample{newest}, nil
	}

	samples, err := a.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotEnrolled, userID)
	}
	return samples, nil
}

// decide expects one comparison per reference, in the same order
func (a *Authenticator) decide(userID string, references []store.Sample, comparisons []*engine.Comparison) *Decision {
	scores := make([]float64, len(comparisons))
	penalty := false
	best := 0
	for i, c := range comparisons {
		scores[i] = c.Score
		penalty = penalty || c.PenaltyApplied
		if c.Score > comparisons[best].Score {
			best = i
		}
	}

	decision := &Decision{
		UserID:   userID,
		Strategy: a.config.Strategy,
		Compared: len(comparisons),
		Scores:   scores,
		Stats:    calculateStats(scores),
	}

	switch a.config.Strategy {
	case StrategyMean:
		decision.Score = decision.Stats.Mean
		decision.PenaltyApplied = penalty
	default:
		// newest compares a single reference, so best is that reference
		decision.Score = scores[best]
		decision.ReferenceID = references[best].ID
		decision.PenaltyApplied = comparisons[best].PenaltyApplied
	}

	decision.Verdict, decision.Message = a.config.Classify(decision.Score)
	return decision
}

// Reset removes every enrolled sample of userID
func (a *Authenticator) Reset(ctx context.Context, userID string) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	if err := a.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear samples: %w", err)
	}
	a.logger.Info("Reset enrollment", logging.Fields{"user_id": userID})
	return nil
}

// Classify maps a score to a verdict and its user facing message
func (c Config) Classify(score float64) (Verdict, string) {
	switch {
	case math.IsNaN(score):
		return VerdictRejected, MessageRejected
	case score >= c.AcceptThreshold:
		return VerdictAccepted, MessageAccepted
	case score >= c.BorderlineThreshold:
		return VerdictBorderline, MessageBorderline
	default:
		return VerdictRejected, MessageRejected
	}
}

func validateUser(userID string) error {
	if err := store.ValidateUserID(userID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUser, err)
	}
	return nil
}
