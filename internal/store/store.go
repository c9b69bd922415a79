// Package store persists enrolled voice samples per user.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrNotFound is returned when a user has no samples
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidUser is returned for empty user IDs or IDs containing the key separator
	ErrInvalidUser = errors.New("store: invalid user id")
)

const (
	keyPrefix = "sample"
	keySep    = ":"
)

// Sample is one enrolled recording
type Sample struct {
	ID        uuid.UUID `json:"id" yaml:"id" msgpack:"id"`
	UserID    string    `json:"user_id" yaml:"user_id" msgpack:"user_id"`
	Phrase    string    `json:"phrase,omitempty" yaml:"phrase,omitempty" msgpack:"phrase"`
	Format    string    `json:"format,omitempty" yaml:"format,omitempty" msgpack:"format"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" msgpack:"created_at"`
	Audio     []byte    `json:"-" yaml:"-" msgpack:"audio"`
}

// Size returns the length of the raw audio in bytes
func (s Sample) Size() int {
	return len(s.Audio)
}

// Store keeps samples per user, addressable oldest to newest
type Store interface {
	// Add stores s, assigning an ID and timestamp when unset
	Add(ctx context.Context, s Sample) (Sample, error)
	// List returns a user's samples from oldest to newest
	List(ctx context.Context, userID string) ([]Sample, error)
	// Newest returns a user's most recent sample or ErrNotFound
	Newest(ctx context.Context, userID string) (Sample, error)
	Count(ctx context.Context, userID string) (int, error)
	// Users returns every user with at least one sample, sorted
	Users(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, userID string) error
	// Reset removes every sample of every user
	Reset(ctx context.Context) error
	Close() error
}

// ValidateUserID rejects IDs that cannot be used as a key segment
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" || strings.Contains(userID, keySep) {
		return fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return nil
}

// userPrefix ends with the separator so "bob" never matches "bobby"
func userPrefix(userID string) []byte {
	return []byte(keyPrefix + keySep + userID + keySep)
}

func rootPrefix() []byte {
	return []byte(keyPrefix + keySep)
}

// sampleKey sorts chronologically within a user
func sampleKey(s Sample) []byte {
	nanos := fmt.Sprintf("%020d", s.CreatedAt.UnixNano())
	return []byte(keyPrefix + keySep + s.UserID + keySep + nanos + keySep + s.ID.String())
}

func userFromKey(key []byte) string {
	parts := strings.SplitN(string(key), keySep, 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

func prepare(s Sample, now func() time.Time) (Sample, error) {
	if err := ValidateUserID(s.UserID); err != nil {
		return Sample{}, err
	}
	if len(s.Audio) == 0 {
		return Sample{}, errors.New("store: sample has no audio")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now()
	}
	if s.CreatedAt.UnixNano() < 0 {
		return Sample{}, fmt.Errorf("store: timestamp before epoch: %s", s.CreatedAt)
	}
	s.CreatedAt = s.CreatedAt.UTC()

	audio := make([]byte, len(s.Audio))
	copy(audio, s.Audio)
	s.Audio = audio
	return s, nil
}

func encodeSample(s Sample) ([]byte, error) {
	data, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sample: %w", err)
	}
	return data, nil
}

func decodeSample(data []byte) (Sample, error) {
	var s Sample
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Sample{}, fmt.Errorf("failed to decode sample: %w", err)
	}
	return s, nil
}
