package store

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	now  func() time.Time
}

// NewMemory creates an empty in-memory store. A nil clock means time.Now.
func NewMemory(clock func() time.Time) *Memory {
	if clock == nil {
		clock = time.Now
	}
	return &Memory{
		data: make(map[string][]byte),
		now:  clock,
	}
}

func (m *Memory) Add(_ context.Context, s Sample) (Sample, error) {
	s, err := prepare(s, m.now)
	if err != nil {
		return Sample{}, err
	}
	value, err := encodeSample(s)
	if err != nil {
		return Sample{}, err
	}

	m.mu.Lock()
	m.data[string(sampleKey(s))] = value
	m.mu.Unlock()
	return s, nil
}

// sortedKeys returns matching keys in ascending order; callers hold the lock
func (m *Memory) sortedKeys(prefix []byte) []string {
	var keys []string
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m *Memory) List(_ context.Context, userID string) ([]Sample, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var samples []Sample
	for _, k := range m.sortedKeys(userPrefix(userID)) {
		s, err := decodeSample(m.data[k])
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func (m *Memory) Newest(_ context.Context, userID string) (Sample, error) {
	if err := ValidateUserID(userID); err != nil {
		return Sample{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := m.sortedKeys(userPrefix(userID))
	if len(keys) == 0 {
		return Sample{}, ErrNotFound
	}
	return decodeSample(m.data[keys[len(keys)-1]])
}

func (m *Memory) Count(_ context.Context, userID string) (int, error) {
	if err := ValidateUserID(userID); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sortedKeys(userPrefix(userID))), nil
}

func (m *Memory) Users(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range m.data {
		if user := userFromKey([]byte(k)); user != "" {
			seen[user] = struct{}{}
		}
	}
	users := make([]string, 0, len(seen))
	for user := range seen {
		users = append(users, user)
	}
	sort.Strings(users)
	return users, nil
}

func (m *Memory) Clear(_ context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.sortedKeys(userPrefix(userID)) {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
