package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeClock hands out strictly increasing timestamps
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type StoreTestSuite struct {
	suite.Suite
	newStore func(clock func() time.Time) Store
	store    Store
	ctx      context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(newFakeClock().Now)
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *StoreTestSuite) add(user string, audio string) Sample {
	sample, err := s.store.Add(s.ctx, Sample{UserID: user, Phrase: "Access Granted", Format: "wav", Audio: []byte(audio)})
	s.Require().NoError(err)
	return sample
}

func (s *StoreTestSuite) TestAddAssignsIdentity() {
	sample := s.add("alice", "one")
	s.NotEqual(uuid.Nil, sample.ID)
	s.False(sample.CreatedAt.IsZero())
	s.Equal("alice", sample.UserID)
}

func (s *StoreTestSuite) TestListIsOldestToNewest() {
	first := s.add("alice", "one")
	second := s.add("alice", "two")
	third := s.add("alice", "three")
	s.add("bob", "other")

	samples, err := s.store.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(samples, 3)

	s.Equal([]uuid.UUID{first.ID, second.ID, third.ID},
		[]uuid.UUID{samples[0].ID, samples[1].ID, samples[2].ID})
	s.Equal([]byte("two"), samples[1].Audio)
	s.Equal("Access Granted", samples[1].Phrase)
	s.True(second.CreatedAt.Equal(samples[1].CreatedAt))
}

func (s *StoreTestSuite) TestNewest() {
	_, err := s.store.Newest(s.ctx, "alice")
	s.ErrorIs(err, ErrNotFound)

	s.add("alice", "one")
	latest := s.add("alice", "two")
	s.add("alicia", "prefix sibling")

	newest, err := s.store.Newest(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(latest.ID, newest.ID)
	s.Equal([]byte("two"), newest.Audio)
}

func (s *StoreTestSuite) TestExplicitTimestampsOrder() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.store.Add(s.ctx, Sample{UserID: "carol", Audio: []byte("late"), CreatedAt: base.Add(time.Hour)})
	s.Require().NoError(err)
	_, err = s.store.Add(s.ctx, Sample{UserID: "carol", Audio: []byte("early"), CreatedAt: base})
	s.Require().NoError(err)

	newest, err := s.store.Newest(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal([]byte("late"), newest.Audio)

	samples, err := s.store.List(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal([]byte("early"), samples[0].Audio)
}

func (s *StoreTestSuite) TestCountAndClear() {
	s.add("alice", "one")
	s.add("alice", "two")
	s.add("bob", "three")

	n, err := s.store.Count(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, n)

	s.Require().NoError(s.store.Clear(s.ctx, "alice"))

	n, err = s.store.Count(s.ctx, "alice")
	s.Require().NoError(err)
	s.Zero(n)

	n, err = s.store.Count(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(1, n)

	samples, err := s.store.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(samples)
}

func (s *StoreTestSuite) TestUsersAndReset() {
	s.add("bob", "1")
	s.add("alice", "2")
	s.add("bob", "3")

	users, err := s.store.Users(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob"}, users)

	s.Require().NoError(s.store.Reset(s.ctx))

	users, err = s.store.Users(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)

	_, err = s.store.Newest(s.ctx, "bob")
	s.ErrorIs(err, ErrNotFound)
}

func (s *StoreTestSuite) TestInvalidInput() {
	for _, user := range []string{"", "  ", "a:b"} {
		_, err := s.store.Add(s.ctx, Sample{UserID: user, Audio: []byte("x")})
		s.ErrorIs(err, ErrInvalidUser)
		_, err = s.store.List(s.ctx, user)
		s.ErrorIs(err, ErrInvalidUser)
	}

	_, err := s.store.Add(s.ctx, Sample{UserID: "alice"})
	s.Error(err)
}

func (s *StoreTestSuite) TestStoredAudioIsCopied() {
	audio := []byte("abc")
	_, err := s.store.Add(s.ctx, Sample{UserID: "dave", Audio: audio})
	s.Require().NoError(err)
	audio[0] = 'z'

	newest, err := s.store.Newest(s.ctx, "dave")
	s.Require().NoError(err)
	s.Equal([]byte("abc"), newest.Audio)
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(clock func() time.Time) Store {
		return NewMemory(clock)
	}})
}

func TestBadgerStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(clock func() time.Time) Store {
		s, err := NewBadger(BadgerOptions{InMemory: true, Clock: clock})
		require.NoError(t, err)
		return s
	}})
}

func TestBadgerStore_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewBadger(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	added, err := s.Add(ctx, Sample{UserID: "erin", Audio: []byte("persisted")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewBadger(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	newest, err := s.Newest(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, added.ID, newest.ID)
	assert.Equal(t, []byte("persisted"), newest.Audio)
}

func TestNewBadger_RequiresDir(t *testing.T) {
	_, err := NewBadger(BadgerOptions{})
	assert.Error(t, err)
}

func TestSampleCodec(t *testing.T) {
	in := Sample{
		ID:        uuid.New(),
		UserID:    "frank",
		Phrase:    "Access Granted",
		Format:    "webm",
		CreatedAt: time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
		Audio:     []byte{0, 1, 2, 255},
	}

	data, err := encodeSample(in)
	require.NoError(t, err)
	out, err := decodeSample(data)
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Audio, out.Audio)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))

	_, err = decodeSample([]byte{0xc1})
	assert.Error(t, err)
}

func TestSampleKeyOrdering(t *testing.T) {
	early := Sample{UserID: "u", ID: uuid.New(), CreatedAt: time.Unix(9, 0)}
	late := Sample{UserID: "u", ID: uuid.New(), CreatedAt: time.Unix(10, 0)}
	assert.Less(t, string(sampleKey(early)), string(sampleKey(late)))
	assert.Equal(t, "u", userFromKey(sampleKey(early)))
	assert.True(t, errors.Is(ValidateUserID("x:y"), ErrInvalidUser))
}
