package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB
type Badger struct {
	db     *badger.DB
	now    func() time.Time
	logger logging.Logger
}

// BadgerOptions configures the Badger store
type BadgerOptions struct {
	// Dir is required unless InMemory is set
	Dir      string
	InMemory bool
	Logger   logging.Logger
	// Clock overrides time.Now for sample timestamps
	Clock func() time.Time
}

// NewBadger opens a Badger backed store
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: BadgerOptions.Dir is required for on-disk mode")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	logger = logger.WithFields(logging.Fields{"component": "sample_store"})

	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger: logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample store: %w", err)
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	logger.Debug("Opened sample store", logging.Fields{
		"dir":       opts.Dir,
		"in_memory": opts.InMemory,
	})

	return &Badger{db: db, now: now, logger: logger}, nil
}

func (b *Badger) Add(_ context.Context, s Sample) (Sample, error) {
	s, err := prepare(s, b.now)
	if err != nil {
		return Sample{}, err
	}

	value, err := encodeSample(s)
	if err != nil {
		return Sample{}, err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sampleKey(s), value)
	})
	if err != nil {
		return Sample{}, fmt.Errorf("failed to store sample: %w", err)
	}

	b.logger.Debug("Stored sample", logging.Fields{
		"user_id": s.UserID,
		"id":      s.ID.String(),
		"bytes":   len(s.Audio),
	})
	return s, nil
}

func (b *Badger) List(_ context.Context, userID string) ([]Sample, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	prefix := userPrefix(userID)
	var samples []Sample
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			s, err := decodeSample(val)
			if err != nil {
				return err
			}
			samples = append(samples, s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	return samples, nil
}

func (b *Badger) Newest(_ context.Context, userID string) (Sample, error) {
	if err := ValidateUserID(userID); err != nil {
		return Sample{}, err
	}

	prefix := userPrefix(userID)
	var newest Sample
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.Reverse = true
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		// reverse iteration seeks to the largest key under the prefix
		seek := append(bytes.Clone(prefix), 0xFF)
		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return nil
		}

		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		newest, err = decodeSample(val)
		found = err == nil
		return err
	})
	if err != nil {
		return Sample{}, fmt.Errorf("failed to read newest sample: %w", err)
	}
	if !found {
		return Sample{}, ErrNotFound
	}
	return newest, nil
}

func (b *Badger) Count(_ context.Context, userID string) (int, error) {
	if err := ValidateUserID(userID); err != nil {
		return 0, err
	}

	prefix := userPrefix(userID)
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}

func (b *Badger) Users(_ context.Context) ([]string, error) {
	prefix := rootPrefix()
	seen := make(map[string]struct{})
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if user := userFromKey(it.Item().Key()); user != "" {
				seen[user] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]string, 0, len(seen))
	for user := range seen {
		users = append(users, user)
	}
	sort.Strings(users)
	return users, nil
}

func (b *Badger) Clear(_ context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}

	deleted, err := b.deletePrefix(userPrefix(userID))
	if err != nil {
		return err
	}
	b.logger.Debug("Cleared samples", logging.Fields{"user_id": userID, "deleted": deleted})
	return nil
}

func (b *Badger) Reset(_ context.Context) error {
	deleted, err := b.deletePrefix(rootPrefix())
	if err != nil {
		return err
	}
	b.logger.Debug("Reset sample store", logging.Fields{"deleted": deleted})
	return nil
}

func (b *Badger) deletePrefix(prefix []byte) (int, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan samples: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("failed to delete sample: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to delete samples: %w", err)
	}
	return len(keys), nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's internal logging through the application logger
type badgerLogger struct {
	logger logging.Logger
}

func (l badgerLogger) Errorf(f string, v ...any) {
	l.logger.Error(fmt.Errorf(f, v...), "badger error")
}

func (l badgerLogger) Warningf(f string, v ...any) {
	l.logger.Warn(fmt.Sprintf("badger: "+f, v...))
}

func (l badgerLogger) Infof(string, ...any)  {}
func (l badgerLogger) Debugf(string, ...any) {}
