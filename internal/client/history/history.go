// Package history keeps the client's recently viewed itineraries in a local
// BoltDB file, together with the capability token obtained for each one.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

var bucketHistory = []byte("shiori_history")

// MaxEntries caps the history; saving beyond it evicts the least recently
// accessed itinerary.
const MaxEntries = 10

// ErrNotFound is returned when no history entry exists for an itinerary.
var ErrNotFound = errors.New("history entry not found")

// Entry is one remembered itinerary. Token may be empty when the itinerary
// was viewed without authenticating.
type Entry struct {
	ShioriID   string    `json:"shioriId"`
	Title      string    `json:"title"`
	Token      string    `json:"token,omitempty"`
	AccessedAt time.Time `json:"accessedAt"`
}

// Store persists history entries in a BoltDB file.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the history database at dbPath.
func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	store := &Store{db: db}

	if err := store.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketHistory); err != nil {
			return fmt.Errorf("failed to create history bucket: %w", err)
		}
		return nil
	})
}

// Save upserts the entry for its itinerary and evicts the oldest entries
// beyond MaxEntries in the same transaction.
func (s *Store) Save(ctx context.Context, entry *Entry) error {
	if entry.ShioriID == "" {
		return errors.New("shiori id is required")
	}
	if entry.AccessedAt.IsZero() {
		entry.AccessedAt = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHistory)

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal history entry: %w", err)
		}
		if err := b.Put([]byte(entry.ShioriID), data); err != nil {
			return fmt.Errorf("failed to save history entry: %w", err)
		}

		entries, err := decodeAll(b)
		if err != nil {
			return err
		}
		if len(entries) <= MaxEntries {
			return nil
		}

		sortByAccess(entries)
		for _, old := range entries[MaxEntries:] {
			if err := b.Delete([]byte(old.ShioriID)); err != nil {
				return fmt.Errorf("failed to evict history entry: %w", err)
			}
		}
		return nil
	})
}

// Get returns the entry for one itinerary.
func (s *Store) Get(ctx context.Context, shioriID string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketHistory).Get([]byte(shioriID))
		if data == nil {
			return ErrNotFound
		}
		entry = &Entry{}
		if err := json.Unmarshal(data, entry); err != nil {
			return fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns all entries, most recently accessed first.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		entries, err = decodeAll(tx.Bucket(bucketHistory))
		return err
	})
	if err != nil {
		return nil, err
	}
	sortByAccess(entries)
	return entries, nil
}

// Forget drops the stored token for one itinerary while keeping the history
// row itself. Forgetting an absent itinerary is a no-op.
func (s *Store) Forget(ctx context.Context, shioriID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		data := b.Get([]byte(shioriID))
		if data == nil {
			return nil
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entry.Token = ""
		updated, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("failed to marshal history entry: %w", err)
		}
		return b.Put([]byte(shioriID), updated)
	})
}

func decodeAll(b *bbolt.Bucket) ([]*Entry, error) {
	var entries []*Entry
	err := b.ForEach(func(k, v []byte) error {
		entry := &Entry{}
		if err := json.Unmarshal(v, entry); err != nil {
			return fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func sortByAccess(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessedAt.After(entries[j].AccessedAt)
	})
}
