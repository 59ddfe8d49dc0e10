package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ansonwcy/ccusage-overlay/internal/domain"
)

// DefaultTTL is how long a persisted bundle stays valid. A stale snapshot is
// treated as absent.
const DefaultTTL = 24 * time.Hour

var (
	bucketName   = []byte("snapshot")
	keyPayload   = []byte("payload")
	keyWrittenAt = []byte("written_at")
)

// Store persists the last aggregate bundle so a restart can show data before
// the first live aggregation completes. The payload is an opaque JSON blob;
// only the written-at timestamp is interpreted.
type Store struct {
	db  *bolt.DB
	ttl time.Duration
}

// Open opens (or creates) the snapshot database at path.
func Open(path string, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot bucket: %w", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored bundle and stamps it with now.
func (s *Store) Save(b *domain.Bundle, now time.Time) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if err := bkt.Put(keyPayload, payload); err != nil {
			return err
		}
		return bkt.Put(keyWrittenAt, []byte(now.UTC().Format(time.RFC3339Nano)))
	})
}

// Load returns the stored bundle, or nil when none exists or the stored copy
// is older than the TTL relative to now.
func (s *Store) Load(now time.Time) (*domain.Bundle, error) {
	var payload, stamp []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		if p := bkt.Get(keyPayload); p != nil {
			payload = append([]byte(nil), p...)
		}
		if t := bkt.Get(keyWrittenAt); t != nil {
			stamp = append([]byte(nil), t...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if payload == nil || stamp == nil {
		return nil, nil
	}

	writtenAt, err := time.Parse(time.RFC3339Nano, string(stamp))
	if err != nil {
		return nil, nil // unreadable stamp, treat as absent
	}
	if now.Sub(writtenAt) > s.ttl {
		return nil, nil
	}

	var b domain.Bundle
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, nil // corrupt payload, treat as absent
	}
	return &b, nil
}
