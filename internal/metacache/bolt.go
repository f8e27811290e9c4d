package metacache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	cacheBucket   = "metacache"
	sessionBucket = "session"
	tokenKey      = "access_token"
)

// BoltStore is the persisted client state: cached metadata and the session token
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens a bbolt-backed store at path
func OpenBolt(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	s := &BoltStore{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{cacheBucket, sessionBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) get(bucket, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("%s bucket is missing", bucket)
		}
		if v := b.Get([]byte(key)); v != nil {
			// bbolt values are only valid inside the transaction
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *BoltStore) put(bucket, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("%s bucket is missing", bucket)
		}
		return b.Put([]byte(key), value)
	})
}

func (s *BoltStore) delete(bucket, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("%s bucket is missing", bucket)
		}
		return b.Delete([]byte(key))
	})
}

// GetEntry implements Persister
func (s *BoltStore) GetEntry(key string) ([]byte, bool, error) {
	return s.get(cacheBucket, key)
}

// PutEntry implements Persister
func (s *BoltStore) PutEntry(key string, data []byte) error {
	return s.put(cacheBucket, key, data)
}

// DeleteEntry implements Persister
func (s *BoltStore) DeleteEntry(key string) error {
	return s.delete(cacheBucket, key)
}

// LoadToken returns the saved session token, or "" when signed out
func (s *BoltStore) LoadToken() (string, error) {
	v, _, err := s.get(sessionBucket, tokenKey)
	return string(v), err
}

// SaveToken persists the session token
func (s *BoltStore) SaveToken(token string) error {
	return s.put(sessionBucket, tokenKey, []byte(token))
}

// ClearToken forgets the session token
func (s *BoltStore) ClearToken() error {
	return s.delete(sessionBucket, tokenKey)
}
