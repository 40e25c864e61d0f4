package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName   = "cache.db"
	valuesBucket = "values"
	metaBucket   = "meta"
)

// Error reports a cache write or serialization failure. Cache reads never
// surface errors; they fail open and report a miss instead.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Meta is the metadata record persisted alongside each cached value.
type Meta struct {
	Created time.Time `json:"created"`
	TTL     int       `json:"ttl"`
	Expires time.Time `json:"expires"`
}

type memEntry struct {
	Value []byte
	Meta  Meta
}

// Store is a TTL cache persisted in BoltDB with an in-memory overlay for
// fast reads. Each key is stored as two records: the serialized value in
// the values bucket and its Meta in the meta bucket. Expiry is evaluated
// lazily on read; there is no background sweeper.
type Store struct {
	db         *bolt.DB
	memCache   sync.Map
	dir        string
	defaultTTL time.Duration

	now func() time.Time
}

// Open opens (or creates) the cache database under dir. Entries written by
// a previous process are preloaded into the in-memory overlay.
func Open(dir string, defaultTTL time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}

	dbPath := filepath.Join(dir, dbFileName)
	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database at %s (size: %d bytes)", logcolors.LogCacheInit, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database at %s", logcolors.LogCacheInit, dbPath)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(valuesBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache buckets: %v", err)
	}

	s := &Store{
		db:         db,
		dir:        dir,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}

	if err := s.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload cache to memory: %v", logcolors.LogCache, err)
	}

	log.Infof("%s Cache initialized at %s (default TTL: %v)", logcolors.LogCache, dir, defaultTTL)
	return s, nil
}

// loadToMemory loads all persisted entries into the in-memory overlay.
func (s *Store) loadToMemory() error {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		values := tx.Bucket([]byte(valuesBucket))
		meta := tx.Bucket([]byte(metaBucket))
		if values == nil || meta == nil {
			return nil
		}

		return values.ForEach(func(k, v []byte) error {
			rawMeta := meta.Get(k)
			if rawMeta == nil {
				log.Warnf("%s Value without metadata for key %s, skipping", logcolors.LogCache, string(k))
				return nil
			}

			var m Meta
			if err := json.Unmarshal(rawMeta, &m); err != nil {
				log.Warnf("%s Failed to unmarshal metadata for key %s: %v", logcolors.LogCache, string(k), err)
				return nil
			}

			value := make([]byte, len(v))
			copy(value, v)
			s.memCache.Store(string(k), memEntry{Value: value, Meta: m})
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk to memory", logcolors.LogCache, count)
	return nil
}

// Set serializes value and stores it under key with the given TTL. A
// non-positive ttl uses the store default. An existing entry for key is
// overwritten.
func (s *Store) Set(key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}

	now := s.now()
	m := Meta{
		Created: now,
		TTL:     int(ttl / time.Second),
		Expires: now.Add(ttl),
	}

	rawMeta, err := json.Marshal(m)
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(valuesBucket)).Put([]byte(key), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(metaBucket)).Put([]byte(key), rawMeta)
	})
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}

	s.memCache.Store(key, memEntry{Value: data, Meta: m})
	log.Debugf("%s Cached value for key %s (ttl: %v)", logcolors.LogCache, key, ttl)
	return nil
}

// lookup returns the raw value for key if present and unexpired. Expired
// entries are deleted on the way out. Read failures are logged and reported
// as misses.
func (s *Store) lookup(key string) ([]byte, bool) {
	if v, ok := s.memCache.Load(key); ok {
		entry := v.(memEntry)
		if s.now().After(entry.Meta.Expires) {
			s.Delete(key)
			return nil, false
		}
		return entry.Value, true
	}

	var value []byte
	var m Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		rawMeta := tx.Bucket([]byte(metaBucket)).Get([]byte(key))
		if rawMeta == nil {
			return errNotFound
		}
		if err := json.Unmarshal(rawMeta, &m); err != nil {
			return err
		}

		data := tx.Bucket([]byte(valuesBucket)).Get([]byte(key))
		if data == nil {
			return errNotFound
		}
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		if err != errNotFound {
			log.Warnf("%s Failed to read cached value for key %s: %v", logcolors.LogCache, key, err)
		}
		return nil, false
	}

	if s.now().After(m.Expires) {
		s.Delete(key)
		return nil, false
	}

	s.memCache.Store(key, memEntry{Value: value, Meta: m})
	return value, true
}

var errNotFound = fmt.Errorf("cache entry not found")

// Get retrieves the value for key into out if present and unexpired.
// Ordinary misses and read failures both return false; reads fail open.
func (s *Store) Get(key string, out any) bool {
	value, ok := s.lookup(key)
	if !ok {
		return false
	}

	if err := json.Unmarshal(value, out); err != nil {
		log.Warnf("%s Failed to unmarshal cached value for key %s: %v", logcolors.LogCache, key, err)
		return false
	}

	log.Debugf("%s Retrieved cached value for key %s", logcolors.LogCache, key)
	return true
}

// Delete removes key from the cache. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.memCache.Delete(key)

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(valuesBucket)).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket([]byte(metaBucket)).Delete([]byte(key))
	})
	if err != nil {
		log.Warnf("%s Failed to delete cached value for key %s: %v", logcolors.LogCache, key, err)
	}
}

// Exists reports whether key holds an unexpired value. Like Get, it evicts
// the entry if it has expired.
func (s *Store) Exists(key string) bool {
	_, ok := s.lookup(key)
	return ok
}

// Clear deletes all entries, or only those whose key contains pattern when
// pattern is non-empty. Returns the number of entries deleted.
func (s *Store) Clear(pattern string) int {
	var keys []string
	s.memCache.Range(func(k, _ any) bool {
		key := k.(string)
		if pattern == "" || strings.Contains(key, pattern) {
			keys = append(keys, key)
		}
		return true
	})

	// Persisted entries may not be in the overlay if a previous load failed.
	s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(valuesBucket)).ForEach(func(k, _ []byte) error {
			key := string(k)
			if _, inMem := s.memCache.Load(key); inMem {
				return nil
			}
			if pattern == "" || strings.Contains(key, pattern) {
				keys = append(keys, key)
			}
			return nil
		})
	})

	for _, key := range keys {
		s.Delete(key)
	}

	log.Infof("%s Cleared %d cache entries", logcolors.LogCacheClear, len(keys))
	return len(keys)
}

// Stats holds point-in-time cache statistics.
type Stats struct {
	TotalEntries   int   `json:"total_entries"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
	ExpiredEntries int   `json:"expired_entries"`
}

// Stats returns entry counts and the serialized size of all stored values.
// Expired entries still on disk are counted but not evicted.
func (s *Store) Stats() Stats {
	var st Stats
	now := s.now()

	s.db.View(func(tx *bolt.Tx) error {
		values := tx.Bucket([]byte(valuesBucket))
		meta := tx.Bucket([]byte(metaBucket))

		return values.ForEach(func(k, v []byte) error {
			st.TotalEntries++
			st.TotalSizeBytes += int64(len(k) + len(v))

			rawMeta := meta.Get(k)
			if rawMeta == nil {
				return nil
			}
			var m Meta
			if err := json.Unmarshal(rawMeta, &m); err != nil {
				return nil
			}
			if now.After(m.Expires) {
				st.ExpiredEntries++
			}
			return nil
		})
	})

	return st
}

// CleanupExpired evicts every expired entry and returns how many were removed.
func (s *Store) CleanupExpired() int {
	var expired []string
	now := s.now()

	s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(metaBucket)).ForEach(func(k, v []byte) error {
			var m Meta
			if err := json.Unmarshal(v, &m); err != nil {
				return nil
			}
			if now.After(m.Expires) {
				expired = append(expired, string(k))
			}
			return nil
		})
	})

	for _, key := range expired {
		s.Delete(key)
	}

	log.Infof("%s Cleaned up %d expired cache entries", logcolors.LogCacheCleanup, len(expired))
	return len(expired)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
