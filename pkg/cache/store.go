// Package cache is a small disk-backed key/value store with per-entry TTL.
// phosphor uses it to keep collected host facts between runs so that
// startup does not shell out on every launch.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// StoreConfig holds configuration for a Store.
type StoreConfig struct {
	// Dir is where entry files live. It is created if missing.
	Dir string

	// DefaultTTL applies to Put. 0 means entries never expire.
	DefaultTTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Stats holds runtime counters for a Store.
type Stats struct {
	Hits    int64
	Misses  int64
	Expired int64
}

// entry is the JSON document persisted for each key.
type entry struct {
	Key     string          `json:"key"`
	Created time.Time       `json:"created"`
	TTL     time.Duration   `json:"ttl_ns"`
	Value   json.RawMessage `json:"value"`
}

// Store persists each entry as one {hash}.json file. Writes are atomic via
// temp-file-then-rename. A Store is safe for concurrent use within one
// process.
type Store struct {
	cfg StoreConfig

	mu    sync.Mutex
	stats Stats
}

// NewStore creates the cache directory and returns a Store over it.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if cfg.DefaultTTL < 0 {
		cfg.DefaultTTL = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", cfg.Dir, err)
	}
	return &Store{cfg: cfg}, nil
}

// Get returns the raw JSON value stored under key. Missing, corrupt and
// expired entries are misses; expired and corrupt files are removed.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		s.stats.Misses++
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		_ = os.Remove(path)
		s.stats.Misses++
		return nil, false
	}
	if e.TTL > 0 && s.cfg.Now().Sub(e.Created) > e.TTL {
		_ = os.Remove(path)
		s.stats.Expired++
		s.stats.Misses++
		return nil, false
	}

	s.stats.Hits++
	return e.Value, true
}

// Put stores a JSON value under key with the default TTL.
func (s *Store) Put(key string, value []byte) error {
	return s.PutWithTTL(key, value, s.cfg.DefaultTTL)
}

// PutWithTTL stores a JSON value under key. A TTL of 0 never expires.
func (s *Store) PutWithTTL(key string, value []byte, ttl time.Duration) error {
	if !json.Valid(value) {
		return fmt.Errorf("cache: value for %q is not valid JSON", key)
	}
	data, err := json.Marshal(entry{
		Key:     key,
		Created: s.cfg.Now(),
		TTL:     ttl,
		Value:   value,
	})
	if err != nil {
		return fmt.Errorf("cache: marshal entry %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWrite(s.path(key), data, s.cfg.Dir); err != nil {
		return fmt.Errorf("cache: write %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every entry file and stray temp file in the directory.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: clear read dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			_ = os.Remove(filepath.Join(s.cfg.Dir, name))
		}
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.cfg.Dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.cfg.Dir, HashString(key)+".json")
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte, tmpDir string) error {
	tmp, err := os.CreateTemp(tmpDir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}
