package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// GetTyped decodes a cached JSON value into T. It returns the zero value
// and false if the key is missing, expired, or does not decode as T.
func GetTyped[T any](s *Store, key string) (T, bool) {
	var v T
	data, ok := s.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// PutTyped encodes value as JSON and stores it with the default TTL.
func PutTyped[T any](s *Store, key string, value T) error {
	return PutTypedWithTTL(s, key, value, s.cfg.DefaultTTL)
}

// PutTypedWithTTL encodes value as JSON and stores it with ttl.
func PutTypedWithTTL[T any](s *Store, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal typed value for %q: %w", key, err)
	}
	return s.PutWithTTL(key, data, ttl)
}
