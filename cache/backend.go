// Package cache keeps the last unified inventory snapshot and a bounded
// sync log on local storage.
package cache

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key has never been written or was cleared.
var ErrNotFound = errors.New("cache entry not found")

// Backend stores opaque documents by key.
type Backend interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(key string) error
}

// CacheError wraps a storage or decoding failure.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
