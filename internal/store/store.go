// Package store provides the key-value persistence the ledger reads and
// writes whole tables through.
package store

import (
	"fmt"
	"path/filepath"
)

// Store loads and saves raw records by key. A Save must be all-or-nothing:
// a later Load sees either the previous value or the new one.
type Store interface {
	// Load returns the stored bytes and true, or nil and false when the key
	// has never been saved.
	Load(key string) ([]byte, bool, error)
	Save(key string, data []byte) error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendFile, BackendSQLite, BackendMemory:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a Store.
type CleanupFunc func() error

// Open creates the Store for backend. path is a directory for the file
// backend and a database file for sqlite; relative paths resolve against dir.
func Open(backend Backend, dir, path string) (Store, CleanupFunc, error) {
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	switch backend {
	case BackendFile:
		if path == "" {
			path = filepath.Join(dir, "data")
		}
		s, err := NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case BackendSQLite:
		if path == "" {
			path = filepath.Join(dir, "videoquest.db")
		}
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendMemory:
		return NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Record is one key/value pair of a multi-key write.
type Record struct {
	Key  string
	Data []byte
}

// BatchSaver is implemented by stores that can write several keys in one
// atomic step.
type BatchSaver interface {
	SaveBatch(records []Record) error
}

// SaveAll writes records atomically when s supports it, otherwise one key
// at a time in order, stopping at the first failure.
func SaveAll(s Store, records []Record) error {
	if b, ok := s.(BatchSaver); ok {
		return b.SaveBatch(records)
	}
	for _, r := range records {
		if err := s.Save(r.Key, r.Data); err != nil {
			return err
		}
	}
	return nil
}
