package id

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces globally unique record IDs.
type Generator func() string

// New returns a random UUID string.
func New() string {
	return uuid.NewString()
}

// Sequence returns a Generator yielding prefix-1, prefix-2, ... It is meant
// for deterministic tests and fixtures.
func Sequence(prefix string) Generator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// Short returns the first 8 characters of an ID, for display.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
