// Package cache holds the timestamped envelope used for session-scoped state
// that must expire on read rather than only through store TTLs.
package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry pairs a value with the moment it was written.
type Entry[T any] struct {
	Value     T         `json:"value"`
	WrittenAt time.Time `json:"written_at"`
}

// NewEntry stamps value with now.
func NewEntry[T any](value T, now time.Time) Entry[T] {
	return Entry[T]{Value: value, WrittenAt: now.UTC()}
}

// IsExpired reports whether entry is older than ttl at now. A non-positive ttl never expires.
func IsExpired[T any](entry Entry[T], now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	if entry.WrittenAt.IsZero() {
		return true
	}
	return now.Sub(entry.WrittenAt) > ttl
}

// Encode serializes entry for storage.
func Encode[T any](entry Entry[T]) (string, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode cache entry: %w", err)
	}
	return string(raw), nil
}

// Decode parses a stored entry.
func Decode[T any](raw string) (Entry[T], error) {
	var entry Entry[T]
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return Entry[T]{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, nil
}
