// Package session keeps the latest scan result per page session. A session
// holds at most one result; rescans overwrite and navigation invalidates.
package session

import (
	"context"
	"sync"

	"github.com/pagewarden/pagewarden/pkg/snapshot"
)

// Store is the per-session result cache. Writes are last-write-wins:
// a rescan of the same session replaces the previous result wholesale.
type Store interface {
	// Put installs the result for a session, replacing any previous one.
	Put(ctx context.Context, sessionID string, result *snapshot.ScanResult) error

	// Get returns the current result for a session, or ok=false when the
	// session has no result (never scanned, or invalidated).
	Get(ctx context.Context, sessionID string) (*snapshot.ScanResult, bool, error)

	// Invalidate discards the session's result. Invalidating an absent
	// session is a no-op.
	Invalidate(ctx context.Context, sessionID string) error
}

// MemoryStore is the default in-process store.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*snapshot.ScanResult
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*snapshot.ScanResult)}
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, result *snapshot.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[sessionID] = result
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*snapshot.ScanResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[sessionID]
	return result, ok, nil
}

func (s *MemoryStore) Invalidate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, sessionID)
	return nil
}
