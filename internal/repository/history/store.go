// Package history holds the one mutable structure in the engine: the
// user -> purchased product ids map.
package history

import (
	"sync"

	"github.com/IlyadI/rec-sys-project-retail/internal/domain"
)

// Store is a purchase history map guarded by a single-writer-many-reader lock.
// Lists are replaced wholesale under the lock (copy-on-write), so a reader
// never observes a half-updated list. Mutations are in-memory only and are
// never written back to the source document.
type Store struct {
	mu    sync.RWMutex
	items map[string][]string
	order []string // user ids in source order
}

// New creates a Store from purchase records in source order.
func New(purchases []domain.UserPurchases) *Store {
	s := &Store{
		items: make(map[string][]string, len(purchases)),
		order: make([]string, 0, len(purchases)),
	}
	for _, p := range purchases {
		if _, dup := s.items[p.UserID]; dup {
			continue
		}
		s.items[p.UserID] = append([]string(nil), p.ProductIDs...)
		s.order = append(s.order, p.UserID)
	}
	return s
}

// Items returns the user's purchased product ids in purchase order.
// Unknown users get an empty list, never an error.
func (s *Store) Items(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.items[userID]...)
}

// Users returns the ids of users with a non-empty history, in source order.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.order))
	for _, u := range s.order {
		if len(s.items[u]) > 0 {
			out = append(out, u)
		}
	}
	return out
}

// Clear empties the user's history. Idempotent; the key stays so the user is
// still known, just without purchases. Unknown users are a no-op.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[userID]; ok {
		s.items[userID] = []string{}
	}
}
