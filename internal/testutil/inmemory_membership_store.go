package testutil

import (
	"context"
	"sync"

	"github.com/subcart/subcart/internal/domain/membership"
	ierr "github.com/subcart/subcart/internal/errors"
)

// InMemoryMembershipStore is an in-memory membership store for tests.
type InMemoryMembershipStore struct {
	mu          sync.RWMutex
	memberships map[string]*membership.Membership
}

func NewInMemoryMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{
		memberships: make(map[string]*membership.Membership),
	}
}

// Add registers a membership under its id.
func (s *InMemoryMembershipStore) Add(m *membership.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[m.ID] = m
}

func (s *InMemoryMembershipStore) Get(ctx context.Context, id string) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memberships[id]
	if !ok {
		return nil, ierr.NewError("membership not found").
			WithHintf("Membership with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return m, nil
}

// Clear removes all memberships.
func (s *InMemoryMembershipStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = make(map[string]*membership.Membership)
}
