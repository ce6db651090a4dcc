package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/subcart/subcart/internal/domain/discount"
	ierr "github.com/subcart/subcart/internal/errors"
)

// InMemoryDiscountStore is an in-memory discount code store for tests.
// Codes are looked up case-insensitively, matching real checkout forms.
type InMemoryDiscountStore struct {
	mu    sync.RWMutex
	codes map[string]*discount.Code
}

func NewInMemoryDiscountStore() *InMemoryDiscountStore {
	return &InMemoryDiscountStore{
		codes: make(map[string]*discount.Code),
	}
}

// Add registers a code under its uppercased form.
func (s *InMemoryDiscountStore) Add(c *discount.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[strings.ToUpper(c.Code)] = c
}

func (s *InMemoryDiscountStore) GetByCode(ctx context.Context, code string) (*discount.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codes[strings.ToUpper(code)]
	if !ok {
		return nil, ierr.NewError("discount code not found").
			WithHintf("The code %s was not found", code).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

// Clear removes all codes.
func (s *InMemoryDiscountStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = make(map[string]*discount.Code)
}
