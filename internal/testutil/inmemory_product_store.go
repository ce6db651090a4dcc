package testutil

import (
	"context"
	"sync"

	"github.com/subcart/subcart/internal/domain/product"
	ierr "github.com/subcart/subcart/internal/errors"
)

// InMemoryProductStore is an in-memory product catalog for tests.
type InMemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]*product.Product
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		products: make(map[string]*product.Product),
	}
}

// Add registers a product under its id.
func (s *InMemoryProductStore) Add(p *product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *InMemoryProductStore) Get(ctx context.Context, id string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ierr.NewError("product not found").
			WithHintf("Product with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryProductStore) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}

	return nil, ierr.NewError("product not found").
		WithHintf("Product with slug %s was not found", slug).
		Mark(ierr.ErrNotFound)
}

// Clear removes all products.
func (s *InMemoryProductStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[string]*product.Product)
}
