package testutil

import (
	"context"
	"sync"

	"github.com/subcart/subcart/internal/domain/taxrate"
)

// InMemoryTaxRateStore is an in-memory tax rate store for tests. A rate
// matches a lookup when its country and category match exactly and its
// state and city are either empty or match.
type InMemoryTaxRateStore struct {
	mu    sync.RWMutex
	rates []*taxrate.TaxRate
}

func NewInMemoryTaxRateStore() *InMemoryTaxRateStore {
	return &InMemoryTaxRateStore{}
}

// Add registers a rate.
func (s *InMemoryTaxRateStore) Add(r *taxrate.TaxRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = append(s.rates, r)
}

func (s *InMemoryTaxRateStore) RatesFor(ctx context.Context, country, taxCategory, state, city string) ([]*taxrate.TaxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*taxrate.TaxRate

	for _, r := range s.rates {
		if r.Country != country || r.TaxCategory != taxCategory {
			continue
		}
		if r.State != "" && r.State != state {
			continue
		}
		if r.City != "" && r.City != city {
			continue
		}
		matches = append(matches, r)
	}

	return matches, nil
}

// Clear removes all rates.
func (s *InMemoryTaxRateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = nil
}
