package repository

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/subcart/subcart/internal/domain/discount"
	"github.com/subcart/subcart/internal/domain/membership"
	"github.com/subcart/subcart/internal/domain/payment"
	"github.com/subcart/subcart/internal/domain/product"
	"github.com/subcart/subcart/internal/domain/taxrate"
	ierr "github.com/subcart/subcart/internal/errors"
)

// Seed is the JSON shape of a catalog file.
type Seed struct {
	Products      []*product.Product       `json:"products"`
	Memberships   []*membership.Membership `json:"memberships"`
	Payments      []*payment.Payment       `json:"payments"`
	DiscountCodes []*discount.Code         `json:"discount_codes"`
	TaxRates      []*taxrate.TaxRate       `json:"tax_rates"`
}

// Store is a catalog-file-backed implementation of every repository the
// pricing engine depends on. Lookups are read-heavy; writes only happen
// on load.
type Store struct {
	mu sync.RWMutex

	products    map[string]*product.Product
	memberships map[string]*membership.Membership
	payments    map[string]*payment.Payment
	discounts   map[string]*discount.Code
	taxRates    []*taxrate.TaxRate
}

func NewStore() *Store {
	return &Store{
		products:    make(map[string]*product.Product),
		memberships: make(map[string]*membership.Membership),
		payments:    make(map[string]*payment.Payment),
		discounts:   make(map[string]*discount.Code),
	}
}

// LoadFile reads a catalog JSON file into the store, replacing any
// previously loaded data.
func (s *Store) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to read catalog file").
			Mark(ierr.ErrSystem)
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return ierr.WithError(err).
			WithMessage("failed to parse catalog file").
			Mark(ierr.ErrValidation)
	}

	s.LoadSeed(seed)
	return nil
}

// LoadSeed replaces the store contents with the given seed.
func (s *Store) LoadSeed(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[string]*product.Product, len(seed.Products))
	for _, p := range seed.Products {
		s.products[p.ID] = p
	}

	s.memberships = make(map[string]*membership.Membership, len(seed.Memberships))
	for _, m := range seed.Memberships {
		s.memberships[m.ID] = m
	}

	s.payments = make(map[string]*payment.Payment, len(seed.Payments))
	for _, p := range seed.Payments {
		s.payments[p.ID] = p
	}

	s.discounts = make(map[string]*discount.Code, len(seed.DiscountCodes))
	for _, c := range seed.DiscountCodes {
		s.discounts[strings.ToUpper(c.Code)] = c
	}

	s.taxRates = seed.TaxRates
}

func (s *Store) Get(ctx context.Context, id string) (*product.Product, error) {
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

func (s *Store) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
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

// Memberships exposes the store as a membership repository.
func (s *Store) Memberships() membership.Repository {
	return membershipStore{s}
}

// Payments exposes the store as a payment repository.
func (s *Store) Payments() payment.Repository {
	return paymentStore{s}
}

// Discounts exposes the store as a discount repository.
func (s *Store) Discounts() discount.Repository {
	return discountStore{s}
}

// TaxRates exposes the store as a tax rate repository.
func (s *Store) TaxRates() taxrate.Repository {
	return taxRateStore{s}
}

type membershipStore struct{ *Store }

func (s membershipStore) Get(ctx context.Context, id string) (*membership.Membership, error) {
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

type paymentStore struct{ *Store }

func (s paymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

type discountStore struct{ *Store }

func (s discountStore) GetByCode(ctx context.Context, code string) (*discount.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.discounts[strings.ToUpper(code)]
	if !ok {
		return nil, ierr.NewError("discount code not found").
			WithHintf("The code %s was not found", code).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

type taxRateStore struct{ *Store }

func (s taxRateStore) RatesFor(ctx context.Context, country, taxCategory, state, city string) ([]*taxrate.TaxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*taxrate.TaxRate

	for _, r := range s.taxRates {
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
