package product

import "context"

// Repository is the product catalog the engine resolves products from.
type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
}
