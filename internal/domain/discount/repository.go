package discount

import "context"

// Repository validates and resolves discount codes.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*Code, error)
}
