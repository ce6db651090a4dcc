package payment

import "context"

// Repository is the payment store the engine resolves payments from.
type Repository interface {
	Get(ctx context.Context, id string) (*Payment, error)
}
