package membership

import "context"

// Repository is the membership store the engine resolves memberships from.
type Repository interface {
	Get(ctx context.Context, id string) (*Membership, error)
}
