package taxrate

import "context"

// Repository resolves the tax rates applicable to a jurisdiction and
// tax category. State and city may be empty.
type Repository interface {
	RatesFor(ctx context.Context, country, taxCategory, state, city string) ([]*TaxRate, error)
}
