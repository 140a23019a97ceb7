package supplier

import "context"

// Repository is the read contract over supplier master data.  The storage
// layer behind it is owned by the enclosing application.
type Repository interface {
	// FindByID returns the supplier or a SupplierNotFound error.
	FindByID(ctx context.Context, id string) (*Supplier, error)
	// FindByIDs returns the suppliers that exist; missing ids are omitted.
	FindByIDs(ctx context.Context, ids []string) ([]*Supplier, error)
	// Count returns the number of supplier records.
	Count(ctx context.Context) (int64, error)
}
