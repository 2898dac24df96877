package fees

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads fee records from one tenant's store. Scans are page
// bounded so a single report request cannot hold resources indefinitely;
// the aggregation engine folds pages until one comes back short.
type Repository interface {
	// ListPage returns up to limit records matching the filter, offset into
	// the filtered set. Records are scoped to schoolID; ordering is stable
	// across pages but otherwise unspecified.
	ListPage(ctx context.Context, schoolID uuid.UUID, f Filter, limit, offset int) ([]FeeRecord, error)
}
