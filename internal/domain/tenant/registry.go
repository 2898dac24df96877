package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Registry is the shared store of school metadata. Read-mostly; lookups are
// by normalized code. Implementations return shared.ErrTenantNotFound when
// the code matches no registered school.
type Registry interface {
	// GetByCode returns the tenant for a school code. The code is normalized
	// before lookup, so "SCH1" and "sch1" return the same tenant.
	GetByCode(ctx context.Context, code string) (*Tenant, error)

	// UpdateSettings replaces the tenant's settings blob.
	UpdateSettings(ctx context.Context, id uuid.UUID, s Settings) error
}
