package tenant

import (
	"context"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
)

// Store is a live handle to one tenant's isolated data store. A handle is
// created on first resolution of a school code, cached for the process
// lifetime, and shared by every operation for that code; its lifetime
// extends at least as long as any operation in flight.
type Store interface {
	// Typed collection accessors. Pure read/write views, no business logic.
	Classes() academics.ClassRepository
	Tests() academics.TestRepository
	Students() academics.StudentRepository
	TestTypes() academics.TestTypeRepository
	Fees() fees.Repository

	// Ping checks the underlying connection.
	Ping(ctx context.Context) error

	// Close releases the handle's resources. In-flight operations complete
	// first.
	Close()
}

// StoreResolver resolves a school code to the tenant's store handle.
type StoreResolver interface {
	// Resolve returns the cached handle for the code, creating one on first
	// use. Fails with shared.ErrTenantNotFound for unregistered codes and
	// shared.ErrConnection when the store is unreachable after bounded
	// retries. Concurrent first resolutions of the same code create exactly
	// one handle.
	Resolve(ctx context.Context, code string) (Store, error)

	// Invalidate drops the cached handle for a code. Safe while operations
	// are in flight: they finish against the old handle, new resolutions
	// dial fresh.
	Invalidate(code string)
}
