package command

import (
	"context"

	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

// Backfill is the administrative surface for idempotent field backfills.
// Unlike the reporting surface it takes an explicit school code: operators
// run it against a named tenant, not their own session.
type Backfill struct {
	registry tenant.Registry
	resolver tenant.StoreResolver
	log      *logger.Logger
}

// NewBackfill creates the backfill command service.
func NewBackfill(registry tenant.Registry, resolver tenant.StoreResolver, log *logger.Logger) *Backfill {
	if log == nil {
		log = logger.Default()
	}
	return &Backfill{
		registry: registry,
		resolver: resolver,
		log:      log.With(logger.Component("backfill")),
	}
}

// StudentField sets a default value on every active student whose field is
// currently unset and returns the number of records actually modified.
// Idempotent by construction: a second run finds nothing unset and modifies
// zero records.
func (b *Backfill) StudentField(ctx context.Context, schoolCode, fieldPath, value, updatedBy string) (int, error) {
	if fieldPath == "" {
		return 0, shared.NewDomainError("academics", "Backfill", shared.ErrEmptyValue, "field path is empty")
	}
	if value == "" {
		return 0, shared.NewDomainError("academics", "Backfill", shared.ErrEmptyValue, "value is empty")
	}

	t, err := b.registry.GetByCode(ctx, schoolCode)
	if err != nil {
		return 0, err
	}

	store, err := b.resolver.Resolve(ctx, t.Code)
	if err != nil {
		return 0, err
	}

	modified, err := store.Students().SetFieldWhereMissing(ctx, t.ID, fieldPath, value, updatedBy)
	if err != nil {
		return 0, err
	}

	b.log.Info("student field backfill finished",
		logger.SchoolCode(t.Code),
		logger.String("field_path", fieldPath),
		logger.ModifiedCount(modified),
	)

	return modified, nil
}
