// Package query contains the read side of the admin backend: the reporting
// aggregation engine. Every operation is tenant-scoped through the caller's
// authenticated identity; a school code is never accepted from request input
// on this surface.
package query

import (
	"context"

	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

// DefaultScanPageSize bounds a single fee-record page fetched during an
// aggregation fold.
const DefaultScanPageSize = 500

// Reports is the aggregation engine. It folds page-bounded scans of a
// tenant's fee records into summaries, so one report request never pins an
// unbounded result set.
type Reports struct {
	resolver tenant.StoreResolver
	log      *logger.Logger
	pageSize int
}

// NewReports creates the reporting engine. pageSize <= 0 selects the default.
func NewReports(resolver tenant.StoreResolver, log *logger.Logger, pageSize int) *Reports {
	if log == nil {
		log = logger.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultScanPageSize
	}
	return &Reports{
		resolver: resolver,
		log:      log.With(logger.Component("reports")),
		pageSize: pageSize,
	}
}

// forEachFeeRecord resolves the tenant's store and streams every fee record
// matching the filter through fn, one page at a time. All records are scoped
// by the identity's school id; records from other tenants can never enter a
// fold.
func (r *Reports) forEachFeeRecord(ctx context.Context, ident tenant.Identity, f fees.Filter, fn func(rec *fees.FeeRecord) error) error {
	store, err := r.resolver.Resolve(ctx, ident.Code)
	if err != nil {
		return err
	}

	repo := store.Fees()
	offset := 0
	for {
		page, err := repo.ListPage(ctx, ident.ID, f, r.pageSize, offset)
		if err != nil {
			return shared.WrapError("fees", "Scan", shared.ErrConnection, "fee record scan failed", err)
		}

		for i := range page {
			if err := fn(&page[i]); err != nil {
				return err
			}
		}

		if len(page) < r.pageSize {
			return nil
		}
		offset += len(page)
	}
}
