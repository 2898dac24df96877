package command

import (
	"context"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

// Scoring applies bulk test scoring updates for a tenant.
type Scoring struct {
	resolver tenant.StoreResolver
	log      *logger.Logger
}

// NewScoring creates the scoring command service.
func NewScoring(resolver tenant.StoreResolver, log *logger.Logger) *Scoring {
	if log == nil {
		log = logger.Default()
	}
	return &Scoring{
		resolver: resolver,
		log:      log.With(logger.Component("scoring")),
	}
}

// UpdateTestScoring applies each scoring update independently. Updates are
// not transactional across records: a per-record failure is counted and the
// batch continues, so the result reflects partial progress.
func (s *Scoring) UpdateTestScoring(ctx context.Context, ident tenant.Identity, updates []academics.ScoringUpdate) (BatchResult, error) {
	result := BatchResult{Requested: len(updates)}

	if len(updates) == 0 {
		return result, nil
	}

	store, err := s.resolver.Resolve(ctx, ident.Code)
	if err != nil {
		return result, err
	}

	tests := store.Tests()
	for _, u := range updates {
		if u.TestID == "" {
			result.recordFailure(shared.NewDomainError("academics", "UpdateScoring", shared.ErrEmptyValue, "test id is empty"))
			continue
		}

		modified, err := tests.UpdateScoring(ctx, ident.ID, u)
		if err != nil {
			result.recordFailure(err)
			continue
		}
		if modified {
			result.Modified++
		}
	}

	s.log.Info("bulk scoring update finished",
		logger.SchoolCode(ident.Code),
		logger.Int("requested", result.Requested),
		logger.ModifiedCount(result.Modified),
		logger.Int("failed", result.Failed),
	)

	return result, nil
}
