package command

import (
	"context"
	"time"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

// AcademicYearUpdate is a partial update of a tenant's academic year.
// CurrentYear is required; nil dates preserve the stored values.
type AcademicYearUpdate struct {
	CurrentYear string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Settings is the academic settings service: it reads and writes the
// per-tenant academic-year and class configuration that other components
// consult for defaults.
type Settings struct {
	registry tenant.Registry
	resolver tenant.StoreResolver
	log      *logger.Logger
	now      func() time.Time
}

// NewSettings creates the settings service.
func NewSettings(registry tenant.Registry, resolver tenant.StoreResolver, log *logger.Logger) *Settings {
	if log == nil {
		log = logger.Default()
	}
	return &Settings{
		registry: registry,
		resolver: resolver,
		log:      log.With(logger.Component("settings")),
		now:      time.Now,
	}
}

// GetAcademicYear returns the tenant's academic year, or the placeholder
// current-year window when none has ever been set.
func (s *Settings) GetAcademicYear(ctx context.Context, ident tenant.Identity) (tenant.AcademicYear, error) {
	t, err := s.registry.GetByCode(ctx, ident.Code)
	if err != nil {
		return tenant.AcademicYear{}, err
	}

	if t.Settings.AcademicYear.IsZero() {
		return tenant.DefaultAcademicYear(s.now()), nil
	}
	return t.Settings.AcademicYear, nil
}

// UpdateAcademicYear applies a partial academic-year update. CurrentYear is
// required; omitted dates keep their stored values. Validation failures
// leave the tenant untouched.
func (s *Settings) UpdateAcademicYear(ctx context.Context, ident tenant.Identity, u AcademicYearUpdate) error {
	if u.CurrentYear == "" {
		return shared.NewDomainError("tenant", "UpdateAcademicYear", shared.ErrValidation, "current year is required")
	}

	t, err := s.registry.GetByCode(ctx, ident.Code)
	if err != nil {
		return err
	}

	year := t.Settings.AcademicYear
	year.CurrentYear = u.CurrentYear
	if u.StartDate != nil {
		year.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		year.EndDate = *u.EndDate
	}

	settings := t.Settings
	settings.AcademicYear = year

	if err := s.registry.UpdateSettings(ctx, t.ID, settings); err != nil {
		return err
	}

	s.log.Info("academic year updated",
		logger.SchoolCode(ident.Code),
		logger.AcademicYear(u.CurrentYear),
	)
	return nil
}

// UpdateClasses replaces the tenant's configured class list and reconciles
// the per-class test-type configuration for the current academic year. The
// reconciliation is additive: see academics.ReconcileClassTestTypes.
func (s *Settings) UpdateClasses(ctx context.Context, ident tenant.Identity, classNames []string) error {
	if len(classNames) == 0 {
		return shared.NewDomainError("tenant", "UpdateClasses", shared.ErrValidation, "class list is empty")
	}

	t, err := s.registry.GetByCode(ctx, ident.Code)
	if err != nil {
		return err
	}

	settings := t.Settings
	settings.Classes = append([]string(nil), classNames...)

	if err := s.registry.UpdateSettings(ctx, t.ID, settings); err != nil {
		return err
	}

	year := t.Settings.AcademicYear
	if year.IsZero() {
		year = tenant.DefaultAcademicYear(s.now())
	}

	store, err := s.resolver.Resolve(ctx, ident.Code)
	if err != nil {
		return err
	}

	testTypes := store.TestTypes()
	existing, err := testTypes.GetForYear(ctx, t.ID, year.CurrentYear)
	if err != nil {
		return err
	}

	merged := academics.ReconcileClassTestTypes(existing, year.CurrentYear, classNames)
	if err := testTypes.SaveForYear(ctx, t.ID, merged); err != nil {
		return err
	}

	s.log.Info("class list updated",
		logger.SchoolCode(ident.Code),
		logger.Int("classes", len(classNames)),
		logger.AcademicYear(year.CurrentYear),
	)
	return nil
}
