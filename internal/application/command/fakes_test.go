package command

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

type fakeRegistry struct {
	tenants       map[string]*tenant.Tenant
	savedSettings []tenant.Settings
}

func (r *fakeRegistry) GetByCode(_ context.Context, code string) (*tenant.Tenant, error) {
	t, ok := r.tenants[tenant.NormalizeCode(code)]
	if !ok {
		return nil, shared.NewDomainError("tenant", "GetByCode", shared.ErrTenantNotFound, "no such school")
	}
	copied := *t
	return &copied, nil
}

func (r *fakeRegistry) UpdateSettings(_ context.Context, id uuid.UUID, s tenant.Settings) error {
	for _, t := range r.tenants {
		if t.ID == id {
			t.Settings = s
			r.savedSettings = append(r.savedSettings, s)
			return nil
		}
	}
	return shared.NewDomainError("tenant", "UpdateSettings", shared.ErrTenantNotFound, "tenant does not exist")
}

// fakeTestRepo applies scoring updates to an in-memory test table.
type fakeTestRepo struct {
	tests map[string]*academics.TestRecord
	errOn map[string]error
	calls int
}

func (r *fakeTestRepo) ListActive(context.Context, uuid.UUID) ([]academics.TestRecord, error) {
	var out []academics.TestRecord
	for _, t := range r.tests {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTestRepo) UpdateScoring(_ context.Context, _ uuid.UUID, u academics.ScoringUpdate) (bool, error) {
	r.calls++
	if err, ok := r.errOn[u.TestID]; ok {
		return false, err
	}
	rec, ok := r.tests[u.TestID]
	if !ok {
		return false, nil
	}
	if rec.MaxMarks == u.MaxMarks && rec.Weightage == u.Weightage {
		return false, nil
	}
	rec.MaxMarks = u.MaxMarks
	rec.Weightage = u.Weightage
	return true, nil
}

// fakeStudentRepo models the idempotent field backfill over a guardian-phone
// column.
type fakeStudentRepo struct {
	students []academics.StudentRecord
}

func (r *fakeStudentRepo) ListActiveMissingField(_ context.Context, schoolID uuid.UUID, _ string) ([]academics.StudentRecord, error) {
	var out []academics.StudentRecord
	for _, s := range r.students {
		if s.SchoolID == schoolID && s.IsActive && s.GuardianPhone == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) SetFieldWhereMissing(_ context.Context, schoolID uuid.UUID, _, value, _ string) (int, error) {
	modified := 0
	for i := range r.students {
		s := &r.students[i]
		if s.SchoolID == schoolID && s.IsActive && s.GuardianPhone == nil {
			v := value
			s.GuardianPhone = &v
			modified++
		}
	}
	return modified, nil
}

type fakeTestTypeRepo struct {
	configs map[string]*academics.TestTypeConfig // keyed by academic year
	saved   []*academics.TestTypeConfig
}

func (r *fakeTestTypeRepo) GetForYear(_ context.Context, _ uuid.UUID, year string) (*academics.TestTypeConfig, error) {
	return r.configs[year], nil
}

func (r *fakeTestTypeRepo) SaveForYear(_ context.Context, _ uuid.UUID, cfg *academics.TestTypeConfig) error {
	if r.configs == nil {
		r.configs = make(map[string]*academics.TestTypeConfig)
	}
	r.configs[cfg.AcademicYear] = cfg
	r.saved = append(r.saved, cfg)
	return nil
}

type fakeStore struct {
	testRepo     *fakeTestRepo
	studentRepo  *fakeStudentRepo
	testTypeRepo *fakeTestTypeRepo
}

func (s *fakeStore) Classes() academics.ClassRepository      { return nil }
func (s *fakeStore) Tests() academics.TestRepository         { return s.testRepo }
func (s *fakeStore) Students() academics.StudentRepository   { return s.studentRepo }
func (s *fakeStore) TestTypes() academics.TestTypeRepository { return s.testTypeRepo }
func (s *fakeStore) Fees() fees.Repository                   { return nil }
func (s *fakeStore) Ping(context.Context) error              { return nil }
func (s *fakeStore) Close()                                  {}

type fakeResolver struct {
	stores map[string]tenant.Store
}

func (r *fakeResolver) Resolve(_ context.Context, code string) (tenant.Store, error) {
	s, ok := r.stores[tenant.NormalizeCode(code)]
	if !ok {
		return nil, shared.NewDomainError("tenant", "Resolve", shared.ErrTenantNotFound, "no such school")
	}
	return s, nil
}

func (r *fakeResolver) Invalidate(string) {}
