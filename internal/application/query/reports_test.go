package query

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
	"github.com/schoolhub/school-admin-hub/pkg/timeutil"
)

// fakeFeeRepo serves fee records from memory with the same paging and
// filtering contract as the real accessor.
type fakeFeeRepo struct {
	records []fees.FeeRecord
}

func (r *fakeFeeRepo) ListPage(_ context.Context, schoolID uuid.UUID, f fees.Filter, limit, offset int) ([]fees.FeeRecord, error) {
	var matched []fees.FeeRecord
	for _, rec := range r.records {
		if rec.SchoolID != schoolID {
			continue
		}
		if !f.Matches(&rec) {
			continue
		}
		if f.From != nil && (rec.NextDueDate == nil || rec.NextDueDate.Before(*f.From)) {
			continue
		}
		if f.To != nil && (rec.NextDueDate == nil || rec.NextDueDate.After(*f.To)) {
			continue
		}
		matched = append(matched, rec)
	}

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

type fakeTenantStore struct {
	feeRepo *fakeFeeRepo
}

func (s *fakeTenantStore) Classes() academics.ClassRepository      { return nil }
func (s *fakeTenantStore) Tests() academics.TestRepository         { return nil }
func (s *fakeTenantStore) Students() academics.StudentRepository   { return nil }
func (s *fakeTenantStore) TestTypes() academics.TestTypeRepository { return nil }
func (s *fakeTenantStore) Fees() fees.Repository                   { return s.feeRepo }
func (s *fakeTenantStore) Ping(context.Context) error              { return nil }
func (s *fakeTenantStore) Close()                                  {}

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

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError})
}

func money(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func feeRecord(schoolID uuid.UUID, student, class, section string, billed, paid string, status fees.Status) fees.FeeRecord {
	b := money(billed)
	p := money(paid)
	return fees.FeeRecord{
		SchoolID:       schoolID,
		StudentID:      student,
		StudentClass:   class,
		StudentSection: section,
		AcademicYear:   "2025-2026",
		TotalAmount:    b,
		TotalPaid:      p,
		TotalPending:   b.Sub(p),
		Status:         status,
	}
}

func reportsOver(t *testing.T, schoolID uuid.UUID, records []fees.FeeRecord, pageSize int) (*Reports, tenant.Identity) {
	t.Helper()
	ident := tenant.Identity{ID: schoolID, Code: "dps001"}
	resolver := &fakeResolver{stores: map[string]tenant.Store{
		"dps001": &fakeTenantStore{feeRepo: &fakeFeeRepo{records: records}},
	}}
	return NewReports(resolver, testLogger(), pageSize), ident
}

func TestSchoolSummary(t *testing.T) {
	schoolID := uuid.New()
	records := []fees.FeeRecord{
		feeRecord(schoolID, "S1", "Grade 1", "A", "1000", "1000", fees.StatusPaid),
		feeRecord(schoolID, "S2", "Grade 1", "A", "1000", "400", fees.StatusPartial),
		feeRecord(schoolID, "S3", "Grade 2", "B", "2000", "0", fees.StatusOverdue),
	}
	r, ident := reportsOver(t, schoolID, records, 0)

	dto, err := r.SchoolSummary(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 3, dto.RecordCount)
	assert.True(t, dto.TotalBilled.Equal(money("4000")))
	assert.True(t, dto.TotalCollected.Equal(money("1400")))
	assert.True(t, dto.TotalOutstanding.Equal(money("2600")))
	assert.True(t, dto.TotalBilled.Equal(dto.TotalCollected.Add(dto.TotalOutstanding)))
	assert.Equal(t, map[string]int{"paid": 1, "partial": 1, "overdue": 1}, dto.StatusCounts)
}

func TestSchoolSummary_FoldsAcrossPages(t *testing.T) {
	schoolID := uuid.New()
	var records []fees.FeeRecord
	for i := 0; i < 5; i++ {
		records = append(records, feeRecord(schoolID, "S", "Grade 1", "A", "100", "50", fees.StatusPartial))
	}
	// Page size 2 forces three page fetches.
	r, ident := reportsOver(t, schoolID, records, 2)

	dto, err := r.SchoolSummary(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 5, dto.RecordCount)
	assert.True(t, dto.TotalBilled.Equal(money("500")))
}

func TestSchoolSummary_TenantIsolation(t *testing.T) {
	mine := uuid.New()
	other := uuid.New()
	records := []fees.FeeRecord{
		feeRecord(mine, "S1", "Grade 1", "A", "1000", "0", fees.StatusPending),
		feeRecord(other, "X1", "Grade 1", "A", "9999", "0", fees.StatusPending),
	}
	r, ident := reportsOver(t, mine, records, 0)

	dto, err := r.SchoolSummary(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.RecordCount)
	assert.True(t, dto.TotalBilled.Equal(money("1000")))
}

func TestClassWiseAnalysis(t *testing.T) {
	schoolID := uuid.New()
	records := []fees.FeeRecord{
		feeRecord(schoolID, "S1", "Grade 1", "A", "1000", "1000", fees.StatusPaid),
		feeRecord(schoolID, "S2", "Grade 1", "A", "1000", "500", fees.StatusPartial),
		feeRecord(schoolID, "S3", "Grade 2", "B", "2000", "0", fees.StatusOverdue),
	}
	r, ident := reportsOver(t, schoolID, records, 0)

	groups, err := r.ClassWiseAnalysis(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	g1 := groups[0]
	assert.Equal(t, "Grade 1", g1.ClassName)
	assert.Equal(t, "A", g1.Section)
	assert.Equal(t, 2, g1.StudentCount)
	assert.True(t, g1.TotalBilled.Equal(money("2000")))
	// mean(100%, 50%) = 75%
	assert.InDelta(t, 75.0, g1.CollectionPercent, 0.001)

	g2 := groups[1]
	assert.Equal(t, "Grade 2", g2.ClassName)
	assert.InDelta(t, 0.0, g2.CollectionPercent, 0.001)
}

func TestClassWiseAnalysis_MatchesSummaryTotals(t *testing.T) {
	schoolID := uuid.New()
	records := []fees.FeeRecord{
		feeRecord(schoolID, "S1", "Grade 1", "A", "1200.50", "600.25", fees.StatusPartial),
		feeRecord(schoolID, "S2", "Grade 1", "B", "800", "800", fees.StatusPaid),
		feeRecord(schoolID, "S3", "Grade 3", "A", "1500", "0", fees.StatusOverdue),
		feeRecord(schoolID, "S4", "Grade 3", "A", "1500", "100", fees.StatusPartial),
	}
	r, ident := reportsOver(t, schoolID, records, 0)

	summary, err := r.SchoolSummary(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)
	groups, err := r.ClassWiseAnalysis(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)

	billed, collected, outstanding := decimal.Zero, decimal.Zero, decimal.Zero
	count := 0
	for _, g := range groups {
		billed = billed.Add(g.TotalBilled)
		collected = collected.Add(g.TotalCollected)
		outstanding = outstanding.Add(g.TotalOutstanding)
		count += g.StudentCount
	}

	assert.Equal(t, summary.RecordCount, count)
	assert.True(t, summary.TotalBilled.Equal(billed))
	assert.True(t, summary.TotalCollected.Equal(collected))
	assert.True(t, summary.TotalOutstanding.Equal(outstanding))
}

func TestClassWiseAnalysis_ZeroBilledExcludedFromPercent(t *testing.T) {
	schoolID := uuid.New()
	records := []fees.FeeRecord{
		feeRecord(schoolID, "S1", "Grade 1", "A", "1000", "500", fees.StatusPartial),
		// Scholarship student: billed zero, must not drag the mean down.
		feeRecord(schoolID, "S2", "Grade 1", "A", "0", "0", fees.StatusPaid),
	}
	r, ident := reportsOver(t, schoolID, records, 0)

	groups, err := r.ClassWiseAnalysis(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	assert.Equal(t, 2, groups[0].StudentCount)
	assert.InDelta(t, 50.0, groups[0].CollectionPercent, 0.001)
}

func TestPaymentTrends_MonthlyBuckets(t *testing.T) {
	schoolID := uuid.New()
	rec1 := feeRecord(schoolID, "S1", "Grade 1", "A", "1000", "600", fees.StatusPartial)
	rec1.Payments = []fees.Payment{
		{Amount: money("200"), PaymentDate: date(2025, 1, 5)},
		{Amount: money("400"), PaymentDate: date(2025, 1, 28)},
	}
	rec2 := feeRecord(schoolID, "S2", "Grade 1", "A", "1000", "300", fees.StatusPartial)
	rec2.Payments = []fees.Payment{
		{Amount: money("300"), PaymentDate: date(2025, 2, 14)},
	}
	r, ident := reportsOver(t, schoolID, []fees.FeeRecord{rec1, rec2}, 0)

	series, err := r.PaymentTrends(context.Background(), ident, fees.Filter{}, timeutil.PeriodMonthly)
	require.NoError(t, err)
	require.Len(t, series, 2)

	jan := series[0]
	assert.Equal(t, "2025-01", jan.Bucket)
	assert.Equal(t, 2, jan.PaymentCount)
	assert.True(t, jan.TotalAmount.Equal(money("600")))
	assert.True(t, jan.AverageAmount.Equal(money("300")))

	feb := series[1]
	assert.Equal(t, "2025-02", feb.Bucket)
	assert.Equal(t, 1, feb.PaymentCount)
	assert.True(t, feb.TotalAmount.Equal(money("300")))
}

func TestPaymentTrends_DateRangeFiltersPayments(t *testing.T) {
	schoolID := uuid.New()
	rec := feeRecord(schoolID, "S1", "Grade 1", "A", "1000", "600", fees.StatusPartial)
	rec.Payments = []fees.Payment{
		{Amount: money("200"), PaymentDate: date(2024, 12, 20)},
		{Amount: money("400"), PaymentDate: date(2025, 1, 10)},
	}
	r, ident := reportsOver(t, schoolID, []fees.FeeRecord{rec}, 0)

	from := date(2025, 1, 1)
	series, err := r.PaymentTrends(context.Background(), ident, fees.Filter{From: &from}, timeutil.PeriodMonthly)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2025-01", series[0].Bucket)
	assert.True(t, series[0].TotalAmount.Equal(money("400")))
}

func TestPaymentTrends_InvalidPeriod(t *testing.T) {
	schoolID := uuid.New()
	r, ident := reportsOver(t, schoolID, nil, 0)

	_, err := r.PaymentTrends(context.Background(), ident, fees.Filter{}, timeutil.Period("yearly"))
	assert.True(t, shared.IsValidation(err))
}

func TestDuesExport(t *testing.T) {
	schoolID := uuid.New()
	paidUp := feeRecord(schoolID, "S1", "Grade 1", "A", "1000", "1000", fees.StatusPaid)
	small := feeRecord(schoolID, "S2", "Grade 1", "A", "1000", "800", fees.StatusPartial)
	small.OverdueDays = 10
	big := feeRecord(schoolID, "S3", "Grade 2", "B", "2000", "0", fees.StatusOverdue)
	big.OverdueDays = 45
	big.Payments = []fees.Payment{{Amount: money("0"), PaymentDate: date(2024, 11, 1)}}
	r, ident := reportsOver(t, schoolID, []fees.FeeRecord{paidUp, small, big}, 0)

	dto, err := r.DuesExport(context.Background(), ident, fees.Filter{}, 1, 50)
	require.NoError(t, err)

	// Fully paid records never appear; largest pending first.
	require.Len(t, dto.Rows, 2)
	assert.Equal(t, "S3", dto.Rows[0].StudentID)
	assert.Equal(t, "S2", dto.Rows[1].StudentID)
	assert.Equal(t, 2, dto.TotalRows)

	require.NotNil(t, dto.Rows[0].LastPaymentDate)
	assert.Equal(t, date(2024, 11, 1), *dto.Rows[0].LastPaymentDate)
	assert.Nil(t, dto.Rows[1].LastPaymentDate)
}

func TestDuesExport_TieBreaksOnOverdueDays(t *testing.T) {
	schoolID := uuid.New()
	a := feeRecord(schoolID, "S1", "Grade 1", "A", "1000", "500", fees.StatusPartial)
	a.OverdueDays = 5
	b := feeRecord(schoolID, "S2", "Grade 1", "A", "1000", "500", fees.StatusPartial)
	b.OverdueDays = 30
	r, ident := reportsOver(t, schoolID, []fees.FeeRecord{a, b}, 0)

	dto, err := r.DuesExport(context.Background(), ident, fees.Filter{}, 1, 50)
	require.NoError(t, err)
	require.Len(t, dto.Rows, 2)
	assert.Equal(t, "S2", dto.Rows[0].StudentID)
}

func TestDuesExport_Pagination(t *testing.T) {
	schoolID := uuid.New()
	var records []fees.FeeRecord
	for i := 0; i < 5; i++ {
		rec := feeRecord(schoolID, "S", "Grade 1", "A", "1000", "0", fees.StatusPending)
		records = append(records, rec)
	}
	r, ident := reportsOver(t, schoolID, records, 0)

	page1, err := r.DuesExport(context.Background(), ident, fees.Filter{}, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1.Rows, 2)
	assert.Equal(t, 5, page1.TotalRows)

	page3, err := r.DuesExport(context.Background(), ident, fees.Filter{}, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3.Rows, 1)

	beyond, err := r.DuesExport(context.Background(), ident, fees.Filter{}, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond.Rows)
	assert.Equal(t, 5, beyond.TotalRows)
}

func TestDuesRows_ReturnsFullSet(t *testing.T) {
	schoolID := uuid.New()
	var records []fees.FeeRecord
	for i := 0; i < 130; i++ {
		records = append(records, feeRecord(schoolID, "S", "Grade 1", "A", "1000", "0", fees.StatusPending))
	}
	// Well past both the scan page size and the export default page size.
	r, ident := reportsOver(t, schoolID, records, 50)

	rows, err := r.DuesRows(context.Background(), ident, fees.Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 130)
}

func TestWriteDuesCSV(t *testing.T) {
	due := date(2025, 4, 1)
	rows := []DuesRowDTO{
		{
			StudentID:    "S1",
			ClassName:    "Grade 1",
			Section:      "A",
			AcademicYear: "2025-2026",
			TotalAmount:  money("1000"),
			TotalPaid:    money("400"),
			TotalPending: money("600"),
			Status:       "partial",
			OverdueDays:  12,
			NextDueDate:  &due,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDuesCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(duesCSVHeader, ","), lines[0])
	assert.Equal(t, "S1,Grade 1,A,2025-2026,1000,400,600,partial,12,2025-04-01,", lines[1])
}

func TestReports_UnknownTenant(t *testing.T) {
	resolver := &fakeResolver{stores: map[string]tenant.Store{}}
	r := NewReports(resolver, testLogger(), 0)

	_, err := r.SchoolSummary(context.Background(), tenant.Identity{ID: uuid.New(), Code: "ghost"}, fees.Filter{})
	assert.True(t, shared.IsTenantNotFound(err))
}
