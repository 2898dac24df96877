package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestFeeRecordConsistent(t *testing.T) {
	rec := FeeRecord{
		TotalAmount:  d("1000.50"),
		TotalPaid:    d("400.25"),
		TotalPending: d("600.25"),
	}
	assert.True(t, rec.Consistent())

	rec.TotalPending = d("600.00")
	assert.False(t, rec.Consistent())
}

func TestLastPaymentDate(t *testing.T) {
	var rec FeeRecord
	assert.Nil(t, rec.LastPaymentDate())

	first := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	second := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)
	rec.Payments = []Payment{
		{Amount: d("100"), PaymentDate: first},
		{Amount: d("200"), PaymentDate: second},
	}

	got := rec.LastPaymentDate()
	assert.NotNil(t, got)
	assert.Equal(t, second, *got)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPaid.Valid())
	assert.True(t, StatusOverdue.Valid())
	assert.False(t, Status("cancelled").Valid())
}

func TestFilterMatches(t *testing.T) {
	rec := FeeRecord{
		StudentClass:   "Grade 5",
		StudentSection: "A",
		AcademicYear:   "2025-2026",
		Status:         StatusPartial,
	}

	assert.True(t, Filter{}.Matches(&rec))
	assert.True(t, Filter{Class: FilterAll, Section: FilterAll, Status: FilterAll}.Matches(&rec))
	assert.True(t, Filter{Class: "Grade 5", Section: "A", Status: "partial"}.Matches(&rec))

	assert.False(t, Filter{Class: "Grade 6"}.Matches(&rec))
	assert.False(t, Filter{Section: "B"}.Matches(&rec))
	assert.False(t, Filter{Status: "paid"}.Matches(&rec))
	assert.False(t, Filter{AcademicYear: "2024-2025"}.Matches(&rec))
}

func TestFilterNormalizers(t *testing.T) {
	f := Filter{Class: FilterAll, Section: "", Status: "overdue"}

	assert.Equal(t, "", f.ClassFilter())
	assert.Equal(t, "", f.SectionFilter())
	assert.Equal(t, "overdue", f.StatusFilter())
}
