// Package fees holds the fee-record model and the filter/aggregation types
// the reporting engine consumes. Amounts are decimals end to end so that
// billed = collected + outstanding holds exactly at every level.
package fees

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the derived payment status of a fee record. Derivation happens
// upstream when payments are appended; this core consumes it as given.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusOverdue Status = "overdue"
	StatusPending Status = "pending"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusOverdue, StatusPending:
		return true
	}
	return false
}

// Payment is one entry in a fee record's payment history. The history is
// append-only and positional: "last payment" means the final element.
type Payment struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
}

// FeeRecord is one student's fee account for an academic year.
type FeeRecord struct {
	SchoolID       uuid.UUID
	StudentID      string
	StudentClass   string
	StudentSection string
	AcademicYear   string
	TotalAmount    decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalPending   decimal.Decimal
	Status         Status
	Payments       []Payment // append-only, never reordered
	OverdueDays    int
	NextDueDate    *time.Time
}

// Consistent reports whether TotalAmount = TotalPaid + TotalPending, the
// invariant every payment append must preserve.
func (r *FeeRecord) Consistent() bool {
	return r.TotalAmount.Equal(r.TotalPaid.Add(r.TotalPending))
}

// LastPaymentDate returns the date of the most recent payment, or nil when
// the record has none.
func (r *FeeRecord) LastPaymentDate() *time.Time {
	if len(r.Payments) == 0 {
		return nil
	}
	d := r.Payments[len(r.Payments)-1].PaymentDate
	return &d
}

// FilterAll is the wildcard value accepted for class, section and status
// filters.
const FilterAll = "ALL"

// Filter narrows a fee-record scan. Zero values and "ALL" mean unfiltered.
type Filter struct {
	AcademicYear string
	Class        string
	Section      string
	Status       string
	From         *time.Time
	To           *time.Time
}

// ClassFilter returns the class constraint, or "" when unfiltered.
func (f Filter) ClassFilter() string { return normalizeFilter(f.Class) }

// SectionFilter returns the section constraint, or "" when unfiltered.
func (f Filter) SectionFilter() string { return normalizeFilter(f.Section) }

// StatusFilter returns the status constraint, or "" when unfiltered.
func (f Filter) StatusFilter() string { return normalizeFilter(f.Status) }

func normalizeFilter(v string) string {
	if v == "" || v == FilterAll {
		return ""
	}
	return v
}

// Matches reports whether a record passes the class/section/status parts of
// the filter. Date bounds apply to payment events, not records, and are
// handled by the aggregation engine.
func (f Filter) Matches(r *FeeRecord) bool {
	if y := f.AcademicYear; y != "" && r.AcademicYear != y {
		return false
	}
	if c := f.ClassFilter(); c != "" && r.StudentClass != c {
		return false
	}
	if s := f.SectionFilter(); s != "" && r.StudentSection != s {
		return false
	}
	if st := f.StatusFilter(); st != "" && string(r.Status) != st {
		return false
	}
	return true
}
