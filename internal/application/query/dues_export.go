package query

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/timeutil"
)

// DuesRowDTO is one outstanding fee record in a dues export.
type DuesRowDTO struct {
	StudentID       string          `json:"student_id"`
	ClassName       string          `json:"class_name"`
	Section         string          `json:"section"`
	AcademicYear    string          `json:"academic_year"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	TotalPending    decimal.Decimal `json:"total_pending"`
	Status          string          `json:"status"`
	OverdueDays     int             `json:"overdue_days"`
	NextDueDate     *time.Time      `json:"next_due_date,omitempty"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
}

// DuesPageDTO is one page of a dues export.
type DuesPageDTO struct {
	Rows      []DuesRowDTO `json:"rows"`
	Page      int          `json:"page"`
	PageSize  int          `json:"page_size"`
	TotalRows int          `json:"total_rows"`
}

// DuesRows returns every fee record with an outstanding balance, sorted by
// pending amount descending with overdue days as the tiebreaker. Each row
// carries the date of the record's most recent payment, derived from the
// final element of the append-only payment history. The CSV export consumes
// the whole set; DuesExport paginates over it.
func (r *Reports) DuesRows(ctx context.Context, ident tenant.Identity, f fees.Filter) ([]DuesRowDTO, error) {
	var rows []DuesRowDTO
	err := r.forEachFeeRecord(ctx, ident, f, func(rec *fees.FeeRecord) error {
		if !rec.TotalPending.IsPositive() {
			return nil
		}
		rows = append(rows, DuesRowDTO{
			StudentID:       rec.StudentID,
			ClassName:       rec.StudentClass,
			Section:         rec.StudentSection,
			AcademicYear:    rec.AcademicYear,
			TotalAmount:     rec.TotalAmount,
			TotalPaid:       rec.TotalPaid,
			TotalPending:    rec.TotalPending,
			Status:          string(rec.Status),
			OverdueDays:     rec.OverdueDays,
			NextDueDate:     rec.NextDueDate,
			LastPaymentDate: rec.LastPaymentDate(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TotalPending.Equal(rows[j].TotalPending) {
			return rows[i].TotalPending.GreaterThan(rows[j].TotalPending)
		}
		return rows[i].OverdueDays > rows[j].OverdueDays
	})

	return rows, nil
}

// DuesExport returns one page of the dues set.
func (r *Reports) DuesExport(ctx context.Context, ident tenant.Identity, f fees.Filter, page, pageSize int) (*DuesPageDTO, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	rows, err := r.DuesRows(ctx, ident, f)
	if err != nil {
		return nil, err
	}

	total := len(rows)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &DuesPageDTO{
		Rows:      rows[start:end],
		Page:      page,
		PageSize:  pageSize,
		TotalRows: total,
	}, nil
}

// duesCSVHeader is the column order of a dues CSV export.
var duesCSVHeader = []string{
	"student_id", "class", "section", "academic_year",
	"total_amount", "total_paid", "total_pending",
	"status", "overdue_days", "next_due_date", "last_payment_date",
}

// WriteDuesCSV writes dues rows as CSV, header first.
func WriteDuesCSV(w io.Writer, rows []DuesRowDTO) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(duesCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.StudentID,
			row.ClassName,
			row.Section,
			row.AcademicYear,
			row.TotalAmount.String(),
			row.TotalPaid.String(),
			row.TotalPending.String(),
			row.Status,
			fmt.Sprintf("%d", row.OverdueDays),
			formatCSVDate(row.NextDueDate),
			formatCSVDate(row.LastPaymentDate),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCSVDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeutil.FormatDate)
}
