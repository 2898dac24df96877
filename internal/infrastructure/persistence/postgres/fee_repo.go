package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
)

// FeeRepo implements fees.Repository over a tenant store. Payment history is
// a JSONB array column, append-only; scan order is positional, so "last
// payment" stays derivable from the final element.
type FeeRepo struct {
	conn *Connection
}

// ListPage returns up to limit fee records matching the filter. Ordering is
// stable (class, section, student id) so pages never overlap. The optional
// From/To bounds apply to next_due_date; date filtering of individual
// payment events is the aggregation engine's job.
func (r *FeeRepo) ListPage(ctx context.Context, schoolID uuid.UUID, f fees.Filter, limit, offset int) ([]fees.FeeRecord, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{schoolID}

	appendCond := func(expr string, val interface{}) {
		args = append(args, val)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if f.AcademicYear != "" {
		appendCond("academic_year = $%d", f.AcademicYear)
	}
	if c := f.ClassFilter(); c != "" {
		appendCond("student_class = $%d", c)
	}
	if s := f.SectionFilter(); s != "" {
		appendCond("student_section = $%d", s)
	}
	if st := f.StatusFilter(); st != "" {
		appendCond("status = $%d", st)
	}
	if f.From != nil {
		appendCond("next_due_date >= $%d", *f.From)
	}
	if f.To != nil {
		appendCond("next_due_date <= $%d", *f.To)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT school_id, student_id, student_class, student_section, academic_year,
		       total_amount, total_paid, total_pending, status, payments,
		       overdue_days, next_due_date
		FROM fee_records
		WHERE %s
		ORDER BY student_class, student_section, student_id
		LIMIT $%d OFFSET $%d
	`, strings.Join(conditions, " AND "), len(args)-1, len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee records: %w", err)
	}
	defer rows.Close()

	var records []fees.FeeRecord
	for rows.Next() {
		var (
			rec          fees.FeeRecord
			status       string
			paymentsJSON []byte
		)
		err := rows.Scan(&rec.SchoolID, &rec.StudentID, &rec.StudentClass, &rec.StudentSection,
			&rec.AcademicYear, &rec.TotalAmount, &rec.TotalPaid, &rec.TotalPending,
			&status, &paymentsJSON, &rec.OverdueDays, &rec.NextDueDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee record: %w", err)
		}
		rec.Status = fees.Status(status)

		if len(paymentsJSON) > 0 {
			if err := json.Unmarshal(paymentsJSON, &rec.Payments); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payment history: %w", err)
			}
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}
