package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
)

// StudentRepo implements academics.StudentRepository over a tenant store.
type StudentRepo struct {
	conn *Connection
}

// studentFieldColumns maps accessor field paths to columns. Field paths come
// from the administrative surface; anything outside this map is rejected
// before touching SQL.
var studentFieldColumns = map[string]string{
	"guardianPhone": "guardian_phone",
	"guardianEmail": "guardian_email",
	"bloodGroup":    "blood_group",
	"address":       "address",
}

func studentColumn(fieldPath string) (string, error) {
	col, ok := studentFieldColumns[fieldPath]
	if !ok {
		return "", shared.NewDomainError("academics", "StudentField", shared.ErrInvalidInput,
			fmt.Sprintf("unknown student field %q", fieldPath))
	}
	return col, nil
}

// ListActiveMissingField returns active students whose named field is unset.
func (r *StudentRepo) ListActiveMissingField(ctx context.Context, schoolID uuid.UUID, fieldPath string) ([]academics.StudentRecord, error) {
	col, err := studentColumn(fieldPath)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT school_id, student_id, name, class_name, section, guardian_phone, is_active
		FROM students
		WHERE school_id = $1 AND is_active = TRUE AND %s IS NULL
		ORDER BY class_name, section, student_id
	`, col)

	rows, err := r.conn.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []academics.StudentRecord
	for rows.Next() {
		var s academics.StudentRecord
		err := rows.Scan(&s.SchoolID, &s.StudentID, &s.Name, &s.ClassName,
			&s.Section, &s.GuardianPhone, &s.IsActive)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

// SetFieldWhereMissing sets the named field where it is currently NULL and
// returns the number of records actually modified. The IS NULL guard makes
// the backfill idempotent: a second run matches nothing.
func (r *StudentRepo) SetFieldWhereMissing(ctx context.Context, schoolID uuid.UUID, fieldPath, value, updatedBy string) (int, error) {
	col, err := studentColumn(fieldPath)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE students
		SET %s = $2, updated_by = $3, updated_at = $4
		WHERE school_id = $1 AND is_active = TRUE AND %s IS NULL
	`, col, col)

	result, err := r.conn.Exec(ctx, query, schoolID, value, updatedBy, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to backfill student field: %w", err)
	}

	return int(result.RowsAffected()), nil
}
