package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
)

// TestRepo implements academics.TestRepository over a tenant store.
type TestRepo struct {
	conn *Connection
}

// ListActive returns the tenant's active tests.
func (r *TestRepo) ListActive(ctx context.Context, schoolID uuid.UUID) ([]academics.TestRecord, error) {
	query := `
		SELECT school_id, test_id, name, test_type, class_name, academic_year,
		       max_marks, weightage, is_active
		FROM tests
		WHERE school_id = $1 AND is_active = TRUE
		ORDER BY class_name, name
	`

	rows, err := r.conn.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tests: %w", err)
	}
	defer rows.Close()

	var tests []academics.TestRecord
	for rows.Next() {
		var t academics.TestRecord
		err := rows.Scan(&t.SchoolID, &t.TestID, &t.Name, &t.TestType, &t.ClassName,
			&t.AcademicYear, &t.MaxMarks, &t.Weightage, &t.IsActive)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test row: %w", err)
		}
		tests = append(tests, t)
	}

	return tests, rows.Err()
}

// UpdateScoring applies one scoring update atomically per record. The guard
// clause keeps the modified count honest: a record already holding the
// target values is matched but not modified, and reports false.
func (r *TestRepo) UpdateScoring(ctx context.Context, schoolID uuid.UUID, u academics.ScoringUpdate) (bool, error) {
	query := `
		UPDATE tests
		SET max_marks = $3, weightage = $4
		WHERE school_id = $1 AND test_id = $2 AND is_active = TRUE
		  AND (max_marks IS DISTINCT FROM $3 OR weightage IS DISTINCT FROM $4)
	`

	result, err := r.conn.Exec(ctx, query, schoolID, u.TestID, u.MaxMarks, u.Weightage)
	if err != nil {
		return false, fmt.Errorf("failed to update test scoring: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
