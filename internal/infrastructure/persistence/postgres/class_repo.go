package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
)

// ClassRepo implements academics.ClassRepository over a tenant store.
type ClassRepo struct {
	conn *Connection
}

// ListActive returns the tenant's active classes, ordered by name.
func (r *ClassRepo) ListActive(ctx context.Context, schoolID uuid.UUID) ([]academics.ClassRecord, error) {
	query := `
		SELECT school_id, class_name, sections, academic_year, is_active
		FROM classes
		WHERE school_id = $1 AND is_active = TRUE
		ORDER BY class_name
	`

	rows, err := r.conn.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var classes []academics.ClassRecord
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}

	return classes, rows.Err()
}

// Find returns one active class by name.
func (r *ClassRepo) Find(ctx context.Context, schoolID uuid.UUID, className string) (*academics.ClassRecord, error) {
	query := `
		SELECT school_id, class_name, sections, academic_year, is_active
		FROM classes
		WHERE school_id = $1 AND class_name = $2 AND is_active = TRUE
	`

	row := r.conn.QueryRow(ctx, query, schoolID, className)
	c, err := scanClass(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("academics", "FindClass", shared.ErrNotFound,
				fmt.Sprintf("class %q not found", className))
		}
		return nil, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(row rowScanner) (*academics.ClassRecord, error) {
	var (
		c            academics.ClassRecord
		sectionsJSON []byte
	)
	if err := row.Scan(&c.SchoolID, &c.ClassName, &sectionsJSON, &c.AcademicYear, &c.IsActive); err != nil {
		return nil, err
	}
	if len(sectionsJSON) > 0 {
		if err := json.Unmarshal(sectionsJSON, &c.Sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
		}
	}
	return &c, nil
}
