package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/domain/academics"
)

// TestTypeRepo implements academics.TestTypeRepository over a tenant store.
// One row holds the whole per-class map for an academic year.
type TestTypeRepo struct {
	conn *Connection
}

// GetForYear returns the config for an academic year, or nil when the tenant
// has none for that year.
func (r *TestTypeRepo) GetForYear(ctx context.Context, schoolID uuid.UUID, year string) (*academics.TestTypeConfig, error) {
	query := `
		SELECT types
		FROM test_type_settings
		WHERE school_id = $1 AND academic_year = $2
	`

	var typesJSON []byte
	err := r.conn.QueryRow(ctx, query, schoolID, year).Scan(&typesJSON)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query test type settings: %w", err)
	}

	cfg := academics.NewTestTypeConfig(year)
	if len(typesJSON) > 0 {
		if err := json.Unmarshal(typesJSON, &cfg.Types); err != nil {
			return nil, fmt.Errorf("failed to unmarshal test type settings: %w", err)
		}
	}
	return cfg, nil
}

// SaveForYear upserts the config for its academic year.
func (r *TestTypeRepo) SaveForYear(ctx context.Context, schoolID uuid.UUID, cfg *academics.TestTypeConfig) error {
	typesJSON, err := json.Marshal(cfg.Types)
	if err != nil {
		return fmt.Errorf("failed to marshal test type settings: %w", err)
	}

	query := `
		INSERT INTO test_type_settings (school_id, academic_year, types, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (school_id, academic_year)
		DO UPDATE SET types = EXCLUDED.types, updated_at = EXCLUDED.updated_at
	`

	_, err = r.conn.Exec(ctx, query, schoolID, cfg.AcademicYear, typesJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save test type settings: %w", err)
	}
	return nil
}
