package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
)

// RegistryRepo implements tenant.Registry over the shared registry database.
type RegistryRepo struct {
	conn *Connection
}

// NewRegistryRepo creates a new RegistryRepo.
func NewRegistryRepo(conn *Connection) *RegistryRepo {
	return &RegistryRepo{conn: conn}
}

// GetByCode returns the tenant for a school code. Codes are stored
// normalized, so the lookup is exact after NormalizeCode.
func (r *RegistryRepo) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	query := `
		SELECT id, code, display_name, database_name, settings, created_at, updated_at
		FROM tenants
		WHERE code = $1
	`

	row := r.conn.QueryRow(ctx, query, tenant.NormalizeCode(code))

	var (
		t            tenant.Tenant
		settingsJSON []byte
	)
	err := row.Scan(&t.ID, &t.Code, &t.DisplayName, &t.DatabaseName, &settingsJSON, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("tenant", "GetByCode", shared.ErrTenantNotFound,
				fmt.Sprintf("no school registered for code %q", code))
		}
		return nil, fmt.Errorf("failed to query tenant: %w", err)
	}

	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &t.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tenant settings: %w", err)
		}
	}

	return &t, nil
}

// UpdateSettings replaces the tenant's settings blob.
func (r *RegistryRepo) UpdateSettings(ctx context.Context, id uuid.UUID, s tenant.Settings) error {
	settingsJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant settings: %w", err)
	}

	query := `
		UPDATE tenants
		SET settings = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query, settingsJSON, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update tenant settings: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NewDomainError("tenant", "UpdateSettings", shared.ErrTenantNotFound, "tenant does not exist")
	}

	return nil
}
