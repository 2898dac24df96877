package academics

import (
	"context"

	"github.com/google/uuid"
)

// ClassRepository reads class records from one tenant's store. All operations
// are scoped by school id and is_active unless stated otherwise.
type ClassRepository interface {
	ListActive(ctx context.Context, schoolID uuid.UUID) ([]ClassRecord, error)
	Find(ctx context.Context, schoolID uuid.UUID, className string) (*ClassRecord, error)
}

// TestRepository reads and mutates test records.
type TestRepository interface {
	ListActive(ctx context.Context, schoolID uuid.UUID) ([]TestRecord, error)

	// UpdateScoring applies one scoring update atomically. It returns true
	// when the record was actually modified; a record already holding the
	// target values reports false, which keeps bulk modified-counts honest.
	UpdateScoring(ctx context.Context, schoolID uuid.UUID, u ScoringUpdate) (bool, error)
}

// StudentRepository supports the roster backfill operations.
type StudentRepository interface {
	// ListActiveMissingField returns active students whose named field is
	// currently unset.
	ListActiveMissingField(ctx context.Context, schoolID uuid.UUID, fieldPath string) ([]StudentRecord, error)

	// SetFieldWhereMissing sets the named field to value on every active
	// student where it is currently unset, returning the number of records
	// actually modified. Running it twice modifies zero the second time.
	SetFieldWhereMissing(ctx context.Context, schoolID uuid.UUID, fieldPath, value, updatedBy string) (int, error)
}

// TestTypeRepository stores the per-class test-type configuration.
type TestTypeRepository interface {
	// GetForYear returns the config for an academic year, or nil when the
	// tenant has none for that year.
	GetForYear(ctx context.Context, schoolID uuid.UUID, year string) (*TestTypeConfig, error)
	SaveForYear(ctx context.Context, schoolID uuid.UUID, cfg *TestTypeConfig) error
}
