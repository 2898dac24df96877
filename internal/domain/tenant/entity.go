// Package tenant defines the shared-registry view of a school: its code,
// display name, the name of its isolated database, and the settings blob the
// rest of the system consults for defaults.
//
// A tenant is identified by a code that compares case-insensitively; every
// lookup must go through NormalizeCode first.
package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenant is one school's entry in the shared registry.
type Tenant struct {
	ID           uuid.UUID
	Code         string // unique, stored normalized
	DisplayName  string
	DatabaseName string // name of the tenant's isolated database
	Settings     Settings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Settings is the per-tenant configuration blob. Fields are mutated only by
// the academic settings service; everything else reads them for defaults.
type Settings struct {
	AcademicYear AcademicYear `json:"academic_year"`
	Classes      []string     `json:"classes"`
	Academic     Academic     `json:"academic_settings"`
}

// AcademicYear is the tenant's current academic-year window.
type AcademicYear struct {
	CurrentYear string    `json:"current_year"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// IsZero reports whether no academic year has ever been set.
func (y AcademicYear) IsZero() bool {
	return y.CurrentYear == ""
}

// Academic holds miscellaneous academic configuration.
type Academic struct {
	SchoolTypes []string `json:"school_types"`
}

// Identity is the authenticated caller's tenant, supplied as a side-channel
// by the auth collaborator. The reporting surface takes an Identity and never
// a request-supplied school code.
type Identity struct {
	ID   uuid.UUID
	Code string
}

// NormalizeCode canonicalizes a human-supplied school code for lookups and
// cache keys. Codes are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// academicYearRolloverMonth is when a default year window begins: schools in
// the registry run June through May.
const academicYearRolloverMonth = time.June

// DefaultAcademicYear returns the placeholder academic-year window used when
// a tenant has never had one set: the June-May window containing now.
func DefaultAcademicYear(now time.Time) AcademicYear {
	u := now.UTC()
	startYear := u.Year()
	if u.Month() < academicYearRolloverMonth {
		startYear--
	}
	start := time.Date(startYear, academicYearRolloverMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1)
	return AcademicYear{
		CurrentYear: formatYearSpan(startYear),
		StartDate:   start,
		EndDate:     end,
	}
}

func formatYearSpan(startYear int) string {
	return time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") +
		"-" +
		time.Date(startYear+1, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}
