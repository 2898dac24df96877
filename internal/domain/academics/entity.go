// Package academics holds the per-tenant academic records: classes, tests,
// students, and the per-class test-type configuration.
package academics

import "github.com/google/uuid"

// ClassRecord is one class offered by a school.
type ClassRecord struct {
	SchoolID     uuid.UUID
	ClassName    string
	Sections     []string // ordered
	AcademicYear string
	IsActive     bool
}

// TestRecord is one scheduled test. Scoring updates mutate MaxMarks and
// Weightage atomically per record.
type TestRecord struct {
	SchoolID     uuid.UUID
	TestID       string
	Name         string
	TestType     string
	ClassName    string
	AcademicYear string
	MaxMarks     int
	Weightage    float64
	IsActive     bool
}

// ScoringUpdate is one entry in a bulk scoring update.
type ScoringUpdate struct {
	TestID    string
	MaxMarks  int
	Weightage float64
}

// StudentRecord is the accessor view of a student, narrow by design: the
// fields the backfill and roster operations touch.
type StudentRecord struct {
	SchoolID      uuid.UUID
	StudentID     string
	Name          string
	ClassName     string
	Section       string
	GuardianPhone *string
	IsActive      bool
}

// TestTypeConfig maps class names to the test types configured for them in
// one academic year. Missing classes read as an empty set; use TypesFor
// rather than indexing the map directly.
type TestTypeConfig struct {
	AcademicYear string
	Types        map[string][]string
}

// NewTestTypeConfig returns an empty config for the given year.
func NewTestTypeConfig(year string) *TestTypeConfig {
	return &TestTypeConfig{AcademicYear: year, Types: make(map[string][]string)}
}

// TypesFor returns the configured test types for a class, or an empty set
// when the class has no entry.
func (c *TestTypeConfig) TypesFor(class string) []string {
	if c == nil || c.Types == nil {
		return nil
	}
	return c.Types[class]
}

// Has reports whether the class has an entry, even an empty one.
func (c *TestTypeConfig) Has(class string) bool {
	if c == nil || c.Types == nil {
		return false
	}
	_, ok := c.Types[class]
	return ok
}

// DefaultTestTypes is the full default set created when a tenant has no
// test-type configuration at all for the current academic year.
func DefaultTestTypes() []string {
	return []string{"unit", "midterm", "final", "practical"}
}
