package academics

// ReconcileClassTestTypes merges a new class list into a tenant's test-type
// configuration for one academic year.
//
// The merge is additive and non-destructive: classes already configured keep
// their entries untouched, classes newly introduced start with an empty type
// set, and classes removed from the list are NOT deleted, so historical test
// data stays reachable. When the tenant has no configuration at all for the
// year (existing is nil), every listed class gets the full default type set
// instead of the incremental merge.
func ReconcileClassTestTypes(existing *TestTypeConfig, year string, classes []string) *TestTypeConfig {
	if existing == nil {
		cfg := NewTestTypeConfig(year)
		for _, class := range classes {
			cfg.Types[class] = DefaultTestTypes()
		}
		return cfg
	}

	merged := NewTestTypeConfig(year)
	for class, types := range existing.Types {
		copied := make([]string, len(types))
		copy(copied, types)
		merged.Types[class] = copied
	}

	for _, class := range classes {
		if !merged.Has(class) {
			merged.Types[class] = []string{}
		}
	}

	return merged
}
