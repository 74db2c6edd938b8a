package retrieval

// Filter narrows query results by metadata equality. Zero-value fields
// are omitted from the search, not matched as empty strings. A result
// must match every field that is set.
type Filter struct {
	// Source restricts results to one origin:
	// unit_guide, skills_mapping, or public_resource.
	Source string

	// Type restricts results to one document type:
	// description, learning_outcome, skill, or material.
	Type string

	// UnitCode restricts results to a single unit.
	UnitCode string
}

// metadata builds the equality-filter map consumed by the vector store.
// Returns nil when no fields are set.
func (f Filter) metadata() map[string]string {
	m := make(map[string]string, 3)
	if f.Source != "" {
		m["source"] = f.Source
	}
	if f.Type != "" {
		m["type"] = f.Type
	}
	if f.UnitCode != "" {
		m["unit_code"] = f.UnitCode
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
