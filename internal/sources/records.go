// Package sources defines the source record types consumed by the
// ingestion pipeline and loaders for the JSON-backed sources.
package sources

// Unit is a structured university unit record.
//
// Unit records are produced by the unit catalog (see internal/units);
// the scraping that populates the catalog lives outside this service.
type Unit struct {
	UnitCode         string   `json:"unit_code"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CreditPoints     int      `json:"credit_points"`
	YearLevel        int      `json:"year_level"`
	Prerequisites    []string `json:"prerequisites"`
	RawPrerequisites string   `json:"raw_prerequisites"`
	RawCorequisites  string   `json:"raw_corequisites"`
	LearningOutcomes []string `json:"learning_outcomes"`
}

// Skill is a skill-to-roles mapping entry from the skills JSON file.
type Skill struct {
	Name           string   `json:"skill"`
	Roles          []string `json:"roles"`
	Description    string   `json:"description"`
	Certifications []string `json:"certifications"`
}

// Material is a public learning resource entry from the materials JSON file.
type Material struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
}
