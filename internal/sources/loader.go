package sources

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSkills reads a skills JSON file (array of Skill objects).
//
// A missing file is reported via the wrapped fs.ErrNotExist so callers
// can treat it as an empty source rather than a failure.
func LoadSkills(path string) ([]Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skills file: %w", err)
	}

	var skills []Skill
	if err := json.Unmarshal(data, &skills); err != nil {
		return nil, fmt.Errorf("parsing skills file %s: %w", path, err)
	}

	return skills, nil
}

// LoadMaterials reads a learning materials JSON file (array of Material objects).
func LoadMaterials(path string) ([]Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading materials file: %w", err)
	}

	var materials []Material
	if err := json.Unmarshal(data, &materials); err != nil {
		return nil, fmt.Errorf("parsing materials file %s: %w", path, err)
	}

	return materials, nil
}
