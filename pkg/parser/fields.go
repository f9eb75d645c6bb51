package parser

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// FieldSpec maps one frame key onto a named field
type FieldSpec struct {
	Field   string  `yaml:"field" json:"field"`
	Divisor float64 `yaml:"divisor" json:"divisor"`
	Unit    string  `yaml:"unit" json:"unit"`
}

// FieldMap is the key → field table of a frame format
type FieldMap map[string]FieldSpec

type fieldMapFile struct {
	Fields FieldMap `yaml:"fields"`
}

// Validate rejects empty field names and zero divisors
func (m FieldMap) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("field map is empty")
	}
	for key, spec := range m {
		if spec.Field == "" {
			return fmt.Errorf("field map key %s: field name is required", key)
		}
		if spec.Divisor == 0 {
			return fmt.Errorf("field map key %s: divisor must not be zero", key)
		}
	}
	return nil
}

// FieldNames returns the distinct field names, sorted
func (m FieldMap) FieldNames() []string {
	seen := make(map[string]bool, len(m))
	names := make([]string, 0, len(m))
	for _, spec := range m {
		if !seen[spec.Field] {
			seen[spec.Field] = true
			names = append(names, spec.Field)
		}
	}
	sort.Strings(names)
	return names
}

// HasField reports whether any key maps to field
func (m FieldMap) HasField(field string) bool {
	for _, spec := range m {
		if spec.Field == field {
			return true
		}
	}
	return false
}

// LoadFieldMap reads a field table from a YAML file of the form
//
//	fields:
//	  D1: {field: temperature, divisor: 100, unit: "°C"}
func LoadFieldMap(path string) (FieldMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field map: %w", err)
	}

	var file fieldMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse field map %s: %w", path, err)
	}

	if err := file.Fields.Validate(); err != nil {
		return nil, err
	}

	return file.Fields, nil
}
