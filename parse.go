package topo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Parse decodes a service topology document. Decoding is strict:
// unknown fields, duplicate keys, and mistyped values are errors, so a
// misspelled key fails loudly instead of being dropped.
func Parse(data []byte) (*ServiceSpec, error) {
	var spec ServiceSpec
	if err := yaml.UnmarshalStrict(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse service document: %w", err)
	}
	return &spec, nil
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) (*ServiceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service document: %w", err)
	}

	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Marshal encodes a document back to YAML. The output re-parses to an
// equivalent structure.
func Marshal(spec *ServiceSpec) ([]byte, error) {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal service document: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the document.
func (s *ServiceSpec) Clone() (*ServiceSpec, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to clone service document: %w", err)
	}

	var out ServiceSpec
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to clone service document: %w", err)
	}
	return &out, nil
}

// Canonical marshals a normalized copy of the document. Two documents
// that normalize identically produce byte-identical canonical forms,
// which is what diffing compares. The input is not modified.
func Canonical(spec *ServiceSpec) ([]byte, error) {
	c, err := spec.Clone()
	if err != nil {
		return nil, err
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return Marshal(c)
}
