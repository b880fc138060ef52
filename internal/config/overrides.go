package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dukemzone/kpi-portal/internal/access"
)

// overridesFile is the on-disk shape of the domain override table
type overridesFile struct {
	Overrides []struct {
		Supervisor string   `yaml:"supervisor"`
		Staff      []string `yaml:"staff"`
	} `yaml:"overrides"`
}

// LoadDomainOverrides reads the override table from a YAML file.
// An empty path returns the built-in table.
func LoadDomainOverrides(path string) (access.Overrides, error) {
	if path == "" {
		return access.DefaultOverrides(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain overrides: %w", err)
	}

	return ParseDomainOverrides(data)
}

// ParseDomainOverrides decodes a YAML override table
func ParseDomainOverrides(data []byte) (access.Overrides, error) {
	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse domain overrides: %w", err)
	}

	overrides := make(access.Overrides, len(file.Overrides))
	for i, o := range file.Overrides {
		if o.Supervisor == "" {
			return nil, fmt.Errorf("domain override %d: supervisor is required", i)
		}
		overrides[o.Supervisor] = append(overrides[o.Supervisor], o.Staff...)
	}

	return overrides, nil
}
