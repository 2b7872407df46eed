package recon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleFile represents the structure of a rules.yaml / rules.json file.
type RuleFile struct {
	Rules []RuleSpec `yaml:"rules" json:"rules"`
}

// LoadRules reads a rule file (YAML or JSON, chosen by extension) and compiles it.
// An empty path returns the default rule set.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file RuleFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s declares no rules", path)
	}
	return Compile(file.Rules)
}
