package formatter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk layout of a formatter rules file:
//
//	rules:
//	  - name: yaml
//	    target: "**/*.yaml"
//	    exclude: ["**/.gradle/**"]
//	    tool: jackson
//	    options:
//	      yamlFeature.MINIMIZE_QUOTES: "true"
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads an ordered rule list from a YAML file. The rules are not
// validated here; NewEngine does that.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rule data.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	for i := range f.Rules {
		if f.Rules[i].Name == "" {
			f.Rules[i].Name = fmt.Sprintf("rule-%d", i+1)
		}
	}
	return f.Rules, nil
}

// MarshalRules encodes rules in the rules file layout.
func MarshalRules(rules []Rule) ([]byte, error) {
	data, err := yaml.Marshal(rulesFile{Rules: rules})
	if err != nil {
		return nil, fmt.Errorf("marshal rules: %w", err)
	}
	return data, nil
}
