package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a plan from a YAML file and validates it.
func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("plan: read %s: %w", path, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("plan: parse %s: %w", path, err)
	}

	if issues := Validate(p); HasErrors(issues) {
		for _, issue := range issues {
			if issue.Severity == SeverityError {
				return Plan{}, fmt.Errorf("plan: %s: %s", path, issue)
			}
		}
	}
	return p, nil
}

// Save writes a plan to a YAML file.
func Save(path string, p Plan) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("plan: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("plan: write %s: %w", path, err)
	}
	return nil
}
