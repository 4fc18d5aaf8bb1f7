package repository

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type listFile struct {
	Repositories []string `yaml:"repositories" json:"repositories"`
}

// LoadList reads a {repositories: [...]} file. JSON files parse through the
// YAML decoder as well.
func LoadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read repository list %q: %w", path, err)
	}

	var lf listFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse repository list %q: %w", path, err)
	}

	out := make([]string, 0, len(lf.Repositories))
	seen := make(map[string]bool, len(lf.Repositories))
	for _, r := range lf.Repositories {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out, nil
}
