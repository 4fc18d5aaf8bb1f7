package lockfile

import (
	"encoding/json"
	"sort"
	"strings"
)

type npmLock struct {
	Packages     map[string]npmEntry `json:"packages"`
	Dependencies map[string]npmEntry `json:"dependencies"`
}

type npmEntry struct {
	Version      string              `json:"version"`
	Dependencies map[string]npmEntry `json:"dependencies"`
}

const nodeModules = "node_modules/"

// parseNPM reads lockfileVersion 2/3 "packages", falling back to the v1
// "dependencies" tree. Shallower installs win over nested copies.
func parseNPM(data []byte) (map[string]string, error) {
	var lock npmLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(lock.Packages))
	for path := range lock.Packages {
		if path != "" {
			paths = append(paths, path)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], nodeModules), strings.Count(paths[j], nodeModules)
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})

	versions := map[string]string{}
	for _, path := range paths {
		entry := lock.Packages[path]
		if entry.Version == "" {
			continue
		}
		name := path
		if i := strings.LastIndex(path, nodeModules); i >= 0 {
			name = path[i+len(nodeModules):]
		}
		if _, exists := versions[name]; !exists {
			versions[name] = entry.Version
		}
	}

	if len(versions) == 0 {
		level := []map[string]npmEntry{lock.Dependencies}
		for len(level) > 0 {
			var next []map[string]npmEntry
			for _, deps := range level {
				names := make([]string, 0, len(deps))
				for name := range deps {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					entry := deps[name]
					if _, exists := versions[name]; !exists && entry.Version != "" {
						versions[name] = entry.Version
					}
					if len(entry.Dependencies) > 0 {
						next = append(next, entry.Dependencies)
					}
				}
			}
			level = next
		}
	}
	return versions, nil
}
