package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const unknownValue = "unknown"

// Stats summarizes a checkout from its package.json and discovered sources.
type Stats struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	TotalFiles      int               `json:"totalFiles"`
	FileTypes       map[string]int    `json:"fileTypes"`
	Error           string            `json:"error,omitempty"`
}

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ReadStats reads root/package.json and counts files by extension. A missing
// package.json is not an error; a malformed one is reported in Stats.Error.
func ReadStats(root string, files []string) Stats {
	st := Stats{
		Name:            unknownValue,
		Version:         unknownValue,
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{},
		TotalFiles:      len(files),
		FileTypes:       map[string]int{"tsx": 0, "jsx": 0, "ts": 0, "js": 0},
	}

	for _, f := range files {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f)), ".")
		if _, ok := st.FileTypes[ext]; ok {
			st.FileTypes[ext]++
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		if !os.IsNotExist(err) {
			st.Error = err.Error()
		}
		return st
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		st.Error = "parse package.json: " + err.Error()
		return st
	}
	if pkg.Name != "" {
		st.Name = pkg.Name
	}
	if pkg.Version != "" {
		st.Version = pkg.Version
	}
	if pkg.Dependencies != nil {
		st.Dependencies = pkg.Dependencies
	}
	if pkg.DevDependencies != nil {
		st.DevDependencies = pkg.DevDependencies
	}
	return st
}
