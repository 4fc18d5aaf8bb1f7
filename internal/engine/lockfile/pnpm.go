package lockfile

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type pnpmImporter struct {
	Dependencies    map[string]any `yaml:"dependencies"`
	DevDependencies map[string]any `yaml:"devDependencies"`
}

type pnpmLock struct {
	Importers    map[string]pnpmImporter `yaml:"importers"`
	Packages     map[string]any          `yaml:"packages"`
	Dependencies map[string]any          `yaml:"dependencies"`
}

// parsePNPM prefers the root importer (v6+/v9), then package keys (v5/v6),
// then the v5 top-level dependency map.
func parsePNPM(data []byte) (map[string]string, error) {
	var lock pnpmLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, err
	}

	versions := map[string]string{}
	if root, ok := lock.Importers["."]; ok {
		collectPNPMDeps(root.Dependencies, versions)
		collectPNPMDeps(root.DevDependencies, versions)
	}

	if len(versions) == 0 {
		for _, key := range sortedKeys(lock.Packages) {
			name, version, ok := splitPNPMKey(key)
			if !ok {
				continue
			}
			if _, seen := versions[name]; !seen {
				versions[name] = version
			}
		}
	}

	if len(versions) == 0 {
		collectPNPMDeps(lock.Dependencies, versions)
	}
	return versions, nil
}

func collectPNPMDeps(deps map[string]any, versions map[string]string) {
	for name, spec := range deps {
		var version string
		switch v := spec.(type) {
		case string:
			version = v
		case map[string]any:
			version, _ = v["version"].(string)
		}
		if version == "" || strings.HasPrefix(version, "link:") {
			continue
		}
		versions[name] = stripPeerSuffix(version)
	}
}

// splitPNPMKey parses "/name/1.2.3_peer@1", "/@scope/name@1.2.3" and
// "name@1.2.3(peer@1)" package keys.
func splitPNPMKey(key string) (name, version string, ok bool) {
	key = strings.TrimPrefix(key, "/")
	if i := strings.IndexByte(key, '('); i > 0 {
		key = key[:i]
	}
	if key == "" {
		return "", "", false
	}

	name, version = "", ""
	for i := 1; i < len(key)-1; i++ {
		if key[i] == '/' && looksLikeVersion(key[i+1:]) {
			name, version = key[:i], key[i+1:]
			break
		}
	}
	if name == "" {
		at := strings.Index(key[1:], "@")
		if at < 0 {
			return "", "", false
		}
		name, version = key[:at+1], key[at+2:]
	}

	version = stripPeerSuffix(version)
	if !looksLikeVersion(version) {
		return "", "", false
	}
	return name, version, true
}

// looksLikeVersion reports whether s starts with "<digits>.".
func looksLikeVersion(s string) bool {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 0 && i < len(s) && s[i] == '.'
}

func stripPeerSuffix(version string) string {
	if i := strings.IndexAny(version, "(_"); i > 0 {
		return version[:i]
	}
	return version
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
