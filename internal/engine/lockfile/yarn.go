package lockfile

import (
	"bufio"
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseYarn handles both the classic v1 text format and the berry (v2+)
// YAML format, which is recognised by its __metadata block.
func parseYarn(data []byte) (map[string]string, error) {
	if isBerry(data) {
		return parseYarnBerry(data)
	}
	return parseYarnClassic(data)
}

func isBerry(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "__metadata:") {
			return true
		}
	}
	return false
}

// parseYarnClassic reads entries of the form
//
//	"@scope/pkg@^1.0.0", "@scope/pkg@^1.1.0":
//	  version "1.1.2"
func parseYarnClassic(data []byte) (map[string]string, error) {
	versions := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	current := ""
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !strings.HasPrefix(line, " ") && strings.HasSuffix(trimmed, ":") {
			current = yarnPackageName(strings.TrimSuffix(trimmed, ":"))
			continue
		}
		if current == "" || !strings.HasPrefix(trimmed, "version ") {
			continue
		}
		version := strings.Trim(strings.TrimSpace(strings.TrimPrefix(trimmed, "version ")), `"`)
		if version != "" {
			versions[current] = version
		}
	}
	return versions, scanner.Err()
}

type berryEntry struct {
	Version string `yaml:"version"`
}

func parseYarnBerry(data []byte) (map[string]string, error) {
	var lock map[string]berryEntry
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, err
	}
	versions := map[string]string{}
	for _, key := range sortedKeys(lock) {
		entry := lock[key]
		if key == "__metadata" || entry.Version == "" {
			continue
		}
		name := yarnPackageName(key)
		if name == "" {
			continue
		}
		if _, ok := versions[name]; !ok {
			versions[name] = entry.Version
		}
	}
	return versions, nil
}

// yarnPackageName extracts the package from a descriptor list such as
// `"@scope/pkg@^1.0.0", "@scope/pkg@npm:^1.1.0"`.
func yarnPackageName(header string) string {
	first := strings.TrimSpace(strings.Split(header, ",")[0])
	first = strings.Trim(first, `"`)
	if first == "" {
		return ""
	}
	at := strings.Index(first[1:], "@")
	if at < 0 {
		return first
	}
	return first[:at+1]
}
