package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usagelens/internal/core/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const npmV3 = `{
  "name": "app",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "app", "version": "1.0.0"},
    "node_modules/@design/foundation": {"version": "2.4.1"},
    "node_modules/react": {"version": "18.2.0"},
    "node_modules/left/node_modules/react": {"version": "17.0.2"},
    "node_modules/left/node_modules/only-nested": {"version": "0.1.0"}
  }
}`

const npmV1 = `{
  "lockfileVersion": 1,
  "dependencies": {
    "react": {"version": "16.14.0", "dependencies": {"loose-envify": {"version": "1.4.0"}}},
    "lib": {"version": "1.0.0"}
  }
}`

const yarnClassic = `# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.
# yarn lockfile v1


"@design/foundation@^2.0.0", "@design/foundation@^2.4.0":
  version "2.4.1"
  resolved "https://registry.yarnpkg.com/@design/foundation/-/foundation-2.4.1.tgz"

react@^18.2.0:
  version "18.2.0"
  dependencies:
    loose-envify "^1.1.0"
`

const yarnBerry = `__metadata:
  version: 6
  cacheKey: 8

"@design/foundation@npm:^2.0.0":
  version: 2.4.1
  resolution: "@design/foundation@npm:2.4.1"

"react@npm:^18.2.0, react@npm:^18.0.0":
  version: 18.2.0
  resolution: "react@npm:18.2.0"
`

const pnpmV9 = `lockfileVersion: '9.0'
importers:
  .:
    dependencies:
      '@design/foundation':
        specifier: ^2.0.0
        version: 2.4.1(react@18.2.0)
      react:
        specifier: ^18.2.0
        version: 18.2.0
    devDependencies:
      typescript:
        specifier: ^5.0.0
        version: 5.4.5
`

const pnpmV5 = `lockfileVersion: 5.4
specifiers:
  react: ^18.2.0
packages:
  /@design/foundation/2.4.1_react@18.2.0:
    resolution: {integrity: sha512-x}
  /react/18.2.0:
    resolution: {integrity: sha512-y}
`

func TestResolve_NPM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package-lock.json", npmV3)

	res, err := NewResolver().Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeNPM, res.Type)
	assert.Equal(t, filepath.Join(dir, "package-lock.json"), res.Path)
	assert.Equal(t, "2.4.1", res.Versions["@design/foundation"])
	assert.Equal(t, "18.2.0", res.Versions["react"])
	assert.Equal(t, "0.1.0", res.Versions["only-nested"])
	assert.NotContains(t, res.Versions, "")
}

func TestResolve_NPMLegacyDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package-lock.json", npmV1)

	res, err := NewResolver().Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, "16.14.0", res.Versions["react"])
	assert.Equal(t, "1.4.0", res.Versions["loose-envify"])
	assert.Equal(t, "1.0.0", res.Versions["lib"])
}

func TestResolve_Yarn(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"classic", yarnClassic},
		{"berry", yarnBerry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "yarn.lock", tt.content)

			res, err := NewResolver().Resolve(dir)
			require.NoError(t, err)
			assert.Equal(t, TypeYarn, res.Type)
			assert.Equal(t, "2.4.1", res.Versions["@design/foundation"])
			assert.Equal(t, "18.2.0", res.Versions["react"])
			assert.NotContains(t, res.Versions, "__metadata")
		})
	}
}

func TestResolve_PNPM(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"importers", pnpmV9},
		{"packages", pnpmV5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "pnpm-lock.yaml", tt.content)

			res, err := NewResolver().Resolve(dir)
			require.NoError(t, err)
			assert.Equal(t, TypePNPM, res.Type)
			assert.Equal(t, "2.4.1", res.Versions["@design/foundation"])
			assert.Equal(t, "18.2.0", res.Versions["react"])
		})
	}
}

func TestResolve_DetectionOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "yarn.lock", yarnClassic)
	writeFile(t, dir, "package-lock.json", npmV3)

	res, err := NewResolver().Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeNPM, res.Type)
}

func TestResolve_Missing(t *testing.T) {
	res, err := NewResolver().Resolve(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
	assert.Equal(t, Unknown, res.VersionOf("react"))
}

func TestResolve_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package-lock.json", "{not json")

	res, err := NewResolver().Resolve(dir)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParseFailed))
	assert.Equal(t, TypeNPM, res.Type)
	assert.Empty(t, res.Versions)
}

func TestVersionOf(t *testing.T) {
	res := Result{Versions: map[string]string{
		"@design/foundation": "2.4.1",
		"lodash":             "4.17.21",
	}}

	assert.Equal(t, "2.4.1", res.VersionOf("@design/foundation"))
	assert.Equal(t, "2.4.1", res.VersionOf("@design/foundation/button"))
	assert.Equal(t, "4.17.21", res.VersionOf("lodash/merge"))
	assert.Equal(t, Unknown, res.VersionOf("react"))
	assert.Equal(t, Unknown, res.VersionOf("@design/other"))
}

func TestSplitPNPMKey(t *testing.T) {
	tests := []struct {
		key, name, version string
		ok                 bool
	}{
		{"/react/18.2.0", "react", "18.2.0", true},
		{"/@babel/core/7.22.5", "@babel/core", "7.22.5", true},
		{"/react-dom/18.2.0_react@18.2.0", "react-dom", "18.2.0", true},
		{"/react-dom@18.2.0", "react-dom", "18.2.0", true},
		{"@scope/3d-lib@1.0.0(react@18.2.0)", "@scope/3d-lib", "1.0.0", true},
		{"/link-only", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, version, ok := splitPNPMKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.version, version)
		})
	}
}
