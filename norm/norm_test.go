package norm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoverse/canopy/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaultEngine(t *testing.T) {
	t.Parallel()
	engine, err := New("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"normalize-control-flow",
		"rename-identifiers",
		"decompose-expressions",
		"standardize-loops",
		"extract-functions",
	}, engine.Order())
}

func TestNewFromConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, ".canopy.yaml", `
name: canopy
version: "1.0.0"
passes:
  standardize-loops:
    severity: "off"
  strip-docstrings:
    severity: warning
order:
  - strip-docstrings
  - rename-identifiers
`)
	engine, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"strip-docstrings", "rename-identifiers"}, engine.Order())
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	unsupported := writeFile(t, dir, "future.yaml", "version: \"2.5.0\"\n")
	_, err := New(unsupported)
	assert.Error(t, err)

	invalid := writeFile(t, dir, "invalid.yaml", "version: \"not-semver\"\n")
	_, err = New(invalid)
	assert.Error(t, err)

	unknown := writeFile(t, dir, "unknown.yaml", "passes:\n  no-such-pass:\n    severity: warning\n")
	_, err = New(unknown)
	assert.Error(t, err)

	_, err = New(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCheckSchemaVersion(t *testing.T) {
	t.Parallel()
	assert.NoError(t, checkSchemaVersion("1.0.0"))
	assert.NoError(t, checkSchemaVersion("1.9.3"))
	assert.Error(t, checkSchemaVersion("0.9.0"))
	assert.Error(t, checkSchemaVersion("2.0.0"))
	assert.Error(t, checkSchemaVersion("garbage"))
}

func TestProcessUnitsPreservesOrderAndIsolation(t *testing.T) {
	t.Parallel()
	engine, err := New("")
	require.NoError(t, err)

	units := []tt.Unit{
		{ID: "first", Source: "def f(a):\n    return a\n"},
		{ID: "second", Source: "def broken(:\n    return 1\n"},
		{ID: "third", Source: "x = 1 + 2 * 3\n"},
	}
	results, err := ProcessUnits(context.Background(), nil, engine, units)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, "third", results[2].ID)

	assert.Equal(t, tt.StatusSuccess, results[0].Status)
	assert.Equal(t, tt.StatusParseFail, results[1].Status)
	assert.Equal(t, tt.StatusSuccess, results[2].Status)
	assert.Equal(t, "tmp_0 = 2 * 3\nx = 1 + tmp_0\n", results[2].TransformedSource)
}

func TestProcessUnitsCanceledContext(t *testing.T) {
	t.Parallel()
	engine, err := New("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ProcessUnits(ctx, nil, engine, []tt.Unit{{ID: "u", Source: "x = 1\n"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", "x = 1\n")
	b := writeFile(t, dir, "b.py", "y = 2\n")
	writeFile(t, dir, "notes.txt", "not source\n")

	engine, err := New("")
	require.NoError(t, err)

	results, err := ProcessPath(context.Background(), nil, engine, dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].ID)
	assert.Equal(t, b, results[1].ID)
}

func TestProcessFilesSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "only.py", "def f(v):\n    return v\n")

	engine, err := New("")
	require.NoError(t, err)

	results, err := ProcessFiles(context.Background(), nil, engine, []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].ID)
	assert.Equal(t, "def f(arg_0):\n    return arg_0\n", results[0].TransformedSource)
}

func TestProcessPathMissing(t *testing.T) {
	t.Parallel()
	engine, err := New("")
	require.NoError(t, err)
	_, err = ProcessPath(context.Background(), nil, engine, "/no/such/path")
	assert.Error(t, err)
}

func TestHasDesiredExtension(t *testing.T) {
	t.Parallel()
	assert.True(t, hasDesiredExtension("pkg/mod.py"))
	assert.False(t, hasDesiredExtension("pkg/mod.go"))
	assert.False(t, hasDesiredExtension("pkg/mod"))
}
