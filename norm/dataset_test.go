package norm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoverse/canopy/internal/types"
)

func TestLoadDataset(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "units.json")
	content := `[
  {"unit_id": "u-1", "source_text": "x = 1\n"},
  {"source_text": "y = 2\n"}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	units, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "u-1", units[0].ID)
	assert.Equal(t, "x = 1\n", units[0].Source)

	// missing ids get generated ones
	assert.NotEmpty(t, units[1].ID)
	assert.NotEqual(t, units[0].ID, units[1].ID)
}

func TestLoadDatasetErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadDataset(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadDataset(bad)
	assert.Error(t, err)
}

func TestWriteJSONRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	results := []tt.UnitResult{
		{
			ID:                "u-1",
			OriginalSource:    "x = 1 + 2 * 3\n",
			TransformedSource: "tmp_0 = 2 * 3\nx = 1 + tmp_0\n",
			PassesApplied:     []string{"decompose-expressions"},
			Status:            tt.StatusSuccess,
		},
		{
			ID:                "u-2",
			OriginalSource:    "def broken(\n",
			TransformedSource: "def broken(\n",
			Status:            tt.StatusParseFail,
			Diagnostics: []tt.Diagnostic{
				{UnitID: "u-2", Pass: "parse", Severity: tt.SeverityFatal, Message: "unexpected end of input"},
			},
		},
	}
	require.NoError(t, WriteJSON(path, results))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []tt.UnitResult
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, results, decoded)
}
