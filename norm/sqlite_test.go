package norm

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoverse/canopy/internal/types"
)

func TestResultsDBAppend(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "results.db")

	db, err := OpenResultsDB(path)
	require.NoError(t, err)
	defer db.Close()

	results := []tt.UnitResult{
		{
			ID:                "u-1",
			OriginalSource:    "x = a + b * c\n",
			TransformedSource: "tmp_0 = b * c\nx = a + tmp_0\n",
			PassesApplied:     []string{"decompose-expressions"},
			Status:            tt.StatusSuccess,
		},
		{
			ID:                "u-2",
			OriginalSource:    "def broken(\n",
			TransformedSource: "def broken(\n",
			Status:            tt.StatusParseFail,
		},
	}
	require.NoError(t, db.Append(results))

	var count int
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&count))
	assert.Equal(t, 2, count)

	var transformed, passesJSON, status string
	require.NoError(t, db.db.QueryRow(
		"SELECT transformed_source, passes_applied, status FROM results WHERE unit_id = ?", "u-1",
	).Scan(&transformed, &passesJSON, &status))
	assert.Equal(t, "tmp_0 = b * c\nx = a + tmp_0\n", transformed)
	assert.Equal(t, "Success", status)

	var passes []string
	require.NoError(t, json.Unmarshal([]byte(passesJSON), &passes))
	assert.Equal(t, []string{"decompose-expressions"}, passes)
}

func TestResultsDBAppendAccumulates(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "results.db")

	db, err := OpenResultsDB(path)
	require.NoError(t, err)
	defer db.Close()

	record := []tt.UnitResult{{ID: "u", OriginalSource: "x = 1\n", TransformedSource: "x = 1\n", Status: tt.StatusSuccess}}
	require.NoError(t, db.Append(record))
	require.NoError(t, db.Append(record))

	var count int
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM results WHERE unit_id = ?", "u").Scan(&count))
	assert.Equal(t, 2, count)
}
