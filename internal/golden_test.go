package internal

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	tt "github.com/gnoverse/canopy/internal/types"
)

// TestGoldenPrograms runs whole units through the default pipeline and
// compares against checked-in expected output.
func TestGoldenPrograms(t *testing.T) {
	t.Parallel()
	archive, err := txtar.ParseFile(filepath.Join("testdata", "golden.txtar"))
	require.NoError(t, err)

	files := make(map[string]string, len(archive.Files))
	for _, f := range archive.Files {
		files[f.Name] = string(f.Data)
	}

	engine := newTestEngine(t)
	for name, src := range files {
		if !strings.HasSuffix(name, ".py") {
			continue
		}
		t.Run(strings.TrimSuffix(name, ".py"), func(t *testing.T) {
			golden, ok := files[strings.TrimSuffix(name, ".py")+".golden"]
			require.True(t, ok, "no golden entry for %s", name)

			result := engine.RunUnit(tt.Unit{ID: name, Source: src})
			assert.Equal(t, tt.StatusSuccess, result.Status)
			if diff := cmp.Diff(golden, result.TransformedSource); diff != "" {
				t.Errorf("%s output mismatch (-want +got):\n%s", name, diff)
			}
		})
	}
}
