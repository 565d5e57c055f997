package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/canopy/internal/syntax"
	tt "github.com/gnoverse/canopy/internal/types"
)

// apply parses src, runs p over the tree, and renders the result.
func apply(t *testing.T, p Pass, src string) (string, *Context) {
	t.Helper()
	mod, err := syntax.Parse(src)
	require.NoError(t, err)
	ctx := NewContext("unit", mod)
	ctx.SetPass(p.Name())
	require.NoError(t, p.Apply(ctx, mod))
	return syntax.Render(mod), ctx
}

// applyTwice checks that re-running the pass on its own output changes
// nothing, and returns the stable result.
func applyTwice(t *testing.T, p Pass, src string) string {
	t.Helper()
	once, _ := apply(t, p, src)
	twice, _ := apply(t, p, once)
	assert.Equal(t, once, twice, "pass %s is not idempotent", p.Name())
	return once
}

func countSeverity(ctx *Context, sev tt.Severity) int {
	n := 0
	for _, d := range ctx.Diagnostics() {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

func TestNameGenSkipsTakenNames(t *testing.T) {
	t.Parallel()
	mod, err := syntax.Parse("tmp_0 = 1\ntmp_2 = 2\n")
	require.NoError(t, err)
	gen := NewNameGen(mod)
	assert.Equal(t, "tmp_1", gen.Temp())
	assert.Equal(t, "tmp_3", gen.Temp())
	assert.True(t, gen.Taken("tmp_1"))

	gen.Reserve("tmp_4")
	assert.Equal(t, "tmp_5", gen.Temp())
}

func TestContextDiagnostics(t *testing.T) {
	t.Parallel()
	mod, err := syntax.Parse("x = 1\n")
	require.NoError(t, err)
	ctx := NewContext("unit", mod)
	ctx.SetPass("some-pass")

	ctx.Infof(mod.Body[0], "note %d", 1)
	ctx.Warnf(mod.Body[0], "left alone")
	assert.False(t, ctx.Fatal())

	ctx.Fatalf(mod.Body[0], "cannot continue")
	assert.True(t, ctx.Fatal())

	diags := ctx.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, "unit", diags[0].UnitID)
	assert.Equal(t, "some-pass", diags[0].Pass)
	assert.Equal(t, "note 1", diags[0].Message)
	assert.Equal(t, tt.SeverityWarning, diags[1].Severity)
	assert.Equal(t, tt.SeverityFatal, diags[2].Severity)
	assert.Equal(t, 1, diags[2].Pos.Line)
}
