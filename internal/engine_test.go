package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoverse/canopy/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(nil)
	require.NoError(t, err)
	return engine
}

func TestRunUnitSuccess(t *testing.T) {
	t.Parallel()
	src := "def total(items):\n" +
		"    result = 0\n" +
		"    for item in items:\n" +
		"        result = result + item\n" +
		"    return result\n"
	expected := "def total(arg_0):\n" +
		"    var_0 = 0\n" +
		"    tmp_0 = arg_0\n" +
		"    tmp_1 = 0\n" +
		"    while tmp_1 < len(tmp_0):\n" +
		"        var_1 = tmp_0[tmp_1]\n" +
		"        var_0 = var_0 + var_1\n" +
		"        tmp_1 = tmp_1 + 1\n" +
		"    return var_0\n"

	engine := newTestEngine(t)
	result := engine.RunUnit(tt.Unit{ID: "total.py", Source: src})

	assert.Equal(t, tt.StatusSuccess, result.Status)
	assert.Equal(t, src, result.OriginalSource)
	assert.Equal(t, expected, result.TransformedSource)
	assert.Equal(t, DefaultOrder(), result.PassesApplied)
}

func TestRunUnitFullPipelineIdempotent(t *testing.T) {
	t.Parallel()
	src := "def process(data, limit):\n" +
		"    kept = 0\n" +
		"    for d in data:\n" +
		"        if d < limit:\n" +
		"            kept = kept + 1\n" +
		"    return kept\n"

	engine := newTestEngine(t)
	first := engine.RunUnit(tt.Unit{ID: "a.py", Source: src})
	require.Equal(t, tt.StatusSuccess, first.Status)

	second := engine.RunUnit(tt.Unit{ID: "a.py", Source: first.TransformedSource})
	require.Equal(t, tt.StatusSuccess, second.Status)
	assert.Equal(t, first.TransformedSource, second.TransformedSource)
}

func TestRunUnitHoistedClosureIdempotent(t *testing.T) {
	t.Parallel()
	// the hoisted helper threads a free variable, so its parameters mix
	// original and appended names; renumbering keeps the second run at
	// a fixed point
	src := "def make_scaler(factor, values):\n" +
		"    out = []\n" +
		"    def scale(v):\n" +
		"        return v * factor\n" +
		"    for v in values:\n" +
		"        out = out + [scale(v)]\n" +
		"    return out\n"

	engine := newTestEngine(t)
	first := engine.RunUnit(tt.Unit{ID: "scaler.py", Source: src})
	require.Equal(t, tt.StatusSuccess, first.Status)
	assert.Contains(t, first.TransformedSource, "def scale(arg_0, arg_1):")

	second := engine.RunUnit(tt.Unit{ID: "scaler.py", Source: first.TransformedSource})
	require.Equal(t, tt.StatusSuccess, second.Status)
	assert.Equal(t, first.TransformedSource, second.TransformedSource)
}

func TestRunUnitMutatedCaptureAborts(t *testing.T) {
	t.Parallel()
	// the renamer maps the captured name to the enclosing binding, so
	// the extractor still sees the mutation after the full pipeline ran
	// ahead of it; the sibling helper hoists, the offender stays put
	src := "def outer(a):\n" +
		"    total = 0\n" +
		"    def bump():\n" +
		"        total = total + 1\n" +
		"        return total\n" +
		"    def double(x):\n" +
		"        return x * 2\n" +
		"    bump()\n" +
		"    return total + double(a)\n"
	expected := "def double(arg_0):\n" +
		"    return arg_0 * 2\n" +
		"def outer(arg_0):\n" +
		"    var_0 = 0\n" +
		"    def bump():\n" +
		"        var_0 = var_0 + 1\n" +
		"        return var_0\n" +
		"    bump()\n" +
		"    tmp_0 = double(arg_0)\n" +
		"    return var_0 + tmp_0\n"

	engine := newTestEngine(t)
	result := engine.RunUnit(tt.Unit{ID: "outer.py", Source: src})

	assert.Equal(t, tt.StatusAborted, result.Status)
	assert.Equal(t, DefaultOrder(), result.PassesApplied)
	assert.Equal(t, expected, result.TransformedSource)

	fatal := 0
	for _, d := range result.Diagnostics {
		if d.Severity == tt.SeverityFatal {
			fatal++
			assert.Equal(t, "extract-functions", d.Pass)
		}
	}
	assert.Equal(t, 1, fatal)
}

func TestRunUnitParseFailure(t *testing.T) {
	t.Parallel()
	src := "def broken(:\n    return 1\n"
	engine := newTestEngine(t)
	result := engine.RunUnit(tt.Unit{ID: "broken.py", Source: src})

	assert.Equal(t, tt.StatusParseFail, result.Status)
	assert.Equal(t, src, result.TransformedSource)
	assert.Empty(t, result.PassesApplied)
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, "parse", result.Diagnostics[0].Pass)
	assert.Equal(t, tt.SeverityFatal, result.Diagnostics[0].Severity)
}

func TestRunUnitFatalCommitsPassOutput(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    count = 0\n" +
		"    def bump():\n" +
		"        count = count + 1\n" +
		"        return count\n" +
		"    bump()\n" +
		"    return count\n"

	engine := newTestEngine(t)
	require.NoError(t, engine.SetOrder([]string{"extract-functions"}))
	result := engine.RunUnit(tt.Unit{ID: "closure.py", Source: src})

	// the rejection is node scoped: the pass's other rewrites commit
	// and the unit aborts before any later pass
	assert.Equal(t, tt.StatusAborted, result.Status)
	assert.Equal(t, []string{"extract-functions"}, result.PassesApplied)
	assert.Equal(t, src, result.TransformedSource)

	fatal := 0
	for _, d := range result.Diagnostics {
		if d.Severity == tt.SeverityFatal {
			fatal++
			assert.Equal(t, "extract-functions", d.Pass)
		}
	}
	assert.Equal(t, 1, fatal)
}

func TestRunUnitDisabledPassSkipped(t *testing.T) {
	t.Parallel()
	src := "def f(items):\n" +
		"    for x in items:\n" +
		"        print(x)\n" +
		"    return None\n"

	engine := newTestEngine(t)
	engine.DisablePass("standardize-loops")
	result := engine.RunUnit(tt.Unit{ID: "f.py", Source: src})

	assert.Equal(t, tt.StatusSuccess, result.Status)
	assert.NotContains(t, result.PassesApplied, "standardize-loops")
	assert.Contains(t, result.TransformedSource, "for var_0 in arg_0:")
}

func TestNewEngineFromConfig(t *testing.T) {
	t.Parallel()
	cfg := &tt.Config{
		Passes: map[string]tt.ConfigPass{
			"standardize-loops": {Severity: tt.SeverityOff},
			"strip-docstrings":  {Severity: tt.SeverityWarning},
		},
		Order: []string{"strip-docstrings", "rename-identifiers"},
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"strip-docstrings", "rename-identifiers"}, engine.Order())

	src := "'doc'\ndef f(value):\n    return value\n"
	result := engine.RunUnit(tt.Unit{ID: "f.py", Source: src})
	assert.Equal(t, tt.StatusSuccess, result.Status)
	assert.Equal(t, "def f(arg_0):\n    return arg_0\n", result.TransformedSource)
}

func TestNewEngineRejectsUnknownPass(t *testing.T) {
	t.Parallel()
	_, err := NewEngine(&tt.Config{
		Passes: map[string]tt.ConfigPass{"no-such-pass": {}},
	})
	assert.Error(t, err)

	_, err = NewEngine(&tt.Config{
		Order: []string{"rename-identifiers", "no-such-pass"},
	})
	assert.Error(t, err)
}

func TestSetOrderRejectsUnknownPass(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)
	assert.Error(t, engine.SetOrder([]string{"rename-identifiers", "bogus"}))
	assert.Equal(t, DefaultOrder(), engine.Order())
}

func TestPassRegistry(t *testing.T) {
	t.Parallel()
	names := PassNames()
	assert.Len(t, names, 6)
	for _, name := range DefaultOrder() {
		assert.Contains(t, names, name)
	}

	desc, ok := Describe("decompose-expressions")
	require.True(t, ok)
	assert.NotEmpty(t, desc)

	_, ok = Describe("bogus")
	assert.False(t, ok)
}
