package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tt "github.com/gnoverse/canopy/internal/types"
)

func TestDecomposeNestedArithmetic(t *testing.T) {
	t.Parallel()
	src := "r = a + b * c - d\n"
	expected := "tmp_0 = b * c\n" +
		"tmp_1 = a + tmp_0\n" +
		"r = tmp_1 - d\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, expected, got)
}

func TestDecomposePreservesEvaluationOrder(t *testing.T) {
	t.Parallel()
	src := "r = f(a()) + b()\n"
	expected := "tmp_0 = a()\n" +
		"tmp_1 = f(tmp_0)\n" +
		"tmp_2 = b()\n" +
		"r = tmp_1 + tmp_2\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, expected, got)
}

func TestDecomposeShortCircuitAnd(t *testing.T) {
	t.Parallel()
	src := "r = a and f(b)\n"
	expected := "tmp_0 = a\n" +
		"if tmp_0:\n" +
		"    tmp_0 = f(b)\n" +
		"r = tmp_0\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, expected, got)
}

func TestDecomposeShortCircuitOr(t *testing.T) {
	t.Parallel()
	src := "r = a or f(b)\n"
	expected := "tmp_0 = a\n" +
		"if not tmp_0:\n" +
		"    tmp_0 = f(b)\n" +
		"r = tmp_0\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, expected, got)
}

func TestDecomposeReturnValue(t *testing.T) {
	t.Parallel()
	src := "def g(x):\n    return f(x) + 1\n"
	expected := "def g(x):\n" +
		"    tmp_0 = f(x)\n" +
		"    return tmp_0 + 1\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, expected, got)
}

func TestDecomposeIfCondition(t *testing.T) {
	t.Parallel()
	src := "if len(xs) > 0:\n    f(xs)\n"
	expected := "tmp_0 = len(xs)\n" +
		"if tmp_0 > 0:\n" +
		"    f(xs)\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, expected, got)
}

func TestDecomposeWhileConditionLeftAlone(t *testing.T) {
	t.Parallel()
	src := "while a + b > 0:\n    a = a - 1\n"
	got, ctx := apply(t, NewDecomposer(), src)
	assert.Equal(t, src, got)
	assert.Equal(t, 1, countSeverity(ctx, tt.SeverityWarning))
}

func TestDecomposeElifConditionLeftAlone(t *testing.T) {
	t.Parallel()
	src := "if a:\n" +
		"    x = 1\n" +
		"elif b + c > 0:\n" +
		"    x = 2\n"
	got, ctx := apply(t, NewDecomposer(), src)
	assert.Equal(t, src, got)
	assert.Equal(t, 1, countSeverity(ctx, tt.SeverityWarning))
}

func TestDecomposeSubscriptStore(t *testing.T) {
	t.Parallel()
	src := "xs[i + 1] = f(v)\n"
	expected := "tmp_0 = i + 1\n" +
		"xs[tmp_0] = f(v)\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, expected, got)
}

func TestDecomposeSingleOperationUnchanged(t *testing.T) {
	t.Parallel()
	for _, src := range []string{
		"r = a + b\n",
		"r = f(x)\n",
		"r = xs[i]\n",
		"r = obj.field\n",
		"r = not a\n",
	} {
		got, ctx := apply(t, NewDecomposer(), src)
		assert.Equal(t, src, got)
		assert.Empty(t, ctx.Diagnostics())
	}
}

func TestDecomposeLambdaOpaque(t *testing.T) {
	t.Parallel()
	src := "r = apply(lambda y: y * 2 + 1, x)\n"
	got, _ := apply(t, NewDecomposer(), src)
	assert.Equal(t, src, got)
}

func TestDecomposeIdempotent(t *testing.T) {
	t.Parallel()
	src := "def f(a, b):\n" +
		"    r = g(a * 2) + h(b - 1)\n" +
		"    return r\n"
	applyTwice(t, NewDecomposer(), src)
}
