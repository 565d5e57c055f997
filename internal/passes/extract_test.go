package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tt "github.com/gnoverse/canopy/internal/types"
)

func TestExtractClosedHelper(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    def helper(x):\n" +
		"        return x * 2\n" +
		"    return helper(a)\n"
	expected := "def helper(arg_0):\n" +
		"    return arg_0 * 2\n" +
		"def outer(a):\n" +
		"    return helper(a)\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractThreadsFreeVariable(t *testing.T) {
	t.Parallel()
	src := "def outer(a, b):\n" +
		"    def add(x):\n" +
		"        return x + a\n" +
		"    return add(b)\n"
	expected := "def add(arg_0, arg_1):\n" +
		"    return arg_0 + arg_1\n" +
		"def outer(a, b):\n" +
		"    return add(b, a)\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractDoublyNestedThreading(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    def mid(b):\n" +
		"        def inner(c):\n" +
		"            return c + a\n" +
		"        return inner(b)\n" +
		"    return mid(a)\n"
	expected := "def inner(arg_0, arg_1):\n" +
		"    return arg_0 + arg_1\n" +
		"def mid(arg_0, arg_1):\n" +
		"    return inner(arg_0, arg_1)\n" +
		"def outer(a):\n" +
		"    return mid(a, a)\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractRejectsMutatedCapture(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    count = 0\n" +
		"    def bump():\n" +
		"        count = count + 1\n" +
		"        return count\n" +
		"    def ok(x):\n" +
		"        return x + 1\n" +
		"    bump()\n" +
		"    return ok(count)\n"
	expected := "def ok(arg_0):\n" +
		"    return arg_0 + 1\n" +
		"def outer(a):\n" +
		"    count = 0\n" +
		"    def bump():\n" +
		"        count = count + 1\n" +
		"        return count\n" +
		"    bump()\n" +
		"    return ok(count)\n"
	got, ctx := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
	assert.True(t, ctx.Fatal())
	assert.Equal(t, 1, countSeverity(ctx, tt.SeverityFatal))
}

func TestExtractThreadsMutatedCaptureByValue(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    count = 0\n" +
		"    def bump():\n" +
		"        count = count + 1\n" +
		"        return count\n" +
		"    return bump()\n"
	// the encloser never reads count again, so a by-value copy keeps
	// the observable behavior
	expected := "def bump(arg_0):\n" +
		"    arg_0 = arg_0 + 1\n" +
		"    return arg_0\n" +
		"def outer(a):\n" +
		"    count = 0\n" +
		"    return bump(count)\n"
	got, ctx := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
	assert.False(t, ctx.Fatal())
}

func TestExtractCapturingEscapeLeftInPlace(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    def f(x):\n" +
		"        return x + a\n" +
		"    return f\n"
	got, ctx := apply(t, NewExtractor(), src)
	assert.Equal(t, src, got)
	assert.False(t, ctx.Fatal())
	assert.Equal(t, 1, countSeverity(ctx, tt.SeverityWarning))
}

func TestExtractClosedEscapeRewritten(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    def f(x):\n" +
		"        return x * 2\n" +
		"    return f\n"
	expected := "def f(arg_0):\n" +
		"    return arg_0 * 2\n" +
		"def outer(a):\n" +
		"    return f\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractLambdaAssignment(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    double = lambda y: y * 2\n" +
		"    return double(a)\n"
	expected := "def double(arg_0):\n" +
		"    return arg_0 * 2\n" +
		"def outer(a):\n" +
		"    return double(a)\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractInlineLambdaArgument(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    return apply(lambda y: y * 2, a)\n"
	expected := "def tmp_0(arg_0):\n" +
		"    return arg_0 * 2\n" +
		"def outer(a):\n" +
		"    return apply(tmp_0, a)\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractCapturingLambdaLeftInPlace(t *testing.T) {
	t.Parallel()
	src := "def outer(a):\n" +
		"    return apply(lambda y: y * a, a)\n"
	got, ctx := apply(t, NewExtractor(), src)
	assert.Equal(t, src, got)
	assert.Equal(t, 1, countSeverity(ctx, tt.SeverityWarning))
}

func TestExtractResolvesNameCollision(t *testing.T) {
	t.Parallel()
	src := "def helper(x):\n" +
		"    return x\n" +
		"def outer(a):\n" +
		"    def helper(y):\n" +
		"        return y + 1\n" +
		"    return helper(a)\n"
	expected := "def helper(x):\n" +
		"    return x\n" +
		"def tmp_0(arg_0):\n" +
		"    return arg_0 + 1\n" +
		"def outer(a):\n" +
		"    return tmp_0(a)\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractFromMethod(t *testing.T) {
	t.Parallel()
	src := "class C:\n" +
		"    def m(self, v):\n" +
		"        def scale(x):\n" +
		"            return x * 10\n" +
		"        return scale(v)\n"
	expected := "def scale(arg_0):\n" +
		"    return arg_0 * 10\n" +
		"class C:\n" +
		"    def m(self, v):\n" +
		"        return scale(v)\n"
	got, _ := apply(t, NewExtractor(), src)
	assert.Equal(t, expected, got)
}

func TestExtractIdempotent(t *testing.T) {
	t.Parallel()
	src := "def outer(a, b):\n" +
		"    def add(x):\n" +
		"        return x + a\n" +
		"    return add(b)\n"
	applyTwice(t, NewExtractor(), src)
}
