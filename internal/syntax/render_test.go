package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRoundTrip(t *testing.T) {
	t.Parallel()
	programs := []struct {
		name   string
		source string
	}{
		{"assignment chain", "x = 1\ny = x + 2\nz = y * x - 1\n"},
		{"function", "def add(a, b):\n    return a + b\n"},
		{"conditional ladder", "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n"},
		{"loops", "for i in range(10):\n    total += i\nwhile total > 0:\n    total -= 1\n"},
		{"class", "class Point:\n    def dist(self, other):\n        return self.x - other.x\n"},
		{"collections", "xs = [1, 2, 3]\nt = (a, b)\nsingle = (a,)\n"},
		{"comprehension", "squares = [x * x for x in xs if x > 0]\n"},
		{"lambda", "f = lambda a, b: a + b\ng = lambda: 1\n"},
		{"calls", "r = f(g(x), y.z[0])\n"},
		{"grouping", "r = (a + b) * c\ns = -(a + b)\nt = not (a or b)\n"},
		{"boolean mix", "ok = a and (b or c)\n"},
		{"raise and flow", "def f(x):\n    if x < 0:\n        raise ValueError(x)\n    for i in x:\n        if i == 0:\n            continue\n        break\n    return\n"},
		{"floor division", "q = a // b % c\n"},
		{"strings", "s = 'hello'\nd = \"world\"\n"},
	}
	for _, tt := range programs {
		t.Run(tt.name, func(t *testing.T) {
			first, err := Parse(tt.source)
			require.NoError(t, err)
			rendered := Render(first)
			second, err := Parse(rendered)
			require.NoError(t, err, "rendered source must re-parse:\n%s", rendered)
			assert.True(t, Equal(first, second), "re-parsed tree differs:\n%s", rendered)
		})
	}
}

func TestRenderStable(t *testing.T) {
	t.Parallel()
	src := "def f(a):\n    if a > 0:\n        return [x for x in a]\n    return None\n"
	mod, err := Parse(src)
	require.NoError(t, err)
	rendered := Render(mod)
	again, err := Parse(rendered)
	require.NoError(t, err)
	assert.Equal(t, rendered, Render(again))
}

func TestRenderParenthesization(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"keeps needed parens", "r = (a + b) * c\n", "r = (a + b) * c\n"},
		{"drops redundant parens", "r = a + (b * c)\n", "r = a + b * c\n"},
		{"right associativity parens", "r = a - (b - c)\n", "r = a - (b - c)\n"},
		{"unary over sum", "r = -(a + b)\n", "r = -(a + b)\n"},
		{"not over comparison", "r = not a == b\n", "r = not a == b\n"},
		{"not over boolean", "r = not (a or b)\n", "r = not (a or b)\n"},
		{"call on lambda", "r = (lambda x: x)(1)\n", "r = (lambda x: x)(1)\n"},
		{"nested comparison operand", "r = (a == b) == c\n", "r = (a == b) == c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := Parse(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Render(mod))
		})
	}
}

func TestRenderIndentation(t *testing.T) {
	t.Parallel()
	src := "def f(x):\n  if x:\n   return 1\n  return 2\n"
	mod, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "def f(x):\n    if x:\n        return 1\n    return 2\n", Render(mod))
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	mod, err := Parse("def f(a):\n    return a + 1\n")
	require.NoError(t, err)
	copy := Clone(mod)
	require.True(t, Equal(mod, copy))

	copy.Body[0].(*FunctionDecl).Body[0].(*Return).Value.(*BinaryExpr).Op = "-"
	assert.False(t, Equal(mod, copy))
	assert.Equal(t, "+", mod.Body[0].(*FunctionDecl).Body[0].(*Return).Value.(*BinaryExpr).Op)
}

func TestCollectNames(t *testing.T) {
	t.Parallel()
	mod, err := Parse("def f(a):\n    for i in a.items:\n        b = i\n    return b\n")
	require.NoError(t, err)
	names := CollectNames(mod)
	for _, expected := range []string{"f", "a", "i", "items", "b"} {
		_, ok := names[expected]
		assert.True(t, ok, "missing %s", expected)
	}
}

func TestValidateRejectsMalformedTrees(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		mod  *Module
	}{
		{"empty function body", &Module{Body: []Stmt{&FunctionDecl{Name: "f"}}}},
		{"repeated parameter", &Module{Body: []Stmt{&FunctionDecl{
			Name: "f", Params: []string{"a", "a"},
			Body: []Stmt{&Pass{}},
		}}}},
		{"unknown operator", &Module{Body: []Stmt{&ExprStmt{
			X: &BinaryExpr{Op: "**", X: NewInt("1"), Y: NewInt("2")},
		}}}},
		{"literal target", &Module{Body: []Stmt{&Assign{Target: NewInt("1"), Value: NewInt("2")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.mod))
		})
	}
}

func TestValidateAcceptsParsedTrees(t *testing.T) {
	t.Parallel()
	mod, err := Parse("def f(a):\n    while a > 0:\n        a -= 1\n    return a\n")
	require.NoError(t, err)
	assert.NoError(t, Validate(mod))
}
