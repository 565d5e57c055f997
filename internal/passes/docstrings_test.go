package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocstringsStripped(t *testing.T) {
	t.Parallel()
	src := "'module documentation'\n" +
		"def f(x):\n" +
		"    'returns its argument'\n" +
		"    return x\n" +
		"class C:\n" +
		"    'a container'\n" +
		"    def m(self):\n" +
		"        'does nothing'\n"
	expected := "def f(x):\n" +
		"    return x\n" +
		"class C:\n" +
		"    def m(self):\n" +
		"        pass\n"
	got, _ := apply(t, NewDocstrings(), src)
	assert.Equal(t, expected, got)
}

func TestDocstringsOnlyLeadingStringRemoved(t *testing.T) {
	t.Parallel()
	src := "def f(x):\n" +
		"    y = 'kept'\n" +
		"    'not a docstring'\n" +
		"    return y\n"
	expected := "def f(x):\n" +
		"    y = 'kept'\n" +
		"    'not a docstring'\n" +
		"    return y\n"
	got, _ := apply(t, NewDocstrings(), src)
	assert.Equal(t, expected, got)
}

func TestDocstringsEmptiedBodyGetsPass(t *testing.T) {
	t.Parallel()
	src := "def noop():\n    'nothing here'\n"
	expected := "def noop():\n    pass\n"
	got, _ := apply(t, NewDocstrings(), src)
	assert.Equal(t, expected, got)
}

func TestDocstringsIdempotent(t *testing.T) {
	t.Parallel()
	src := "'top'\ndef f():\n    'doc'\n    return 1\n"
	applyTwice(t, NewDocstrings(), src)
}
