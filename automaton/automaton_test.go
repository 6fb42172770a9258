package automaton

import (
	"testing"

	"github.com/kestrel-lang/gramble/ktuple"
	"github.com/kestrel-lang/gramble/symbols"
	"github.com/stretchr/testify/assert"
)

func TestBuild_DisjointPredsWalkToDistinctProductions(t *testing.T) {
	assert := assert.New(t)

	a := symbols.TerminalIndex(firstUserTerminalForTest)
	b := a + 1

	preds := map[int]*ktuple.Set{
		0: ktuple.SingletonSet(ktuple.Of(a)),
		1: ktuple.SingletonSet(ktuple.Of(b)),
	}

	dfa, err := Build(preds, []int{0, 1})
	if !assert.NoError(err) {
		return
	}

	p0, ok0 := dfa.Walk(ktuple.Of(a))
	assert.True(ok0)
	assert.Equal(0, p0)

	p1, ok1 := dfa.Walk(ktuple.Of(b))
	assert.True(ok1)
	assert.Equal(1, p1)
}

func TestBuild_SharedPrefixBranchesOnSecondSymbol(t *testing.T) {
	assert := assert.New(t)

	a := symbols.TerminalIndex(firstUserTerminalForTest)
	c := a + 1
	d := a + 2

	preds := map[int]*ktuple.Set{
		0: ktuple.SingletonSet(ktuple.Of(a, c)),
		1: ktuple.SingletonSet(ktuple.Of(a, d)),
	}

	dfa, err := Build(preds, []int{0, 1})
	if !assert.NoError(err) {
		return
	}

	p0, ok0 := dfa.Walk(ktuple.Of(a, c))
	assert.True(ok0)
	assert.Equal(0, p0)

	p1, ok1 := dfa.Walk(ktuple.Of(a, d))
	assert.True(ok1)
	assert.Equal(1, p1)
}

func TestBuild_ConflictingPredsError(t *testing.T) {
	assert := assert.New(t)

	a := symbols.TerminalIndex(firstUserTerminalForTest)

	preds := map[int]*ktuple.Set{
		0: ktuple.SingletonSet(ktuple.Of(a)),
		1: ktuple.SingletonSet(ktuple.Of(a)),
	}

	_, err := Build(preds, []int{0, 1})
	assert.Error(err)
}

func TestWalk_NoTransitionIsFailureState(t *testing.T) {
	assert := assert.New(t)

	a := symbols.TerminalIndex(firstUserTerminalForTest)
	other := a + 1

	preds := map[int]*ktuple.Set{
		0: ktuple.SingletonSet(ktuple.Of(a)),
	}
	dfa, err := Build(preds, []int{0})
	if !assert.NoError(err) {
		return
	}

	_, ok := dfa.Walk(ktuple.Of(other))
	assert.False(ok)
}

// firstUserTerminalForTest mirrors symbols.firstUserTerminal without
// importing the unexported constant across packages: the reserved
// pseudo-terminals occupy indices 0-4, so the first terminal a test mints
// itself safely starts at 5.
const firstUserTerminalForTest = 5
