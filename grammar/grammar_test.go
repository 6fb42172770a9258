package grammar

import (
	"testing"

	"github.com/kestrel-lang/gramble/symbols"
	"github.com/stretchr/testify/assert"
)

// nt builds a non-terminal symbol.
func nt(name string) Symbol { return Symbol{Kind: KindNonTerminal, NonTerminal: name} }

// term builds a terminal symbol from an already-interned index.
func term(idx symbols.TerminalIndex) Symbol { return Symbol{Kind: KindTerminal, Terminal: idx} }

func TestReachability_S4Unreachable(t *testing.T) {
	assert := assert.New(t)

	g := New("S")
	a := g.AddTerminal(Terminal{Name: "a", Kind: symbols.KindLiteral})
	g.AddProduction(Production{LHS: "S", RHS: []Symbol{term(a)}})
	g.AddProduction(Production{LHS: "Dead", RHS: []Symbol{term(a)}})

	err := g.CheckReachability()
	assert.Error(err)
}

func TestProductivity_NonProductive(t *testing.T) {
	assert := assert.New(t)

	g := New("S")
	a := g.AddTerminal(Terminal{Name: "a", Kind: symbols.KindLiteral})
	g.AddProduction(Production{LHS: "S", RHS: []Symbol{term(a), nt("Bad")}})
	g.AddProduction(Production{LHS: "Bad", RHS: []Symbol{nt("Bad")}})

	err := g.CheckProductivity()
	assert.Error(err)
}

func TestLeftRecursion_DirectCycle(t *testing.T) {
	assert := assert.New(t)

	// E: E "+" T | T; T: "x";  (spec.md S3)
	g := New("E")
	plus := g.AddTerminal(Terminal{Name: "+", Kind: symbols.KindLiteral})
	x := g.AddTerminal(Terminal{Name: "x", Kind: symbols.KindLiteral})
	g.AddProduction(Production{LHS: "E", RHS: []Symbol{nt("E"), term(plus), nt("T")}})
	g.AddProduction(Production{LHS: "E", RHS: []Symbol{nt("T")}})
	g.AddProduction(Production{LHS: "T", RHS: []Symbol{term(x)}})

	err := g.CheckLeftRecursion()
	assert.Error(err)
}

func TestLeftRecursion_NoCycleForRightRecursion(t *testing.T) {
	assert := assert.New(t)

	// S: "a" S | "b";
	g := New("S")
	a := g.AddTerminal(Terminal{Name: "a", Kind: symbols.KindLiteral})
	b := g.AddTerminal(Terminal{Name: "b", Kind: symbols.KindLiteral})
	g.AddProduction(Production{LHS: "S", RHS: []Symbol{term(a), nt("S")}})
	g.AddProduction(Production{LHS: "S", RHS: []Symbol{term(b)}})

	assert.NoError(g.CheckLeftRecursion())
}

func TestLeftFactor_MergesCommonPrefix(t *testing.T) {
	assert := assert.New(t)

	// A: C | C D;  should merge to A: C A__lf1; A__lf1: epsilon | D;
	g := New("A")
	c := g.AddTerminal(Terminal{Name: "c", Kind: symbols.KindLiteral})
	d := g.AddTerminal(Terminal{Name: "d", Kind: symbols.KindLiteral})
	g.AddProduction(Production{LHS: "A", RHS: []Symbol{term(c)}})
	g.AddProduction(Production{LHS: "A", RHS: []Symbol{term(c), term(d)}})

	factored, err := g.LeftFactor()
	if !assert.NoError(err) {
		return
	}

	aProds := factored.ProductionsOf("A")
	if assert.Len(aProds, 1) {
		assert.Len(aProds[0].RHS, 2)
		assert.Equal(KindNonTerminal, aProds[0].RHS[1].Kind)
		suffix := aProds[0].RHS[1].NonTerminal
		tails := factored.ProductionsOf(suffix)
		assert.Len(tails, 2)
	}
}

func TestLeftFactor_Idempotent(t *testing.T) {
	assert := assert.New(t)

	g := New("A")
	c := g.AddTerminal(Terminal{Name: "c", Kind: symbols.KindLiteral})
	d := g.AddTerminal(Terminal{Name: "d", Kind: symbols.KindLiteral})
	g.AddProduction(Production{LHS: "A", RHS: []Symbol{term(c)}})
	g.AddProduction(Production{LHS: "A", RHS: []Symbol{term(c), term(d)}})

	once, err := g.LeftFactor()
	assert.NoError(err)
	twice, err := once.LeftFactor()
	assert.NoError(err)

	assert.Equal(len(once.Productions), len(twice.Productions))
}
