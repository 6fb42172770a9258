package gramble

import (
	"testing"

	"github.com/kestrel-lang/gramble/canon"
	"github.com/kestrel-lang/gramble/grammar"
	"github.com/kestrel-lang/gramble/ierr"
	"github.com/stretchr/testify/assert"
)

func rawTerm(name string) canon.RawSymbol {
	return canon.RawSymbol{Kind: canon.RawTerminal, TerminalName: name}
}
func rawNT(name string) canon.RawSymbol {
	return canon.RawSymbol{Kind: canon.RawNonTerminal, NonTerminal: name}
}

// List: "[" { Num "," } Num "]";  Num: "\d+";  (spec.md S6)
func buildListRawGrammar() canon.RawGrammar {
	return canon.RawGrammar{
		Start: "List",
		Terminals: []grammar.Terminal{
			{Name: "[", Kind: 0},
			{Name: "]", Kind: 0},
			{Name: ",", Kind: 0},
			{Name: "num", Kind: 1, Pattern: `\d+`},
		},
		Productions: []canon.RawProduction{
			{LHS: "List", Alternatives: [][]canon.RawSymbol{
				{rawTerm("["), {Kind: canon.RawRepetition, Content: [][]canon.RawSymbol{{rawNT("Num"), rawTerm(",")}}}, rawNT("Num"), rawTerm("]")},
			}},
			{LHS: "Num", Alternatives: [][]canon.RawSymbol{{rawTerm("num")}}},
		},
	}
}

func TestRun_ListGrammar_EndToEnd(t *testing.T) {
	assert := assert.New(t)

	raw := buildListRawGrammar()
	opts := NewOptions()

	result, err := Run(raw, opts, nil)
	if !assert.NoError(err) {
		return
	}

	assert.NotNil(result.Grammar)
	// the repetition's element and the trailing Num both start with num, so
	// the repetition non-terminal is only decided at k=2.
	assert.Equal(2, result.Decision.GrammarK)

	listType := result.Schema.Of("List")
	if assert.NotNil(listType) {
		var sawVec bool
		for _, f := range listType.Fields {
			if f.Type.Kind == 2 { // asttype.KindVec
				sawVec = true
			}
		}
		assert.True(sawVec)
	}
}

func TestRun_LeftRecursiveGrammarRejected(t *testing.T) {
	assert := assert.New(t)

	raw := canon.RawGrammar{
		Start: "E",
		Terminals: []grammar.Terminal{
			{Name: "+", Kind: 0},
			{Name: "num", Kind: 1, Pattern: `\d+`},
		},
		Productions: []canon.RawProduction{
			{LHS: "E", Alternatives: [][]canon.RawSymbol{
				{rawNT("E"), rawTerm("+"), rawNT("E")},
				{rawTerm("num")},
			}},
		},
	}

	_, err := Run(raw, NewOptions(), nil)
	if assert.Error(err) {
		_, ok := err.(*ierr.LeftRecursion)
		assert.True(ok)
	}
}

func TestRun_UnreachableNonTerminalRejected(t *testing.T) {
	assert := assert.New(t)

	raw := canon.RawGrammar{
		Start: "S",
		Terminals: []grammar.Terminal{
			{Name: "a", Kind: 0},
			{Name: "b", Kind: 0},
		},
		Productions: []canon.RawProduction{
			{LHS: "S", Alternatives: [][]canon.RawSymbol{{rawTerm("a")}}},
			{LHS: "Dead", Alternatives: [][]canon.RawSymbol{{rawTerm("b")}}},
		},
	}

	_, err := Run(raw, NewOptions(), nil)
	if assert.Error(err) {
		_, ok := err.(*ierr.UnreachableNonTerminals)
		assert.True(ok)
	}
}

func TestRun_LRGrammarTypeRejected(t *testing.T) {
	assert := assert.New(t)

	raw := canon.RawGrammar{
		Start: "S",
		Type:  grammar.LR,
		Terminals: []grammar.Terminal{
			{Name: "a", Kind: 0},
		},
		Productions: []canon.RawProduction{
			{LHS: "S", Alternatives: [][]canon.RawSymbol{{rawTerm("a")}}},
		},
	}

	_, err := Run(raw, NewOptions(), nil)
	if assert.Error(err) {
		_, ok := err.(*ierr.UnsupportedGrammarType)
		assert.True(ok)
	}
}

func TestRun_SharesCachesAcrossRuns(t *testing.T) {
	assert := assert.New(t)

	raw := buildListRawGrammar()
	caches := NewCaches()

	_, err := Run(raw, NewOptions(), caches)
	assert.NoError(err)

	// second run against the same cache pair must still succeed and reuse
	// whatever FIRST/FOLLOW entries the first run populated.
	_, err = Run(raw, NewOptions(), caches)
	assert.NoError(err)
}
