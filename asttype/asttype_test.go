package asttype

import (
	"testing"

	"github.com/kestrel-lang/gramble/grammar"
	"github.com/kestrel-lang/gramble/symbols"
	"github.com/stretchr/testify/assert"
)

func nt(name string) grammar.Symbol {
	return grammar.Symbol{Kind: grammar.KindNonTerminal, NonTerminal: name}
}

func term(idx symbols.TerminalIndex) grammar.Symbol {
	return grammar.Symbol{Kind: grammar.KindTerminal, Terminal: idx}
}

// List: "[" { Num "," } Num "]";  Num: "\d+";  (spec.md S6)
func buildListGrammar() *grammar.Grammar {
	g := grammar.New("List")
	lb := g.AddTerminal(grammar.Terminal{Name: "[", Kind: symbols.KindLiteral})
	rb := g.AddTerminal(grammar.Terminal{Name: "]", Kind: symbols.KindLiteral})
	comma := g.AddTerminal(grammar.Terminal{Name: ",", Kind: symbols.KindLiteral})
	num := g.AddTerminal(grammar.Terminal{Name: "num", Kind: symbols.KindRegex, Pattern: `\d+`})

	g.AddProduction(grammar.Production{LHS: "List", RHS: []grammar.Symbol{
		term(lb), nt("R"), nt("Num"), term(rb),
	}})
	g.AddProduction(grammar.Production{LHS: "R", RHS: []grammar.Symbol{
		{Kind: grammar.KindNonTerminal, NonTerminal: "Num", Attr: grammar.AttrRepetitionAnchor},
		term(comma),
		nt("R"),
	}, Attr: grammar.ProdAttrAddToCollection})
	g.AddProduction(grammar.Production{LHS: "R", RHS: nil, Attr: grammar.ProdAttrCollectionStart})
	g.AddProduction(grammar.Production{LHS: "Num", RHS: []grammar.Symbol{term(num)}})

	return g
}

func TestDeduce_RepetitionBecomesVec(t *testing.T) {
	assert := assert.New(t)

	g := buildListGrammar()
	schema, err := Deduce(g, Options{})
	if !assert.NoError(err) {
		return
	}

	listT := schema.Of("List")
	if assert.NotNil(listT) && assert.Equal(KindStruct, listT.Kind) {
		var sawVec bool
		for _, f := range listT.Fields {
			if f.Type.Kind == KindVec {
				sawVec = true
				assert.Equal(KindRef, f.Type.Elem.Kind)
				assert.Equal("Num", f.Type.Elem.Name)
			}
		}
		assert.True(sawVec)
	}
}

func TestDeduce_OptionalBecomesOption(t *testing.T) {
	assert := assert.New(t)

	g := grammar.New("S")
	a := g.AddTerminal(grammar.Terminal{Name: "a", Kind: symbols.KindLiteral})
	b := g.AddTerminal(grammar.Terminal{Name: "b", Kind: symbols.KindLiteral})
	g.AddProduction(grammar.Production{LHS: "S", RHS: []grammar.Symbol{term(a), nt("O")}})
	g.AddProduction(grammar.Production{LHS: "O", RHS: []grammar.Symbol{term(b)}, Attr: grammar.ProdAttrOptionalSome})
	g.AddProduction(grammar.Production{LHS: "O", RHS: nil, Attr: grammar.ProdAttrOptionalNone})

	schema, err := Deduce(g, Options{})
	if !assert.NoError(err) {
		return
	}

	oT := schema.Of("O")
	if assert.NotNil(oT) {
		assert.Equal(KindOption, oT.Kind)
		assert.Equal(KindTerminal, oT.Elem.Kind)
	}
}

func TestDeduce_SelfReferenceIsBoxed(t *testing.T) {
	assert := assert.New(t)

	// Expr: "x" | "(" Expr ")";  -- Expr's enum variant references Expr
	// itself, a cycle that must be broken with Box.
	g := grammar.New("Expr")
	x := g.AddTerminal(grammar.Terminal{Name: "x", Kind: symbols.KindLiteral})
	lp := g.AddTerminal(grammar.Terminal{Name: "(", Kind: symbols.KindLiteral})
	rp := g.AddTerminal(grammar.Terminal{Name: ")", Kind: symbols.KindLiteral})
	g.AddProduction(grammar.Production{LHS: "Expr", RHS: []grammar.Symbol{term(x)}})
	g.AddProduction(grammar.Production{LHS: "Expr", RHS: []grammar.Symbol{term(lp), nt("Expr"), term(rp)}})

	schema, err := Deduce(g, Options{})
	if !assert.NoError(err) {
		return
	}

	exprT := schema.Of("Expr")
	if assert.NotNil(exprT) && assert.Equal(KindEnum, exprT.Kind) {
		found := false
		for _, v := range exprT.Variants {
			for _, f := range v.Type.Fields {
				if f.Type.Kind == KindBox {
					found = true
					assert.Equal(KindRef, f.Type.Elem.Kind)
					assert.Equal("Expr", f.Type.Elem.Name)
				}
			}
		}
		assert.True(found, "expected the self-referencing field to be boxed")
	}
}
