// Package canon implements the canonicalizer of spec.md §4.1: it rewrites a
// grammar containing groups `(...)`, optionals `[...]`, and repetitions
// `{...}` into one whose RHS contains only terminals, non-terminals, and
// scanner-state switches, annotating the fresh productions and symbols it
// introduces so package asttype can reconstruct the original Vec/Option
// shape.
//
// Its input, RawGrammar, is the in-memory grammar tree an (out-of-scope,
// per spec.md §1) front-end parser would hand it; this package never reads
// grammar source text itself.
package canon

import (
	"fmt"

	"github.com/kestrel-lang/gramble/grammar"
	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/symbols"
)

// RawKind distinguishes the EBNF-era symbol shapes this package rewrites
// away, plus the two that already survive unchanged into the canonical
// model.
type RawKind int

const (
	RawTerminal RawKind = iota
	RawNonTerminal
	RawSwitch
	RawGroup
	RawOptional
	RawRepetition
)

// RawSymbol is one element of a RawProduction alternative. Group, Optional,
// and Repetition carry their content as a nested list of alternatives
// (Content), mirroring the `(a|b)` grammar-of-grammars shape; rewriting
// proceeds innermost-first by recursing into Content before wrapping the
// result at the current level.
type RawSymbol struct {
	Kind RawKind

	TerminalName string
	NonTerminal  string
	UserType     string

	SwitchOp    grammar.SwitchOp
	ScannerName string

	// Content holds the alternatives of a Group/Optional/Repetition, each
	// itself a sequence of RawSymbol possibly containing further nested
	// constructs.
	Content [][]RawSymbol

	Span ierr.Span
}

// RawProduction is one `LHS : alt1 | alt2 | ... ;` declaration prior to
// canonicalization.
type RawProduction struct {
	LHS          string
	Alternatives [][]RawSymbol
	Span         ierr.Span
}

// RawGrammar is the whole pre-canonical grammar: start symbol, declared
// type, terminal declarations, scanner-state declarations, and productions.
// Type defaults to grammar.LL (the zero value) when the front end leaves it
// unset, matching every other front end in scope for this core (spec.md §3
// "a grammar has a type tag, either LL(k) or LR(1); only LL(k) is in scope
// here").
type RawGrammar struct {
	Start         string
	Type          grammar.Type
	Terminals     []grammar.Terminal
	ScannerStates []string
	Productions   []RawProduction
}

// canonicalizer carries the mutable state threaded through one
// Canonicalize call: the output grammar under construction and the
// deterministic fresh-name counter of spec.md §4.1 ("deterministic from a
// collision-free counter to guarantee reproducible grammar output").
type canonicalizer struct {
	out     *grammar.Grammar
	counter int
}

// Canonicalize rewrites raw into a grammar.Grammar containing only
// terminals, non-terminals, and scanner switches in every RHS (spec.md
// §4.1). It detects terminal aliases that expand to the same concrete
// matched text, undeclared scanner states referenced by a switch, and empty
// group/optional/repetition constructs, returning the corresponding
// ierr.ConflictingTokenAliases / ierr.UnknownScanner / ierr.EmptyConstruct
// on the first one found (spec.md §7: "the pipeline short-circuits at the
// first error in a phase").
func Canonicalize(raw RawGrammar) (*grammar.Grammar, error) {
	c := &canonicalizer{out: grammar.New(raw.Start)}
	c.out.Type = raw.Type

	for _, sc := range raw.ScannerStates {
		c.out.DeclareScanner(sc)
	}

	seenPatterns := map[string]string{}
	for _, term := range raw.Terminals {
		key := matchTextKey(term)
		if existing, ok := seenPatterns[key]; ok && existing != term.Name {
			return nil, &ierr.ConflictingTokenAliases{First: existing, Second: term.Name, Span: term.Span}
		}
		seenPatterns[key] = term.Name
		for _, sc := range term.ScannerStates {
			if _, ok := c.out.ScannerStates[sc]; !ok {
				return nil, &ierr.UnknownScanner{Name: sc, Span: term.Span}
			}
		}
		c.out.AddTerminal(term)
	}

	for _, p := range raw.Productions {
		for _, alt := range p.Alternatives {
			rhs, extra, err := c.rewriteSeq(alt)
			if err != nil {
				return nil, err
			}
			c.out.AddProduction(grammar.Production{LHS: p.LHS, RHS: rhs, Span: p.Span})
			for _, e := range extra {
				c.out.AddProduction(e)
			}
		}
	}

	return c.out, nil
}

// matchTextKey returns the key under which term's matched text is compared
// for alias detection (spec.md §3 "Terminal": "aliases that produce the
// same matched text must be detected and rejected"). A KindLiteral
// terminal's matched text is its own Name (the literal string itself), not
// Pattern - Pattern is only meaningful for KindRegex/KindCharClass, and is
// left unset for literals, so keying on Pattern there would collapse every
// literal terminal onto the same empty-pattern key.
func matchTextKey(term grammar.Terminal) string {
	if term.Kind == symbols.KindLiteral {
		return fmt.Sprintf("%d:%s", term.Kind, term.Name)
	}
	return fmt.Sprintf("%d:%s", term.Kind, term.Pattern)
}

func (c *canonicalizer) fresh(prefix string) string {
	c.counter++
	return fmt.Sprintf("%s_%d", prefix, c.counter)
}

// rewriteSeq rewrites one alternative (a sequence of RawSymbol) into its
// canonical RHS, plus any fresh productions introduced along the way for
// groups/optionals/repetitions nested within it.
func (c *canonicalizer) rewriteSeq(seq []RawSymbol) ([]grammar.Symbol, []grammar.Production, error) {
	var rhs []grammar.Symbol
	var extra []grammar.Production

	for _, rs := range seq {
		switch rs.Kind {
		case RawTerminal:
			idx, ok := c.out.Alphabet.Lookup(rs.TerminalName)
			if !ok {
				return nil, nil, &ierr.InternalError{Phase: "canonicalize", Msg: fmt.Sprintf("terminal %q used but never declared", rs.TerminalName)}
			}
			rhs = append(rhs, grammar.Symbol{Kind: grammar.KindTerminal, Terminal: idx, Span: rs.Span})

		case RawNonTerminal:
			rhs = append(rhs, grammar.Symbol{Kind: grammar.KindNonTerminal, NonTerminal: rs.NonTerminal, UserType: rs.UserType, Span: rs.Span})

		case RawSwitch:
			if rs.SwitchOp != grammar.SwitchPop {
				if _, ok := c.out.ScannerStates[rs.ScannerName]; !ok {
					return nil, nil, &ierr.UnknownScanner{Name: rs.ScannerName, Span: rs.Span}
				}
			}
			rhs = append(rhs, grammar.Symbol{Kind: grammar.KindSwitch, SwitchOp: rs.SwitchOp, ScannerName: rs.ScannerName, Span: rs.Span})

		case RawGroup:
			if len(rs.Content) == 0 || allEmpty(rs.Content) {
				return nil, nil, &ierr.EmptyConstruct{Kind: "group", Span: rs.Span}
			}
			name := c.fresh("G")
			for _, alt := range rs.Content {
				altRHS, altExtra, err := c.rewriteSeq(alt)
				if err != nil {
					return nil, nil, err
				}
				extra = append(extra, grammar.Production{LHS: name, RHS: altRHS, Span: rs.Span})
				extra = append(extra, altExtra...)
			}
			rhs = append(rhs, grammar.Symbol{Kind: grammar.KindNonTerminal, NonTerminal: name, Span: rs.Span})

		case RawOptional:
			if len(rs.Content) == 0 || allEmpty(rs.Content) {
				return nil, nil, &ierr.EmptyConstruct{Kind: "optional", Span: rs.Span}
			}
			name := c.fresh("O")
			for _, alt := range rs.Content {
				altRHS, altExtra, err := c.rewriteSeq(alt)
				if err != nil {
					return nil, nil, err
				}
				extra = append(extra, grammar.Production{LHS: name, RHS: altRHS, Attr: grammar.ProdAttrOptionalSome, Span: rs.Span})
				extra = append(extra, altExtra...)
			}
			extra = append(extra, grammar.Production{LHS: name, RHS: nil, Attr: grammar.ProdAttrOptionalNone, Span: rs.Span})
			rhs = append(rhs, grammar.Symbol{Kind: grammar.KindNonTerminal, NonTerminal: name, Attr: grammar.AttrOption, Span: rs.Span})

		case RawRepetition:
			if len(rs.Content) == 0 || allEmpty(rs.Content) {
				return nil, nil, &ierr.EmptyConstruct{Kind: "repetition", Span: rs.Span}
			}
			name := c.fresh("R")
			for _, alt := range rs.Content {
				altRHS, altExtra, err := c.rewriteSeq(alt)
				if err != nil {
					return nil, nil, err
				}
				if len(altRHS) > 0 {
					altRHS[0].Attr = grammar.AttrRepetitionAnchor
				}
				tail := append(altRHS, grammar.Symbol{Kind: grammar.KindNonTerminal, NonTerminal: name, Span: rs.Span})
				extra = append(extra, grammar.Production{LHS: name, RHS: tail, Attr: grammar.ProdAttrAddToCollection, Span: rs.Span})
				extra = append(extra, altExtra...)
			}
			extra = append(extra, grammar.Production{LHS: name, RHS: nil, Attr: grammar.ProdAttrCollectionStart, Span: rs.Span})
			rhs = append(rhs, grammar.Symbol{Kind: grammar.KindNonTerminal, NonTerminal: name, Span: rs.Span})
		}
	}

	return rhs, extra, nil
}

func allEmpty(alts [][]RawSymbol) bool {
	for _, a := range alts {
		if len(a) > 0 {
			return false
		}
	}
	return true
}
