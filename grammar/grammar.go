// Package grammar holds the canonicalized context-free grammar data model:
// productions, symbols, scanner-state tagging, and the attributes that
// decorate both (spec.md §3 "Production", "Symbol", "Grammar"). It also
// carries the reachability, productivity, and left-recursion analyses of
// spec.md §4.2-§4.3 as methods on Grammar, grounded on the teacher's
// (dekarrin-tunaq) internal/tunascript/grammar.go, which keeps exactly this
// shape of component - FIRST/FOLLOW/left-recursion/left-factor/LL(1) as
// methods on one Grammar value - though that file only ever reasons about
// k=1 single-terminal FIRST/FOLLOW; the k-tuple generalization lives in
// package firstfollow.
package grammar

import (
	"fmt"

	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/internal/container"
	"github.com/kestrel-lang/gramble/symbols"
)

// Type distinguishes the two grammar shapes the shared model can describe;
// only Type LL is analyzed by this module (spec.md §3 "a grammar has a
// type tag, either LL(k) or LR(1); only LL(k) is in scope here").
type Type int

const (
	LL Type = iota
	LR
)

func (t Type) String() string {
	if t == LR {
		return "LR(1)"
	}
	return "LL(k)"
}

// SymbolKind distinguishes the variants of the Symbol sum type (spec.md §3
// "Symbol").
type SymbolKind int

const (
	KindTerminal SymbolKind = iota
	KindNonTerminal
	KindSwitch
)

// SwitchOp names the scanner-state switch operations a Switch symbol may
// carry: %push(S), %pop, %sc(S).
type SwitchOp int

const (
	SwitchPush SwitchOp = iota
	SwitchPop
	SwitchEnter
)

func (op SwitchOp) String() string {
	switch op {
	case SwitchPush:
		return "push"
	case SwitchPop:
		return "pop"
	case SwitchEnter:
		return "enter"
	default:
		return "?"
	}
}

// SymbolAttribute is a small closed tag surviving canonicalization so the
// AST type deducer can reconstruct Vec/Option/clipped shapes (spec.md §9
// "Attributes instead of subclassing"). Pattern matching on this and
// ProductionAttribute is sufficient; neither needs polymorphism.
type SymbolAttribute int

const (
	AttrNone SymbolAttribute = iota
	AttrClipped
	AttrOption
	AttrRepetitionAnchor
)

// Symbol is the sum type of spec.md §3: a Terminal, a Non-terminal (with
// optional attribute and user type), a scanner-state Switch, or the
// implicit epsilon represented by an empty Production.RHS. Only Terminal
// and Non-terminal contribute to k-tuple analyses; Switch is elided.
type Symbol struct {
	Kind SymbolKind

	// valid when Kind == KindTerminal
	Terminal symbols.TerminalIndex

	// valid when Kind == KindNonTerminal
	NonTerminal string
	UserType    string

	// valid when Kind == KindSwitch
	SwitchOp    SwitchOp
	ScannerName string

	Attr SymbolAttribute
	Span ierr.Span
}

// IsAnalyzable reports whether the symbol participates in FIRST/FOLLOW
// k-tuple reasoning (spec.md §3: "Only Terminal and Non-terminal contribute
// to k-tuple analyses; switches are elided").
func (s Symbol) IsAnalyzable() bool {
	return s.Kind == KindTerminal || s.Kind == KindNonTerminal
}

func (s Symbol) String(a *symbols.Alphabet) string {
	switch s.Kind {
	case KindTerminal:
		return a.Name(s.Terminal)
	case KindNonTerminal:
		return s.NonTerminal
	case KindSwitch:
		switch s.SwitchOp {
		case SwitchPush:
			return fmt.Sprintf("%%push(%s)", s.ScannerName)
		case SwitchPop:
			return "%pop"
		default:
			return fmt.Sprintf("%%sc(%s)", s.ScannerName)
		}
	default:
		return "?"
	}
}

// ProductionAttribute is the closed tag set decorating productions that
// canonicalization introduces so downstream type deduction can recover
// Vec/Option shapes (spec.md §4.1).
type ProductionAttribute int

const (
	ProdAttrNone ProductionAttribute = iota
	ProdAttrCollectionStart
	ProdAttrAddToCollection
	ProdAttrOptionalSome
	ProdAttrOptionalNone
)

// Production is the triple of spec.md §3: LHS non-terminal, RHS sequence of
// symbols, and a production attribute. Index is the 0-based position in the
// grammar's canonical ordering; an empty RHS is an epsilon-production.
type Production struct {
	Index int
	LHS   string
	RHS   []Symbol
	Attr  ProductionAttribute
	Span  ierr.Span
}

// IsEpsilon reports whether this production's RHS is empty (spec.md §3:
// "ε-productions are represented by an empty RHS, not by an explicit ε
// symbol").
func (p Production) IsEpsilon() bool {
	return len(p.RHS) == 0
}

// Terminal is one of: literal string, regex literal, or character-class
// pattern, tagged with its kind and the scanner states in which it is
// active (spec.md §3 "Terminal").
type Terminal struct {
	Index         symbols.TerminalIndex
	Name          string
	Kind          symbols.TerminalKind
	Pattern       string
	ScannerStates []string
	Span          ierr.Span
}

// Grammar is the start non-terminal, the ordered sequence of productions,
// the scanner-state table, and the terminal alphabet (spec.md §3
// "Grammar"). NonTerminals() returns insertion order, matching the
// original_source non-terminal ordering-stability invariant (SPEC_FULL.md
// §4 item 5) so that canonicalizer re-runs are deterministic.
type Grammar struct {
	Start         string
	Type          Type
	Productions   []Production
	Alphabet      *symbols.Alphabet
	Terminals     map[symbols.TerminalIndex]Terminal
	ScannerStates map[string]int

	nts *container.OrderedSet[string]
}

// New returns an empty grammar with its terminal alphabet pre-seeded with
// the reserved pseudo-terminals and the default scanner state registered.
func New(start string) *Grammar {
	g := &Grammar{
		Start:         start,
		Type:          LL,
		Alphabet:      symbols.NewAlphabet(),
		Terminals:     map[symbols.TerminalIndex]Terminal{},
		ScannerStates: map[string]int{"DEFAULT": 0},
		nts:           container.NewOrderedSet[string](),
	}
	return g
}

// DeclareScanner registers a named scanner state if not already declared,
// returning its stable index.
func (g *Grammar) DeclareScanner(name string) int {
	if idx, ok := g.ScannerStates[name]; ok {
		return idx
	}
	idx := len(g.ScannerStates)
	g.ScannerStates[name] = idx
	return idx
}

// AddTerminal registers a terminal definition, returning its stable index.
// Calling it twice with the same Name returns the same index without
// re-registering the definition.
func (g *Grammar) AddTerminal(t Terminal) symbols.TerminalIndex {
	if idx, ok := g.Alphabet.Lookup(t.Name); ok {
		return idx
	}
	idx := g.Alphabet.Intern(t.Name)
	t.Index = idx
	g.Terminals[idx] = t
	return idx
}

// AddProduction appends p to the grammar, assigning it the next canonical
// index, and records its LHS in non-terminal insertion order.
func (g *Grammar) AddProduction(p Production) Production {
	p.Index = len(g.Productions)
	g.nts.Add(p.LHS)
	g.Productions = append(g.Productions, p)
	return p
}

// NonTerminals returns every non-terminal that appears as an LHS, in
// insertion (first-LHS-seen) order.
func (g *Grammar) NonTerminals() []string {
	elems := g.nts.Elements()
	out := make([]string, len(elems))
	copy(out, elems)
	return out
}

// ProductionsOf returns, in canonical index order, every production whose
// LHS is nt.
func (g *Grammar) ProductionsOf(nt string) []Production {
	var out []Production
	for _, p := range g.Productions {
		if p.LHS == nt {
			out = append(out, p)
		}
	}
	return out
}

// HasNonTerminal reports whether nt appears as some production's LHS.
func (g *Grammar) HasNonTerminal(nt string) bool {
	return g.nts.Has(nt)
}

// Validate checks the structural invariants of spec.md §3: the start
// non-terminal is defined, and every non-terminal referenced by some RHS is
// itself defined as an LHS somewhere.
func (g *Grammar) Validate() error {
	if !g.HasNonTerminal(g.Start) {
		return &ierr.InternalError{Phase: "validate", Msg: fmt.Sprintf("start symbol %q is not the LHS of any production", g.Start)}
	}
	var hints []ierr.RelatedHint
	seen := map[string]bool{}
	for _, p := range g.Productions {
		for _, s := range p.RHS {
			if s.Kind != KindNonTerminal {
				continue
			}
			if g.HasNonTerminal(s.NonTerminal) || seen[s.NonTerminal] {
				continue
			}
			seen[s.NonTerminal] = true
			hints = append(hints, ierr.RelatedHint{Name: s.NonTerminal, Reason: "referenced in a production RHS but never defined as an LHS"})
		}
	}
	if len(hints) > 0 {
		return &ierr.InternalError{Phase: "validate", Msg: fmt.Sprintf("undefined non-terminals referenced: %v", hints)}
	}
	return nil
}
