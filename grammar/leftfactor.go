package grammar

import (
	"fmt"

	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/internal/container"
)

// maxLeftFactorPasses bounds the fixed-point loop LeftFactor runs, distinct
// from the general Kleene-iteration safety bound of spec.md §5 - this is
// the "explicit loop guard" SPEC_FULL.md §4 item 2 calls for, surfaced as
// ierr.NotConverged rather than a generic panic.
const maxLeftFactorPasses = 1000

func symbolKey(s Symbol) string {
	switch s.Kind {
	case KindTerminal:
		return fmt.Sprintf("T%d", s.Terminal)
	case KindNonTerminal:
		return "N" + s.NonTerminal
	case KindSwitch:
		return fmt.Sprintf("S%d%s", s.SwitchOp, s.ScannerName)
	default:
		return "?"
	}
}

// rhsKeys encodes rhs as a slice of symbolKey strings, the comparable
// element type container.LongestCommonPrefix needs.
func rhsKeys(rhs []Symbol) []string {
	out := make([]string, len(rhs))
	for i, s := range rhs {
		out[i] = symbolKey(s)
	}
	return out
}

// LeftFactor merges the common leading-symbol prefixes of a non-terminal's
// alternatives under one production deferring to a fresh suffix
// non-terminal (spec.md §4.4). Groups are formed greedily over the longest
// shared prefix computed left-to-right; within a group, the relative order
// of the original productions is preserved, and each split production's
// attribute is preserved on its tail. It iterates to fixed point: running
// it twice over its own output is idempotent (spec.md §8 property 7).
func (g *Grammar) LeftFactor() (*Grammar, error) {
	cur := g.cloneShallow()

	for pass := 0; ; pass++ {
		if pass >= maxLeftFactorPasses {
			return nil, &ierr.NotConverged{Phase: "left-factor", Iters: pass}
		}
		next, changed := leftFactorOnePass(cur)
		if !changed {
			return next, nil
		}
		cur = next
	}
}

func (g *Grammar) cloneShallow() *Grammar {
	cp := &Grammar{
		Start:         g.Start,
		Type:          g.Type,
		Alphabet:      g.Alphabet,
		Terminals:     g.Terminals,
		ScannerStates: g.ScannerStates,
		nts:           container.NewOrderedSet[string](),
	}
	for _, p := range g.Productions {
		cp.AddProduction(p)
	}
	return cp
}

// leftFactorOnePass runs a single left-to-right grouping pass over every
// non-terminal and returns the rewritten grammar plus whether anything
// changed.
func leftFactorOnePass(g *Grammar) (*Grammar, bool) {
	out := New(g.Start)
	out.Alphabet = g.Alphabet
	out.Terminals = g.Terminals
	out.ScannerStates = g.ScannerStates
	out.Type = g.Type

	changed := false
	suffixCounter := 0

	for _, nt := range g.NonTerminals() {
		prods := g.ProductionsOf(nt)
		if len(prods) < 2 {
			for _, p := range prods {
				out.AddProduction(p)
			}
			continue
		}

		remaining := append([]Production{}, prods...)
		for len(remaining) > 0 {
			head := remaining[0]
			if len(head.RHS) == 0 {
				out.AddProduction(head)
				remaining = remaining[1:]
				continue
			}

			// collect every other not-yet-grouped production sharing
			// head's first symbol.
			headPrefix := rhsKeys(head.RHS[:1])
			groupIdx := []int{0}
			for i := 1; i < len(remaining); i++ {
				if container.HasPrefix(rhsKeys(remaining[i].RHS), headPrefix) {
					groupIdx = append(groupIdx, i)
				}
			}

			if len(groupIdx) < 2 {
				out.AddProduction(head)
				remaining = remaining[1:]
				continue
			}

			group := make([]Production, len(groupIdx))
			for i, idx := range groupIdx {
				group[i] = remaining[idx]
			}

			// the longest shared prefix of the group's RHS, computed over
			// symbolKey-encoded symbols with container.LongestCommonPrefix
			// (spec.md §4.4 "greedily over the longest shared prefix").
			prefixKeys := rhsKeys(group[0].RHS)
			for _, p := range group[1:] {
				prefixKeys = container.LongestCommonPrefix(prefixKeys, rhsKeys(p.RHS))
			}
			prefixLen := len(prefixKeys)

			suffixCounter++
			suffixNT := fmt.Sprintf("%s__lf%d", nt, suffixCounter)

			prefix := append([]Symbol{}, group[0].RHS[:prefixLen]...)
			merged := Production{
				LHS:  nt,
				RHS:  append(prefix, Symbol{Kind: KindNonTerminal, NonTerminal: suffixNT}),
				Attr: ProdAttrNone,
				Span: group[0].Span,
			}
			out.AddProduction(merged)

			for _, p := range group {
				tail := Production{
					LHS:  suffixNT,
					RHS:  append([]Symbol{}, p.RHS[prefixLen:]...),
					Attr: p.Attr,
					Span: p.Span,
				}
				out.AddProduction(tail)
			}

			changed = true

			// remove grouped indices from remaining, preserving order of
			// the rest.
			next := make([]Production, 0, len(remaining)-len(groupIdx))
			grouped := map[int]bool{}
			for _, idx := range groupIdx {
				grouped[idx] = true
			}
			for i, p := range remaining {
				if !grouped[i] {
					next = append(next, p)
				}
			}
			remaining = next
		}
	}

	return out, changed
}
