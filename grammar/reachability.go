package grammar

import (
	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/internal/container"
)

// Reachable computes the fixed point of non-terminals reachable from the
// start symbol via any RHS occurrence (spec.md §4.2). It is O(|productions|)
// per iteration and O(|non-terminals|) iterations, visiting productions in
// canonical index order each round to keep the traversal deterministic.
func (g *Grammar) Reachable() container.Set[string] {
	reached := container.NewSet(g.Start)
	for {
		grew := false
		for _, p := range g.Productions {
			if !reached.Has(p.LHS) {
				continue
			}
			for _, s := range p.RHS {
				if s.Kind == KindNonTerminal && !reached.Has(s.NonTerminal) {
					reached.Add(s.NonTerminal)
					grew = true
				}
			}
		}
		if !grew {
			break
		}
	}
	return reached
}

// CheckReachability returns ierr.UnreachableNonTerminals naming every
// defined non-terminal not reachable from Start, or nil if none.
func (g *Grammar) CheckReachability() error {
	reached := g.Reachable()
	var hints []ierr.RelatedHint
	for _, nt := range g.NonTerminals() {
		if !reached.Has(nt) {
			hints = append(hints, ierr.RelatedHint{Name: nt, Reason: "not reachable from start symbol " + g.Start})
		}
	}
	if len(hints) > 0 {
		return &ierr.UnreachableNonTerminals{Hints: hints}
	}
	return nil
}

// Productive computes the fixed point of non-terminals that derive some
// finite terminal string, epsilon counting (spec.md §4.2). A non-terminal
// is productive once some production of it has every RHS symbol either a
// terminal, a switch (transparent), or an already-productive non-terminal.
func (g *Grammar) Productive() container.Set[string] {
	productive := container.NewSet[string]()
	for {
		grew := false
		for _, p := range g.Productions {
			if productive.Has(p.LHS) {
				continue
			}
			if g.productionIsProductive(p, productive) {
				productive.Add(p.LHS)
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	return productive
}

func (g *Grammar) productionIsProductive(p Production, productive container.Set[string]) bool {
	for _, s := range p.RHS {
		if s.Kind == KindNonTerminal && !productive.Has(s.NonTerminal) {
			return false
		}
	}
	return true
}

// CheckProductivity returns ierr.NonProductiveNonTerminals naming every
// defined non-terminal that cannot derive any finite terminal string, or
// nil if none.
func (g *Grammar) CheckProductivity() error {
	productive := g.Productive()
	var hints []ierr.RelatedHint
	for _, nt := range g.NonTerminals() {
		if !productive.Has(nt) {
			hints = append(hints, ierr.RelatedHint{Name: nt, Reason: "derives no finite terminal string"})
		}
	}
	if len(hints) > 0 {
		return &ierr.NonProductiveNonTerminals{Hints: hints}
	}
	return nil
}

// EpsilonDerivable computes the fixed point of non-terminals that can
// derive the empty string, directly (an epsilon production) or through a
// chain of symbols that are all themselves epsilon-derivable. This is
// distinct from Productive: a non-terminal can be productive (derives some
// finite string) without being epsilon-derivable. It is used by the
// left-recursion detector (spec.md §4.3: "beta epsilon-deriving").
func (g *Grammar) EpsilonDerivable() container.Set[string] {
	derivesEps := container.NewSet[string]()
	for {
		grew := false
		for _, p := range g.Productions {
			if derivesEps.Has(p.LHS) {
				continue
			}
			allEps := true
			for _, s := range p.RHS {
				if s.Kind == KindSwitch {
					continue
				}
				if s.Kind == KindTerminal || !derivesEps.Has(s.NonTerminal) {
					allEps = false
					break
				}
			}
			if allEps {
				derivesEps.Add(p.LHS)
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	return derivesEps
}

// SeqEpsilonDerivable reports whether every analyzable symbol in seq can
// derive epsilon (switches are transparent), used by the left-recursion
// detector to test whether a prefix beta is epsilon-deriving.
func SeqEpsilonDerivable(seq []Symbol, derivesEps container.Set[string]) bool {
	for _, s := range seq {
		switch s.Kind {
		case KindSwitch:
			continue
		case KindTerminal:
			return false
		case KindNonTerminal:
			if !derivesEps.Has(s.NonTerminal) {
				return false
			}
		}
	}
	return true
}
