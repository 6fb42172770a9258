// Package automaton implements the per-non-terminal lookahead DFA of
// spec.md §4.8: states reached by trie-walks over predicted lookahead
// words, transitions labelled by terminal index, and accept states that
// each name a unique production index.
//
// This is adapted from the teacher's (dekarrin-tunaq)
// internal/ictiobus/automaton/dfa.go generic DFA[E] container - keeping its
// Start field and per-state transition maps, but holding states in slices
// numbered in creation order (there is no renumbering pass) - narrowed to the one
// concrete transition/accept shape this module needs (TerminalIndex
// transitions, production-index accept tags) instead of that file's fully
// generic element type, since nothing here needs to carry an arbitrary
// payload per state.
package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kestrel-lang/gramble/ktuple"
	"github.com/kestrel-lang/gramble/symbols"
)

// noAccept marks a state as non-accepting.
const noAccept = -1

// DFA is a deterministic finite automaton over terminal indices whose
// accept states each name a single production index (spec.md §4.8
// "Lookahead DFA").
type DFA struct {
	Start       int
	transitions []map[symbols.TerminalIndex]int
	accept      []int
}

// New returns a DFA with just its start state, not yet accepting.
func New() *DFA {
	d := &DFA{}
	d.newState()
	return d
}

func (d *DFA) newState() int {
	d.transitions = append(d.transitions, map[symbols.TerminalIndex]int{})
	d.accept = append(d.accept, noAccept)
	return len(d.transitions) - 1
}

// NumStates returns the number of states in the automaton.
func (d *DFA) NumStates() int { return len(d.transitions) }

// Next returns the state reached from state on sym, and whether a
// transition exists.
func (d *DFA) Next(state int, sym symbols.TerminalIndex) (int, bool) {
	to, ok := d.transitions[state][sym]
	return to, ok
}

// MarkAccept marks state as accepting production prodIndex.
func (d *DFA) MarkAccept(state, prodIndex int) {
	d.accept[state] = prodIndex
}

// Accepting returns the production index state accepts, or (-1, false) if
// state is not accepting.
func (d *DFA) Accepting(state int) (int, bool) {
	p := d.accept[state]
	return p, p != noAccept
}

// Walk simulates the DFA over tuple's terminals, returning the production
// index of the first accept state reached, or false if the walk reaches a
// failure state (no transition) or ends on a non-accepting state (spec.md
// §4.8: "either reaches one accept state ... or a failure state").
func (d *DFA) Walk(tuple ktuple.Tuple) (prodIndex int, ok bool) {
	state := d.Start
	for i := 0; i < tuple.Len(); i++ {
		if p, isAccept := d.Accepting(state); isAccept {
			return p, true
		}
		next, has := d.Next(state, tuple.At(i))
		if !has {
			return 0, false
		}
		state = next
	}
	return d.Accepting(state)
}

// conflictError records two productions whose lookahead words collide on
// the same DFA state during Build, the NFA-not-deterministic situation
// spec.md §4.8 rules out by construction: Build is only ever called on a
// pairwise-disjoint PRED_k set (package decision checks this first).
type conflictError struct {
	state          int
	existing, next int
}

func (e *conflictError) Error() string {
	return fmt.Sprintf("state %d already accepts production %d, cannot also accept %d", e.state, e.existing, e.next)
}

// Build constructs a DFA from the set of trie-walks over every production's
// predicted lookahead tuples (spec.md §4.8: "states = prefixes reached;
// transitions on terminal indices; accept states tagged by the unique i").
// preds must be pairwise disjoint (the grammar decided LL(k) for this
// non-terminal); prodOrder fixes canonical-index iteration order so the
// resulting state numbering is a deterministic function of the input
// (spec.md §5 "Ordering guarantees").
func Build(preds map[int]*ktuple.Set, prodOrder []int) (*DFA, error) {
	d := New()

	for _, prod := range prodOrder {
		set, ok := preds[prod]
		if !ok {
			continue
		}
		for _, tup := range set.Tuples() {
			state := d.Start
			for i := 0; i < tup.Len(); i++ {
				sym := tup.At(i)
				next, has := d.Next(state, sym)
				if !has {
					next = d.newState()
					d.transitions[state][sym] = next
				}
				state = next
			}
			if existing, isAccept := d.Accepting(state); isAccept && existing != prod {
				return nil, &conflictError{state: state, existing: existing, next: prod}
			}
			d.accept[state] = prod
		}
	}

	return d, nil
}

// String renders the DFA's transition table, one row per state, as plain
// text built with the standard library (package decision's rosed-backed
// Report formats conflicts, not DFAs).
func (d *DFA) String(a *symbols.Alphabet) string {
	var sb strings.Builder
	var states []int
	for i := range d.transitions {
		states = append(states, i)
	}
	sort.Ints(states)
	for _, s := range states {
		fmt.Fprintf(&sb, "state %d", s)
		if s == d.Start {
			sb.WriteString(" (start)")
		}
		if p, ok := d.Accepting(s); ok {
			fmt.Fprintf(&sb, " accept(prod %d)", p)
		}
		sb.WriteString(":\n")
		var syms []symbols.TerminalIndex
		for sym := range d.transitions[s] {
			syms = append(syms, sym)
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
		for _, sym := range syms {
			fmt.Fprintf(&sb, "  %s -> state %d\n", a.Name(sym), d.transitions[s][sym])
		}
	}
	return sb.String()
}
