// Package decision implements the lookahead-DFA builder, k-decision loop,
// and conflict explainer of spec.md §4.8: per-non-terminal decision
// automata that resolve production choice, and the search for the minimum
// k <= K_MAX that decides each non-terminal of a grammar.
package decision

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rosed"
	"github.com/kestrel-lang/gramble/automaton"
	"github.com/kestrel-lang/gramble/firstfollow"
	"github.com/kestrel-lang/gramble/grammar"
	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/ktuple"
	"github.com/kestrel-lang/gramble/symbols"
)

// Pred computes PRED_k(i) = FIRST_k(alpha_i) (+)_k FOLLOW_k(A) for every
// production i of non-terminal nt (spec.md §4.8 step 1), keyed by
// production index.
func Pred(g *grammar.Grammar, first *firstfollow.FirstSet, follow *firstfollow.FollowSet, k int, nt string) map[int]*ktuple.Set {
	followA := follow.Of(nt)
	out := map[int]*ktuple.Set{}
	for _, p := range g.ProductionsOf(nt) {
		out[p.Index] = ktuple.Concat(k, first.PerProduction[p.Index], followA)
	}
	return out
}

// Conflict describes two productions of the same non-terminal whose
// predicted lookahead sets intersect, together with the intersection
// itself (spec.md §4.8 "conflict explainer", §7 "ConflictingTokenAliases"
// sibling taxonomy entries live in package ierr; this is the richer,
// k-aware payload the explainer returns for human diagnosis).
type Conflict struct {
	NonTerminal  string
	ProdA, ProdB int
	PredA, PredB *ktuple.Set
	Intersection *ktuple.Set
}

// orderedProdIndices returns the production indices of preds in ascending
// order, giving deterministic, reproducible conflict-pair enumeration
// (spec.md §4.8 "Tie-break ... prefer the lower production index only as a
// deterministic tie-break in diagnostics").
func orderedProdIndices(preds map[int]*ktuple.Set) []int {
	out := make([]int, 0, len(preds))
	for i := range preds {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Conflicts returns, for every pair (i, j) of distinct productions whose
// PRED_k sets intersect, a Conflict record naming both PRED sets and their
// intersection (spec.md §4.8 "conflict explainer"). An empty result means
// nt's productions are pairwise disjoint at this k, i.e. the projection
// onto lookahead words is single-valued (spec.md §8 property 4).
func Conflicts(nt string, preds map[int]*ktuple.Set) []Conflict {
	idxs := orderedProdIndices(preds)
	var out []Conflict
	for a := 0; a < len(idxs); a++ {
		for b := a + 1; b < len(idxs); b++ {
			i, j := idxs[a], idxs[b]
			inter := ktuple.Intersection(preds[i], preds[j])
			if inter.Len() > 0 {
				out = append(out, Conflict{NonTerminal: nt, ProdA: i, ProdB: j, PredA: preds[i], PredB: preds[j], Intersection: inter})
			}
		}
	}
	return out
}

// NonTerminalResult is the outcome of deciding one non-terminal: its
// minimal disambiguating k, its lookahead DFA, and (SPEC_FULL.md §4 item 4)
// the full per-pair conflict history at every k tried before k_A, retained
// because it is cheap from the k-decision loop already and directly serves
// human-readable diagnosis.
type NonTerminalResult struct {
	NonTerminal string
	K           int
	DFA         *automaton.DFA
	History     map[int][]Conflict // k -> conflicts observed at that k, for every k < K tried
}

// Result is the outcome of spec.md §4.8's k-decision for a whole grammar.
type Result struct {
	GrammarK int
	PerNT    map[string]*NonTerminalResult
}

// Decide finds, for every non-terminal of g, the smallest k in [1, maxK]
// at which its productions' PRED_k sets are pairwise disjoint, builds its
// lookahead DFA, and returns the grammar-wide k = max over non-terminals
// (spec.md §4.8 "k-decision"). If some non-terminal remains conflicted at
// k = maxK, it returns ierr.MaxKExceeded naming that non-terminal.
func Decide(g *grammar.Grammar, maxK int, firstCache *firstfollow.FirstCache, followCache *firstfollow.FollowCache) (*Result, error) {
	if maxK > ktuple.KMax {
		maxK = ktuple.KMax
	}

	result := &Result{PerNT: map[string]*NonTerminalResult{}}

	for _, nt := range g.NonTerminals() {
		prods := g.ProductionsOf(nt)
		if len(prods) <= 1 {
			// a single production is trivially decided at k=0; its DFA is
			// a single accepting start state.
			d := automaton.New()
			if len(prods) == 1 {
				d.MarkAccept(d.Start, prods[0].Index)
			}
			result.PerNT[nt] = &NonTerminalResult{NonTerminal: nt, K: 0, DFA: d, History: map[int][]Conflict{}}
			continue
		}

		ntResult := &NonTerminalResult{NonTerminal: nt, History: map[int][]Conflict{}}
		decided := false

		for k := 1; k <= maxK; k++ {
			first, err := firstfollow.First(g, k, firstCache)
			if err != nil {
				return nil, err
			}
			follow, err := firstfollow.Follow(g, first, k, followCache)
			if err != nil {
				return nil, err
			}

			preds := Pred(g, first, follow, k, nt)
			conflicts := Conflicts(nt, preds)
			if len(conflicts) == 0 {
				prodOrder := orderedProdIndices(preds)
				dfa, buildErr := automaton.Build(preds, prodOrder)
				if buildErr != nil {
					return nil, &ierr.InternalError{Phase: "decision", Msg: buildErr.Error()}
				}
				ntResult.K = k
				ntResult.DFA = dfa
				decided = true
				break
			}
			ntResult.History[k] = conflicts
		}

		if !decided {
			var lastConflicts []Conflict
			if cs, ok := ntResult.History[maxK]; ok {
				lastConflicts = cs
			}
			payload := make([]ierr.Conflict, len(lastConflicts))
			for i, c := range lastConflicts {
				payload[i] = ierr.Conflict{
					NonTerminal: nt,
					ProdIndexA:  c.ProdA,
					ProdIndexB:  c.ProdB,
					PredA:       tuplesToInts(c.PredA),
					PredB:       tuplesToInts(c.PredB),
					Intersection: tuplesToInts(c.Intersection),
				}
			}
			return nil, &ierr.MaxKExceeded{KMax: maxK, Conflicts: payload, NonTerminal: nt}
		}

		result.PerNT[nt] = ntResult
		if ntResult.K > result.GrammarK {
			result.GrammarK = ntResult.K
		}
	}

	return result, nil
}

func tuplesToInts(s *ktuple.Set) [][]int {
	tuples := s.Tuples()
	out := make([][]int, len(tuples))
	for i, t := range tuples {
		row := make([]int, t.Len())
		for j := 0; j < t.Len(); j++ {
			row[j] = int(t.At(j))
		}
		out[i] = row
	}
	return out
}

// Explain re-runs the projection at a caller-supplied k for every
// non-terminal of g and returns the conflicts found, for diagnosing a
// MaxKExceeded result in detail (spec.md §4.8 "conflict explainer").
func Explain(g *grammar.Grammar, k int, firstCache *firstfollow.FirstCache, followCache *firstfollow.FollowCache) (map[string][]Conflict, error) {
	first, err := firstfollow.First(g, k, firstCache)
	if err != nil {
		return nil, err
	}
	follow, err := firstfollow.Follow(g, first, k, followCache)
	if err != nil {
		return nil, err
	}

	out := map[string][]Conflict{}
	for _, nt := range g.NonTerminals() {
		if len(g.ProductionsOf(nt)) <= 1 {
			continue
		}
		preds := Pred(g, first, follow, k, nt)
		if cs := Conflicts(nt, preds); len(cs) > 0 {
			out[nt] = cs
		}
	}
	return out, nil
}

// Report renders a Conflict as a human-readable table naming both PRED_k
// sets and their intersection, using the teacher's (dekarrin-tunaq
// internal/tunascript/grammar.go LL1Table.String) rosed.Edit(...).
// InsertTableOpts table-dump idiom.
func Report(c Conflict, a *symbols.Alphabet) string {
	data := [][]string{
		{"", "lookahead words"},
		{fmt.Sprintf("production %d", c.ProdA), c.PredA.String(a)},
		{fmt.Sprintf("production %d", c.ProdB), c.PredB.String(a)},
		{"intersection", c.Intersection.String(a)},
	}
	return rosed.Edit("").
		InsertTableOpts(0, data, 100, rosed.Options{TableBorders: true}).
		String()
}
