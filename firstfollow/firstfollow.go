// Package firstfollow implements the FIRST(k) and FOLLOW(k) equation
// systems of spec.md §4.6-§4.7, solved by Kleene iteration over the k-tuple
// lattice of package ktuple, with memoization caches keyed by (grammar
// fingerprint, k) as spec.md §9 "Global caches" requires.
//
// This generalizes the teacher's (dekarrin-tunaq internal/tunascript
// grammar.go) FIRST/FOLLOW methods, which only ever reason about k=1 single
// terminals via recursive map[string]bool computations, to the bounded
// k-tuple sets package ktuple defines; the fixed-point "no change this
// round" termination check is the same idiom the teacher's own
// RemoveLeftRecursion/LeftFactor convergence loops use.
package firstfollow

import (
	"github.com/kestrel-lang/gramble/grammar"
	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/ktuple"
)

// maxKleeneRounds bounds the Kleene iteration, a multiple of the finite
// lattice height per spec.md §5 ("a multiple of the finite lattice
// height"); tripping it is an internal-error panic-turned-return, not a
// user-facing grammar error, since a grammar with a finite terminal
// alphabet can never actually exhaust it.
const maxKleeneRounds = 100000

// FirstSet is the FIRST(k) result of spec.md §4.6: a k-tuples set per
// production and per non-terminal.
type FirstSet struct {
	K             int
	PerProduction []*ktuple.Set
	PerNonTerminal map[string]*ktuple.Set
}

// Of returns the FIRST_k set for non-terminal nt, or an empty set if nt is
// unknown to this result.
func (f *FirstSet) Of(nt string) *ktuple.Set {
	if s, ok := f.PerNonTerminal[nt]; ok {
		return s
	}
	return ktuple.NewSet()
}

// FollowSet is the FOLLOW(k) result of spec.md §4.7.
type FollowSet struct {
	K              int
	PerNonTerminal map[string]*ktuple.Set
}

// Of returns the FOLLOW_k set for non-terminal nt, or an empty set if nt is
// unknown to this result.
func (f *FollowSet) Of(nt string) *ktuple.Set {
	if s, ok := f.PerNonTerminal[nt]; ok {
		return s
	}
	return ktuple.NewSet()
}

// ImgK computes FIRST_k(seq) - the fold img_k(X1...Xn) = (+)_k_i FIRST_k(Xi)
// of spec.md §4.6 - given a way to look up the FIRST_k set of a
// non-terminal. Switches are skipped; they are transparent to k-tuple
// analyses (spec.md §3).
func ImgK(k int, seq []grammar.Symbol, firstOf func(nt string) *ktuple.Set) *ktuple.Set {
	acc := ktuple.SingletonSet(ktuple.Empty)
	for _, s := range seq {
		switch s.Kind {
		case grammar.KindSwitch:
			continue
		case grammar.KindTerminal:
			acc = ktuple.Concat(k, acc, ktuple.SingletonSet(ktuple.Of(s.Terminal)))
		case grammar.KindNonTerminal:
			acc = ktuple.Concat(k, acc, firstOf(s.NonTerminal))
		}
	}
	return acc
}

type cacheKey struct {
	fingerprint string
	k           int
}

// FirstCache memoizes FIRST(k) results per (grammar fingerprint, k),
// explicitly owned and passed by the caller per spec.md §5/§9 ("caches are
// owned by the caller, passed explicitly; they are logically mutable but
// never shared between threads by the core").
type FirstCache struct {
	entries map[cacheKey]*FirstSet
}

// NewFirstCache returns an empty FIRST(k) cache.
func NewFirstCache() *FirstCache {
	return &FirstCache{entries: map[cacheKey]*FirstSet{}}
}

func (c *FirstCache) get(fp string, k int) (*FirstSet, bool) {
	s, ok := c.entries[cacheKey{fp, k}]
	return s, ok
}

func (c *FirstCache) put(fp string, k int, s *FirstSet) {
	c.entries[cacheKey{fp, k}] = s
}

// Prune discards every cached entry with k > maxK, bounding memory for
// long-lived hosts such as a language server (SPEC_FULL.md §4 item 3).
func (c *FirstCache) Prune(maxK int) {
	for key := range c.entries {
		if key.k > maxK {
			delete(c.entries, key)
		}
	}
}

// FollowCache memoizes FOLLOW(k) results per (grammar fingerprint, k).
type FollowCache struct {
	entries map[cacheKey]*FollowSet
}

// NewFollowCache returns an empty FOLLOW(k) cache.
func NewFollowCache() *FollowCache {
	return &FollowCache{entries: map[cacheKey]*FollowSet{}}
}

func (c *FollowCache) get(fp string, k int) (*FollowSet, bool) {
	s, ok := c.entries[cacheKey{fp, k}]
	return s, ok
}

func (c *FollowCache) put(fp string, k int, s *FollowSet) {
	c.entries[cacheKey{fp, k}] = s
}

// Prune discards every cached entry with k > maxK.
func (c *FollowCache) Prune(maxK int) {
	for key := range c.entries {
		if key.k > maxK {
			delete(c.entries, key)
		}
	}
}

// First computes FIRST(k) for g, consulting and populating cache. When a
// FIRST(k-1) entry for the same grammar is already cached, its incomplete
// tuples seed the Kleene iteration's initial accumulators: each is a whole
// derived terminal string shorter than k-1, so it belongs to FIRST(k) too
// (spec.md §4.6), and starting from them never adds a tuple FIRST(k) lacks.
// Tuples that FIRST(k-1) cut off at length k-1 are not seeded.
func First(g *grammar.Grammar, k int, cache *FirstCache) (*FirstSet, error) {
	fp := g.Fingerprint()
	if cached, ok := cache.get(fp, k); ok {
		return cached, nil
	}

	result := &FirstSet{
		K:              k,
		PerProduction:  make([]*ktuple.Set, len(g.Productions)),
		PerNonTerminal: map[string]*ktuple.Set{},
	}
	for _, nt := range g.NonTerminals() {
		result.PerNonTerminal[nt] = ktuple.NewSet()
	}
	if prev, ok := cache.get(fp, k-1); ok && k > 1 {
		for nt, s := range prev.PerNonTerminal {
			for _, t := range s.Tuples() {
				if !t.IsComplete(k - 1) {
					result.PerNonTerminal[nt].Add(t)
				}
			}
		}
	}
	for i := range result.PerProduction {
		result.PerProduction[i] = ktuple.NewSet()
	}

	firstOf := func(nt string) *ktuple.Set { return result.PerNonTerminal[nt] }

	for round := 0; ; round++ {
		if round >= maxKleeneRounds {
			return nil, &ierr.InternalError{Phase: "FIRST", Msg: "fixed point did not converge within safety bound"}
		}
		grew := false
		for _, p := range g.Productions {
			img := ImgK(k, p.RHS, firstOf)
			result.PerProduction[p.Index] = img
			if result.PerNonTerminal[p.LHS].UnionInto(img) {
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	cache.put(fp, k, result)
	return result, nil
}

// Follow computes FOLLOW(k) for g given its already-computed FIRST(k) set,
// consulting and populating cache. The start symbol's FOLLOW always
// contains {EOI^k} (spec.md §3 "FOLLOW set").
func Follow(g *grammar.Grammar, first *FirstSet, k int, cache *FollowCache) (*FollowSet, error) {
	fp := g.Fingerprint()
	if cached, ok := cache.get(fp, k); ok {
		return cached, nil
	}

	result := &FollowSet{K: k, PerNonTerminal: map[string]*ktuple.Set{}}
	for _, nt := range g.NonTerminals() {
		result.PerNonTerminal[nt] = ktuple.NewSet()
	}
	result.PerNonTerminal[g.Start] = ktuple.SingletonSet(ktuple.EOITuple(k))

	firstOf := func(nt string) *ktuple.Set { return first.Of(nt) }

	for round := 0; ; round++ {
		if round >= maxKleeneRounds {
			return nil, &ierr.InternalError{Phase: "FOLLOW", Msg: "fixed point did not converge within safety bound"}
		}
		grew := false
		for _, p := range g.Productions {
			for i, sym := range p.RHS {
				if sym.Kind != grammar.KindNonTerminal {
					continue
				}
				beta := p.RHS[i+1:]
				firstBeta := ImgK(k, beta, firstOf)
				contrib := ktuple.Concat(k, firstBeta, result.PerNonTerminal[p.LHS])
				if result.PerNonTerminal[sym.NonTerminal].UnionInto(contrib) {
					grew = true
				}
			}
		}
		if !grew {
			break
		}
	}

	cache.put(fp, k, result)
	return result, nil
}
