// Package ktuple implements the k-tuple lattice the FIRST(k)/FOLLOW(k)
// engines and the lookahead-DFA builder are solved over: bounded sequences
// of terminal indices with a monoidal k-concatenation, and sets of such
// sequences with union and k-concatenation lifted pointwise.
//
// This has no analogue in the teacher (dekarrin-tunaq's grammar.go only
// ever tracks k=1, i.e. single terminals), so it is built from the
// invariants spec.md §3/§4.5 state directly, using the same
// "deduplicated map keyed by a comparable encoding" idiom the teacher's
// util.SVSet/StringSet use for their sets.
package ktuple

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kestrel-lang/gramble/symbols"
)

// KMax is the hard upper bound on k considered by this package, matching
// spec.md's K_MAX.
const KMax = 10

// Tuple is a sequence of terminal indices of length <= k, used as a
// lookahead word. Tuple values are compared and hashed by value, so they
// may be used as map keys directly.
type Tuple struct {
	syms [KMax]symbols.TerminalIndex
	n    int8
}

// Empty is the identity k-tuple.
var Empty = Tuple{}

// Of builds a Tuple from the given terminal indices, truncating to KMax.
func Of(syms ...symbols.TerminalIndex) Tuple {
	var t Tuple
	n := len(syms)
	if n > KMax {
		n = KMax
	}
	for i := 0; i < n; i++ {
		t.syms[i] = syms[i]
	}
	t.n = int8(n)
	return t
}

// Len returns the number of terminals in the tuple.
func (t Tuple) Len() int { return int(t.n) }

// At returns the i'th terminal index of the tuple.
func (t Tuple) At(i int) symbols.TerminalIndex { return t.syms[i] }

// Slice returns the tuple's terminals as a plain slice.
func (t Tuple) Slice() []symbols.TerminalIndex {
	out := make([]symbols.TerminalIndex, t.n)
	copy(out, t.syms[:t.n])
	return out
}

// Last returns the tuple's final terminal, and whether the tuple is
// non-empty.
func (t Tuple) Last() (symbols.TerminalIndex, bool) {
	if t.n == 0 {
		return 0, false
	}
	return t.syms[t.n-1], true
}

// IsComplete reports whether the tuple is "complete" at bound k: its length
// equals k, or it ends in EOI (per spec.md §3, "k-tuple").
func (t Tuple) IsComplete(k int) bool {
	if int(t.n) == k {
		return true
	}
	if last, ok := t.Last(); ok && last == symbols.EOI {
		return true
	}
	return false
}

// ConcatOne implements a ⊕_k b = truncate_k(a ++ b) if a is incomplete, else
// a. This is the k-concatenation operator of spec.md §3 lifted to a single
// pair of tuples; it is associative and monotone under set inclusion, which
// is what lets the Kleene iterations in package firstfollow terminate.
func ConcatOne(k int, a, b Tuple) Tuple {
	if a.IsComplete(k) {
		return a
	}
	var out Tuple
	n := 0
	for i := 0; i < int(a.n) && n < k; i++ {
		out.syms[n] = a.syms[i]
		n++
	}
	for i := 0; i < int(b.n) && n < k; i++ {
		out.syms[n] = b.syms[i]
		n++
	}
	out.n = int8(n)
	return out
}

func (t Tuple) key() string {
	var sb strings.Builder
	for i := 0; i < int(t.n); i++ {
		fmt.Fprintf(&sb, "%d,", t.syms[i])
	}
	return sb.String()
}

func (t Tuple) String(a *symbols.Alphabet) string {
	parts := make([]string, t.n)
	for i := 0; i < int(t.n); i++ {
		parts[i] = a.Name(t.syms[i])
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Less defines the lexicographic order spec.md requires of k-tuples.
func (t Tuple) Less(o Tuple) bool {
	n := int(t.n)
	if int(o.n) < n {
		n = int(o.n)
	}
	for i := 0; i < n; i++ {
		if t.syms[i] != o.syms[i] {
			return t.syms[i] < o.syms[i]
		}
	}
	return t.n < o.n
}

// Set is a finite, deduplicated set of k-tuples, stored keyed by the
// tuple's byte encoding to make union, intersection, and membership cheap,
// mirroring the teacher's SVSet[V]/StringSet deduplicated-map idiom.
type Set struct {
	members map[string]Tuple
}

// NewSet returns an empty k-tuples set.
func NewSet() *Set {
	return &Set{members: map[string]Tuple{}}
}

// SingletonSet returns a set containing exactly t.
func SingletonSet(t Tuple) *Set {
	s := NewSet()
	s.Add(t)
	return s
}

// Add adds t to the set. No effect if already present.
func (s *Set) Add(t Tuple) {
	s.members[t.key()] = t
}

// Has returns whether t is a member of s.
func (s *Set) Has(t Tuple) bool {
	_, ok := s.members[t.key()]
	return ok
}

// Len returns the number of tuples in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Tuples returns the set's members in lexicographic order.
func (s *Set) Tuples() []Tuple {
	out := make([]Tuple, 0, len(s.members))
	for _, t := range s.members {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Copy returns a duplicate of s.
func (s *Set) Copy() *Set {
	cp := NewSet()
	for k, t := range s.members {
		cp.members[k] = t
	}
	return cp
}

// Union returns a new set that is the union of s and o.
func Union(s, o *Set) *Set {
	u := s.Copy()
	for k, t := range o.members {
		u.members[k] = t
	}
	return u
}

// UnionInto merges o's members into s in place, returning whether s grew
// (used by the Kleene iteration in package firstfollow to detect a fixed
// point: "no change in any accumulator this round").
func (s *Set) UnionInto(o *Set) (grew bool) {
	for k, t := range o.members {
		if _, ok := s.members[k]; !ok {
			s.members[k] = t
			grew = true
		}
	}
	return grew
}

// Concat computes A ⊕_k B = { a ⊕_k b | a ∈ A, b ∈ B }, the k-concatenation
// of two k-tuples sets lifted pointwise.
func Concat(k int, a, b *Set) *Set {
	out := NewSet()
	if a.Len() == 0 {
		return out
	}
	if b.Len() == 0 {
		// ⊕_k is defined against the tuples of b; with b empty there is
		// nothing to concatenate onto an incomplete a, so only a's already
		// complete tuples survive.
		for _, ta := range a.Tuples() {
			if ta.IsComplete(k) {
				out.Add(ta)
			}
		}
		return out
	}
	for _, ta := range a.Tuples() {
		if ta.IsComplete(k) {
			out.Add(ta)
			continue
		}
		for _, tb := range b.Tuples() {
			out.Add(ConcatOne(k, ta, tb))
		}
	}
	return out
}

// Intersection returns the set intersection of s and o's tuples.
func Intersection(s, o *Set) *Set {
	out := NewSet()
	for k, t := range s.members {
		if _, ok := o.members[k]; ok {
			out.Add(t)
		}
	}
	return out
}

// Conflicts returns whether s and o's intersection is non-empty.
func Conflicts(s, o *Set) bool {
	for k := range s.members {
		if _, ok := o.members[k]; ok {
			return true
		}
	}
	return false
}

// EOITuple returns the k-tuple consisting of k copies of EOI, used to seed
// FOLLOW(start) per spec.md §3.
func EOITuple(k int) Tuple {
	syms := make([]symbols.TerminalIndex, k)
	for i := range syms {
		syms[i] = symbols.EOI
	}
	return Of(syms...)
}

// TruncateTo truncates every member of s to length k (dropping any tuple's
// terminals beyond index k-1), used by the FIRST correctness property
// FIRST_k(A) ⊆ FIRST_{k+1}(A) ↾ k.
func (s *Set) TruncateTo(k int) *Set {
	out := NewSet()
	for _, t := range s.Tuples() {
		n := t.Len()
		if n > k {
			n = k
		}
		out.Add(Of(t.Slice()[:n]...))
	}
	return out
}

func (s *Set) String(a *symbols.Alphabet) string {
	tuples := s.Tuples()
	parts := make([]string, len(tuples))
	for i, t := range tuples {
		parts[i] = t.String(a)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
