// Package gramble orchestrates the analysis and transformation pipeline of
// spec.md §2: canonicalize -> (reachability, productivity, left-recursion)
// -> left-factor -> (FIRST, FOLLOW) -> decision/DFA builder -> AST type
// deducer. It is the single entry point downstream code emitters call; the
// grammar-source front end and all code-emission back ends are out of
// scope (spec.md §1) and are this package's external collaborators.
package gramble

import (
	"github.com/google/uuid"
	"github.com/kestrel-lang/gramble/asttype"
	"github.com/kestrel-lang/gramble/canon"
	"github.com/kestrel-lang/gramble/decision"
	"github.com/kestrel-lang/gramble/firstfollow"
	"github.com/kestrel-lang/gramble/grammar"
	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/ktuple"
)

// Options configures the pipeline (spec.md §6 "Configuration surface").
// Following the teacher's lex.Lexer construction convention
// (lex.NewLexer() plus imperative AddClass/AddPattern setters, not a
// parsed config file), this is a plain struct built with NewOptions and
// adjusted via small setter methods rather than functional options or a
// config-file format - there is no file-driven configuration surface in
// scope here either.
type Options struct {
	maxK               int
	minimizeBoxedTypes bool
	userTypeName       map[string]string
}

// NewOptions returns Options defaulting MaxK to ktuple.KMax (K_MAX) and
// MinimizeBoxedTypes to false.
func NewOptions() Options {
	return Options{maxK: ktuple.KMax, userTypeName: map[string]string{}}
}

// SetMaxK bounds the lookahead k the decision engine will consider,
// clamped to ktuple.KMax.
func (o *Options) SetMaxK(k int) {
	if k > ktuple.KMax {
		k = ktuple.KMax
	}
	if k < 1 {
		k = 1
	}
	o.maxK = k
}

// SetMinimizeBoxedTypes toggles the AST type deducer's greedy
// feedback-edge minimization pass.
func (o *Options) SetMinimizeBoxedTypes(minimize bool) {
	o.minimizeBoxedTypes = minimize
}

// SetUserTypeName overrides the deduced type name for non-terminal nt.
func (o *Options) SetUserTypeName(nt, typeName string) {
	if o.userTypeName == nil {
		o.userTypeName = map[string]string{}
	}
	o.userTypeName[nt] = typeName
}

// Result is the published output of a full pipeline run: the canonicalized
// grammar, its decision (lookahead DFA) result, and its deduced AST type
// schema - the three things spec.md §6 says the consumer interface to code
// emitters publishes. RunID is a correlation handle for diagnostics (e.g.
// pairing a logged cache hit/miss count with the run that produced it); it
// plays no part in any analysis and never affects Grammar.Fingerprint.
type Result struct {
	RunID    string
	Grammar  *grammar.Grammar
	Decision *decision.Result
	Schema   *asttype.Schema
}

// Caches bundles the FIRST/FOLLOW caches a long-lived host (e.g. a language
// server) keeps across pipeline runs (spec.md §5 "the caches... are owned
// by the caller and passed explicitly").
type Caches struct {
	First  *firstfollow.FirstCache
	Follow *firstfollow.FollowCache
}

// NewCaches returns a fresh, empty cache pair.
func NewCaches() *Caches {
	return &Caches{First: firstfollow.NewFirstCache(), Follow: firstfollow.NewFollowCache()}
}

// Run executes the full pipeline of spec.md §2 over raw, short-circuiting
// at the first error in any phase (spec.md §7 "Propagation"): canonicalize,
// validate, check reachability/productivity/left-recursion, left-factor,
// decide lookahead (FIRST/FOLLOW + DFA build), then deduce the AST type
// schema.
func Run(raw canon.RawGrammar, opts Options, caches *Caches) (*Result, error) {
	if raw.Start == "" {
		return nil, &ierr.InternalError{Phase: "pipeline", Msg: "grammar has no start symbol set"}
	}

	g, err := canon.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	if g.Type != grammar.LL {
		return nil, &ierr.UnsupportedGrammarType{Declared: g.Type.String(), Expected: grammar.LL.String()}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := g.CheckReachability(); err != nil {
		return nil, err
	}
	if err := g.CheckProductivity(); err != nil {
		return nil, err
	}
	if err := g.CheckLeftRecursion(); err != nil {
		return nil, err
	}

	factored, err := g.LeftFactor()
	if err != nil {
		return nil, err
	}

	if caches == nil {
		caches = NewCaches()
	}

	decResult, err := decision.Decide(factored, opts.maxK, caches.First, caches.Follow)
	if err != nil {
		return nil, err
	}

	schema, err := asttype.Deduce(factored, asttype.Options{
		MinimizeBoxedTypes: opts.minimizeBoxedTypes,
		UserTypeName:       opts.userTypeName,
	})
	if err != nil {
		return nil, err
	}

	return &Result{RunID: uuid.NewString(), Grammar: factored, Decision: decResult, Schema: schema}, nil
}
