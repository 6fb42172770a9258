// Package ierr holds the error taxonomy returned by every phase of the
// analysis pipeline. Each type carries the offending names/indices and,
// where meaningful, a Span pointing at the source text, following the
// teacher's syntax-error-carries-position convention (compare
// icterrors.NewSyntaxErrorFromToken in the ictiobus package this module is
// grounded on). All of them implement error and are meant to be compared
// with errors.As, not string-matched.
package ierr

import (
	"fmt"
	"strings"
)

// Span is a half-open range of source text, used to point diagnostics back
// at the grammar source that produced the offending construct. Canonicalized
// (synthetic) productions and symbols carry forward the Span of the
// original construct that produced them.
type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (s Span) String() string {
	if s.StartLine == 0 {
		return "<unknown location>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// LeftRecursion reports one or more left-recursion cycles found in the
// grammar. Each cycle is an ordered list of non-terminal names, the first
// repeated at the end (A -> B -> A is reported as [A, B, A]).
type LeftRecursion struct {
	Cycles [][]string
}

func (e *LeftRecursion) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = strings.Join(c, " -> ")
	}
	return "left recursion detected: " + strings.Join(parts, "; ")
}

// RelatedHint names a non-terminal and the reason it is being flagged.
type RelatedHint struct {
	Name   string
	Reason string
}

// UnreachableNonTerminals reports non-terminals that cannot be reached from
// the start symbol via any RHS occurrence.
type UnreachableNonTerminals struct {
	Hints []RelatedHint
}

func (e *UnreachableNonTerminals) Error() string {
	names := make([]string, len(e.Hints))
	for i, h := range e.Hints {
		names[i] = h.Name
	}
	return "unreachable non-terminals: " + strings.Join(names, ", ")
}

// NonProductiveNonTerminals reports non-terminals that cannot derive any
// finite terminal string.
type NonProductiveNonTerminals struct {
	Hints []RelatedHint
}

func (e *NonProductiveNonTerminals) Error() string {
	names := make([]string, len(e.Hints))
	for i, h := range e.Hints {
		names[i] = h.Name
	}
	return "non-productive non-terminals: " + strings.Join(names, ", ")
}

// ConflictingTokenAliases reports two terminal definitions that expand to
// the same concrete matched text.
type ConflictingTokenAliases struct {
	First, Second string
	Span          Span
}

func (e *ConflictingTokenAliases) Error() string {
	return fmt.Sprintf("terminals %q and %q are aliases of the same text at %s", e.First, e.Second, e.Span)
}

// EmptyConstruct is returned for an empty group, optional, or repetition.
type EmptyConstruct struct {
	Kind string // "group", "optional", or "repetition"
	Span Span
}

func (e *EmptyConstruct) Error() string {
	return fmt.Sprintf("empty %s at %s", e.Kind, e.Span)
}

// UnknownScanner reports a switch referencing an undeclared scanner state.
type UnknownScanner struct {
	Name string
	Span Span
}

func (e *UnknownScanner) Error() string {
	return fmt.Sprintf("unknown scanner state %q referenced at %s", e.Name, e.Span)
}

// MaxKExceeded is returned when the grammar remains conflicted at k = KMax.
type MaxKExceeded struct {
	KMax       int
	Conflicts  []Conflict
	NonTerminal string
}

func (e *MaxKExceeded) Error() string {
	return fmt.Sprintf("grammar is not LL(k) for any k <= %d (first unresolved: %s)", e.KMax, e.NonTerminal)
}

// Conflict describes two productions of the same non-terminal whose
// predicted lookahead sets intersect, together with the intersection
// itself, for human-readable diagnosis.
type Conflict struct {
	NonTerminal          string
	ProdIndexA, ProdIndexB int
	PredA, PredB         [][]int // k-tuples, as terminal-index sequences
	Intersection         [][]int
}

// UnsupportedGrammarType is returned when the grammar declares a type this
// core was not invoked to analyze (e.g. LR fed to the LL core).
type UnsupportedGrammarType struct {
	Declared string
	Expected string
}

func (e *UnsupportedGrammarType) Error() string {
	return fmt.Sprintf("grammar declares type %q but %q analysis was requested", e.Declared, e.Expected)
}

// InternalError is returned when a fixed point fails to converge within its
// safety bound, or an attribute invariant is violated internally. It is
// never expected in ordinary operation.
type InternalError struct {
	Phase string
	Msg   string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %s", e.Phase, e.Msg)
}

// NotConverged is returned when a bounded fixed-point loop (e.g.
// left-factoring's iteration cap, distinct from the general safety-bound
// panic of §5) exhausts its guard without reaching a stable grammar.
type NotConverged struct {
	Phase string
	Iters int
}

func (e *NotConverged) Error() string {
	return fmt.Sprintf("%s did not converge after %d iterations", e.Phase, e.Iters)
}

// AttributeViolation reports a production whose attributes are
// internally inconsistent (e.g. OptionalSome without a matching
// OptionalNone), keyed by the production's canonical index.
type AttributeViolation struct {
	ProductionIndex int
	Msg             string
}

func (e *AttributeViolation) Error() string {
	return fmt.Sprintf("production %d violates attribute invariant: %s", e.ProductionIndex, e.Msg)
}
