package grammar

import (
	"github.com/kestrel-lang/gramble/ierr"
	"github.com/kestrel-lang/gramble/internal/container"
)

// leftRecursionGraph builds the directed graph of spec.md §4.3: an edge
// A -> B exists iff some production A -> beta B gamma has beta
// epsilon-deriving (every symbol in beta can produce epsilon).
func (g *Grammar) leftRecursionGraph() map[string]map[string]bool {
	derivesEps := g.EpsilonDerivable()
	edges := map[string]map[string]bool{}
	addEdge := func(a, b string) {
		if edges[a] == nil {
			edges[a] = map[string]bool{}
		}
		edges[a][b] = true
	}

	for _, p := range g.Productions {
		beta := []Symbol{}
		for _, s := range p.RHS {
			if s.Kind == KindNonTerminal {
				if SeqEpsilonDerivable(beta, derivesEps) {
					addEdge(p.LHS, s.NonTerminal)
				}
			}
			beta = append(beta, s)
		}
	}
	return edges
}

// CheckLeftRecursion finds every cycle in the left-recursion graph and
// returns them as ierr.LeftRecursion, or nil if the grammar has none. Each
// cycle is reported as an ordered list of non-terminal names with the first
// repeated at the end, e.g. [E, E] for direct recursion or [E, T, E] for an
// indirect cycle through T.
func (g *Grammar) CheckLeftRecursion() error {
	edges := g.leftRecursionGraph()

	var cycles [][]string
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var stack container.Stack[string]

	var visit func(nt string)
	visit = func(nt string) {
		color[nt] = gray
		stack.Push(nt)
		for _, nxt := range g.NonTerminals() {
			if !edges[nt][nxt] {
				continue
			}
			switch color[nxt] {
			case white:
				visit(nxt)
			case gray:
				// found a cycle back to nxt somewhere on the current stack
				start := -1
				for i, s := range stack.Of {
					if s == nxt {
						start = i
						break
					}
				}
				if start >= 0 {
					cycle := append([]string{}, stack.Of[start:]...)
					cycle = append(cycle, nxt)
					cycles = append(cycles, cycle)
				}
			}
		}
		stack.Pop()
		color[nt] = black
	}

	for _, nt := range g.NonTerminals() {
		if color[nt] == white {
			visit(nt)
		}
	}

	if len(cycles) > 0 {
		return &ierr.LeftRecursion{Cycles: cycles}
	}
	return nil
}
