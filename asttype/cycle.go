package asttype

import "sort"

// refEdge is one Ref occurrence inside the type graph: a directed edge from
// the owning named type to the type it references, plus a setter that
// replaces the occurrence in place (used to insert a Box wrapper when the
// edge turns out to be part of a cycle).
type refEdge struct {
	from, to string
	set      func(*TypeRef)
}

// collectEdges walks every named type's tree and records one refEdge per
// Ref occurrence found, recursing through Vec/Option wrappers (a Box
// wrapper is not recursed into: it already breaks the cycle it wraps).
func collectEdges(schema *Schema) []refEdge {
	var edges []refEdge

	walk := func(owner string, slot **TypeRef) {
		var rec func(slot **TypeRef)
		rec = func(slot **TypeRef) {
			tr := *slot
			switch tr.Kind {
			case KindRef:
				s := slot
				edges = append(edges, refEdge{from: owner, to: tr.Name, set: func(boxed *TypeRef) { *s = boxed }})
			case KindVec, KindOption:
				rec(&tr.Elem)
			}
		}
		rec(slot)
	}

	for _, name := range schema.Order {
		t := schema.Types[name]
		switch t.Kind {
		case KindStruct:
			for i := range t.Fields {
				walk(name, &t.Fields[i].Type)
			}
		case KindEnum:
			for i := range t.Variants {
				vt := t.Variants[i].Type
				for j := range vt.Fields {
					walk(name, &vt.Fields[j].Type)
				}
			}
		case KindVec, KindOption:
			walk(name, &t.Elem)
		}
	}

	return edges
}

// breakCycles wraps a feedback-edge set's targets in Box so the type graph
// becomes a representable tree with explicit indirection at cycle points
// (spec.md §4.9 "Cycle breaking", §9 "Cyclic grammar graphs vs. type
// graph"). When minimize is set, it greedily picks one edge per remaining
// cycle and re-checks, converging on a smaller feedback-edge set than
// boxing every intra-SCC edge outright (spec.md §4.9 "minimize the number
// of Box insertions by choosing a feedback edge set greedily over the
// SCC").
func breakCycles(schema *Schema, minimize bool) {
	edges := collectEdges(schema)

	if !minimize {
		sccs := tarjanSCCs(schema.Order, edges)
		for _, scc := range sccs {
			if !isCyclicSCC(scc, edges) {
				continue
			}
			inSCC := toSet(scc)
			for _, e := range edges {
				if inSCC[e.from] && inSCC[e.to] {
					box(e)
				}
			}
		}
		return
	}

	for {
		sccs := tarjanSCCs(schema.Order, edges)
		var toBreak *refEdge
		for _, scc := range sccs {
			if !isCyclicSCC(scc, edges) {
				continue
			}
			inSCC := toSet(scc)
			for i := range edges {
				if inSCC[edges[i].from] && inSCC[edges[i].to] {
					toBreak = &edges[i]
					break
				}
			}
			if toBreak != nil {
				break
			}
		}
		if toBreak == nil {
			return
		}
		box(*toBreak)
		edges = removeEdge(edges, *toBreak)
	}
}

func box(e refEdge) {
	e.set(&TypeRef{Kind: KindBox, Elem: &TypeRef{Kind: KindRef, Name: e.to}})
}

func removeEdge(edges []refEdge, target refEdge) []refEdge {
	out := make([]refEdge, 0, len(edges))
	removed := false
	for _, e := range edges {
		if !removed && e.from == target.from && e.to == target.to {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out
}

func isCyclicSCC(scc []string, edges []refEdge) bool {
	if len(scc) > 1 {
		return true
	}
	only := scc[0]
	for _, e := range edges {
		if e.from == only && e.to == only {
			return true
		}
	}
	return false
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// tarjanSCCs computes the strongly connected components of the graph
// (nodes, edges) in deterministic order: nodes are visited in the order
// given, so the same type graph always yields the same SCC list.
func tarjanSCCs(nodes []string, edges []refEdge) [][]string {
	adj := map[string][]string{}
	for _, e := range edges {
		adj[e.from] = append(adj[e.from], e.to)
	}
	for from := range adj {
		sort.Strings(adj[from])
	}

	index := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	counter := 0
	var sccs [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range nodes {
		if _, seen := index[v]; !seen {
			strongconnect(v)
		}
	}

	return sccs
}
