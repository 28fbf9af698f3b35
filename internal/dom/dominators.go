// Package dom computes dominator sets, the immediate-dominator tree, and
// dominance frontiers for a function's CFG (spec.md §4.5).
package dom

import (
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/set"
)

// Info holds the dominance structures of spec.md §3: Dom (each node
// dominates itself), IDom (undefined, i.e. absent, for the entry), Tree
// (immediate children in deterministic order) and DF (dominance frontier).
type Info struct {
	Entry string
	Dom   map[string]set.Set[string]
	IDom  map[string]string // no entry for the root
	Tree  map[string][]string
	DF    map[string]set.Set[string]
}

// StrictlyDominates reports whether a is a strict dominator of b (a != b
// and a dominates b).
func (info *Info) StrictlyDominates(a, b string) bool {
	return a != b && info.Dom[b].Has(a)
}

// Compute runs the classic iterative dataflow formulation of spec.md §4.5
// over g, grounded on original_source/hw/dominance_utils.py
// (_compute_dominators, _compute_dominance_tree).
func Compute(g *cfg.Graph) *Info {
	order := g.Order()
	entry := order[0]

	all := set.New(order...)
	dom := make(map[string]set.Set[string], len(order))
	dom[entry] = set.New(entry)
	for _, v := range order[1:] {
		dom[v] = all.Clone()
	}

	for changed := true; changed; {
		changed = false
		for _, v := range order {
			if v == entry {
				continue
			}
			preds := g.Predecessors[v]
			predSets := make([]set.Set[string], 0, len(preds))
			for _, p := range preds {
				predSets = append(predSets, dom[p])
			}
			newDom := set.Intersect(predSets...) // ∅ when preds is empty (spec.md §4.5)
			newDom.Add(v)
			if !newDom.Equal(dom[v]) {
				dom[v] = newDom
				changed = true
			}
		}
	}

	idom := computeIDom(order, entry, dom)
	tree := computeTree(order, idom)
	df := computeDF(g, order, dom, idom)

	return &Info{Entry: entry, Dom: dom, IDom: idom, Tree: tree, DF: df}
}

// computeIDom picks, for each non-entry v, the unique strict dominator of v
// that does not itself strictly dominate any other strict dominator of v —
// equivalently the closest one, since v's strict dominators form a chain
// under dominance (spec.md §4.5, GLOSSARY "Dominator").
func computeIDom(order []string, entry string, dom map[string]set.Set[string]) map[string]string {
	idom := make(map[string]string, len(order))
	for _, v := range order {
		if v == entry {
			continue
		}
		strict := dom[v].Clone()
		delete(strict, v)
		for d := range strict {
			dominatesAnother := false
			for other := range strict {
				if other != d && dom[other].Has(d) {
					dominatesAnother = true
					break
				}
			}
			if !dominatesAnother {
				idom[v] = d
				break
			}
		}
	}
	return idom
}

// computeTree inverts idom into an ordered children map; children are
// appended in CFG source order for determinism.
func computeTree(order []string, idom map[string]string) map[string][]string {
	tree := make(map[string][]string, len(order))
	for _, v := range order {
		tree[v] = nil
	}
	for _, v := range order {
		if parent, ok := idom[v]; ok {
			tree[parent] = append(tree[parent], v)
		}
	}
	return tree
}

// computeDF implements the Cytron dominance-frontier construction of
// spec.md §4.5: for every edge a→b, walk a up the dominator tree while a
// does not strictly dominate b, adding b to df[a] at each step.
func computeDF(g *cfg.Graph, order []string, dom map[string]set.Set[string], idom map[string]string) map[string]set.Set[string] {
	df := make(map[string]set.Set[string], len(order))
	for _, v := range order {
		df[v] = set.New[string]()
	}

	info := &Info{Dom: dom}
	for _, a := range order {
		for _, b := range g.Successors[a] {
			runner := a
			for runner != "" && !info.StrictlyDominates(runner, b) {
				df[runner].Add(b)
				next, ok := idom[runner]
				if !ok {
					break
				}
				runner = next
			}
		}
	}
	return df
}
